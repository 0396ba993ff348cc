// Package session owns the one piece of process-wide mutable state the
// console has: the persisted admin profile. Reads happen on every outbound
// request through Decorate; writes happen on login, logout and the
// 401-triggered forced logout. Logout is idempotent from both paths.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/dbids-ops/dbids-console/entity"
	"github.com/dbids-ops/dbids-console/internal/repository/sqlite"
)

// ReasonUnauthorized marks a forced logout caused by a backend 401. The
// browser shell uses it to show the login view with an explanation.
const ReasonUnauthorized = "unauthorized"

type Session struct {
	mu      sync.RWMutex
	profile *entity.AdminProfile
	reason  string

	repo sqlite.ProfileRepository
	log  *zap.Logger
}

func New(repo sqlite.ProfileRepository, log *zap.Logger) *Session {
	return &Session{
		repo: repo,
		log:  log.Named("session"),
	}
}

// Init loads the persisted profile. A profile whose access token already
// expired is discarded up front instead of waiting for the first 401.
func (s *Session) Init(ctx context.Context) error {
	profile, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if profile != nil && tokenExpired(profile.AccessToken) {
		s.log.Info("stored session expired, discarding", zap.String("email", profile.Email))
		if err := s.repo.Clear(ctx); err != nil {
			return err
		}
		profile = nil
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
	return nil
}

// Login stores the profile durably and in memory.
func (s *Session) Login(ctx context.Context, profile *entity.AdminProfile) error {
	if err := s.repo.Save(ctx, profile); err != nil {
		return err
	}

	s.mu.Lock()
	p := *profile
	s.profile = &p
	s.reason = ""
	s.mu.Unlock()
	return nil
}

// Logout clears the session. Calling it with no active session is a no-op.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = nil
	s.reason = ""
	s.mu.Unlock()
	return nil
}

// ForceLogout is the 401 path: clear everything and remember why. Storage
// errors are logged rather than returned because the caller is usually deep
// inside an unrelated request.
func (s *Session) ForceLogout(reason string) {
	if err := s.repo.Clear(context.Background()); err != nil {
		s.log.Warn("clearing stored profile failed", zap.Error(err))
	}

	s.mu.Lock()
	s.profile = nil
	s.reason = reason
	s.mu.Unlock()
}

// Authenticated reports whether a usable profile is loaded.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile != nil && s.profile.AdminID != ""
}

// Profile returns a copy of the current profile, or nil.
func (s *Session) Profile() *entity.AdminProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Reason returns the marker left by the last forced logout, if any.
func (s *Session) Reason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Decorate attaches Authorization and X-Admin-Email to an outbound request
// when a profile is present. This is the explicit replacement for the
// implicit interceptor the browser client used.
func (s *Session) Decorate(req *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return
	}
	if s.profile.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.profile.AccessToken)
	}
	if s.profile.Email != "" {
		req.Header.Set("X-Admin-Email", s.profile.Email)
	}
}

// tokenExpired peeks at a JWT's exp claim without verifying the signature.
// Opaque (non-JWT) tokens are assumed live; the backend stays the authority.
func tokenExpired(token string) bool {
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
