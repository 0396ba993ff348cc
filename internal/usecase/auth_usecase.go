package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dbids-ops/dbids-console/entity"
	"github.com/dbids-ops/dbids-console/internal/session"
	"github.com/dbids-ops/dbids-console/internal/validation"
)

// AuthAPI is what the auth flow needs from the backend client.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*entity.AdminProfile, error)
	Register(ctx context.Context, input entity.RegisterInput) error
}

type AuthUsecase struct {
	api      AuthAPI
	session  *session.Session
	validate *validation.Validator
	log      *zap.Logger
}

func NewAuthUsecase(api AuthAPI, sess *session.Session, validate *validation.Validator, log *zap.Logger) *AuthUsecase {
	return &AuthUsecase{
		api:      api,
		session:  sess,
		validate: validate,
		log:      log.Named("auth"),
	}
}

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=64"`
}

// Login validates credentials locally, exchanges them with the backend and
// stores the resulting profile in the durable session. Validation failures
// return before any request is sent.
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (*entity.AdminProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if errs := u.validate.Struct(loginInput{Email: email, Password: password}); errs != nil {
		return nil, errs
	}

	profile, err := u.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := u.session.Login(ctx, profile); err != nil {
		return nil, err
	}
	u.log.Info("admin logged in", zap.String("email", profile.Email))
	return profile, nil
}

// Register validates the input locally and creates the account.
func (u *AuthUsecase) Register(ctx context.Context, input entity.RegisterInput) error {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if errs := u.validate.Struct(input); errs != nil {
		return errs
	}
	return u.api.Register(ctx, input)
}

// Logout clears the session. Idempotent: logging out twice, or after a
// 401-triggered forced logout, is harmless.
func (u *AuthUsecase) Logout(ctx context.Context) error {
	return u.session.Logout(ctx)
}
