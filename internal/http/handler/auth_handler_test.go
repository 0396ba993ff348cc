package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dbids-ops/dbids-console/entity"
	"github.com/dbids-ops/dbids-console/internal/repository/dbids"
	"github.com/dbids-ops/dbids-console/internal/session"
	"github.com/dbids-ops/dbids-console/internal/usecase"
	"github.com/dbids-ops/dbids-console/internal/validation"
)

type memProfileRepo struct {
	profile *entity.AdminProfile
}

func (m *memProfileRepo) Save(_ context.Context, p *entity.AdminProfile) error {
	cp := *p
	m.profile = &cp
	return nil
}
func (m *memProfileRepo) Load(context.Context) (*entity.AdminProfile, error) { return m.profile, nil }
func (m *memProfileRepo) Clear(context.Context) error                        { m.profile = nil; return nil }

// authFixture wires a real client against a stub backend, the way main does.
func authFixture(t *testing.T, backend http.HandlerFunc) (*fiber.App, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	sess := session.New(&memProfileRepo{}, zap.NewNop())
	client := dbids.NewClient(srv.URL, 5*time.Second, zap.NewNop())
	client.SetRequestDecorator(sess.Decorate)
	client.SetUnauthorizedHook(func() {
		sess.ForceLogout(session.ReasonUnauthorized)
	})

	authUsecase := usecase.NewAuthUsecase(client, sess, validation.New(), zap.NewNop())

	app := fiber.New()
	NewAuthHandler(authUsecase, sess).Register(app)
	return app, sess
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestAuthHandlerLoginHappyPath(t *testing.T) {
	app, sess := authFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		w.Write([]byte(`{"adminId":"a-1","email":"admin@example.com","role":"DBA","accessToken":"tok"}`))
	})

	resp, body := postJSON(t, app, "/console/auth/login",
		`{"email":"admin@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a-1", body["adminId"])
	assert.True(t, sess.Authenticated())
}

func TestAuthHandlerLoginValidationIs422(t *testing.T) {
	backendHit := false
	app, _ := authFixture(t, func(w http.ResponseWriter, r *http.Request) {
		backendHit = true
	})

	resp, body := postJSON(t, app, "/console/auth/login",
		`{"email":"nope","password":"short"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.False(t, backendHit)

	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestAuthHandlerLoginPassesThroughBackendCodes(t *testing.T) {
	app, _ := authFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"INVALID_CREDENTIALS","message":"bad password","attemptsLeft":1}`))
	})

	resp, body := postJSON(t, app, "/console/auth/login",
		`{"email":"admin@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
	assert.Equal(t, float64(1), body["attemptsLeft"])
}

func TestAuthHandlerProfileLifecycle(t *testing.T) {
	app, sess := authFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"adminId":"a-1","email":"admin@example.com","accessToken":"tok"}`))
	})

	// Unauthenticated: 401 with a blank reason.
	req := httptest.NewRequest(http.MethodGet, "/console/auth/profile", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postJSON(t, app, "/console/auth/login",
		`{"email":"admin@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/console/auth/profile", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A forced logout surfaces its reason on the next profile check.
	sess.ForceLogout(session.ReasonUnauthorized)
	req = httptest.NewRequest(http.MethodGet, "/console/auth/profile", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), session.ReasonUnauthorized)
}

func TestAuthHandlerLogout(t *testing.T) {
	app, sess := authFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"adminId":"a-1","email":"admin@example.com"}`))
	})

	resp, _ := postJSON(t, app, "/console/auth/login",
		`{"email":"admin@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = postJSON(t, app, "/console/auth/logout", `{}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, sess.Authenticated())
}
