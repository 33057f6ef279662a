package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/careledger/auth-service/internal/auth/domain"
	"github.com/careledger/auth-service/internal/auth/handler"
	"github.com/careledger/auth-service/internal/auth/service"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getMe(t *testing.T, env *testEnv, mutate func(*http.Request)) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if mutate != nil {
		mutate(req)
	}

	resp, err := env.app.Test(req)
	require.NoError(t, err)

	return resp
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid cookie", func(t *testing.T) {
		env := newTestEnv(t, nil)

		token, _, err := env.tokens.Generate("user-123", "bob@x.com", domain.RoleUnassigned)
		require.NoError(t, err)

		resp := getMe(t, env, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: token})
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("valid bearer header", func(t *testing.T) {
		env := newTestEnv(t, nil)

		token, _, err := env.tokens.Generate("user-123", "bob@x.com", domain.RoleUnassigned)
		require.NoError(t, err)

		resp := getMe(t, env, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("cookie takes precedence over header", func(t *testing.T) {
		env := newTestEnv(t, nil)

		token, _, err := env.tokens.Generate("user-123", "bob@x.com", domain.RoleUnassigned)
		require.NoError(t, err)

		resp := getMe(t, env, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: token})
			req.Header.Set("Authorization", "Bearer garbage")
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t, nil)

		resp := getMe(t, env, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed token", func(t *testing.T) {
		env := newTestEnv(t, nil)

		resp := getMe(t, env, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: "garbage"})
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token with valid signature", func(t *testing.T) {
		env := newTestEnv(t, nil)

		claims := service.JWTCustomClaims{
			UserID: "user-123",
			Email:  "bob@x.com",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-16 * time.Minute)),
			},
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))
		require.NoError(t, err)

		resp := getMe(t, env, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: expired})
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token signed with a different key", func(t *testing.T) {
		env := newTestEnv(t, nil)

		forged, _, err := service.NewTokenService("other-secret", "15m").
			Generate("user-123", "bob@x.com", domain.RoleUnassigned)
		require.NoError(t, err)

		resp := getMe(t, env, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: forged})
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	token, _, err := env.tokens.Generate("user-123", "bob@x.com", domain.RoleDoctor)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: token})

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "user-123", body.ID)
	assert.Equal(t, "bob@x.com", body.Email)
	assert.Equal(t, "doctor", body.Role)
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	token, _, err := env.tokens.Generate("user-123", "bob@x.com", domain.RoleUnassigned)
	require.NoError(t, err)

	t.Run("clears the session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: token})

		resp, err := env.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var cleared *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == handler.SessionCookieName {
				cleared = c
			}
		}
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.LessOrEqual(t, cleared.MaxAge, 0)
	})

	t.Run("requires a session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)

		resp, err := env.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRequireRole(t *testing.T) {
	newRoleEnv := func(t *testing.T, allowUnassigned bool) *testEnv {
		t.Helper()
		env := newTestEnv(t, nil)
		env.app.Get("/doctor-only",
			env.handler.RequireAuth,
			env.handler.RequireRole(domain.RoleDoctor, allowUnassigned),
			func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
		)
		return env
	}

	tokenFor := func(t *testing.T, env *testEnv, role domain.Role) string {
		t.Helper()
		token, _, err := env.tokens.Generate("user-123", "bob@x.com", role)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name            string
		tokenRole       domain.Role
		allowUnassigned bool
		expected        int
	}{
		{name: "matching role", tokenRole: domain.RoleDoctor, allowUnassigned: false, expected: http.StatusOK},
		{name: "mismatched role", tokenRole: domain.RolePatient, allowUnassigned: false, expected: http.StatusForbidden},
		{name: "unassigned rejected by default", tokenRole: domain.RoleUnassigned, allowUnassigned: false, expected: http.StatusForbidden},
		{name: "unassigned allowed when stated", tokenRole: domain.RoleUnassigned, allowUnassigned: true, expected: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newRoleEnv(t, tt.allowUnassigned)

			req := httptest.NewRequest(http.MethodGet, "/doctor-only", nil)
			req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: tokenFor(t, env, tt.tokenRole)})

			resp, err := env.app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp.StatusCode)
		})
	}
}
