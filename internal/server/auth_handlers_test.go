package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipebox/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/users/register", fiber.Map{
		"username": "chef_ana",
		"email":    "Ana@Example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)

	user := body["user"].(map[string]any)
	assert.Equal(t, "chef_ana", user["username"])
	assert.Equal(t, "ana@example.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotEmpty(t, body["token"])

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.TokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, body["token"], cookie.Value)
}

func TestRegister_Rejects(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "taken")

	tests := []struct {
		name   string
		body   fiber.Map
		status int
		code   string
	}{
		{"bad username", fiber.Map{"username": "a!", "email": "x@example.com", "password": "secret123"}, fiber.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad email", fiber.Map{"username": "someone", "email": "nope", "password": "secret123"}, fiber.StatusBadRequest, "VALIDATION_ERROR"},
		{"short password", fiber.Map{"username": "someone", "email": "s@example.com", "password": "123"}, fiber.StatusBadRequest, "VALIDATION_ERROR"},
		{"username taken", fiber.Map{"username": "taken", "email": "other@example.com", "password": "secret123"}, fiber.StatusConflict, "CONFLICT"},
		{"email taken", fiber.Map{"username": "other", "email": "TAKEN@example.com", "password": "secret123"}, fiber.StatusConflict, "CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/api/users/register", tt.body, "")
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, body := env.send(t, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", body["message"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "baker")

	for _, login := range []string{"baker", "BAKER@example.com"} {
		resp, body := env.do(t, http.MethodPost, "/api/users/login", fiber.Map{
			"emailOrUsername": login,
			"password":        "secret123",
		}, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
		assert.NotEmpty(t, body["token"])
	}

	resp, body := env.do(t, http.MethodPost, "/api/users/login", fiber.Map{
		"emailOrUsername": "baker",
		"password":        "wrong-password",
	}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	resp, _ = env.do(t, http.MethodPost, "/api/users/login", fiber.Map{
		"emailOrUsername": "ghost",
		"password":        "secret123",
	}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMe_AcceptsCookieOrBearer(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.register(t, "cookie_fan")

	resp, _ := env.do(t, http.MethodGet, "/api/users/me", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(id), body["user"].(map[string]any)["id"])

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: token})
	resp, _ = env.send(t, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/users/me", nil, "not-a-jwt")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "leaver")

	resp, body := env.do(t, http.MethodPost, "/api/users/logout", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out", body["message"])

	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == middleware.TokenCookie && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared)

	resp, body = env.do(t, http.MethodGet, "/api/users/me", nil, token)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token has been revoked", body["message"])
}

func TestUpdateMe(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "renamer")
	env.register(t, "occupied")

	resp, body := env.do(t, http.MethodPut, "/api/users/me", fiber.Map{
		"username": "renamed",
		"bio":      "I cook",
	}, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	user := body["user"].(map[string]any)
	assert.Equal(t, "renamed", user["username"])
	assert.Equal(t, "I cook", user["bio"])

	resp, body = env.do(t, http.MethodPut, "/api/users/me", fiber.Map{"username": "occupied"}, token)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["code"])

	resp, _ = env.do(t, http.MethodPut, "/api/users/me", fiber.Map{
		"password":        "newsecret",
		"currentPassword": "wrong",
	}, token)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPut, "/api/users/me", fiber.Map{
		"password":        "newsecret",
		"currentPassword": "secret123",
	}, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/users/login", fiber.Map{
		"emailOrUsername": "renamed",
		"password":        "newsecret",
	}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
