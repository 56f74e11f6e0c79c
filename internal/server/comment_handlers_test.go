package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	authorToken, _ := env.register(t, "author")
	guestToken, guestID := env.register(t, "guest")
	otherToken, _ := env.register(t, "other")
	adminToken, adminID := env.register(t, "moderator")
	env.makeAdmin(t, adminID)
	recipeID := env.createRecipe(t, authorToken, fiber.Map{"title": "Commented"})

	resp, body := env.do(t, http.MethodPost, urlf("/api/recipes/%d/comments", recipeID),
		fiber.Map{"text": strings.Repeat("a", 101)}, guestToken)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	resp, body = env.do(t, http.MethodPost, urlf("/api/recipes/%d/comments", recipeID),
		fiber.Map{"text": "  Lovely  "}, guestToken)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	comment := body["comment"].(map[string]any)
	assert.Equal(t, "Lovely", comment["text"])
	first := uint(comment["id"].(float64))

	resp, body = env.do(t, http.MethodPost, urlf("/api/recipes/%d/comments", recipeID),
		fiber.Map{"text": "Agreed", "parentId": first}, otherToken)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)

	env.do(t, http.MethodPost, urlf("/api/recipes/%d/comments", recipeID), fiber.Map{"text": "Second"}, otherToken)

	resp, body = env.do(t, http.MethodGet, urlf("/api/recipes/%d/comments?limit=1", recipeID), nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(2), body["pages"])
	list := items(t, body, "items")
	require.Len(t, list, 1)
	assert.Equal(t, "Lovely", list[0].(map[string]any)["text"])

	// the author is notified about every comment from someone else
	_, body = env.do(t, http.MethodGet, "/api/notifications", nil, authorToken)
	assert.Equal(t, float64(3), body["total"])
	data := items(t, body, "items")[0].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, float64(guestID), data["fromUserId"])
	assert.Equal(t, float64(recipeID), data["recipeId"])

	resp, _ = env.do(t, http.MethodDelete, urlf("/api/comments/%d", first), nil, otherToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, urlf("/api/comments/%d", first), nil, guestToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, body = env.do(t, http.MethodGet, urlf("/api/recipes/%d/comments", recipeID), nil, "")
	second := uint(items(t, body, "items")[0].(map[string]any)["id"].(float64))
	resp, _ = env.do(t, http.MethodDelete, urlf("/api/comments/%d", second), nil, adminToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, urlf("/api/comments/%d", second), nil, adminToken)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestComments_PrivateRecipe(t *testing.T) {
	env := newTestEnv(t)
	authorToken, _ := env.register(t, "author")
	guestToken, _ := env.register(t, "guest")
	recipeID := env.createRecipe(t, authorToken, fiber.Map{"title": "Private", "isPublic": false})

	resp, _ := env.do(t, http.MethodGet, urlf("/api/recipes/%d/comments", recipeID), nil, guestToken)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, urlf("/api/recipes/%d/comments", recipeID), fiber.Map{"text": "hi"}, guestToken)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, urlf("/api/recipes/%d/comments", recipeID), nil, authorToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
