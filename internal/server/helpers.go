package server

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"recipebox/internal/feed"
	"recipebox/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "recipeId" -> "recipe ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// parseBody decodes the request body into dst and runs struct validation.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	if err := s.validator.Validate(dst); err != nil {
		_ = models.RespondWithAppError(c, err)
		return errResponseWritten
	}
	return nil
}

// pageParams reads page and pageSize, accepting limit as an alias for
// pageSize. Missing or malformed values are left at zero so callers apply
// their own defaults; out-of-range numbers pass through to be clamped.
func pageParams(c *fiber.Ctx) (page, pageSize int) {
	page = queryInt(c, "page")
	pageSize = queryInt(c, "pageSize")
	if pageSize == 0 {
		pageSize = queryInt(c, "limit")
	}
	return page, pageSize
}

func queryInt(c *fiber.Ctx, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return n
}

// feedQuery reads the pagination and sort parameters shared by every recipe
// listing.
func feedQuery(c *fiber.Ctx) feed.Query {
	page, pageSize := pageParams(c)
	return feed.Query{
		Sort:     feed.Sort(c.Query("sort")),
		Page:     page,
		PageSize: pageSize,
	}
}

// optionalIDQuery parses an optional positive id query parameter. Present but
// malformed values are a validation error.
func optionalIDQuery(c *fiber.Ctx, key string) (uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewFieldValidationError("Invalid "+key, map[string]string{key: "must be a positive id"})
	}
	return uint(id), nil
}

func queryBool(c *fiber.Ctx, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// upgradeRequired rejects plain HTTP requests on websocket routes.
func (s *Server) upgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
