package server

import (
	"recipebox/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Search handles GET /api/search?q=
func (s *Server) Search(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)
	result, err := s.searchService.Search(c.UserContext(), c.Query("q"), page, pageSize)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}
