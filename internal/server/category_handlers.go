package server

import (
	"recipebox/internal/models"
	"recipebox/internal/service"

	"github.com/gofiber/fiber/v2"
)

type categoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=60"`
	Slug string `json:"slug" validate:"required,max=60"`
}

// ListCategories handles GET /api/categories
func (s *Server) ListCategories(c *fiber.Ctx) error {
	categories, err := s.categoryService.ListCategories(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"items": categories,
		"total": len(categories),
	})
}

// CreateCategory handles POST /api/categories (admin)
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	category, err := s.categoryService.CreateCategory(c.UserContext(), service.CategoryInput{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"category": category})
}

// UpdateCategory handles PUT /api/categories/:id (admin)
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req categoryRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	category, err := s.categoryService.UpdateCategory(c.UserContext(), id, service.CategoryInput{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"category": category})
}

// DeleteCategory handles DELETE /api/categories/:id (admin)
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.categoryService.DeleteCategory(c.UserContext(), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted"})
}
