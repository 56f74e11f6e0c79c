package server

import (
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCommentRequest struct {
	Text     string `json:"text" validate:"required"`
	ParentID *uint  `json:"parentId" validate:"omitempty,gt=0"`
}

// GetComments handles GET /api/recipes/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	recipeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page, limit := pageParams(c)
	comments, err := s.commentService.ListComments(c.UserContext(), recipeID, middleware.CurrentUserID(c), page, limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/recipes/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	recipeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req createCommentRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   middleware.CurrentUserID(c),
		RecipeID: recipeID,
		ParentID: req.ParentID,
		Text:     req.Text,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comment": comment})
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    middleware.CurrentUserID(c),
		CommentID: commentID,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
