package server

import (
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateMeRequest struct {
	Username        *string `json:"username" validate:"omitempty,username"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Bio             *string `json:"bio" validate:"omitempty,max=280"`
	AvatarURL       *string `json:"avatarUrl" validate:"omitempty,max=2048"`
	Password        *string `json:"password" validate:"omitempty,min=6,max=72"`
	CurrentPassword string  `json:"currentPassword"`
}

// GetMe handles GET /api/users/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateMe handles PUT /api/users/me
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req updateMeRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:          middleware.CurrentUserID(c),
		Username:        req.Username,
		Email:           req.Email,
		Bio:             req.Bio,
		AvatarURL:       req.AvatarURL,
		Password:        req.Password,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// FollowUser handles POST /api/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	state, err := s.socialService.Follow(c.UserContext(), middleware.CurrentUserID(c), targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(state)
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	state, err := s.socialService.Unfollow(c.UserContext(), middleware.CurrentUserID(c), targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(state)
}

// GetPublicProfile handles GET /api/users/:username
func (s *Server) GetPublicProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(c.UserContext(),
		c.Params("username"), middleware.CurrentUserID(c), feedQuery(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}
