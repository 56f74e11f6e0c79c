package server

import (
	"log/slog"
	"time"

	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username string `json:"username" form:"username" validate:"required,username"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" form:"emailOrUsername" validate:"required"`
	Password        string `json:"password" form:"password" validate:"required"`
}

// Register handles POST /api/users/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	token, err := s.issueSession(c, user.ID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// Login handles POST /api/users/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.EmailOrUsername, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	token, err := s.issueSession(c, user.ID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// Logout handles POST /api/users/logout. The presented token, if any, is
// revoked until it would have expired.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims := middleware.CurrentClaims(c); claims != nil {
		if err := s.tokens.Revoke(c.UserContext(), claims); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "Failed to revoke token",
				slog.String("error", err.Error()))
		}
	}
	s.setTokenCookie(c, "", time.Unix(0, 0))
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (s *Server) issueSession(c *fiber.Ctx, userID uint) (string, error) {
	token, claims, err := s.tokens.Issue(userID)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	s.setTokenCookie(c, token, claims.ExpiresAt.Time)
	return token, nil
}

func (s *Server) setTokenCookie(c *fiber.Ctx, value string, expires time.Time) {
	secure := s.config.IsProduction()
	sameSite := fiber.CookieSameSiteLaxMode
	if secure {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}
