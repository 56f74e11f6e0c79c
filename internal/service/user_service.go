package service

import (
	"context"
	"errors"
	"strings"

	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost     = 10
	minPasswordLen = 6
	maxBioLen      = 280
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput carries a partial profile update; nil fields are kept.
// Changing the password requires CurrentPassword.
type UpdateProfileInput struct {
	UserID          uint
	Username        *string
	Email           *string
	Bio             *string
	AvatarURL       *string
	Password        *string
	CurrentPassword string
}

// UserService owns accounts and credentials.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if !validation.IsUsername(username) {
		return nil, models.NewValidationError("Username must be 3-20 letters, digits or underscores")
	}
	if email == "" {
		return nil, models.NewValidationError("Email is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, models.NewValidationError("Password must be at least 6 characters")
	}
	if err := s.ensureAvailable(ctx, username, email, 0); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, user.ID)
}

// Authenticate checks credentials given an email or a username.
func (s *UserService) Authenticate(ctx context.Context, emailOrUsername, password string) (*models.User, error) {
	login := strings.TrimSpace(emailOrUsername)
	if login == "" || password == "" {
		return nil, models.NewValidationError("Email or username and password are required")
	}

	user, err := s.userRepo.FindByLogin(ctx, login)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return s.userRepo.GetByID(ctx, user.ID)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// IsAdmin reports whether userID holds the admin role. The role is read from
// the uncached row so a demotion applies on the next request.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetCredentials(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetCredentials(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if !validation.IsUsername(username) {
			return nil, models.NewValidationError("Username must be 3-20 letters, digits or underscores")
		}
		if taken, err := s.userRepo.UsernameTaken(ctx, username, user.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, models.NewConflictError("Username already in use")
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, models.NewValidationError("Email is required")
		}
		if taken, err := s.userRepo.EmailTaken(ctx, email, user.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, models.NewConflictError("Email already in use")
		}
		user.Email = email
	}
	if in.Bio != nil {
		if len(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 280 characters)")
		}
		user.Bio = *in.Bio
	}
	if in.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*in.AvatarURL)
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLen {
			return nil, models.NewValidationError("Password must be at least 6 characters")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)) != nil {
			return nil, models.NewValidationError("Current password is incorrect")
		}
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, user.ID)
}

// EnsureAdmin creates an admin account for email unless one already exists.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, bool, error) {
	existing, err := s.userRepo.FindByLogin(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !models.HasCode(err, models.CodeNotFound) {
		return nil, false, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, false, err
	}
	user := &models.User{
		Username: username,
		Email:    strings.ToLower(email),
		Password: hash,
		Role:     models.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserService) ensureAvailable(ctx context.Context, username, email string, exceptID uint) error {
	taken, err := s.userRepo.UsernameTaken(ctx, username, exceptID)
	if err != nil {
		return err
	}
	if !taken {
		taken, err = s.userRepo.EmailTaken(ctx, email, exceptID)
		if err != nil {
			return err
		}
	}
	if taken {
		return models.NewConflictError("Username or email already registered")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", models.NewValidationError("Password too long")
		}
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}
