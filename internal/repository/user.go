package repository

import (
	"context"
	"errors"
	"strings"

	"recipebox/internal/cache"
	"recipebox/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetCredentials returns the user including the password hash. Never cached.
	GetCredentials(ctx context.Context, id uint) (*models.User, error)
	// FindByLogin looks a user up by lowercase email or exact username,
	// including the password hash.
	FindByLogin(ctx context.Context, emailOrUsername string) (*models.User, error)
	// FindByUsernameFold returns the user whose username equals username
	// case-insensitively, or nil.
	FindByUsernameFold(ctx context.Context, username string) (*models.User, error)
	// FindByUsernamePrefix returns the alphabetically first user whose
	// username starts with prefix case-insensitively, or nil.
	FindByUsernamePrefix(ctx context.Context, prefix string) (*models.User, error)
	ResolveUsername(ctx context.Context, username string) (uint, bool, error)
	Exists(ctx context.Context, id uint) (bool, error)
	UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
	Update(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, id uint, role models.Role) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// applyUserCounts adds the follow-graph counts as subqueries.
func applyUserCounts(db *gorm.DB) *gorm.DB {
	return db.Select("users.*, " +
		"(SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id) AS followers_count, " +
		"(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) AS following_count")
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err, "User", user.Username)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		err := applyUserCounts(r.db.WithContext(ctx)).First(&user, id).Error
		return translateError(err, "User", id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := applyUserCounts(r.db.WithContext(ctx)).
		Where("users.username = ?", username).
		First(&user).Error; err != nil {
		return nil, translateError(err, "User", username)
	}
	return &user, nil
}

func (r *userRepository) GetCredentials(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) FindByLogin(ctx context.Context, emailOrUsername string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", strings.ToLower(emailOrUsername), emailOrUsername).
		First(&user).Error
	if err != nil {
		return nil, translateError(err, "User", emailOrUsername)
	}
	return &user, nil
}

func (r *userRepository) FindByUsernameFold(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(users.username) = ?", strings.ToLower(username))
}

func (r *userRepository) FindByUsernamePrefix(ctx context.Context, prefix string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(users.username) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := applyUserCounts(r.db.WithContext(ctx)).
		Where(query, args...).
		Order("users.username ASC").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) ResolveUsername(ctx context.Context, username string) (uint, bool, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return 0, false, models.NewInternalError(err)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	return r.taken(ctx, "username = ?", username, exceptID)
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	return r.taken(ctx, "email = ?", strings.ToLower(email), exceptID)
}

func (r *userRepository) taken(ctx context.Context, query, value string, exceptID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where(query, value).
		Where("id <> ?", exceptID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(&models.User{ID: user.ID}).
		Select("username", "email", "password", "bio", "avatar_url").
		Updates(user).Error
	if err != nil {
		return translateError(err, "User", user.ID)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
