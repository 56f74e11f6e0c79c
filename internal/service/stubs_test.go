package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"recipebox/internal/feed"
	"recipebox/internal/models"
	"recipebox/internal/notifications"
	"recipebox/internal/repository"
	"recipebox/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn               func(context.Context, *models.User) error
	getByIDFn              func(context.Context, uint) (*models.User, error)
	getByUsernameFn        func(context.Context, string) (*models.User, error)
	getCredentialsFn       func(context.Context, uint) (*models.User, error)
	findByLoginFn          func(context.Context, string) (*models.User, error)
	findByUsernameFoldFn   func(context.Context, string) (*models.User, error)
	findByUsernamePrefixFn func(context.Context, string) (*models.User, error)
	resolveUsernameFn      func(context.Context, string) (uint, bool, error)
	existsFn               func(context.Context, uint) (bool, error)
	usernameTakenFn        func(context.Context, string, uint) (bool, error)
	emailTakenFn           func(context.Context, string, uint) (bool, error)
	updateFn               func(context.Context, *models.User) error
	setRoleFn              func(context.Context, uint, models.Role) error
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetCredentials(ctx context.Context, id uint) (*models.User, error) {
	return s.getCredentialsFn(ctx, id)
}
func (s *userRepoStub) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.findByLoginFn(ctx, login)
}
func (s *userRepoStub) FindByUsernameFold(ctx context.Context, username string) (*models.User, error) {
	return s.findByUsernameFoldFn(ctx, username)
}
func (s *userRepoStub) FindByUsernamePrefix(ctx context.Context, prefix string) (*models.User, error) {
	return s.findByUsernamePrefixFn(ctx, prefix)
}
func (s *userRepoStub) ResolveUsername(ctx context.Context, username string) (uint, bool, error) {
	return s.resolveUsernameFn(ctx, username)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) { return s.existsFn(ctx, id) }
func (s *userRepoStub) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	return s.usernameTakenFn(ctx, username, exceptID)
}
func (s *userRepoStub) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	return s.emailTakenFn(ctx, email, exceptID)
}
func (s *userRepoStub) Update(ctx context.Context, u *models.User) error { return s.updateFn(ctx, u) }
func (s *userRepoStub) SetRole(ctx context.Context, id uint, role models.Role) error {
	return s.setRoleFn(ctx, id, role)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", username)
		},
		getCredentialsFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		findByLoginFn: func(_ context.Context, login string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", login)
		},
		findByUsernameFoldFn:   func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		findByUsernamePrefixFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		resolveUsernameFn:      func(_ context.Context, _ string) (uint, bool, error) { return 0, false, nil },
		existsFn:               func(_ context.Context, _ uint) (bool, error) { return true, nil },
		usernameTakenFn:        func(_ context.Context, _ string, _ uint) (bool, error) { return false, nil },
		emailTakenFn:           func(_ context.Context, _ string, _ uint) (bool, error) { return false, nil },
		updateFn:               func(_ context.Context, _ *models.User) error { return nil },
		setRoleFn:              func(_ context.Context, _ uint, _ models.Role) error { return nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	followFn       func(context.Context, uint, uint) (bool, error)
	unfollowFn     func(context.Context, uint, uint) (bool, error)
	isFollowingFn  func(context.Context, uint, uint) (bool, error)
	followingIDsFn func(context.Context, uint) ([]uint, error)
	countsFn       func(context.Context, uint) (int64, int64, error)
}

func (s *followRepoStub) Follow(ctx context.Context, a, b uint) (bool, error) {
	return s.followFn(ctx, a, b)
}
func (s *followRepoStub) Unfollow(ctx context.Context, a, b uint) (bool, error) {
	return s.unfollowFn(ctx, a, b)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, a, b uint) (bool, error) {
	return s.isFollowingFn(ctx, a, b)
}
func (s *followRepoStub) FollowingIDs(ctx context.Context, id uint) ([]uint, error) {
	return s.followingIDsFn(ctx, id)
}
func (s *followRepoStub) Counts(ctx context.Context, id uint) (int64, int64, error) {
	return s.countsFn(ctx, id)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		followFn:       func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unfollowFn:     func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		isFollowingFn:  func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		followingIDsFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		countsFn:       func(_ context.Context, _ uint) (int64, int64, error) { return 0, 0, nil },
	}
}

// saveRepoStub is a stub for repository.SaveRepository.
type saveRepoStub struct {
	toggleFn  func(context.Context, uint, uint) (bool, int64, error)
	isSavedFn func(context.Context, uint, uint) (bool, error)
}

func (s *saveRepoStub) Toggle(ctx context.Context, userID, recipeID uint) (bool, int64, error) {
	return s.toggleFn(ctx, userID, recipeID)
}
func (s *saveRepoStub) IsSaved(ctx context.Context, userID, recipeID uint) (bool, error) {
	return s.isSavedFn(ctx, userID, recipeID)
}

// ratingRepoStub is a stub for repository.RatingRepository.
type ratingRepoStub struct {
	submitFn func(context.Context, uint, uint, int) (repository.RatingResult, error)
	getFn    func(context.Context, uint, uint) (int, bool, error)
}

func (s *ratingRepoStub) Submit(ctx context.Context, recipeID, userID uint, value int) (repository.RatingResult, error) {
	return s.submitFn(ctx, recipeID, userID, value)
}
func (s *ratingRepoStub) Get(ctx context.Context, recipeID, userID uint) (int, bool, error) {
	return s.getFn(ctx, recipeID, userID)
}

// recipeRepoStub is a stub for repository.RecipeRepository.
type recipeRepoStub struct {
	createFn          func(context.Context, *models.Recipe) error
	getByIDFn         func(context.Context, uint) (*models.Recipe, error)
	updateFn          func(context.Context, *models.Recipe, []models.Category) error
	deleteFn          func(context.Context, uint) error
	listFn            func(context.Context, feed.Query) ([]*models.Recipe, int64, error)
	getPublicByIDsFn  func(context.Context, []uint) ([]*models.Recipe, error)
	listPublicAfterFn func(context.Context, uint, int) ([]*models.Recipe, error)
}

func (s *recipeRepoStub) Create(ctx context.Context, r *models.Recipe) error {
	return s.createFn(ctx, r)
}
func (s *recipeRepoStub) GetByID(ctx context.Context, id uint) (*models.Recipe, error) {
	return s.getByIDFn(ctx, id)
}
func (s *recipeRepoStub) Update(ctx context.Context, r *models.Recipe, c []models.Category) error {
	return s.updateFn(ctx, r, c)
}
func (s *recipeRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *recipeRepoStub) List(ctx context.Context, q feed.Query) ([]*models.Recipe, int64, error) {
	return s.listFn(ctx, q)
}
func (s *recipeRepoStub) GetPublicByIDs(ctx context.Context, ids []uint) ([]*models.Recipe, error) {
	return s.getPublicByIDsFn(ctx, ids)
}
func (s *recipeRepoStub) ListPublicAfter(ctx context.Context, afterID uint, limit int) ([]*models.Recipe, error) {
	return s.listPublicAfterFn(ctx, afterID, limit)
}

func noopRecipeRepo() *recipeRepoStub {
	return &recipeRepoStub{
		createFn: func(_ context.Context, _ *models.Recipe) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Recipe, error) {
			return &models.Recipe{ID: id, AuthorID: 1, IsPublic: true}, nil
		},
		updateFn: func(_ context.Context, _ *models.Recipe, _ []models.Category) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
		listFn: func(_ context.Context, _ feed.Query) ([]*models.Recipe, int64, error) {
			return nil, 0, nil
		},
		getPublicByIDsFn:  func(_ context.Context, _ []uint) ([]*models.Recipe, error) { return nil, nil },
		listPublicAfterFn: func(_ context.Context, _ uint, _ int) ([]*models.Recipe, error) { return nil, nil },
	}
}

// categoryRepoStub is a stub for repository.CategoryRepository.
type categoryRepoStub struct {
	listFn      func(context.Context) ([]models.Category, error)
	getByIDFn   func(context.Context, uint) (*models.Category, error)
	findByIDsFn func(context.Context, []uint) ([]models.Category, error)
	createFn    func(context.Context, *models.Category) error
	updateFn    func(context.Context, *models.Category) error
	deleteFn    func(context.Context, uint) error
}

func (s *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) { return s.listFn(ctx) }
func (s *categoryRepoStub) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	return s.getByIDFn(ctx, id)
}
func (s *categoryRepoStub) FindByIDs(ctx context.Context, ids []uint) ([]models.Category, error) {
	return s.findByIDsFn(ctx, ids)
}
func (s *categoryRepoStub) Create(ctx context.Context, c *models.Category) error {
	return s.createFn(ctx, c)
}
func (s *categoryRepoStub) Update(ctx context.Context, c *models.Category) error {
	return s.updateFn(ctx, c)
}
func (s *categoryRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		listFn: func(_ context.Context) ([]models.Category, error) { return []models.Category{}, nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Category, error) {
			return &models.Category{ID: id}, nil
		},
		findByIDsFn: func(_ context.Context, ids []uint) ([]models.Category, error) {
			out := make([]models.Category, 0, len(ids))
			for _, id := range ids {
				out = append(out, models.Category{ID: id})
			}
			return out, nil
		},
		createFn: func(_ context.Context, _ *models.Category) error { return nil },
		updateFn: func(_ context.Context, _ *models.Category) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listTopLevelFn func(context.Context, uint, int, int) ([]*models.Comment, int64, error)
	deleteFn       func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListTopLevel(ctx context.Context, recipeID uint, limit, offset int) ([]*models.Comment, int64, error) {
	return s.listTopLevelFn(ctx, recipeID, limit, offset)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id}, nil
		},
		listTopLevelFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Comment, int64, error) {
			return nil, 0, nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// notificationRepoStub is a stub for repository.NotificationRepository.
type notificationRepoStub struct {
	createFn      func(context.Context, *models.Notification) error
	listForUserFn func(context.Context, uint, int, int) ([]*models.Notification, int64, error)
	markReadFn    func(context.Context, uint, uint) (*models.Notification, error)
	markAllReadFn func(context.Context, uint) (int64, error)
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}
func (s *notificationRepoStub) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, int64, error) {
	return s.listForUserFn(ctx, userID, limit, offset)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, id, userID uint) (*models.Notification, error) {
	return s.markReadFn(ctx, id, userID)
}
func (s *notificationRepoStub) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.markAllReadFn(ctx, userID)
}

// emitterSpy records emitted events.
type emitterSpy struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (e *emitterSpy) Emit(_ context.Context, ev notifications.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *emitterSpy) Events() []notifications.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]notifications.Event(nil), e.events...)
}

// indexerStub records index maintenance calls.
type indexerStub struct {
	indexed []uint
	deleted []uint
	err     error
}

func (s *indexerStub) IndexDocument(doc *search.Document) error {
	if s.err != nil {
		return s.err
	}
	s.indexed = append(s.indexed, doc.ID)
	return nil
}

func (s *indexerStub) DeleteDocument(id uint) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

var errStore = errors.New("store unavailable")

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}
