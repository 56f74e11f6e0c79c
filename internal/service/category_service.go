package service

import (
	"context"
	"strings"

	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/validation"
)

type CategoryInput struct {
	Name string
	Slug string
}

// CategoryService manages the category catalogue. Callers enforce the admin role.
type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name, slug, err := normalizeCategory(in)
	if err != nil {
		return nil, err
	}
	category := &models.Category{Name: name, Slug: slug}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	name, slug, err := normalizeCategory(in)
	if err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Update(ctx, &models.Category{ID: id, Name: name, Slug: slug}); err != nil {
		return nil, err
	}
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	return s.categoryRepo.Delete(ctx, id)
}

func normalizeCategory(in CategoryInput) (string, string, error) {
	name := strings.TrimSpace(in.Name)
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if len(name) < 2 {
		return "", "", models.NewValidationError("Name must be at least 2 characters")
	}
	if !validation.IsSlug(slug) {
		return "", "", models.NewValidationError("Slug may only contain lowercase letters, digits and hyphens")
	}
	return name, slug, nil
}
