package server

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"recipebox/internal/feed"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/rating"
	"recipebox/internal/service"

	"github.com/gofiber/fiber/v2"
)

// recipeRequest is the writable part of a recipe. Absent fields are nil so
// updates can tell "unchanged" from "cleared".
type recipeRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=120"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Ingredients []string `json:"ingredients" validate:"omitempty,max=100,dive,max=200"`
	Steps       []string `json:"steps" validate:"omitempty,max=100,dive,max=2000"`
	Categories  []uint   `json:"categories" validate:"omitempty,max=20"`
	IsPublic    *bool    `json:"isPublic"`
}

type rateRequest struct {
	Value int `json:"value"`
}

// ListRecipes handles GET /api/recipes
func (s *Server) ListRecipes(c *fiber.Ctx) error {
	q := feedQuery(c)
	q.CategoryIDs = feed.ParseIDList(c.Query("category"))

	if raw := strings.TrimSpace(c.Query("minRating")); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(minRating) || minRating < 0 || minRating > rating.MaxValue {
			return models.RespondWithAppError(c, models.NewFieldValidationError("Invalid minRating",
				map[string]string{"minRating": "must be a number between 0 and 5"}))
		}
		q.MinRating = &minRating
	}

	var err error
	if q.AuthorID, err = optionalIDQuery(c, "author"); err != nil {
		return models.RespondWithAppError(c, err)
	}
	if q.SavedBy, err = optionalIDQuery(c, "savedBy"); err != nil {
		return models.RespondWithAppError(c, err)
	}

	page, err := s.feedService.List(c.UserContext(), service.FeedRequest{
		Query:          q,
		AuthorUsername: strings.TrimSpace(c.Query("authorUsername")),
		FollowingOnly:  queryBool(c, "followingOnly"),
		ActorID:        middleware.CurrentUserID(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetMySavedRecipes handles GET /api/recipes/me/saved/list
func (s *Server) GetMySavedRecipes(c *fiber.Ctx) error {
	page, pageSize := pageParams(c)
	result, err := s.feedService.Saved(c.UserContext(), middleware.CurrentUserID(c), page, pageSize)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// GetRecipe handles GET /api/recipes/:id
func (s *Server) GetRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	recipe, err := s.recipeService.GetRecipe(c.UserContext(), id, middleware.CurrentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"recipe": recipe})
}

// CreateRecipe handles POST /api/recipes. Accepts JSON or a multipart form
// whose "images" files are stored before the recipe is created.
func (s *Server) CreateRecipe(c *fiber.Ctx) error {
	req, err := s.parseRecipeRequest(c)
	if err != nil {
		return nil
	}
	images, err := s.saveImages(c)
	if err != nil {
		return nil
	}

	in := service.CreateRecipeInput{
		AuthorID:    middleware.CurrentUserID(c),
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
		CategoryIDs: req.Categories,
		IsPublic:    req.IsPublic,
		Images:      images,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Description != nil {
		in.Description = *req.Description
	}

	recipe, err := s.recipeService.CreateRecipe(c.UserContext(), in)
	if err != nil {
		s.uploads.Remove(images)
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"recipe": recipe})
}

// UpdateRecipe handles PUT /api/recipes/:id. New images are appended.
func (s *Server) UpdateRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	req, err := s.parseRecipeRequest(c)
	if err != nil {
		return nil
	}
	images, err := s.saveImages(c)
	if err != nil {
		return nil
	}

	recipe, err := s.recipeService.UpdateRecipe(c.UserContext(), service.UpdateRecipeInput{
		ActorID:     middleware.CurrentUserID(c),
		RecipeID:    id,
		Title:       req.Title,
		Description: req.Description,
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
		CategoryIDs: req.Categories,
		IsPublic:    req.IsPublic,
		Images:      images,
	})
	if err != nil {
		s.uploads.Remove(images)
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"recipe": recipe})
}

// DeleteRecipe handles DELETE /api/recipes/:id
func (s *Server) DeleteRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	recipe, err := s.recipeService.DeleteRecipe(c.UserContext(), id, middleware.CurrentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	s.uploads.Remove(recipe.Images)
	return c.JSON(fiber.Map{"message": "Recipe deleted"})
}

// RateRecipe handles POST /api/recipes/:id/rate
func (s *Server) RateRecipe(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req rateRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	summary, err := s.ratingService.SubmitRating(c.UserContext(), id, middleware.CurrentUserID(c), req.Value)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(summary)
}

// ToggleSave handles POST /api/recipes/:id/save
func (s *Server) ToggleSave(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	state, err := s.socialService.ToggleSave(c.UserContext(), middleware.CurrentUserID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(state)
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// parseRecipeRequest reads a recipe from JSON or from multipart form fields.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseRecipeRequest(c *fiber.Ctx) (recipeRequest, error) {
	var req recipeRequest
	if !isMultipart(c) {
		if len(c.Body()) == 0 {
			return req, nil
		}
		return req, s.parseBody(c, &req)
	}

	form, err := c.MultipartForm()
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid multipart form"))
		return req, errResponseWritten
	}
	values := form.Value

	if v, ok := formValue(values, "title"); ok {
		req.Title = &v
	}
	if v, ok := formValue(values, "description"); ok {
		req.Description = &v
	}
	if req.Ingredients, err = formList(values, "ingredients"); err != nil {
		return req, respondFormError(c, "ingredients")
	}
	if req.Steps, err = formList(values, "steps"); err != nil {
		return req, respondFormError(c, "steps")
	}
	categories, err := formList(values, "categories")
	if err != nil {
		return req, respondFormError(c, "categories")
	}
	if categories != nil {
		req.Categories = feed.ParseIDList(strings.Join(categories, ","))
		if req.Categories == nil {
			req.Categories = []uint{}
		}
	}
	if v, ok := formValue(values, "isPublic"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return req, respondFormError(c, "isPublic")
		}
		req.IsPublic = &b
	}

	if err := s.validator.Validate(&req); err != nil {
		_ = models.RespondWithAppError(c, err)
		return req, errResponseWritten
	}
	return req, nil
}

// saveImages stores the uploaded "images" files and returns their public
// URIs. On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) saveImages(c *fiber.Ctx) ([]string, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid multipart form"))
		return nil, errResponseWritten
	}

	files, err := s.uploads.ReadMultipart(form.File["images"])
	if err == nil {
		var uris []string
		if uris, err = s.uploads.Save(files); err == nil {
			return uris, nil
		}
	}
	_ = models.RespondWithAppError(c, err)
	return nil, errResponseWritten
}

func formValue(values map[string][]string, key string) (string, bool) {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// formList reads a list field sent either as repeated keys ("steps" or
// "steps[]") or as a single JSON array. Returns nil when the field is absent.
func formList(values map[string][]string, key string) ([]string, error) {
	raw, ok := values[key]
	if !ok {
		raw, ok = values[key+"[]"]
	}
	if !ok {
		return nil, nil
	}
	if len(raw) == 1 && strings.HasPrefix(strings.TrimSpace(raw[0]), "[") {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(raw[0]), &items); err != nil {
			return nil, err
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				// numeric ids in a categories array
				s = string(item)
			}
			list = append(list, s)
		}
		return list, nil
	}
	list := make([]string, 0, len(raw))
	for _, v := range raw {
		if strings.TrimSpace(v) != "" {
			list = append(list, v)
		}
	}
	return list, nil
}

func respondFormError(c *fiber.Ctx, field string) error {
	_ = models.RespondWithAppError(c, models.NewFieldValidationError("Invalid "+field,
		map[string]string{field: "is invalid"}))
	return errResponseWritten
}
