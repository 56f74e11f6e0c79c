package service

import (
	"context"
	"log/slog"
	"strings"

	"recipebox/internal/feed"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/observability"
	"recipebox/internal/repository"
	"recipebox/internal/search"

	"go.opentelemetry.io/otel/attribute"
)

// Match types reported by Search.
const (
	MatchExactUser = "exactUser"
	MatchMixed     = "mixed"
)

const rebuildBatchSize = 500

// SearchIndex is the full-text recipe index.
type SearchIndex interface {
	Search(ctx context.Context, q string, offset, limit int) (*search.Result, error)
	DocumentCount() (uint64, error)
	IndexDocuments(docs []*search.Document) error
}

// SearchResult combines the best username match with a page of recipe hits.
type SearchResult struct {
	Q         string           `json:"q"`
	User      *PublicUser      `json:"user"`
	Recipes   []*models.Recipe `json:"recipes"`
	Total     int64            `json:"total"`
	Page      int              `json:"page"`
	Pages     int              `json:"pages"`
	MatchType string           `json:"matchType"`
}

// SearchService answers the unified search box.
type SearchService struct {
	userRepo   repository.UserRepository
	recipeRepo repository.RecipeRepository
	index      SearchIndex
}

// NewSearchService returns a SearchService. With a nil index only usernames are matched.
func NewSearchService(userRepo repository.UserRepository, recipeRepo repository.RecipeRepository, index SearchIndex) *SearchService {
	return &SearchService{
		userRepo:   userRepo,
		recipeRepo: recipeRepo,
		index:      index,
	}
}

// Search matches q against usernames (exact, else prefix) and against the
// text of public recipes, best hit first.
func (s *SearchService) Search(ctx context.Context, q string, page, pageSize int) (result *SearchResult, err error) {
	q = strings.TrimSpace(q)
	query := feed.Query{Page: page, PageSize: pageSize}.Normalize()

	ctx, span := observability.StartSpan(ctx, "search.unified",
		attribute.Int("search.page", query.Page),
	)
	defer func() { observability.EndSpan(span, err) }()

	result = &SearchResult{
		Q:         q,
		Recipes:   []*models.Recipe{},
		Page:      query.Page,
		MatchType: MatchMixed,
	}
	if q == "" {
		return result, nil
	}

	user, err := s.userRepo.FindByUsernameFold(ctx, q)
	if err != nil {
		return nil, err
	}
	if user != nil {
		result.MatchType = MatchExactUser
	} else if user, err = s.userRepo.FindByUsernamePrefix(ctx, q); err != nil {
		return nil, err
	}
	result.User = toPublicUser(user)
	if s.index == nil {
		return result, nil
	}

	hits, err := s.index.Search(ctx, q, query.Offset(), query.PageSize)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	result.Total = int64(hits.Total)
	result.Pages = feed.Pages(result.Total, query.PageSize)
	if len(hits.Hits) == 0 {
		return result, nil
	}

	scores := make(map[uint]float64, len(hits.Hits))
	ids := make([]uint, 0, len(hits.Hits))
	for _, h := range hits.Hits {
		scores[h.ID] = h.Score
		ids = append(ids, h.ID)
	}

	recipes, err := s.recipeRepo.GetPublicByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	feed.SortStable(feed.SortRelevance, recipes, func(r *models.Recipe) feed.Entry {
		return feed.Entry{ID: r.ID, CreatedAt: r.CreatedAt, Score: scores[r.ID]}
	})
	result.Recipes = recipes
	return result, nil
}

// RebuildIndex fills an empty index from the store. A non-empty index is
// left alone. It returns the number of recipes indexed.
func (s *SearchService) RebuildIndex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	count, err := s.index.DocumentCount()
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	var afterID uint
	indexed := 0
	for {
		batch, err := s.recipeRepo.ListPublicAfter(ctx, afterID, rebuildBatchSize)
		if err != nil {
			return indexed, err
		}
		if len(batch) == 0 {
			break
		}

		docs := make([]*search.Document, 0, len(batch))
		for _, r := range batch {
			docs = append(docs, search.DocumentFromRecipe(r))
		}
		if err := s.index.IndexDocuments(docs); err != nil {
			observability.SearchIndexErrors.WithLabelValues("rebuild").Inc()
			return indexed, err
		}
		indexed += len(batch)
		afterID = batch[len(batch)-1].ID

		if len(batch) < rebuildBatchSize {
			break
		}
	}

	middleware.Logger.InfoContext(ctx, "Search index rebuilt", slog.Int("recipes", indexed))
	return indexed, nil
}
