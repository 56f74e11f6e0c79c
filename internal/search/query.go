package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Hit is one matching recipe.
type Hit struct {
	ID    uint
	Score float64
}

// Result is one page of hits, best first.
type Result struct {
	Total uint64
	Hits  []Hit
}

// Search runs a full-text query over title, description and ingredients.
// Hits are ordered by score, then newest first.
func (s *Index) Search(ctx context.Context, q string, offset, limit int) (*Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return &Result{Hits: []Hit{}}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(q), limit, offset, false)
	req.SortBy([]string{"-_score", "-created_at"})

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{Total: res.Total, Hits: make([]Hit, 0, len(res.Hits))}
	for _, hit := range res.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		out.Hits = append(out.Hits, Hit{ID: uint(id), Score: hit.Score})
	}
	return out, nil
}

func buildSearchQuery(q string) query.Query {
	titleMatch := bleve.NewMatchQuery(q)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	ingredientsMatch := bleve.NewMatchQuery(q)
	ingredientsMatch.SetField("ingredients")
	ingredientsMatch.SetBoost(1.5)

	descMatch := bleve.NewMatchQuery(q)
	descMatch.SetField("description")

	textQueries := []query.Query{titleMatch, ingredientsMatch, descMatch}

	// typo tolerance on single-word titles
	if !strings.ContainsRune(q, ' ') && len(q) >= 4 {
		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)
		textQueries = append(textQueries, fuzzy)
	}

	return bleve.NewDisjunctionQuery(textQueries...)
}
