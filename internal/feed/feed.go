// Package feed describes recipe listings: which recipes qualify, how they are
// ranked, and how the ranked set is cut into pages.
package feed

import (
	"strconv"
	"strings"
)

// Pagination defaults and bounds.
const (
	DefaultPage     = 1
	DefaultPageSize = 12
	MaxPageSize     = 50
)

// Filter holds the independently combinable listing axes. All set axes are
// AND-ed; only public recipes are ever listed.
type Filter struct {
	// MinRating keeps recipes whose average is at least this value.
	MinRating *float64
	// CategoryIDs keeps recipes attached to any of these categories.
	CategoryIDs []uint
	// SavedBy keeps recipes saved by this user.
	SavedBy uint
	// AuthorID keeps recipes by this author.
	AuthorID uint
	// AuthorIDs, when non-nil, keeps recipes whose author is in the set.
	// An empty non-nil set matches nothing.
	AuthorIDs []uint
}

// Query is a complete listing request.
type Query struct {
	Filter
	Sort     Sort
	Page     int
	PageSize int
}

// Normalize clamps pagination into range and resolves the sort.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	switch {
	case q.PageSize == 0:
		q.PageSize = DefaultPageSize
	case q.PageSize < 1:
		q.PageSize = 1
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}
	q.Sort = ParseSort(string(q.Sort))
	return q
}

// Offset is the number of ranked rows skipped before this page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// MatchesNothing reports whether the filter is known to be empty without
// consulting the store.
func (f Filter) MatchesNothing() bool {
	return f.AuthorIDs != nil && len(f.AuthorIDs) == 0
}

// Page is one slice of a ranked listing.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// NewPage builds a page for q out of items and the unpaginated total.
func NewPage[T any](items []T, total int64, q Query) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Total: total,
		Page:  q.Page,
		Pages: Pages(total, q.PageSize),
	}
}

// EmptyPage is the result of a query that cannot match anything.
func EmptyPage[T any](q Query) Page[T] {
	return NewPage[T](nil, 0, q)
}

// Pages returns ceil(total / pageSize).
func Pages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	return int((total + size - 1) / size)
}

// ParseIDList parses a comma separated list of positive ids, skipping
// blanks and anything that does not parse.
func ParseIDList(raw string) []uint {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 0)
		if err == nil && id > 0 {
			ids = append(ids, uint(id))
		}
	}
	return ids
}
