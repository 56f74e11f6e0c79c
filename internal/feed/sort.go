package feed

import (
	"cmp"
	"slices"
	"time"
)

// Sort names a ranking strategy.
type Sort string

const (
	SortRecent  Sort = "recent"
	SortTop     Sort = "top"
	SortPopular Sort = "popular"
	// SortRelevance ranks full-text hits; it is never selected from a listing
	// query string.
	SortRelevance Sort = "relevance"
)

// ParseSort maps a query value to a listing sort, defaulting to recent.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortTop, SortPopular:
		return Sort(s)
	default:
		return SortRecent
	}
}

// Field is a rankable attribute of a recipe.
type Field string

const (
	FieldCreatedAt   Field = "created_at"
	FieldRatingAvg   Field = "rating_avg"
	FieldRatingCount Field = "rating_count"
	FieldSavedCount  Field = "saved_count"
	FieldScore       Field = "score"
	FieldID          Field = "id"
)

// Derived reports whether the field is computed at query time rather than
// stored on the recipe row.
func (f Field) Derived() bool {
	return f == FieldSavedCount || f == FieldScore
}

// Key is one component of a ranking tuple.
type Key struct {
	Field Field
	Desc  bool
}

// Keys returns the ranking tuple for s. Every tuple ends in id so the order
// is total and pages never overlap.
func (s Sort) Keys() []Key {
	switch s {
	case SortTop:
		return []Key{{FieldRatingAvg, true}, {FieldRatingCount, true}, {FieldCreatedAt, true}, {FieldID, true}}
	case SortPopular:
		return []Key{{FieldSavedCount, true}, {FieldRatingAvg, true}, {FieldCreatedAt, true}, {FieldID, true}}
	case SortRelevance:
		return []Key{{FieldScore, true}, {FieldCreatedAt, true}, {FieldID, true}}
	default:
		return []Key{{FieldCreatedAt, true}, {FieldID, true}}
	}
}

// Entry carries the rankable attributes of one recipe.
type Entry struct {
	ID          uint
	CreatedAt   time.Time
	RatingAvg   float64
	RatingCount int
	SavedCount  int
	Score       float64
}

// Compare orders a before b (negative), after b (positive) or as equal (zero)
// under the ranking tuple of s.
func Compare(s Sort, a, b Entry) int {
	for _, k := range s.Keys() {
		c := compareField(k.Field, a, b)
		if k.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareField(f Field, a, b Entry) int {
	switch f {
	case FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case FieldRatingAvg:
		return cmp.Compare(a.RatingAvg, b.RatingAvg)
	case FieldRatingCount:
		return cmp.Compare(a.RatingCount, b.RatingCount)
	case FieldSavedCount:
		return cmp.Compare(a.SavedCount, b.SavedCount)
	case FieldScore:
		return cmp.Compare(a.Score, b.Score)
	case FieldID:
		return cmp.Compare(a.ID, b.ID)
	}
	return 0
}

// SortStable ranks items in place under s.
func SortStable[T any](s Sort, items []T, entry func(T) Entry) {
	slices.SortStableFunc(items, func(x, y T) int {
		return Compare(s, entry(x), entry(y))
	})
}

// IsSorted reports whether items are already ranked under s.
func IsSorted[T any](s Sort, items []T, entry func(T) Entry) bool {
	return slices.IsSortedFunc(items, func(x, y T) int {
		return Compare(s, entry(x), entry(y))
	})
}
