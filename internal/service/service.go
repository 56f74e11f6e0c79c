// Package service holds the business rules of recipebox. Services validate
// input, enforce ownership, and coordinate repositories, the notification
// emitter and the search index.
package service

import (
	"context"

	"recipebox/internal/notifications"
	"recipebox/internal/search"
)

// NotificationEmitter delivers best-effort notifications.
type NotificationEmitter interface {
	Emit(ctx context.Context, ev notifications.Event)
}

// RecipeIndexer keeps the full-text index in step with recipe writes.
type RecipeIndexer interface {
	IndexDocument(doc *search.Document) error
	DeleteDocument(id uint) error
}

// clampLimit applies a default when limit is unset and clamps it to [1, max].
func clampLimit(limit, def, max int) int {
	switch {
	case limit == 0:
		return def
	case limit < 1:
		return 1
	case limit > max:
		return max
	}
	return limit
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
