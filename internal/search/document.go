package search

import (
	"strconv"

	"recipebox/internal/models"
)

// Document is the indexed projection of a public recipe.
type Document struct {
	ID          uint
	Title       string
	Description string
	Ingredients []string
	CreatedAt   int64 // unix seconds
}

// DocumentFromRecipe builds the index document for r.
func DocumentFromRecipe(r *models.Recipe) *Document {
	return &Document{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Ingredients: append([]string(nil), r.Ingredients...),
		CreatedAt:   r.CreatedAt.Unix(),
	}
}

// DocID is the index key of a recipe.
func DocID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ToMap converts the document so field names match the mapping.
func (d *Document) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":          DocID(d.ID),
		"title":       d.Title,
		"description": d.Description,
		"ingredients": d.Ingredients,
		"created_at":  float64(d.CreatedAt),
	}
}
