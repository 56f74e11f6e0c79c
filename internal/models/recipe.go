package models

import (
	"time"

	"gorm.io/datatypes"
)

// Recipe is a published recipe owned by exactly one author.
type Recipe struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	AuthorID    uint                        `gorm:"not null;index" json:"authorId"`
	Author      *User                       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title       string                      `gorm:"size:120;not null" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	Ingredients datatypes.JSONSlice[string] `json:"ingredients"`
	Steps       datatypes.JSONSlice[string] `json:"steps"`
	Images      datatypes.JSONSlice[string] `json:"images"`
	Categories  []Category                  `gorm:"many2many:recipe_categories" json:"categories"`
	IsPublic    bool                        `gorm:"not null;index" json:"isPublic"`
	RatingAvg   float64                     `gorm:"not null;default:0" json:"ratingAvg"`
	RatingCount int                         `gorm:"not null;default:0" json:"ratingCount"`
	// SavedCount is not persisted; computed at query time
	SavedCount int       `gorm:"->;-:migration" json:"savedCount"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CategoryIDs returns the ids of the attached categories.
func (r *Recipe) CategoryIDs() []uint {
	ids := make([]uint, 0, len(r.Categories))
	for _, c := range r.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// RecipeRating is one user's rating of a recipe; at most one row per pair.
type RecipeRating struct {
	RecipeID  uint      `gorm:"primaryKey;autoIncrement:false" json:"recipeId"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"userId"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecipeSave is one bookmark. Keyed by user it is the user's saved set,
// indexed by recipe it is the recipe's savedBy set.
type RecipeSave struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	RecipeID  uint      `gorm:"primaryKey;autoIncrement:false;index" json:"recipeId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Category groups recipes.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:60;uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"size:60;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
