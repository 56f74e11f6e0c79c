package models

import "time"

// MaxCommentLength bounds Comment.Text in characters.
const MaxCommentLength = 100

// Comment is a short remark on a recipe, optionally replying to another comment.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RecipeID  uint      `gorm:"not null;index" json:"recipeId"`
	AuthorID  uint      `gorm:"not null;index" json:"authorId"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ParentID  *uint     `gorm:"index" json:"parentId"`
	Text      string    `gorm:"size:100;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
