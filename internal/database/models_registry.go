package database

import "recipebox/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Join tables come before the models that reference them through many2many.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Category{},
		&models.Recipe{},
		&models.RecipeRating{},
		&models.RecipeSave{},
		&models.Comment{},
		&models.Notification{},
	}
}
