// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"recipebox/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

// translateError maps a store error onto the application error kinds.
func translateError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	if isUniqueConstraintError(err) {
		return models.NewConflictError(resource + " already exists")
	}
	return models.NewInternalError(err)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	msg := strings.ToLower(err.Error())
	// SQLite reports "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

// lockForUpdate takes a row lock on the selected rows for the rest of tx.
// SQLite serializes writers on its own and has no FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// publicUserColumns is what embedded authors expose.
var publicUserColumns = []string{"id", "username", "avatar_url", "bio", "role", "created_at", "updated_at"}

func preloadAuthor(db *gorm.DB) *gorm.DB {
	return db.Select(publicUserColumns)
}
