package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository wraps the gorm handle shared by every store in this package.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying handle for read-only reporting queries
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// WithTx runs fn inside a single database transaction. Everything fn does
// through the tx repository commits or rolls back together.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}
