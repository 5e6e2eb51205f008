package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository is the gorm-backed object store. Every read and write is
// scoped to the caller's user id.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}
