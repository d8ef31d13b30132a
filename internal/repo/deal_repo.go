// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Deal model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a deal is not found on read, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Deleting a missing row is a no-op, not an error: clients replay whole
//     collections and a double delete must converge, not fail.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.DealService) which enforces business rules such as activity
// logging and shape normalization.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListDeals returns every deal, ordered by creation time descending
// (most recent first). It returns an empty slice when the table is empty.
// On DB error, it returns the error.
func ListDeals(ctx context.Context, db *gorm.DB) ([]domain.Deal, error) {
	var out []domain.Deal
	err := db.WithContext(ctx).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetDeal fetches a single deal by its ID. If the record does not exist,
// it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetDeal(ctx context.Context, db *gorm.DB, id string) (*domain.Deal, error) {
	var d domain.Deal
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertDeal writes the full row keyed on id: an existing row is overwritten
// (last write wins), a missing row is created.
func UpsertDeal(ctx context.Context, db *gorm.DB, d *domain.Deal) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(d).Error
}

// UpsertDeals writes every row in ds keyed on id, in one statement.
// Used by import and prospect-feed merge, which replay whole collections.
func UpsertDeals(ctx context.Context, db *gorm.DB, ds []domain.Deal) error {
	if len(ds) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&ds).Error
}

// DeleteDeal removes the deal with the given id. A missing row is a no-op.
func DeleteDeal(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Deal{}).Error
}
