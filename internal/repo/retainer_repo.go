// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Retainer
// model, including the wholesale replacement of reconciler-owned rows.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
)

// ListRetainers returns every retainer, ordered by client name ascending.
// It returns an empty slice when the table is empty. On DB error, it
// returns the error.
func ListRetainers(ctx context.Context, db *gorm.DB) ([]domain.Retainer, error) {
	var out []domain.Retainer
	err := db.WithContext(ctx).
		Order("client_name asc").
		Find(&out).Error
	return out, err
}

// GetRetainer fetches a single retainer by its ID, or ErrNotFound.
func GetRetainer(ctx context.Context, db *gorm.DB, id string) (*domain.Retainer, error) {
	var r domain.Retainer
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertRetainer writes the full row keyed on id: an existing row is
// overwritten (last write wins), a missing row is created.
func UpsertRetainer(ctx context.Context, db *gorm.DB, r *domain.Retainer) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(r).Error
}

// UpsertRetainers writes every row in rs keyed on id, in one statement.
func UpsertRetainers(ctx context.Context, db *gorm.DB, rs []domain.Retainer) error {
	if len(rs) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rs).Error
}

// DeleteRetainer removes the retainer with the given id. A missing row is
// a no-op.
func DeleteRetainer(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Retainer{}).Error
}

// ReplaceStripeRetainers swaps the full set of reconciler-owned rows (ids
// prefixed with domain.StripeRetainerPrefix) for the given set, in one
// transaction. Non-prefixed rows are never touched; a subscription missing
// from rs simply disappears. The replacement is all-or-nothing: on any
// error the previous prefixed set is left intact.
func ReplaceStripeRetainers(ctx context.Context, db *gorm.DB, rs []domain.Retainer) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("id LIKE ?", domain.StripeRetainerPrefix+"%").
			Delete(&domain.Retainer{}).Error; err != nil {
			return err
		}
		if len(rs) == 0 {
			return nil
		}
		return tx.Create(&rs).Error
	})
}
