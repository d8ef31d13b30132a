// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
)

// DealsStats returns aggregate metadata for the deals table: the total
// number of rows and the maximum UpdatedAt timestamp among those rows.
//
// When the table is empty, the returned count is 0 and maxUpdatedAt is nil.
//
// Return values:
//   - count:        total deals
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func DealsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(ctx, db.Model(&domain.Deal{}))
}

// RetainersStats returns aggregate metadata for the retainers table: the
// total number of rows and the maximum UpdatedAt timestamp among those rows.
func RetainersStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(ctx, db.Model(&domain.Retainer{}))
}

// tableStats runs the two lightweight queries shared by both entities.
func tableStats(ctx context.Context, q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q = q.WithContext(ctx)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
