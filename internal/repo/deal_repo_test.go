package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
)

func TestListDeals_OrderDescending(t *testing.T) {
	db := newRepoDB(t, &domain.Deal{})

	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) // oldest
	t2 := t1.Add(1 * time.Hour)
	t3 := t2.Add(1 * time.Hour) // newest
	for _, d := range []domain.Deal{
		{ID: "d1", BusinessName: "Alpha Plumbing", CreatedAt: t1},
		{ID: "d2", BusinessName: "Bravo Bakery", CreatedAt: t2},
		{ID: "d3", BusinessName: "Charlie Cafe", CreatedAt: t3},
	} {
		if err := db.Create(&d).Error; err != nil {
			t.Fatalf("seed %s: %v", d.ID, err)
		}
	}

	list, err := ListDeals(context.Background(), db)
	if err != nil {
		t.Fatalf("ListDeals: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 deals, got %d", len(list))
	}
	if list[0].ID != "d3" || list[1].ID != "d2" || list[2].ID != "d1" {
		t.Fatalf("unexpected order: %#v", list)
	}
}

func TestListDeals_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, err := ListDeals(context.Background(), db); err == nil {
		t.Fatalf("expected error when table missing")
	}
}

func TestGetDeal_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Deal{})
	_, err := GetDeal(context.Background(), db, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertDeal_CreateThenOverwrite(t *testing.T) {
	db := newRepoDB(t, &domain.Deal{})
	ctx := context.Background()

	d := domain.Deal{
		ID:             "d1",
		BusinessName:   "Alpha Plumbing",
		Stage:          domain.StageProspect,
		EstimatedValue: 500,
		Activities:     []domain.Activity{{ID: "a1", Type: domain.ActivityCreated, Timestamp: time.Now().UTC()}},
		CreatedAt:      time.Now().UTC(),
	}
	if err := UpsertDeal(ctx, db, &d); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Full-row overwrite keyed on id (last write wins).
	d.Stage = domain.StageMeeting
	d.EstimatedValue = 999
	if err := UpsertDeal(ctx, db, &d); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := GetDeal(ctx, db, "d1")
	if err != nil {
		t.Fatalf("GetDeal: %v", err)
	}
	if got.Stage != domain.StageMeeting || got.EstimatedValue != 999 {
		t.Fatalf("overwrite not applied: %+v", got)
	}
	if len(got.Activities) != 1 || got.Activities[0].ID != "a1" {
		t.Fatalf("activities JSON column did not round-trip: %+v", got.Activities)
	}

	var count int64
	if err := db.Model(&domain.Deal{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert duplicated the row: count=%d", count)
	}
}

func TestUpsertDeals_BatchAndEmpty(t *testing.T) {
	db := newRepoDB(t, &domain.Deal{})
	ctx := context.Background()

	if err := UpsertDeals(ctx, db, nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}

	batch := []domain.Deal{
		{ID: "a", BusinessName: "A", CreatedAt: time.Now().UTC()},
		{ID: "b", BusinessName: "B", CreatedAt: time.Now().UTC()},
	}
	if err := UpsertDeals(ctx, db, batch); err != nil {
		t.Fatalf("batch upsert: %v", err)
	}
	list, err := ListDeals(ctx, db)
	if err != nil || len(list) != 2 {
		t.Fatalf("expected 2 deals, got %d (err=%v)", len(list), err)
	}
}

func TestDeleteDeal_MissingIsNoop(t *testing.T) {
	db := newRepoDB(t, &domain.Deal{})
	ctx := context.Background()

	if err := DeleteDeal(ctx, db, "ghost"); err != nil {
		t.Fatalf("delete of missing row must be a no-op, got %v", err)
	}

	if err := UpsertDeal(ctx, db, &domain.Deal{ID: "d1", BusinessName: "A"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := DeleteDeal(ctx, db, "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetDeal(ctx, db, "d1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("row still present after delete: %v", err)
	}
}
