package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
)

func TestListRetainers_OrderByClientName(t *testing.T) {
	db := newRepoDB(t, &domain.Retainer{})
	ctx := context.Background()

	for _, r := range []domain.Retainer{
		{ID: "r1", ClientName: "Zeta Dental", MonthlyAmount: 300},
		{ID: "r2", ClientName: "Acme Roofing", MonthlyAmount: 150},
		{ID: "r3", ClientName: "Mid Motors", MonthlyAmount: 200},
	} {
		if err := db.Create(&r).Error; err != nil {
			t.Fatalf("seed %s: %v", r.ID, err)
		}
	}

	list, err := ListRetainers(ctx, db)
	if err != nil {
		t.Fatalf("ListRetainers: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 retainers, got %d", len(list))
	}
	if list[0].ClientName != "Acme Roofing" || list[2].ClientName != "Zeta Dental" {
		t.Fatalf("unexpected order: %#v", list)
	}
}

func TestUpsertRetainer_Overwrite(t *testing.T) {
	db := newRepoDB(t, &domain.Retainer{})
	ctx := context.Background()

	r := domain.Retainer{ID: "m1", ClientName: "Acme", MonthlyAmount: 100, PaymentStatus: domain.PaymentPending}
	if err := UpsertRetainer(ctx, db, &r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	r.MonthlyAmount = 250
	r.PaymentStatus = domain.PaymentPaid
	if err := UpsertRetainer(ctx, db, &r); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := GetRetainer(ctx, db, "m1")
	if err != nil {
		t.Fatalf("GetRetainer: %v", err)
	}
	if got.MonthlyAmount != 250 || got.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("overwrite not applied: %+v", got)
	}
}

func TestDeleteRetainer_MissingIsNoop(t *testing.T) {
	db := newRepoDB(t, &domain.Retainer{})
	if err := DeleteRetainer(context.Background(), db, "ghost"); err != nil {
		t.Fatalf("delete of missing row must be a no-op, got %v", err)
	}
}

func TestReplaceStripeRetainers_PreservesManualRows(t *testing.T) {
	db := newRepoDB(t, &domain.Retainer{})
	ctx := context.Background()

	manual := domain.Retainer{ID: "manual-1", ClientName: "Hand Entered", MonthlyAmount: 75, PaymentStatus: domain.PaymentOverdue}
	oldSub := domain.Retainer{ID: domain.StripeRetainerPrefix + "sub_old", ClientName: "Old Sub", MonthlyAmount: 40}
	for _, r := range []domain.Retainer{manual, oldSub} {
		if err := db.Create(&r).Error; err != nil {
			t.Fatalf("seed %s: %v", r.ID, err)
		}
	}

	fresh := []domain.Retainer{
		{ID: domain.StripeRetainerPrefix + "sub_new", ClientName: "New Sub", MonthlyAmount: 90, PaymentStatus: domain.PaymentPaid},
	}
	if err := ReplaceStripeRetainers(ctx, db, fresh); err != nil {
		t.Fatalf("ReplaceStripeRetainers: %v", err)
	}

	list, err := ListRetainers(ctx, db)
	if err != nil {
		t.Fatalf("ListRetainers: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected manual + new sub, got %d rows: %#v", len(list), list)
	}

	// Manual row untouched, old sub gone, new sub present.
	if _, err := GetRetainer(ctx, db, "manual-1"); err != nil {
		t.Fatalf("manual retainer was touched by reconciliation: %v", err)
	}
	if _, err := GetRetainer(ctx, db, oldSub.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale stripe retainer should be dropped, got %v", err)
	}
	if _, err := GetRetainer(ctx, db, fresh[0].ID); err != nil {
		t.Fatalf("new stripe retainer missing: %v", err)
	}
}

func TestReplaceStripeRetainers_EmptySetClearsPrefixedOnly(t *testing.T) {
	db := newRepoDB(t, &domain.Retainer{})
	ctx := context.Background()

	for _, r := range []domain.Retainer{
		{ID: "manual-1", ClientName: "Kept"},
		{ID: domain.StripeRetainerPrefix + "sub_a", ClientName: "Dropped A"},
		{ID: domain.StripeRetainerPrefix + "sub_b", ClientName: "Dropped B"},
	} {
		if err := db.Create(&r).Error; err != nil {
			t.Fatalf("seed %s: %v", r.ID, err)
		}
	}

	if err := ReplaceStripeRetainers(ctx, db, nil); err != nil {
		t.Fatalf("ReplaceStripeRetainers(empty): %v", err)
	}
	list, err := ListRetainers(ctx, db)
	if err != nil {
		t.Fatalf("ListRetainers: %v", err)
	}
	if len(list) != 1 || list[0].ID != "manual-1" {
		t.Fatalf("expected only the manual row to survive: %#v", list)
	}
}
