package services

import (
	"context"
	"errors"
	"testing"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
	"github.com/digitalwiz/go-crm-backend/internal/notify"
	"github.com/digitalwiz/go-crm-backend/internal/repo"
)

func newRetainerService(t *testing.T) (*RetainerService, *notify.Hub) {
	t.Helper()
	hub := notify.NewHub()
	return NewRetainerService(newServiceDB(t), hub), hub
}

func TestRetainerService_Create(t *testing.T) {
	svc, hub := newRetainerService(t)
	ch, cancel := hub.Subscribe(notify.EntityRetainers)
	defer cancel()

	r, err := svc.Create(context.Background(), RetainerInput{
		ClientName:    "  Acme Corp ",
		ServiceType:   "SEO",
		MonthlyAmount: 50000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.ID == "" || r.StripeManaged() {
		t.Fatalf("expected generated non-prefixed id, got %q", r.ID)
	}
	if r.ClientName != "Acme Corp" {
		t.Fatalf("client name not trimmed: %q", r.ClientName)
	}
	if r.PaymentStatus != domain.PaymentPending {
		t.Fatalf("default payment status = %q", r.PaymentStatus)
	}
	if r.StartDate == "" || r.NextBillingDate == "" {
		t.Fatalf("dates not defaulted: %+v", r)
	}
	select {
	case <-ch:
	default:
		t.Fatalf("expected retainers change signal")
	}
}

func TestRetainerService_Create_EmptyName(t *testing.T) {
	svc, _ := newRetainerService(t)
	if _, err := svc.Create(context.Background(), RetainerInput{ClientName: " "}); !errors.Is(err, ErrEmptyClientName) {
		t.Fatalf("err = %v, want ErrEmptyClientName", err)
	}
}

func TestRetainerService_Upsert_ReservedPrefixRejected(t *testing.T) {
	svc, _ := newRetainerService(t)
	r := &domain.Retainer{ID: domain.StripeRetainerPrefix + "sub_123", ClientName: "Acme"}
	if err := svc.Upsert(context.Background(), r); !errors.Is(err, ErrReservedRetainerID) {
		t.Fatalf("err = %v, want ErrReservedRetainerID", err)
	}
}

func TestRetainerService_Upsert_ExistingStripeRowUpdatable(t *testing.T) {
	svc, _ := newRetainerService(t)
	ctx := context.Background()

	// Seed as the reconciler would.
	seeded := domain.Retainer{ID: domain.StripeRetainerPrefix + "sub_9", ClientName: "Stripe Client", MonthlyAmount: 10000}
	if err := repo.UpsertRetainer(ctx, svc.DB, &seeded); err != nil {
		t.Fatalf("seed: %v", err)
	}

	seeded.PaymentStatus = domain.PaymentOverdue
	if err := svc.Upsert(ctx, &seeded); err != nil {
		t.Fatalf("Upsert existing stripe row: %v", err)
	}
	got, err := repo.GetRetainer(ctx, svc.DB, seeded.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PaymentStatus != domain.PaymentOverdue {
		t.Fatalf("status = %q", got.PaymentStatus)
	}
}

func TestRetainerService_List_OrderedByClientName(t *testing.T) {
	svc, _ := newRetainerService(t)
	ctx := context.Background()
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		if _, err := svc.Create(ctx, RetainerInput{ClientName: name}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	rs, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rs) != 3 || rs[0].ClientName != "Alpha" || rs[2].ClientName != "Zeta" {
		t.Fatalf("wrong order: %+v", rs)
	}
}

func TestRetainerService_Delete_MissingIsNoOp(t *testing.T) {
	svc, _ := newRetainerService(t)
	if err := svc.Delete(context.Background(), "ghost"); err != nil {
		t.Fatalf("delete of missing retainer should be a no-op, got %v", err)
	}
}
