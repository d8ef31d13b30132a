package stripe

import (
	"testing"
	"time"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func item(unit, qty int64, interval string, count int64, nickname string) SubscriptionItem {
	return SubscriptionItem{
		Quantity: qty,
		Price: &Price{
			ID:         "price_" + interval,
			Nickname:   nickname,
			UnitAmount: unit,
			Recurring:  &Recurring{Interval: interval, IntervalCount: count},
		},
	}
}

func TestMonthlyAmount_Intervals(t *testing.T) {
	cases := []struct {
		name string
		item SubscriptionItem
		want int64
	}{
		{"monthly", item(50000, 1, "month", 1, ""), 500},
		{"quarterly", item(30000, 1, "month", 3, ""), 100},
		{"yearly", item(120000, 1, "year", 1, ""), 100},
		{"biyearly", item(240000, 1, "year", 2, ""), 100},
		{"weekly", item(10000, 1, "week", 1, ""), 433}, // 433.33 rounds down
		{"daily", item(1000, 1, "day", 1, ""), 300},
		{"quantity", item(10000, 3, "month", 1, ""), 300},
		{"zero quantity defaults to one", item(10000, 0, "month", 1, ""), 100},
		{"zero interval count defaults to one", SubscriptionItem{Quantity: 1, Price: &Price{UnitAmount: 10000, Recurring: &Recurring{Interval: "month"}}}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MonthlyAmount([]SubscriptionItem{tc.item}); got != tc.want {
				t.Fatalf("MonthlyAmount = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMonthlyAmount_SumsItems(t *testing.T) {
	items := []SubscriptionItem{
		item(120000, 1, "year", 1, ""), // 100
		item(50000, 1, "month", 1, ""), // 500
	}
	if got := MonthlyAmount(items); got != 600 {
		t.Fatalf("MonthlyAmount = %d, want 600", got)
	}
}

func TestServiceLabel(t *testing.T) {
	items := []SubscriptionItem{
		item(0, 1, "month", 1, "SEO Retainer"),
		item(0, 1, "month", 1, ""), // falls back to price id
	}
	if got := ServiceLabel(items); got != "SEO Retainer + price_month" {
		t.Fatalf("ServiceLabel = %q", got)
	}
	if got := ServiceLabel(nil); got != DefaultServiceLabel {
		t.Fatalf("empty items label = %q", got)
	}
}

func TestReconcile_FiltersAndSynthesizes(t *testing.T) {
	subs := []Subscription{
		{
			ID:               "sub_active",
			Status:           "active",
			Created:          testNow.Add(-48 * time.Hour).Unix(),
			StartDate:        time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC).Unix(),
			CurrentPeriodEnd: time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC).Unix(),
			Customer:         &Customer{ID: "cus_1", Name: "Acme Corp"},
			Items:            ItemList{Data: []SubscriptionItem{item(50000, 1, "month", 1, "SEO")}},
		},
		{ID: "sub_canceled", Status: "canceled", Customer: &Customer{ID: "cus_2"},
			Items: ItemList{Data: []SubscriptionItem{item(50000, 1, "month", 1, "")}}},
		{ID: "sub_empty", Status: "active", Customer: &Customer{ID: "cus_3"}},
	}

	rs := Reconcile(subs, testNow)
	if len(rs) != 1 {
		t.Fatalf("expected 1 retainer, got %d: %+v", len(rs), rs)
	}
	r := rs[0]
	if r.ID != "stripe_sub_sub_active" {
		t.Fatalf("id = %q", r.ID)
	}
	if !r.StripeManaged() {
		t.Fatalf("synthesized retainer must carry the reconciler prefix")
	}
	if r.ClientName != "Acme Corp" || r.ServiceType != "SEO" || r.MonthlyAmount != 500 {
		t.Fatalf("unexpected retainer: %+v", r)
	}
	if r.StartDate != "2025-01-10" || r.NextBillingDate != "2025-07-10" {
		t.Fatalf("dates: %q / %q", r.StartDate, r.NextBillingDate)
	}
	if r.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("payment status = %q", r.PaymentStatus)
	}
}

func TestReconcile_DedupesByCustomerKeepingLatest(t *testing.T) {
	older := Subscription{
		ID: "sub_old", Status: "active", Created: 1000,
		Customer: &Customer{ID: "cus_1", Name: "Acme"},
		Items:    ItemList{Data: []SubscriptionItem{item(10000, 1, "month", 1, "Old Plan")}},
	}
	newer := Subscription{
		ID: "sub_new", Status: "trialing", Created: 2000,
		Customer: &Customer{ID: "cus_1", Name: "Acme"},
		Items:    ItemList{Data: []SubscriptionItem{item(20000, 1, "month", 1, "New Plan")}},
	}

	// Input order must not matter; creation time decides.
	rs := Reconcile([]Subscription{older, newer}, testNow)
	if len(rs) != 1 {
		t.Fatalf("expected 1 retainer after dedupe, got %d", len(rs))
	}
	if rs[0].ID != "stripe_sub_sub_new" || rs[0].ServiceType != "New Plan" {
		t.Fatalf("dedupe kept the wrong subscription: %+v", rs[0])
	}
}

func TestReconcile_NoCustomerFallsBackToSubID(t *testing.T) {
	subs := []Subscription{
		{ID: "sub_a", Status: "active", Created: 2,
			Items: ItemList{Data: []SubscriptionItem{item(10000, 1, "month", 1, "")}}},
		{ID: "sub_b", Status: "active", Created: 1,
			Items: ItemList{Data: []SubscriptionItem{item(10000, 1, "month", 1, "")}}},
	}
	rs := Reconcile(subs, testNow)
	if len(rs) != 2 {
		t.Fatalf("subscriptions without customers dedupe by their own id, got %d rows", len(rs))
	}
	if rs[0].ClientName != "Customer sub_a" {
		t.Fatalf("client name = %q", rs[0].ClientName)
	}
}

func TestReconcile_CustomerEmailFallback(t *testing.T) {
	sub := Subscription{
		ID: "sub_1", Status: "active",
		Customer: &Customer{ID: "cus_1", Email: "billing@acme.test"},
		Items:    ItemList{Data: []SubscriptionItem{item(10000, 1, "month", 1, "")}},
	}
	rs := Reconcile([]Subscription{sub}, testNow)
	if rs[0].ClientName != "billing@acme.test" {
		t.Fatalf("client name = %q", rs[0].ClientName)
	}
}

func TestReconcile_MissingTimestampsDefaultToToday(t *testing.T) {
	sub := Subscription{
		ID: "sub_1", Status: "active",
		Customer: &Customer{ID: "cus_1", Name: "Acme"},
		Items:    ItemList{Data: []SubscriptionItem{item(10000, 1, "month", 1, "")}},
	}
	rs := Reconcile([]Subscription{sub}, testNow)
	if rs[0].StartDate != "2025-06-15" || rs[0].NextBillingDate != "2025-06-15" {
		t.Fatalf("dates: %q / %q", rs[0].StartDate, rs[0].NextBillingDate)
	}
}

func TestReconcile_EmptyInput(t *testing.T) {
	if rs := Reconcile(nil, testNow); len(rs) != 0 {
		t.Fatalf("expected empty set, got %+v", rs)
	}
}
