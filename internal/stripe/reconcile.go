package stripe

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
)

// DefaultServiceLabel names a subscription whose items carry no display name.
const DefaultServiceLabel = "Stripe Subscription"

var (
	monthsPerYear = decimal.NewFromInt(12)
	weeksPerYear  = decimal.NewFromInt(52)
	daysPerMonth  = decimal.NewFromInt(30)
	minorPerMajor = decimal.NewFromInt(100)
)

// Reconcile turns the full subscription list into the synthesized Retainer
// set, deterministically:
//
//  1. keep only active/trialing subscriptions with at least one line item,
//  2. sort by creation time descending so the dedupe tie-break is stable,
//  3. dedupe by customer id (subscription id when no customer), keeping the
//     most recently created subscription per customer,
//  4. emit one Retainer per survivor with a stripe_sub_ prefixed id.
//
// now supplies the fallback for absent timestamps.
func Reconcile(subs []Subscription, now time.Time) []domain.Retainer {
	kept := make([]Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.Status != "active" && sub.Status != "trialing" {
			continue
		}
		if len(sub.Items.Data) == 0 {
			continue
		}
		kept = append(kept, sub)
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Created > kept[j].Created })

	seen := make(map[string]struct{}, len(kept))
	out := make([]domain.Retainer, 0, len(kept))
	for _, sub := range kept {
		key := customerID(sub)
		if key == "" {
			key = sub.ID
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, synthesize(sub, now))
	}
	return out
}

// synthesize maps one surviving subscription onto a Retainer row.
func synthesize(sub Subscription, now time.Time) domain.Retainer {
	start := sub.StartDate
	if start == 0 {
		start = sub.Created
	}
	return domain.Retainer{
		ID:              domain.StripeRetainerPrefix + sub.ID,
		ClientName:      clientName(sub),
		ServiceType:     ServiceLabel(sub.Items.Data),
		MonthlyAmount:   MonthlyAmount(sub.Items.Data),
		StartDate:       isoDate(start, now),
		NextBillingDate: isoDate(sub.CurrentPeriodEnd, now),
		PaymentStatus:   domain.PaymentPaid,
	}
}

// MonthlyAmount normalizes a subscription's line items to a single monthly
// figure in major currency units. Each item contributes unit_amount times
// quantity converted to a monthly equivalent: yearly divides by 12 times the
// interval count, weekly multiplies by 52/12 then divides by the interval
// count, daily multiplies by 30 then divides by the interval count, and
// monthly just divides by the interval count. The minor-unit sum is divided
// by 100 and rounded to the nearest whole unit.
func MonthlyAmount(items []SubscriptionItem) int64 {
	total := decimal.Zero
	for _, item := range items {
		if item.Price == nil {
			continue
		}
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		amount := decimal.NewFromInt(item.Price.UnitAmount * qty)

		interval, count := "", int64(1)
		if r := item.Price.Recurring; r != nil {
			interval = r.Interval
			if r.IntervalCount > 0 {
				count = r.IntervalCount
			}
		}
		ic := decimal.NewFromInt(count)

		switch interval {
		case "year":
			amount = amount.Div(monthsPerYear.Mul(ic))
		case "week":
			amount = amount.Mul(weeksPerYear).Div(monthsPerYear).Div(ic)
		case "day":
			amount = amount.Mul(daysPerMonth).Div(ic)
		default: // month
			amount = amount.Div(ic)
		}
		total = total.Add(amount)
	}
	return total.Div(minorPerMajor).Round(0).IntPart()
}

// ServiceLabel joins each item's price nickname (price id when unnamed) with
// " + ". Items with neither are skipped; an empty result falls back to
// DefaultServiceLabel.
func ServiceLabel(items []SubscriptionItem) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Price == nil {
			continue
		}
		name := item.Price.Nickname
		if name == "" {
			name = item.Price.ID
		}
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return DefaultServiceLabel
	}
	return strings.Join(names, " + ")
}

// clientName prefers the customer's display name, then email, then a
// synthetic "Customer <id>" string.
func clientName(sub Subscription) string {
	if c := sub.Customer; c != nil {
		if c.Name != "" {
			return c.Name
		}
		if c.Email != "" {
			return c.Email
		}
	}
	id := customerID(sub)
	if id == "" {
		id = sub.ID
	}
	return fmt.Sprintf("Customer %s", id)
}

func customerID(sub Subscription) string {
	if sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}

// isoDate renders Unix seconds as a UTC calendar date, defaulting to today
// when the timestamp is absent.
func isoDate(unixSeconds int64, now time.Time) string {
	if unixSeconds == 0 {
		return now.UTC().Format("2006-01-02")
	}
	return time.Unix(unixSeconds, 0).UTC().Format("2006-01-02")
}
