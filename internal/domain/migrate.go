// Package domain – record shape migration.
//
// Rows written by earlier schema versions (or arriving via import and the
// prospect feed) may be missing fields that were added later. NormalizeDeal
// and NormalizeRetainer run once at load time and fill every optional field
// with a documented default, so business logic only ever sees fully-shaped
// records.
package domain

import "time"

// NormalizeDeal fills zero-valued optional fields in place.
//
// Defaults:
//   - Stage: "Prospect" (also applied when the stored stage is not in the
//     fixed set, which can happen after a hand-edited import)
//   - CreatedAt: now
//   - LastInteraction: CreatedAt
//   - Activities / Services: empty, non-nil slices
func NormalizeDeal(d *Deal, now time.Time) {
	if !ValidStage(d.Stage) {
		d.Stage = StageProspect
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.LastInteraction.IsZero() {
		d.LastInteraction = d.CreatedAt
	}
	if d.Activities == nil {
		d.Activities = []Activity{}
	}
	if d.Services == nil {
		d.Services = []ServiceSelection{}
	}
}

// NormalizeRetainer fills zero-valued optional fields in place.
//
// Defaults:
//   - PaymentStatus: "Pending" when absent or unrecognized
//   - StartDate / NextBillingDate: today's calendar date
func NormalizeRetainer(r *Retainer, now time.Time) {
	switch r.PaymentStatus {
	case PaymentPaid, PaymentPending, PaymentOverdue:
	default:
		r.PaymentStatus = PaymentPending
	}
	today := now.UTC().Format("2006-01-02")
	if r.StartDate == "" {
		r.StartDate = today
	}
	if r.NextBillingDate == "" {
		r.NextBillingDate = today
	}
}

// NormalizeDeals applies NormalizeDeal to every element of ds.
func NormalizeDeals(ds []Deal, now time.Time) {
	for i := range ds {
		NormalizeDeal(&ds[i], now)
	}
}

// NormalizeRetainers applies NormalizeRetainer to every element of rs.
func NormalizeRetainers(rs []Retainer, now time.Time) {
	for i := range rs {
		NormalizeRetainer(&rs[i], now)
	}
}
