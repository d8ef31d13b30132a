// Package dashboard computes the summary metrics shown on the CRM landing
// view. Every function is pure over in-memory Deal/Retainer snapshots and is
// recomputed on each read; nothing here is cached or incremental.
package dashboard

import (
	"sort"
	"time"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
)

// DefaultFollowUpAfter is the default staleness window for follow-ups.
const DefaultFollowUpAfter = 72 * time.Hour

// RecentActivityLimit caps the global activity feed.
const RecentActivityLimit = 10

// StageCount is the per-stage slice of the pipeline breakdown.
type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
	Value int64  `json:"value"`
}

// DealActivity is one entry of the global activity feed: the activity plus
// enough deal context to render it standalone.
type DealActivity struct {
	DealID       string          `json:"dealId"`
	BusinessName string          `json:"businessName"`
	Activity     domain.Activity `json:"activity"`
}

// WonRevenue splits realized revenue into one-time project money and the
// recurring run rate from deals that closed as retainers.
type WonRevenue struct {
	ProjectValue     int64 `json:"projectValue"`     // estimatedValue over Won one-time deals
	Collected        int64 `json:"collected"`        // amountPaid over Won one-time deals
	Owed             int64 `json:"owed"`             // outstanding over Won one-time deals
	MonthlyRecurring int64 `json:"monthlyRecurring"` // monthlyRetainer over Won retainer deals
}

// Summary is the full dashboard payload.
type Summary struct {
	PipelineValue    int64          `json:"pipelineValue"`
	MRR              int64          `json:"mrr"`
	AnnualRunRate    int64          `json:"annualRunRate"`
	Outstanding      int64          `json:"outstanding"`
	ActiveDeals      int            `json:"activeDeals"`
	RetainerClients  int            `json:"retainerClients"`
	FollowUps        []domain.Deal  `json:"followUps"`
	RecentActivities []DealActivity `json:"recentActivities"`
	StageBreakdown   []StageCount   `json:"stageBreakdown"`
	WonRevenue       WonRevenue     `json:"wonRevenue"`
}

// Compute assembles the whole dashboard from collection snapshots. now and
// followUpAfter feed the follow-up cutoff; a non-positive followUpAfter
// falls back to DefaultFollowUpAfter.
func Compute(deals []domain.Deal, retainers []domain.Retainer, now time.Time, followUpAfter time.Duration) Summary {
	return Summary{
		PipelineValue:    PipelineValue(deals),
		MRR:              MRR(retainers),
		AnnualRunRate:    MRR(retainers) * 12,
		Outstanding:      Outstanding(deals),
		ActiveDeals:      activeCount(deals),
		RetainerClients:  len(retainers),
		FollowUps:        FollowUps(deals, now, followUpAfter),
		RecentActivities: RecentActivities(deals, RecentActivityLimit),
		StageBreakdown:   StageBreakdown(deals),
		WonRevenue:       ComputeWonRevenue(deals),
	}
}

// PipelineValue sums estimatedValue over deals still on the board (every
// stage except Won and Lost).
func PipelineValue(deals []domain.Deal) int64 {
	var total int64
	for _, d := range deals {
		if !domain.TerminalStage(d.Stage) {
			total += d.EstimatedValue
		}
	}
	return total
}

// MRR sums monthlyAmount over every retainer regardless of payment status.
func MRR(retainers []domain.Retainer) int64 {
	var total int64
	for _, r := range retainers {
		total += r.MonthlyAmount
	}
	return total
}

// Outstanding sums the per-deal unpaid remainder over Won deals, each
// clipped at zero. Only Won deals owe money; open and Lost deals do not.
func Outstanding(deals []domain.Deal) int64 {
	var total int64
	for _, d := range deals {
		if d.Stage == domain.StageWon {
			total += d.Outstanding()
		}
	}
	return total
}

// FollowUps returns deals in a non-terminal stage whose last interaction is
// strictly older than the window before now. A deal touched exactly at the
// boundary is not yet due.
func FollowUps(deals []domain.Deal, now time.Time, window time.Duration) []domain.Deal {
	if window <= 0 {
		window = DefaultFollowUpAfter
	}
	cutoff := now.Add(-window)

	due := make([]domain.Deal, 0)
	for _, d := range deals {
		if domain.TerminalStage(d.Stage) {
			continue
		}
		if d.LastInteraction.Before(cutoff) {
			due = append(due, d)
		}
	}
	// Stalest first.
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].LastInteraction.Before(due[j].LastInteraction)
	})
	return due
}

// RecentActivities flattens every deal's timeline into one feed, newest
// first, truncated to limit entries.
func RecentActivities(deals []domain.Deal, limit int) []DealActivity {
	feed := make([]DealActivity, 0)
	for _, d := range deals {
		for _, a := range d.Activities {
			feed = append(feed, DealActivity{
				DealID:       d.ID,
				BusinessName: d.BusinessName,
				Activity:     a,
			})
		}
	}
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Activity.Timestamp.After(feed[j].Activity.Timestamp)
	})
	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}

// StageBreakdown counts deals and sums value per pipeline stage, in board
// order. Stages with no deals still appear with zero counts.
func StageBreakdown(deals []domain.Deal) []StageCount {
	byStage := make(map[string]*StageCount, len(domain.Stages))
	out := make([]StageCount, len(domain.Stages))
	for i, s := range domain.Stages {
		out[i] = StageCount{Stage: s}
		byStage[s] = &out[i]
	}
	for _, d := range deals {
		if sc, ok := byStage[d.Stage]; ok {
			sc.Count++
			sc.Value += d.EstimatedValue
		}
	}
	return out
}

// ComputeWonRevenue splits Won deals into one-time projects (value,
// collected, owed) and recurring retainer conversions.
func ComputeWonRevenue(deals []domain.Deal) WonRevenue {
	var wr WonRevenue
	for _, d := range deals {
		if d.Stage != domain.StageWon {
			continue
		}
		if d.IsRetainer {
			wr.MonthlyRecurring += d.MonthlyRetainer
			continue
		}
		wr.ProjectValue += d.EstimatedValue
		wr.Collected += d.AmountPaid
		wr.Owed += d.Outstanding()
	}
	return wr
}

func activeCount(deals []domain.Deal) int {
	n := 0
	for _, d := range deals {
		if !domain.TerminalStage(d.Stage) {
			n++
		}
	}
	return n
}
