package dashboard

import (
	"testing"
	"time"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestPipelineValue_ExcludesTerminalStages(t *testing.T) {
	deals := []domain.Deal{
		{Stage: domain.StageProspect, EstimatedValue: 100},
		{Stage: domain.StageMeeting, EstimatedValue: 200},
		{Stage: domain.StageWon, EstimatedValue: 5000},
		{Stage: domain.StageLost, EstimatedValue: 7000},
	}
	if got := PipelineValue(deals); got != 300 {
		t.Fatalf("PipelineValue = %d, want 300", got)
	}
}

func TestMRR_IgnoresPaymentStatus(t *testing.T) {
	rs := []domain.Retainer{
		{MonthlyAmount: 500, PaymentStatus: domain.PaymentPaid},
		{MonthlyAmount: 300, PaymentStatus: domain.PaymentOverdue},
		{MonthlyAmount: 200, PaymentStatus: domain.PaymentPending},
	}
	if got := MRR(rs); got != 1000 {
		t.Fatalf("MRR = %d, want 1000", got)
	}
}

func TestOutstanding_WonDealsClippedAtZero(t *testing.T) {
	deals := []domain.Deal{
		{Stage: domain.StageWon, EstimatedValue: 1000, AmountPaid: 400},  // owes 600
		{Stage: domain.StageWon, EstimatedValue: 500, AmountPaid: 900},   // overpaid, owes 0
		{Stage: domain.StageMeeting, EstimatedValue: 800, AmountPaid: 0}, // not won yet
	}
	if got := Outstanding(deals); got != 600 {
		t.Fatalf("Outstanding = %d, want 600", got)
	}
}

func TestFollowUps_StrictBoundary(t *testing.T) {
	window := 72 * time.Hour
	deals := []domain.Deal{
		{ID: "exact", Stage: domain.StageContacted, LastInteraction: now.Add(-window)},
		{ID: "stale", Stage: domain.StageContacted, LastInteraction: now.Add(-window - time.Second)},
		{ID: "fresh", Stage: domain.StageContacted, LastInteraction: now.Add(-time.Hour)},
		{ID: "won", Stage: domain.StageWon, LastInteraction: now.Add(-30 * 24 * time.Hour)},
	}
	due := FollowUps(deals, now, window)
	if len(due) != 1 || due[0].ID != "stale" {
		t.Fatalf("follow-ups = %+v, want exactly [stale]", due)
	}
}

func TestFollowUps_StalestFirst(t *testing.T) {
	deals := []domain.Deal{
		{ID: "b", Stage: domain.StageProspect, LastInteraction: now.Add(-4 * 24 * time.Hour)},
		{ID: "a", Stage: domain.StageProspect, LastInteraction: now.Add(-9 * 24 * time.Hour)},
	}
	due := FollowUps(deals, now, 72*time.Hour)
	if len(due) != 2 || due[0].ID != "a" || due[1].ID != "b" {
		t.Fatalf("wrong order: %+v", due)
	}
}

func TestRecentActivities_GlobalSortAndTruncate(t *testing.T) {
	mk := func(dealID string, base time.Time, n int) domain.Deal {
		d := domain.Deal{ID: dealID, BusinessName: "Biz " + dealID}
		for i := 0; i < n; i++ {
			d.Activities = append(d.Activities, domain.Activity{
				ID:        dealID + "-" + string(rune('a'+i)),
				Type:      domain.ActivityNote,
				Timestamp: base.Add(time.Duration(i) * time.Minute),
			})
		}
		return d
	}
	deals := []domain.Deal{
		mk("d1", now.Add(-time.Hour), 7),
		mk("d2", now, 7),
	}

	feed := RecentActivities(deals, RecentActivityLimit)
	if len(feed) != 10 {
		t.Fatalf("feed length = %d, want 10", len(feed))
	}
	for i := 1; i < len(feed); i++ {
		if feed[i].Activity.Timestamp.After(feed[i-1].Activity.Timestamp) {
			t.Fatalf("feed not sorted descending at %d", i)
		}
	}
	// The newest entry comes from d2 and carries its deal context.
	if feed[0].DealID != "d2" || feed[0].BusinessName != "Biz d2" {
		t.Fatalf("head entry: %+v", feed[0])
	}
}

func TestStageBreakdown_AllStagesPresent(t *testing.T) {
	deals := []domain.Deal{
		{Stage: domain.StageProspect, EstimatedValue: 100},
		{Stage: domain.StageProspect, EstimatedValue: 50},
		{Stage: domain.StageWon, EstimatedValue: 900},
	}
	bd := StageBreakdown(deals)
	if len(bd) != len(domain.Stages) {
		t.Fatalf("breakdown covers %d stages, want %d", len(bd), len(domain.Stages))
	}
	if bd[0].Stage != domain.StageProspect || bd[0].Count != 2 || bd[0].Value != 150 {
		t.Fatalf("prospect slice: %+v", bd[0])
	}
	for _, sc := range bd {
		if sc.Stage == domain.StageReplied && (sc.Count != 0 || sc.Value != 0) {
			t.Fatalf("empty stage must be zero: %+v", sc)
		}
	}
}

func TestComputeWonRevenue_SplitsOneTimeAndRecurring(t *testing.T) {
	deals := []domain.Deal{
		{Stage: domain.StageWon, EstimatedValue: 2000, AmountPaid: 1500},
		{Stage: domain.StageWon, IsRetainer: true, MonthlyRetainer: 400, EstimatedValue: 999},
		{Stage: domain.StageMeeting, EstimatedValue: 100},
	}
	wr := ComputeWonRevenue(deals)
	if wr.ProjectValue != 2000 || wr.Collected != 1500 || wr.Owed != 500 {
		t.Fatalf("one-time split: %+v", wr)
	}
	if wr.MonthlyRecurring != 400 {
		t.Fatalf("recurring = %d, want 400", wr.MonthlyRecurring)
	}
}

func TestCompute_Summary(t *testing.T) {
	deals := []domain.Deal{
		{ID: "open", Stage: domain.StageMeeting, EstimatedValue: 300, LastInteraction: now.Add(-time.Hour)},
		{ID: "won", Stage: domain.StageWon, EstimatedValue: 1000, AmountPaid: 250, LastInteraction: now},
	}
	retainers := []domain.Retainer{{MonthlyAmount: 500}, {MonthlyAmount: 250}}

	s := Compute(deals, retainers, now, 0)
	if s.PipelineValue != 300 {
		t.Fatalf("PipelineValue = %d", s.PipelineValue)
	}
	if s.MRR != 750 || s.AnnualRunRate != 9000 {
		t.Fatalf("MRR/ARR = %d/%d", s.MRR, s.AnnualRunRate)
	}
	if s.Outstanding != 750 {
		t.Fatalf("Outstanding = %d", s.Outstanding)
	}
	if s.ActiveDeals != 1 || s.RetainerClients != 2 {
		t.Fatalf("counts: %+v", s)
	}
	if len(s.FollowUps) != 0 {
		t.Fatalf("no deal is stale yet: %+v", s.FollowUps)
	}
	if len(s.StageBreakdown) != len(domain.Stages) {
		t.Fatalf("breakdown: %+v", s.StageBreakdown)
	}
}
