// Package domain defines the persistence models for deals, retainers, and
// their embedded activity timelines. These types are mapped with GORM and
// form the core data layer of the CRM backend.
package domain

import (
	"strings"
	"time"
)

// Pipeline stages, in board order. Won and Lost are terminal: deals in
// either stage are excluded from active pipeline totals and follow-ups.
const (
	StageProspect     = "Prospect"
	StageContacted    = "Contacted"
	StageReplied      = "Replied"
	StageMeeting      = "Meeting"
	StageProposalSent = "Proposal Sent"
	StageWon          = "Won"
	StageLost         = "Lost"
)

// Stages lists every pipeline stage in display order.
var Stages = []string{
	StageProspect, StageContacted, StageReplied,
	StageMeeting, StageProposalSent, StageWon, StageLost,
}

// ValidStage reports whether s is one of the fixed pipeline stages.
func ValidStage(s string) bool {
	for _, st := range Stages {
		if st == s {
			return true
		}
	}
	return false
}

// TerminalStage reports whether s ends a deal's life on the board.
func TerminalStage(s string) bool { return s == StageWon || s == StageLost }

// Activity timeline entry types.
const (
	ActivityNote        = "note"
	ActivityCall        = "call"
	ActivityEmail       = "email"
	ActivityStageChange = "stage_change"
	ActivityCreated     = "created"
)

// ValidActivityType reports whether t is a recognized activity type.
func ValidActivityType(t string) bool {
	switch t {
	case ActivityNote, ActivityCall, ActivityEmail, ActivityStageChange, ActivityCreated:
		return true
	}
	return false
}

// Retainer payment statuses.
const (
	PaymentPaid    = "Paid"
	PaymentPending = "Pending"
	PaymentOverdue = "Overdue"
)

// StripeRetainerPrefix marks retainer rows owned by the billing reconciler.
// Rows whose id carries this prefix are dropped and regenerated wholesale on
// every reconciliation run; all other rows are user-owned and never touched.
const StripeRetainerPrefix = "stripe_sub_"

// Activity is an immutable timeline entry attached to a deal. Activities are
// append-only and prepended to the deal's list (newest first); they are never
// mutated or reordered after creation.
type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// ServiceSelection is one chosen service+tier pair on a deal. The ordered
// list of selections is the canonical representation; the comma-joined
// label exists only for display (see Deal.ServiceLabel).
type ServiceSelection struct {
	Service string `json:"service"`
	Tier    string `json:"tier,omitempty"`
	Price   int64  `json:"price,omitempty"`
}

// Deal represents a sales opportunity moving through the pipeline.
//
// Monetary fields are whole major currency units. Activities and Services
// are stored as JSON columns: the activity timeline belongs to exactly one
// deal and is always read and written with it.
type Deal struct {
	ID              string             `json:"id"              gorm:"type:char(36);primaryKey"`
	BusinessName    string             `json:"businessName"    gorm:"type:varchar(255);not null"`
	ContactPerson   string             `json:"contactPerson"   gorm:"type:varchar(255)"`
	Phone           string             `json:"phone"           gorm:"type:varchar(64)"`
	Email           string             `json:"email"           gorm:"type:varchar(255)"`
	Website         string             `json:"website"         gorm:"type:varchar(512)"`
	GBPURL          string             `json:"gbpUrl"          gorm:"column:gbp_url;type:varchar(512)"`
	Notes           string             `json:"notes"           gorm:"type:text"`
	Services        []ServiceSelection `json:"services"        gorm:"serializer:json"`
	EstimatedValue  int64              `json:"estimatedValue"  gorm:"not null;default:0"`
	AmountPaid      int64              `json:"amountPaid"      gorm:"not null;default:0"`
	IsRetainer      bool               `json:"isRetainer"      gorm:"not null;default:false"`
	MonthlyRetainer int64              `json:"monthlyRetainer" gorm:"not null;default:0"`
	Stage           string             `json:"stage"           gorm:"type:varchar(32);not null;default:'Prospect';index"`
	LastInteraction time.Time          `json:"lastInteraction" gorm:"index"`
	Activities      []Activity         `json:"activities"      gorm:"serializer:json"`
	CreatedAt       time.Time          `json:"createdAt"       gorm:"index"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// TableName returns the database table name for Deal.
func (Deal) TableName() string { return "deals" }

// ServiceLabel renders the selections as the legacy comma-joined display
// string (e.g. "Website, SEO"). Empty when no services are selected.
func (d *Deal) ServiceLabel() string {
	if len(d.Services) == 0 {
		return ""
	}
	names := make([]string, 0, len(d.Services))
	for _, s := range d.Services {
		if s.Service != "" {
			names = append(names, s.Service)
		}
	}
	return strings.Join(names, ", ")
}

// Outstanding returns the unpaid remainder of the deal's one-time value,
// clipped at zero. A negative remainder means "paid in full", never a credit.
func (d *Deal) Outstanding() int64 {
	if rem := d.EstimatedValue - d.AmountPaid; rem > 0 {
		return rem
	}
	return 0
}

// Retainer represents a recurring-billing client record, independent of any
// deal. StartDate and NextBillingDate are ISO calendar dates (YYYY-MM-DD).
type Retainer struct {
	ID              string    `json:"id"              gorm:"type:varchar(255);primaryKey"`
	ClientName      string    `json:"clientName"      gorm:"type:varchar(255);not null;index"`
	ServiceType     string    `json:"serviceType"     gorm:"type:varchar(255)"`
	MonthlyAmount   int64     `json:"monthlyAmount"   gorm:"not null;default:0"`
	StartDate       string    `json:"startDate"       gorm:"type:varchar(10)"`
	NextBillingDate string    `json:"nextBillingDate" gorm:"type:varchar(10)"`
	PaymentStatus   string    `json:"paymentStatus"   gorm:"type:varchar(16);not null;default:'Pending'"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

// TableName returns the database table name for Retainer.
func (Retainer) TableName() string { return "retainers" }

// StripeManaged reports whether the retainer originated from the billing
// reconciler (id prefix convention).
func (r *Retainer) StripeManaged() bool {
	return strings.HasPrefix(r.ID, StripeRetainerPrefix)
}
