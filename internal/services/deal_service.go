// Package services – DealService
//
// This file implements the DealService, which manages the lifecycle of deals:
// quick-add creation (with the automatic "created" timeline entry), full-row
// upserts from clients, stage moves, activity logging, and deletion. Every
// mutation that counts as an interaction bumps LastInteraction; every
// committed write publishes a change signal so subscribed clients re-fetch.
//
// Service-level errors (e.g., ErrDealNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
	"github.com/digitalwiz/go-crm-backend/internal/notify"
	"github.com/digitalwiz/go-crm-backend/internal/repo"
)

// DealRepo defines the repository contract required by DealService.
// Implementations are responsible for persistence of deal rows.
type DealRepo interface {
	// ListDeals returns all deals ordered by creation time descending.
	ListDeals(ctx context.Context, db *gorm.DB) ([]domain.Deal, error)

	// GetDeal fetches a deal by ID or ErrNotFound.
	GetDeal(ctx context.Context, db *gorm.DB, id string) (*domain.Deal, error)

	// UpsertDeal writes the full row keyed on id.
	UpsertDeal(ctx context.Context, db *gorm.DB, d *domain.Deal) error

	// DeleteDeal removes a row; missing rows are a no-op.
	DeleteDeal(ctx context.Context, db *gorm.DB, id string) error
}

// DealService provides deal-level operations. It enforces stage and
// activity-type rules, owns the append-only activity timeline, and keeps
// records fully shaped via domain normalization.
type DealService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the deal repository used by this service.
	Repo DealRepo
	// Hub receives a deals change signal after each committed mutation.
	// Optional: nil disables notifications (tests).
	Hub *notify.Hub

	// NameMaxLen caps stored business names by rune length.
	NameMaxLen int
	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// NewDealService constructs a DealService with sane defaults.
func NewDealService(db *gorm.DB, r DealRepo, hub *notify.Hub) *DealService {
	return &DealService{
		DB:         db,
		Repo:       r,
		Hub:        hub,
		NameMaxLen: 255,
		Now:        time.Now,
	}
}

// QuickAddInput carries the minimal fields of a quick-add form.
type QuickAddInput struct {
	BusinessName    string
	ContactPerson   string
	Phone           string
	Email           string
	Website         string
	Notes           string
	Services        []domain.ServiceSelection
	EstimatedValue  int64
	IsRetainer      bool
	MonthlyRetainer int64
}

// List returns every deal, newest first, shape-normalized.
func (s *DealService) List(ctx context.Context) ([]domain.Deal, error) {
	ds, err := s.Repo.ListDeals(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	domain.NormalizeDeals(ds, s.now())
	return ds, nil
}

// Get fetches a single deal, shape-normalized, or ErrDealNotFound.
func (s *DealService) Get(ctx context.Context, id string) (*domain.Deal, error) {
	d, err := s.Repo.GetDeal(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, err
	}
	domain.NormalizeDeal(d, s.now())
	return d, nil
}

// QuickAdd creates a new deal in the Prospect stage from minimal fields and
// appends the automatic "created" activity.
func (s *DealService) QuickAdd(ctx context.Context, in QuickAddInput) (*domain.Deal, error) {
	name := normalizeName(in.BusinessName)
	if name == "" {
		return nil, ErrEmptyBusinessName
	}
	now := s.now()

	d := &domain.Deal{
		ID:              uuid.NewString(),
		BusinessName:    s.clip(name),
		ContactPerson:   strings.TrimSpace(in.ContactPerson),
		Phone:           strings.TrimSpace(in.Phone),
		Email:           strings.TrimSpace(in.Email),
		Website:         strings.TrimSpace(in.Website),
		Notes:           in.Notes,
		Services:        in.Services,
		EstimatedValue:  in.EstimatedValue,
		IsRetainer:      in.IsRetainer,
		MonthlyRetainer: in.MonthlyRetainer,
		Stage:           domain.StageProspect,
		LastInteraction: now,
		CreatedAt:       now,
		Activities: []domain.Activity{{
			ID:          uuid.NewString(),
			Type:        domain.ActivityCreated,
			Description: "Deal created",
			Timestamp:   now,
		}},
	}
	domain.NormalizeDeal(d, now)

	if err := s.Repo.UpsertDeal(ctx, s.DB, d); err != nil {
		return nil, err
	}
	s.publish()
	return d, nil
}

// Upsert writes a full row supplied by the client, keyed on its id (missing
// rows are created; existing rows are overwritten, last write wins). The
// record is shape-normalized first and its stage validated.
func (s *DealService) Upsert(ctx context.Context, d *domain.Deal) error {
	if strings.TrimSpace(d.ID) == "" {
		d.ID = uuid.NewString()
	}
	if normalizeName(d.BusinessName) == "" {
		return ErrEmptyBusinessName
	}
	if d.Stage != "" && !domain.ValidStage(d.Stage) {
		return ErrInvalidStage
	}
	domain.NormalizeDeal(d, s.now())

	if err := s.Repo.UpsertDeal(ctx, s.DB, d); err != nil {
		return err
	}
	s.publish()
	return nil
}

// MoveStage moves a deal to a new pipeline stage, appending a stage_change
// activity and bumping LastInteraction.
func (s *DealService) MoveStage(ctx context.Context, id, stage string) (*domain.Deal, error) {
	if !domain.ValidStage(stage) {
		return nil, ErrInvalidStage
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	d.Stage = stage
	s.prependActivity(d, domain.ActivityStageChange, fmt.Sprintf("Moved to %s", stage), now)

	if err := s.Repo.UpsertDeal(ctx, s.DB, d); err != nil {
		return nil, err
	}
	s.publish()
	return d, nil
}

// LogActivity records a manual interaction (note, call, or email) on the
// deal's timeline and bumps LastInteraction.
func (s *DealService) LogActivity(ctx context.Context, id, typ, description string) (*domain.Deal, error) {
	switch typ {
	case domain.ActivityNote, domain.ActivityCall, domain.ActivityEmail:
	default:
		// created and stage_change are system-generated only.
		return nil, ErrInvalidActivityType
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.prependActivity(d, typ, strings.TrimSpace(description), s.now())

	if err := s.Repo.UpsertDeal(ctx, s.DB, d); err != nil {
		return nil, err
	}
	s.publish()
	return d, nil
}

// Delete removes a deal. Deleting a missing deal is a no-op.
func (s *DealService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.DeleteDeal(ctx, s.DB, id); err != nil {
		return err
	}
	s.publish()
	return nil
}

// prependActivity pushes a new timeline entry to the front (newest first)
// and bumps LastInteraction. Existing entries are never touched.
func (s *DealService) prependActivity(d *domain.Deal, typ, description string, now time.Time) {
	entry := domain.Activity{
		ID:          uuid.NewString(),
		Type:        typ,
		Description: description,
		Timestamp:   now,
	}
	d.Activities = append([]domain.Activity{entry}, d.Activities...)
	d.LastInteraction = now
}

func (s *DealService) publish() {
	if s.Hub != nil {
		s.Hub.Publish(notify.EntityDeals)
	}
}

func (s *DealService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// clip truncates a business name to the configured maximum rune length.
func (s *DealService) clip(name string) string {
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		return string([]rune(name)[:s.NameMaxLen])
	}
	return name
}

// normalizeName trims whitespace and collapses multiple spaces to one.
func normalizeName(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// dealRepoFuncs adapts the repository free functions to the DealRepo
// interface. This keeps services decoupled from the concrete repo package
// while reusing existing functions.
type dealRepoFuncs struct{}

// DefaultDealRepo returns the production DealRepo backed by the repo package.
func DefaultDealRepo() DealRepo { return dealRepoFuncs{} }

func (dealRepoFuncs) ListDeals(ctx context.Context, db *gorm.DB) ([]domain.Deal, error) {
	return repo.ListDeals(ctx, db)
}

func (dealRepoFuncs) GetDeal(ctx context.Context, db *gorm.DB, id string) (*domain.Deal, error) {
	return repo.GetDeal(ctx, db, id)
}

func (dealRepoFuncs) UpsertDeal(ctx context.Context, db *gorm.DB, d *domain.Deal) error {
	return repo.UpsertDeal(ctx, db, d)
}

func (dealRepoFuncs) DeleteDeal(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteDeal(ctx, db, id)
}
