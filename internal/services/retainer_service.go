// Package services – RetainerService
//
// Manages user-owned retainer records. Reconciler-owned rows (ids in the
// stripe_sub_ namespace) are written exclusively by the billing
// reconciliation run; this service refuses to mint new ids in that
// namespace but will overwrite an existing prefixed row on explicit PUT
// (the next reconciliation run reclaims it wholesale anyway).
package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
	"github.com/digitalwiz/go-crm-backend/internal/notify"
	"github.com/digitalwiz/go-crm-backend/internal/repo"
)

// RetainerService provides retainer CRUD with shape normalization.
type RetainerService struct {
	DB  *gorm.DB
	Hub *notify.Hub

	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// NewRetainerService constructs a RetainerService.
func NewRetainerService(db *gorm.DB, hub *notify.Hub) *RetainerService {
	return &RetainerService{DB: db, Hub: hub, Now: time.Now}
}

// RetainerInput carries the fields of the retainer form.
type RetainerInput struct {
	ClientName      string
	ServiceType     string
	MonthlyAmount   int64
	StartDate       string
	NextBillingDate string
	PaymentStatus   string
}

// List returns every retainer ordered by client name, shape-normalized.
func (s *RetainerService) List(ctx context.Context) ([]domain.Retainer, error) {
	rs, err := repo.ListRetainers(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	domain.NormalizeRetainers(rs, s.now())
	return rs, nil
}

// Create inserts a new user-owned retainer with a generated, non-prefixed id.
func (s *RetainerService) Create(ctx context.Context, in RetainerInput) (*domain.Retainer, error) {
	name := strings.TrimSpace(in.ClientName)
	if name == "" {
		return nil, ErrEmptyClientName
	}

	r := &domain.Retainer{
		ID:              uuid.NewString(),
		ClientName:      name,
		ServiceType:     strings.TrimSpace(in.ServiceType),
		MonthlyAmount:   in.MonthlyAmount,
		StartDate:       in.StartDate,
		NextBillingDate: in.NextBillingDate,
		PaymentStatus:   in.PaymentStatus,
	}
	domain.NormalizeRetainer(r, s.now())

	if err := repo.UpsertRetainer(ctx, s.DB, r); err != nil {
		return nil, err
	}
	s.publish()
	return r, nil
}

// Upsert writes a full row keyed on id. Ids in the reconciler namespace are
// rejected unless the row already exists (no minting stripe_sub_ ids by
// hand).
func (s *RetainerService) Upsert(ctx context.Context, r *domain.Retainer) error {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	if strings.TrimSpace(r.ClientName) == "" {
		return ErrEmptyClientName
	}
	if r.StripeManaged() {
		if _, err := repo.GetRetainer(ctx, s.DB, r.ID); err != nil {
			return ErrReservedRetainerID
		}
	}
	domain.NormalizeRetainer(r, s.now())

	if err := repo.UpsertRetainer(ctx, s.DB, r); err != nil {
		return err
	}
	s.publish()
	return nil
}

// Delete removes a retainer. Deleting a missing retainer is a no-op.
func (s *RetainerService) Delete(ctx context.Context, id string) error {
	if err := repo.DeleteRetainer(ctx, s.DB, id); err != nil {
		return err
	}
	s.publish()
	return nil
}

func (s *RetainerService) publish() {
	if s.Hub != nil {
		s.Hub.Publish(notify.EntityRetainers)
	}
}

func (s *RetainerService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
