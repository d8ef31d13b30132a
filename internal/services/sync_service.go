// Package services – SyncService
//
// Implements whole-collection operations: JSON export/import, the
// diff-by-id-and-deep-equality collection sync used by batch-editing
// clients, and the prospect-feed merge. These are the operations that
// replay entire record sets, so each one publishes change signals only
// after its writes commit.
package services

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"gorm.io/gorm"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
	"github.com/digitalwiz/go-crm-backend/internal/notify"
	"github.com/digitalwiz/go-crm-backend/internal/prospects"
	"github.com/digitalwiz/go-crm-backend/internal/repo"
)

// Snapshot is the import/export document: the full deal and retainer sets.
type Snapshot struct {
	Deals     []domain.Deal     `json:"deals"`
	Retainers []domain.Retainer `json:"retainers"`
}

// SyncService bundles the whole-collection operations.
type SyncService struct {
	DB   *gorm.DB
	Hub  *notify.Hub
	Feed *prospects.Feed

	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// NewSyncService constructs a SyncService.
func NewSyncService(db *gorm.DB, hub *notify.Hub, feed *prospects.Feed) *SyncService {
	return &SyncService{DB: db, Hub: hub, Feed: feed, Now: time.Now}
}

// Export returns the full deal and retainer collections as a snapshot,
// shape-normalized, in store order (deals newest first, retainers by
// client name).
func (s *SyncService) Export(ctx context.Context) (*Snapshot, error) {
	deals, err := repo.ListDeals(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	retainers, err := repo.ListRetainers(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	now := s.now()
	domain.NormalizeDeals(deals, now)
	domain.NormalizeRetainers(retainers, now)
	return &Snapshot{Deals: deals, Retainers: retainers}, nil
}

// Import parses a snapshot document and upserts every record present.
// A payload that fails to parse writes nothing and returns
// ErrMalformedSnapshot; a payload that parses is written atomically
// (whole snapshot or nothing). Records absent from the payload are left
// alone: import adds and overwrites, it never deletes.
func (s *SyncService) Import(ctx context.Context, payload []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, ErrMalformedSnapshot
	}
	now := s.now()
	domain.NormalizeDeals(snap.Deals, now)
	domain.NormalizeRetainers(snap.Retainers, now)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpsertDeals(ctx, tx, snap.Deals); err != nil {
			return err
		}
		return repo.UpsertRetainers(ctx, tx, snap.Retainers)
	})
	if err != nil {
		return nil, err
	}

	if s.Hub != nil {
		if len(snap.Deals) > 0 {
			s.Hub.Publish(notify.EntityDeals)
		}
		if len(snap.Retainers) > 0 {
			s.Hub.Publish(notify.EntityRetainers)
		}
	}
	return &snap, nil
}

// ApplyDeals replaces the stored deal collection with next using
// diff semantics: records changed or new in next are upserted, records
// absent from next are deleted, identical records are not rewritten.
func (s *SyncService) ApplyDeals(ctx context.Context, next []domain.Deal) error {
	prev, err := repo.ListDeals(ctx, s.DB)
	if err != nil {
		return err
	}
	now := s.now()
	domain.NormalizeDeals(next, now)
	upserts, deletes := DiffDeals(prev, next)

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpsertDeals(ctx, tx, upserts); err != nil {
			return err
		}
		for _, id := range deletes {
			if err := repo.DeleteDeal(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.Hub != nil && (len(upserts) > 0 || len(deletes) > 0) {
		s.Hub.Publish(notify.EntityDeals)
	}
	return nil
}

// SyncProspects refreshes the prospect feed and merges its deals into the
// local set with left bias: existing records are never overwritten, feed
// records with unseen ids are added. A dead feed degrades to added=0.
// It returns the number of added deals and the resulting total.
func (s *SyncService) SyncProspects(ctx context.Context) (added, total int, err error) {
	local, err := repo.ListDeals(ctx, s.DB)
	if err != nil {
		return 0, 0, err
	}

	// Best-effort refresh; Load degrades to an empty document on failure.
	_ = s.Feed.Refresh(ctx)
	doc := s.Feed.Load(ctx)

	merged := prospects.MergeDeals(local, doc.Deals)
	fresh := merged[len(local):]
	if len(fresh) > 0 {
		now := s.now()
		domain.NormalizeDeals(fresh, now)
		if err := repo.UpsertDeals(ctx, s.DB, fresh); err != nil {
			return 0, 0, err
		}
		if s.Hub != nil {
			s.Hub.Publish(notify.EntityDeals)
		}
	}
	return len(fresh), len(merged), nil
}

// DiffDeals compares two deal collections by id and deep value equality.
// It returns the records to upsert (present in next but changed or absent
// in prev) and the ids to delete (present in prev but absent from next).
func DiffDeals(prev, next []domain.Deal) (upserts []domain.Deal, deletes []string) {
	prevByID := make(map[string]domain.Deal, len(prev))
	for _, d := range prev {
		prevByID[d.ID] = d
	}
	nextIDs := make(map[string]struct{}, len(next))

	for _, d := range next {
		nextIDs[d.ID] = struct{}{}
		old, ok := prevByID[d.ID]
		if !ok || !reflect.DeepEqual(old, d) {
			upserts = append(upserts, d)
		}
	}
	for _, d := range prev {
		if _, ok := nextIDs[d.ID]; !ok {
			deletes = append(deletes, d.ID)
		}
	}
	return upserts, deletes
}

func (s *SyncService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
