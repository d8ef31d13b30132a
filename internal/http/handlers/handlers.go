// Handler wiring.
//
// Handlers groups the HTTP endpoints for deals, retainers, the dashboard,
// synchronization, and change events. It depends on abstract service
// interfaces to keep transport concerns separate from business logic; the
// *gorm.DB handle is used only for cheap ETag stats and idempotency records.
package handlers

import (
	"time"

	"gorm.io/gorm"

	"github.com/digitalwiz/go-crm-backend/internal/notify"
)

// Handlers bundles every endpoint's dependencies.
type Handlers struct {
	dealSvc     DealService
	retainerSvc RetainerService
	syncSvc     SyncService

	hub *notify.Hub
	db  *gorm.DB

	followUpAfter  time.Duration
	idempotencyTTL time.Duration
}

// Options carries the tunables Handlers needs beyond its services.
type Options struct {
	// FollowUpAfter is the dashboard's staleness window for follow-ups.
	FollowUpAfter time.Duration
	// IdempotencyTTL bounds how long a recorded Idempotency-Key stays valid.
	IdempotencyTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(deals DealService, retainers RetainerService, sync SyncService, hub *notify.Hub, db *gorm.DB, opts Options) *Handlers {
	return &Handlers{
		dealSvc:        deals,
		retainerSvc:    retainers,
		syncSvc:        sync,
		hub:            hub,
		db:             db,
		followUpAfter:  opts.FollowUpAfter,
		idempotencyTTL: opts.IdempotencyTTL,
	}
}
