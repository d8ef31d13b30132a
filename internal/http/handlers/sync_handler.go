// Synchronization HTTP handlers.
//
// This file exposes the whole-collection operations:
//   - GET  /export          (full {deals, retainers} snapshot)
//   - POST /import          (wholesale upsert of a snapshot)
//   - PUT  /deals           (diff-based collection replace)
//   - POST /sync/prospects  (merge the prospect feed into the deal set)
//
// Import and prospect sync honor the Idempotency-Key header: a replayed key
// within its TTL returns the current state without re-applying the mutation.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
	"github.com/digitalwiz/go-crm-backend/internal/http/middleware"
	"github.com/digitalwiz/go-crm-backend/internal/repo"
	"github.com/digitalwiz/go-crm-backend/internal/services"
)

// SyncService defines the whole-collection operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SyncService interface {
	// Export returns the full deal and retainer collections.
	Export(ctx context.Context) (*services.Snapshot, error)
	// Import upserts every record of a parsed snapshot (all-or-nothing parse).
	Import(ctx context.Context, payload []byte) (*services.Snapshot, error)
	// ApplyDeals replaces the deal collection using diff semantics.
	ApplyDeals(ctx context.Context, next []domain.Deal) error
	// SyncProspects merges the prospect feed into the local deal set.
	SyncProspects(ctx context.Context) (added, total int, err error)
}

// ImportResponse reports what an import wrote.
type ImportResponse struct {
	Deals     int  `json:"deals"`
	Retainers int  `json:"retainers"`
	Replayed  bool `json:"replayed,omitempty"`
}

// SyncProspectsResponse reports the outcome of a prospect-feed merge.
type SyncProspectsResponse struct {
	Added    int  `json:"added"`
	Total    int  `json:"total"`
	Replayed bool `json:"replayed,omitempty"`
}

// ExportData godoc
// @ID          exportData
// @Summary     Export all data
// @Description Returns the full {deals, retainers} snapshot as a JSON document.
// @Tags        Sync
// @Produce     json
//
// @Success     200  {object} services.Snapshot
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /export [get]
func (h *Handlers) ExportData(c *gin.Context) {
	snap, err := h.syncSvc.Export(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, snap)
}

// ImportData godoc
// @ID          importData
// @Summary     Import a data snapshot
// @Description Upserts every record in a {deals, retainers} document. A payload that fails to parse writes nothing. Records absent from the payload are left alone.
// @Tags        Sync
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Dedupe retries of the same import"
// @Param       body             body    services.Snapshot  true  "Snapshot document"
//
// @Success     200  {object} handlers.ImportResponse
// @Failure     400  {object} handlers.ErrorResponse "Malformed snapshot"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /import [post]
func (h *Handlers) ImportData(c *gin.Context) {
	if middleware.IsReplay(c) {
		ok(c, http.StatusOK, ImportResponse{Replayed: true})
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable request body")
		return
	}

	snap, err := h.syncSvc.Import(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, services.ErrMalformedSnapshot) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeImportFailed, err.Error())
		return
	}

	h.recordIdempotency(c)
	ok(c, http.StatusOK, ImportResponse{Deals: len(snap.Deals), Retainers: len(snap.Retainers)})
}

// ReplaceDeals godoc
// @ID          replaceDeals
// @Summary     Replace the deal collection
// @Description Diffs the submitted collection against the store by id and deep equality: changed or new records are upserted, absent records are deleted.
// @Tags        Sync
// @Accept      json
// @Produce     json
//
// @Param       body  body  []domain.Deal  true  "Full next deal collection"
//
// @Success     200  {array}  domain.Deal
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /deals [put]
func (h *Handlers) ReplaceDeals(c *gin.Context) {
	var next []domain.Deal
	if err := c.ShouldBindJSON(&next); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.syncSvc.ApplyDeals(c.Request.Context(), next); err != nil {
		failFromService(c, err)
		return
	}

	deals, err := h.dealSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, deals)
}

// SyncProspects godoc
// @ID          syncProspects
// @Summary     Merge the prospect feed
// @Description Refreshes the external prospect feed and adds deals with unseen ids. Existing records are never overwritten; a dead feed adds nothing.
// @Tags        Sync
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Dedupe retries of the same sync"
//
// @Success     200  {object} handlers.SyncProspectsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sync/prospects [post]
func (h *Handlers) SyncProspects(c *gin.Context) {
	ctx := c.Request.Context()

	if middleware.IsReplay(c) {
		deals, err := h.dealSvc.List(ctx)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
			return
		}
		ok(c, http.StatusOK, SyncProspectsResponse{Added: 0, Total: len(deals), Replayed: true})
		return
	}

	added, total, err := h.syncSvc.SyncProspects(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSyncFailed, err.Error())
		return
	}

	h.recordIdempotency(c)
	ok(c, http.StatusOK, SyncProspectsResponse{Added: added, Total: total})
}

// recordIdempotency persists the request's Idempotency-Key (when present) so
// later retries replay instead of re-applying. Best effort: failures are not
// surfaced to the client, the operation itself already succeeded.
func (h *Handlers) recordIdempotency(c *gin.Context) {
	key, present := middleware.GetIdempotencyKey(c)
	if !present || h.db == nil {
		return
	}
	scope := middleware.IdempotencyScope(c)
	_, err := repo.CreateIdempotency(c.Request.Context(), h.db, scope, key, c.Writer.Status(), h.idempotencyTTL)
	if err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("record idempotency key")
	}
}
