// Deal HTTP handlers.
//
// This file exposes REST endpoints for deal resources:
//   - GET    /deals                 (list, ETag support)
//   - GET    /deals/search          (keyword search over the deal set)
//   - GET    /deals/{id}            (fetch)
//   - POST   /deals                 (quick-add)
//   - PUT    /deals/{id}            (full-row upsert, last write wins)
//   - PUT    /deals/{id}/stage      (pipeline move)
//   - POST   /deals/{id}/activities (log interaction)
//   - DELETE /deals/{id}            (delete, missing is a no-op)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
	"github.com/digitalwiz/go-crm-backend/internal/repo"
	"github.com/digitalwiz/go-crm-backend/internal/search"
	"github.com/digitalwiz/go-crm-backend/internal/services"
	"github.com/digitalwiz/go-crm-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// DealService defines deal lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DealService interface {
	// List returns every deal, newest first.
	List(ctx context.Context) ([]domain.Deal, error)
	// Get fetches a deal by id or services.ErrDealNotFound.
	Get(ctx context.Context, id string) (*domain.Deal, error)
	// QuickAdd creates a new Prospect-stage deal from minimal fields.
	QuickAdd(ctx context.Context, in services.QuickAddInput) (*domain.Deal, error)
	// Upsert writes a full row keyed on id (last write wins).
	Upsert(ctx context.Context, d *domain.Deal) error
	// MoveStage moves a deal to a new pipeline stage.
	MoveStage(ctx context.Context, id, stage string) (*domain.Deal, error)
	// LogActivity records a manual interaction on the deal's timeline.
	LogActivity(ctx context.Context, id, typ, description string) (*domain.Deal, error)
	// Delete removes a deal; missing deals are a no-op.
	Delete(ctx context.Context, id string) error
}

//
// DTOs
//

// QuickAddDealRequest is the JSON payload for the quick-add endpoint.
type QuickAddDealRequest struct {
	// BusinessName is the only required field.
	BusinessName    string                    `json:"businessName" binding:"required" example:"Joe's Plumbing"`
	ContactPerson   string                    `json:"contactPerson" example:"Joe Smith"`
	Phone           string                    `json:"phone" example:"+44 20 7946 0000"`
	Email           string                    `json:"email" example:"joe@plumbing.example"`
	Website         string                    `json:"website" example:"https://plumbing.example"`
	Notes           string                    `json:"notes"`
	Services        []domain.ServiceSelection `json:"services"`
	EstimatedValue  int64                     `json:"estimatedValue" example:"1500"`
	IsRetainer      bool                      `json:"isRetainer"`
	MonthlyRetainer int64                     `json:"monthlyRetainer"`
}

// MoveStageRequest is the JSON payload for a pipeline move.
type MoveStageRequest struct {
	// Stage must be one of the fixed pipeline stages.
	Stage string `json:"stage" binding:"required" example:"Meeting"`
}

// LogActivityRequest is the JSON payload for logging an interaction.
type LogActivityRequest struct {
	// Type is one of note, call, or email (system types are rejected).
	Type        string `json:"type" binding:"required" example:"call"`
	Description string `json:"description" example:"Left a voicemail"`
}

// SearchDealsResponse wraps ranked search hits with their full records.
type SearchDealsResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

// SearchHit is one ranked deal.
type SearchHit struct {
	Score float64     `json:"score"`
	Deal  domain.Deal `json:"deal"`
}

//
// Handlers
//

// ListDeals godoc
// @ID          listDeals
// @Summary     List all deals
// @Description Returns every deal, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Deals
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"deals:3:1718000000\")
//
// @Success     200  {array}  domain.Deal
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /deals [get]
func (h *Handlers) ListDeals(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if h.db != nil {
		count, maxTS, err := repo.DealsStats(ctx, h.db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"deals:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	deals, err := h.dealSvc.List(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, deals)
}

// SearchDeals godoc
// @ID          searchDeals
// @Summary     Search deals
// @Description Ranks deals by keyword similarity over name, contact, email, notes, and services.
// @Tags        Deals
// @Produce     json
//
// @Param       q  query  string  true  "Search query"       example(plumbing)
// @Param       k  query  int     false "Maximum results"    minimum(1) maximum(50) default(10)
//
// @Success     200  {object} handlers.SearchDealsResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing query"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /deals/search [get]
func (h *Handlers) SearchDeals(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	k := utils.AtoiDefault(c.Query("k"), 10)
	if k < 1 {
		k = 1
	}
	if k > 50 {
		k = 50
	}

	deals, err := h.dealSvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	// The index is rebuilt per request: the deal set is small and the index
	// must reflect writes immediately.
	idx := search.NewIndex(deals)
	byID := make(map[string]domain.Deal, len(deals))
	for _, d := range deals {
		byID[d.ID] = d
	}

	hits := idx.TopK(q, k)
	resp := SearchDealsResponse{Query: q, Results: make([]SearchHit, 0, len(hits))}
	for _, r := range hits {
		if d, found := byID[r.DealID]; found {
			resp.Results = append(resp.Results, SearchHit{Score: r.Score, Deal: d})
		}
	}
	ok(c, http.StatusOK, resp)
}

// GetDeal godoc
// @ID          getDeal
// @Summary     Fetch a deal
// @Tags        Deals
// @Produce     json
//
// @Param       id  path  string  true  "Deal ID"
//
// @Success     200  {object} domain.Deal
// @Failure     404  {object} handlers.ErrorResponse "Deal not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /deals/{id} [get]
func (h *Handlers) GetDeal(c *gin.Context) {
	d, err := h.dealSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// QuickAddDeal godoc
// @ID          quickAddDeal
// @Summary     Quick-add a deal
// @Description Creates a new Prospect-stage deal with an automatic "created" timeline entry.
// @Tags        Deals
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.QuickAddDealRequest  true  "Quick-add payload"
//
// @Success     201  {object} domain.Deal
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /deals [post]
func (h *Handlers) QuickAddDeal(c *gin.Context) {
	var req QuickAddDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	d, err := h.dealSvc.QuickAdd(c.Request.Context(), services.QuickAddInput{
		BusinessName:    req.BusinessName,
		ContactPerson:   req.ContactPerson,
		Phone:           req.Phone,
		Email:           req.Email,
		Website:         req.Website,
		Notes:           req.Notes,
		Services:        req.Services,
		EstimatedValue:  req.EstimatedValue,
		IsRetainer:      req.IsRetainer,
		MonthlyRetainer: req.MonthlyRetainer,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, d)
}

// UpsertDeal godoc
// @ID          upsertDeal
// @Summary     Upsert a deal
// @Description Writes the full row keyed on the path id. Missing rows are created; existing rows are overwritten (last write wins).
// @Tags        Deals
// @Accept      json
// @Produce     json
//
// @Param       id    path  string       true  "Deal ID"
// @Param       body  body  domain.Deal  true  "Full deal record"
//
// @Success     200  {object} domain.Deal
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /deals/{id} [put]
func (h *Handlers) UpsertDeal(c *gin.Context) {
	var d domain.Deal
	if err := c.ShouldBindJSON(&d); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	// The path id is authoritative.
	d.ID = c.Param("id")

	if err := h.dealSvc.Upsert(c.Request.Context(), &d); err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// MoveDealStage godoc
// @ID          moveDealStage
// @Summary     Move a deal to another pipeline stage
// @Description Appends a stage_change activity and bumps lastInteraction.
// @Tags        Deals
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Deal ID"
// @Param       body  body  handlers.MoveStageRequest  true  "Target stage"
//
// @Success     200  {object} domain.Deal
// @Failure     400  {object} handlers.ErrorResponse "Invalid stage"
// @Failure     404  {object} handlers.ErrorResponse "Deal not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /deals/{id}/stage [put]
func (h *Handlers) MoveDealStage(c *gin.Context) {
	var req MoveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "stage required")
		return
	}

	d, err := h.dealSvc.MoveStage(c.Request.Context(), c.Param("id"), req.Stage)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// LogDealActivity godoc
// @ID          logDealActivity
// @Summary     Log an interaction on a deal
// @Description Prepends a note, call, or email entry to the deal's timeline and bumps lastInteraction.
// @Tags        Deals
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Deal ID"
// @Param       body  body  handlers.LogActivityRequest  true  "Activity payload"
//
// @Success     200  {object} domain.Deal
// @Failure     400  {object} handlers.ErrorResponse "Invalid activity type"
// @Failure     404  {object} handlers.ErrorResponse "Deal not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /deals/{id}/activities [post]
func (h *Handlers) LogDealActivity(c *gin.Context) {
	var req LogActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "type required")
		return
	}

	d, err := h.dealSvc.LogActivity(c.Request.Context(), c.Param("id"), req.Type, req.Description)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// DeleteDeal godoc
// @ID          deleteDeal
// @Summary     Delete a deal
// @Description Removes a deal. Deleting a missing deal is a no-op and still returns 204.
// @Tags        Deals
//
// @Param       id  path  string  true  "Deal ID"
//
// @Success     204  {string} string "No Content"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /deals/{id} [delete]
func (h *Handlers) DeleteDeal(c *gin.Context) {
	if err := h.dealSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

// failFromService maps service-layer sentinel errors onto the HTTP error
// taxonomy. Unknown errors become 500s.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDealNotFound), errors.Is(err, services.ErrRetainerNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrEmptyBusinessName), errors.Is(err, services.ErrEmptyClientName),
		errors.Is(err, services.ErrInvalidStage), errors.Is(err, services.ErrInvalidActivityType),
		errors.Is(err, services.ErrMalformedSnapshot):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrReservedRetainerID):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
