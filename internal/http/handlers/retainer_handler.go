// Retainer HTTP handlers.
//
// This file exposes REST endpoints for retainer resources:
//   - GET    /retainers       (list, ETag support)
//   - POST   /retainers       (create user-owned retainer)
//   - PUT    /retainers/{id}  (full-row upsert)
//   - DELETE /retainers/{id}  (delete, missing is a no-op)
//
// Rows with the stripe_sub_ id prefix belong to the billing reconciler; the
// service layer refuses to mint new ids in that namespace.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
	"github.com/digitalwiz/go-crm-backend/internal/repo"
	"github.com/digitalwiz/go-crm-backend/internal/services"
)

// RetainerService defines retainer CRUD operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RetainerService interface {
	// List returns every retainer ordered by client name.
	List(ctx context.Context) ([]domain.Retainer, error)
	// Create inserts a new user-owned retainer with a generated id.
	Create(ctx context.Context, in services.RetainerInput) (*domain.Retainer, error)
	// Upsert writes a full row keyed on id.
	Upsert(ctx context.Context, r *domain.Retainer) error
	// Delete removes a retainer; missing retainers are a no-op.
	Delete(ctx context.Context, id string) error
}

// CreateRetainerRequest is the JSON payload for creating a retainer.
type CreateRetainerRequest struct {
	// ClientName is the only required field.
	ClientName      string `json:"clientName" binding:"required" example:"Acme Corp"`
	ServiceType     string `json:"serviceType" example:"SEO"`
	MonthlyAmount   int64  `json:"monthlyAmount" example:"500"`
	StartDate       string `json:"startDate" example:"2025-01-10"`
	NextBillingDate string `json:"nextBillingDate" example:"2025-07-10"`
	PaymentStatus   string `json:"paymentStatus" example:"Pending"`
}

// ListRetainers godoc
// @ID          listRetainers
// @Summary     List all retainers
// @Description Returns every retainer ordered by client name. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Retainers
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}  domain.Retainer
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /retainers [get]
func (h *Handlers) ListRetainers(c *gin.Context) {
	ctx := c.Request.Context()

	if h.db != nil {
		count, maxTS, err := repo.RetainersStats(ctx, h.db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"retainers:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	rs, err := h.retainerSvc.List(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, rs)
}

// CreateRetainer godoc
// @ID          createRetainer
// @Summary     Create a retainer
// @Description Creates a user-owned retainer with a generated id (never in the reconciler's namespace).
// @Tags        Retainers
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateRetainerRequest  true  "Retainer payload"
//
// @Success     201  {object} domain.Retainer
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /retainers [post]
func (h *Handlers) CreateRetainer(c *gin.Context) {
	var req CreateRetainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	r, err := h.retainerSvc.Create(c.Request.Context(), services.RetainerInput{
		ClientName:      req.ClientName,
		ServiceType:     req.ServiceType,
		MonthlyAmount:   req.MonthlyAmount,
		StartDate:       req.StartDate,
		NextBillingDate: req.NextBillingDate,
		PaymentStatus:   req.PaymentStatus,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}

// UpsertRetainer godoc
// @ID          upsertRetainer
// @Summary     Upsert a retainer
// @Description Writes the full row keyed on the path id. Ids in the stripe_sub_ namespace are rejected unless the row already exists.
// @Tags        Retainers
// @Accept      json
// @Produce     json
//
// @Param       id    path  string           true  "Retainer ID"
// @Param       body  body  domain.Retainer  true  "Full retainer record"
//
// @Success     200  {object} domain.Retainer
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     409  {object} handlers.ErrorResponse "Reserved id namespace"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /retainers/{id} [put]
func (h *Handlers) UpsertRetainer(c *gin.Context) {
	var r domain.Retainer
	if err := c.ShouldBindJSON(&r); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	// The path id is authoritative.
	r.ID = c.Param("id")

	if err := h.retainerSvc.Upsert(c.Request.Context(), &r); err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// DeleteRetainer godoc
// @ID          deleteRetainer
// @Summary     Delete a retainer
// @Description Removes a retainer. Deleting a missing retainer is a no-op and still returns 204.
// @Tags        Retainers
//
// @Param       id  path  string  true  "Retainer ID"
//
// @Success     204  {string} string "No Content"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /retainers/{id} [delete]
func (h *Handlers) DeleteRetainer(c *gin.Context) {
	if err := h.retainerSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}
