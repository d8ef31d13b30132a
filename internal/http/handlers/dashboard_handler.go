// Dashboard HTTP handler.
//
// Exposes GET /dashboard: the aggregated metrics view over the full deal and
// retainer collections. The summary is recomputed on every request from fresh
// snapshots; nothing is cached.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digitalwiz/go-crm-backend/internal/dashboard"
)

// GetDashboard godoc
// @ID          getDashboard
// @Summary     Dashboard summary
// @Description Returns pipeline value, MRR, follow-ups, outstanding balance, recent activity, stage breakdown, and won-revenue split.
// @Tags        Dashboard
// @Produce     json
//
// @Success     200  {object} dashboard.Summary
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dashboard [get]
func (h *Handlers) GetDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	deals, err := h.dealSvc.List(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	retainers, err := h.retainerSvc.List(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	summary := dashboard.Compute(deals, retainers, time.Now().UTC(), h.followUpAfter)
	ok(c, http.StatusOK, summary)
}
