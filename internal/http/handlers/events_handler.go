// Change-event HTTP handler (Server-Sent Events).
//
// Exposes GET /events/{entity}: a long-lived SSE stream that emits a
// "change" event whenever the named collection commits a write. The event
// carries no diff; subscribers are expected to re-fetch the full collection.
// Signals are coalesced, so a burst of writes may surface as one event.
package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digitalwiz/go-crm-backend/internal/http/middleware"
	"github.com/digitalwiz/go-crm-backend/internal/notify"
)

// sseHeartbeat keeps idle connections alive through proxies.
const sseHeartbeat = 30 * time.Second

// StreamEvents godoc
// @ID          streamEvents
// @Summary     Subscribe to change events
// @Description Server-Sent Events stream. Emits a "change" event naming the entity whenever deals or retainers are written. Clients re-fetch on receipt.
// @Tags        Events
// @Produce     text/event-stream
//
// @Param       entity  path  string  true  "Entity to watch"  Enums(deals, retainers)
//
// @Success     200  {string} string "event stream"
// @Failure     400  {object} handlers.ErrorResponse "Unknown entity"
// @Router      /events/{entity} [get]
func (h *Handlers) StreamEvents(c *gin.Context) {
	entity := c.Param("entity")
	if !notify.ValidEntity(entity) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown entity")
		return
	}

	ch, cancel := h.hub.Subscribe(entity)
	defer cancel()

	// The server-wide WriteTimeout is an absolute deadline per response and
	// would sever the stream before the first heartbeat. Lift it for this
	// request; the stream ends when the client disconnects.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("clear sse write deadline")
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-ch:
			c.SSEvent("change", entity)
			return true
		case <-heartbeat.C:
			// Comment line per the SSE spec; ignored by clients.
			_, _ = w.Write([]byte(": ping\n\n"))
			return true
		}
	})
}
