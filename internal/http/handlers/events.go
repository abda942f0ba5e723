package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
	"github.com/relaydesk/relaydesk-backend/internal/services"
)

type EventHandler struct {
	events services.EventService
	log    *logger.Logger
}

func NewEventHandler(events services.EventService, log *logger.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		log:    log.With("handler", "EventHandler"),
	}
}

// Replay serves the durable log: ?since_event_id= cursors strictly past
// that event, ?limit= is clamped server-side.
func (h *EventHandler) Replay(c *gin.Context) {
	var since *string
	if v := c.Query("since_event_id"); v != "" {
		since = &v
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	envelopes, err := h.events.Replay(c.Request.Context(), since, limit)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": envelopes})
}
