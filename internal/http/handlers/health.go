package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relaydesk/relaydesk-backend/internal/data/repos/eventlog"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/dbctx"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

type HealthHandler struct {
	eventLog eventlog.EventLogRepo
	log      *logger.Logger
}

func NewHealthHandler(eventLog eventlog.EventLogRepo, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		eventLog: eventLog,
		log:      log.With("handler", "HealthHandler"),
	}
}

// HealthCheck verifies the backing store is reachable by counting the event
// log and reports the count alongside the status.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	n, err := h.eventLog.Count(dbctx.Background(c.Request.Context()))
	if err != nil {
		h.log.Error("healthcheck storage probe failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "events": n})
}
