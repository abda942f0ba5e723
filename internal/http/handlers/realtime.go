package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
	"github.com/relaydesk/relaydesk-backend/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type RealtimeHandler struct {
	hub *realtime.Hub
	log *logger.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, log *logger.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		log: log.With("handler", "RealtimeHandler"),
	}
}

// Stream upgrades the connection and subscribes it to the hub. The
// subscriber receives every envelope published after this point until it
// disconnects; past events are pulled explicitly through the replay
// endpoint, never pushed on connect.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := realtime.NewClient(h.hub, conn, h.log)
	go client.WritePump()
	go client.ReadPump()
}
