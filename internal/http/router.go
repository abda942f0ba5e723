package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/relaydesk/relaydesk-backend/internal/http/handlers"
	httpMW "github.com/relaydesk/relaydesk-backend/internal/http/middleware"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	ConversationHandler *httpH.ConversationHandler
	MessageHandler      *httpH.MessageHandler
	EventHandler        *httpH.EventHandler
	RealtimeHandler     *httpH.RealtimeHandler
	HealthHandler       *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	if cfg.RealtimeHandler != nil {
		r.GET("/ws", cfg.RealtimeHandler.Stream)
	}

	api := r.Group("/api")
	{
		if cfg.ConversationHandler != nil {
			api.POST("/conversations", cfg.ConversationHandler.Create)
			api.GET("/conversations/:id", cfg.ConversationHandler.Get)
			api.PATCH("/conversations/:id/status", cfg.ConversationHandler.UpdateStatus)
		}
		if cfg.MessageHandler != nil {
			api.POST("/conversations/:id/messages", cfg.MessageHandler.Send)
			api.GET("/conversations/:id/messages", cfg.MessageHandler.List)
			api.PATCH("/messages/:id", cfg.MessageHandler.Update)
			api.DELETE("/messages/:id", cfg.MessageHandler.Delete)
		}
		if cfg.EventHandler != nil {
			api.GET("/events", cfg.EventHandler.Replay)
		}
	}

	return r
}
