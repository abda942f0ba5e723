package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relaydesk/relaydesk-backend/internal/data/db"
	chatrepo "github.com/relaydesk/relaydesk-backend/internal/data/repos/chat"
	"github.com/relaydesk/relaydesk-backend/internal/data/repos/eventlog"
	"github.com/relaydesk/relaydesk-backend/internal/events"
	httpx "github.com/relaydesk/relaydesk-backend/internal/http"
	httpH "github.com/relaydesk/relaydesk-backend/internal/http/handlers"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
	"github.com/relaydesk/relaydesk-backend/internal/realtime"
	"github.com/relaydesk/relaydesk-backend/internal/services"
)

// App wires the storage, event, realtime, and HTTP layers together.
type App struct {
	cfg    Config
	log    *logger.Logger
	server *http.Server
}

func New(cfg Config, log *logger.Logger) (*App, error) {
	dbService, err := db.New(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		return nil, err
	}
	handle := dbService.DB()

	conversationRepo := chatrepo.NewConversationRepo(handle, log)
	messageRepo := chatrepo.NewMessageRepo(handle, log)
	eventLogRepo := eventlog.NewEventLogRepo(handle, log)

	hub := realtime.NewHub(log, cfg.WSSendBuffer)
	publisher := events.NewLoggedPublisher(hub, eventLogRepo, messageRepo, time.Now, log)

	conversationService := services.NewConversationService(handle, conversationRepo, publisher, time.Now, log)
	messageService := services.NewMessageService(handle, conversationRepo, messageRepo, publisher, time.Now, log)
	eventService := services.NewEventService(eventLogRepo, log)

	router := httpx.NewRouter(httpx.RouterConfig{
		Log:                 log,
		ConversationHandler: httpH.NewConversationHandler(conversationService, log),
		MessageHandler:      httpH.NewMessageHandler(messageService, log),
		EventHandler:        httpH.NewEventHandler(eventService, log),
		RealtimeHandler:     httpH.NewRealtimeHandler(hub, log),
		HealthHandler:       httpH.NewHealthHandler(eventLogRepo, log),
	})

	return &App{
		cfg: cfg,
		log: log.With("component", "App"),
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router,
		},
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("http server listening", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
