package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	chatrepo "github.com/relaydesk/relaydesk-backend/internal/data/repos/chat"
	"github.com/relaydesk/relaydesk-backend/internal/data/repos/eventlog"
	"github.com/relaydesk/relaydesk-backend/internal/domain/chat"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/dbctx"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

// Broadcaster is the live fan-out primitive: one payload to every currently
// connected subscriber, no backlog for anyone not listening.
type Broadcaster interface {
	Send(payload string)
}

// Publisher delivers domain events to subscribers. Publishing is
// best-effort by contract: failures are logged here and never surfaced, so
// a use case's success is defined purely by persistence.
type Publisher interface {
	Publish(ctx context.Context, events []chat.DomainEvent)
}

// LoggedPublisher decorates a Broadcaster with a durable event log. Per
// event: serialize, append to the log keyed by event id (insert-or-ignore),
// then forward to the broadcaster regardless of the append outcome —
// durability and delivery are deliberately decoupled.
type LoggedPublisher struct {
	bus      Broadcaster
	eventLog eventlog.EventLogRepo
	messages chatrepo.MessageRepo
	clock    func() time.Time
	log      *logger.Logger
}

func NewLoggedPublisher(bus Broadcaster, eventLog eventlog.EventLogRepo, messages chatrepo.MessageRepo, clock func() time.Time, log *logger.Logger) *LoggedPublisher {
	if clock == nil {
		clock = time.Now
	}
	return &LoggedPublisher{
		bus:      bus,
		eventLog: eventLog,
		messages: messages,
		clock:    clock,
		log:      log.With("service", "LoggedPublisher"),
	}
}

func (p *LoggedPublisher) Publish(ctx context.Context, events []chat.DomainEvent) {
	dbc := dbctx.Background(ctx)
	for _, event := range events {
		env := Serialize(event, p.enrich(dbc, event), p.clock())

		payload, err := json.Marshal(env)
		if err != nil {
			p.log.Error("failed to marshal envelope", "event_id", env.EventID, "error", err)
			continue
		}

		// A malformed envelope must never crash the publish loop: skip the
		// durable append, keep broadcasting.
		if env.EventID == "" || env.Type == "" || env.EmittedAt == "" {
			p.log.Warn("envelope missing required fields, skipping durable append",
				"event_id", env.EventID, "type", env.Type, "emitted_at", env.EmittedAt)
		} else if err := p.eventLog.Append(dbc, eventlog.Row{
			EventID:     env.EventID,
			EventType:   env.Type,
			EmittedAt:   env.EmittedAt,
			PayloadJSON: string(payload),
		}); err != nil {
			p.log.Error("event log append failed", "event_id", env.EventID, "error", err)
		}

		p.bus.Send(string(payload))
	}
}

// enrich resolves the current message row for envelope kinds that embed it.
// A failed lookup degrades to an id-only envelope rather than failing the
// publish.
func (p *LoggedPublisher) enrich(dbc dbctx.Context, event chat.DomainEvent) *chat.Message {
	var messageID uuid.UUID
	switch e := event.(type) {
	case chat.MessageAppended:
		messageID = e.MessageID
	case chat.MessageUpdated:
		messageID = e.MessageID
	default:
		return nil
	}
	msg, err := p.messages.Find(dbc, messageID)
	if err != nil {
		p.log.Warn("enrichment lookup failed", "message_id", messageID.String(), "error", err)
		return nil
	}
	return msg
}
