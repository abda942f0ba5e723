package services

import (
	"context"
	"encoding/json"

	"github.com/relaydesk/relaydesk-backend/internal/data/repos/eventlog"
	"github.com/relaydesk/relaydesk-backend/internal/events"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/dbctx"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

type EventService interface {
	// Replay streams past envelopes from the durable log in append order,
	// strictly after the cursor event when one is given.
	Replay(ctx context.Context, sinceEventID *string, limit int) ([]events.Envelope, error)
}

type eventService struct {
	eventLog eventlog.EventLogRepo
	log      *logger.Logger
}

func NewEventService(eventLog eventlog.EventLogRepo, log *logger.Logger) EventService {
	return &eventService{
		eventLog: eventLog,
		log:      log.With("service", "EventService"),
	}
}

func (s *eventService) Replay(ctx context.Context, sinceEventID *string, limit int) ([]events.Envelope, error) {
	rows, err := s.eventLog.ReplaySince(dbctx.Background(ctx), sinceEventID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]events.Envelope, 0, len(rows))
	for _, row := range rows {
		var env events.Envelope
		if err := json.Unmarshal([]byte(row.PayloadJSON), &env); err != nil {
			s.log.Warn("skipping undecodable event log row", "event_id", row.EventID, "error", err)
			continue
		}
		out = append(out, env)
	}
	return out, nil
}
