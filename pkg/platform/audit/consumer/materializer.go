package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"samved/internal/platform/kafka/consumer"
	audit "samved/pkg/platform/audit"
	auditpg "samved/pkg/platform/audit/store/postgres"

	"github.com/google/uuid"
)

// EventWriter persists a decoded event under its outbox ID.
type EventWriter interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Materializer writes relayed audit events into the queryable audit_events table.
type Materializer struct {
	store  EventWriter
	logger *slog.Logger
}

func NewMaterializer(store EventWriter, logger *slog.Logger) *Materializer {
	return &Materializer{store: store, logger: logger}
}

// Handle decodes and stores one event. Malformed messages are logged and
// skipped so they do not block the partition.
func (m *Materializer) Handle(ctx context.Context, msg *consumer.Message) error {
	var payload auditpg.Payload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		m.logger.WarnContext(ctx, "skipping malformed audit message",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	eventID, err := uuid.Parse(payload.ID)
	if err != nil {
		m.logger.WarnContext(ctx, "skipping audit message without id",
			"topic", msg.Topic,
			"offset", msg.Offset,
		)
		return nil
	}
	return m.store.AppendWithID(ctx, eventID, payload.ToEvent())
}
