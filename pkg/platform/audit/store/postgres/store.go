package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	audit "samved/pkg/platform/audit"
	txcontext "samved/pkg/platform/tx"

	"github.com/google/uuid"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table and published to Kafka by the relay.
// The audit_events table is the materialized read side fed by the consumer.
type Store struct {
	db     *sql.DB
	inline bool
}

type Option func(*Store)

// WithInlineMaterialize writes events straight into audit_events and skips
// the outbox. Use it when no relay is running.
func WithInlineMaterialize() Option {
	return func(s *Store) {
		s.inline = true
	}
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Payload is the JSON structure published to Kafka.
type Payload struct {
	ID        string            `json:"id"`
	Category  string            `json:"category"`
	Timestamp time.Time         `json:"timestamp"`
	Subject   string            `json:"subject"`
	Action    string            `json:"action"`
	Reason    string            `json:"reason,omitempty"`
	Email     string            `json:"email,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	ActorID   string            `json:"actor_id,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// ToEvent converts a decoded payload back into an audit event.
func (p Payload) ToEvent() audit.Event {
	return audit.Event{
		Category:  audit.EventCategory(p.Category),
		Timestamp: p.Timestamp,
		Subject:   p.Subject,
		Action:    p.Action,
		Reason:    p.Reason,
		Email:     p.Email,
		RequestID: p.RequestID,
		ActorID:   p.ActorID,
		Detail:    p.Detail,
	}
}

// Append writes an audit event to the outbox table for Kafka publishing, or
// directly to audit_events in inline mode.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	category := audit.AuditEvent(event.Action).Category()
	if s.inline {
		event.Category = category
		return s.AppendWithID(ctx, eventID, event)
	}

	payload := Payload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp,
		Subject:   event.Subject,
		Action:    event.Action,
		Reason:    event.Reason,
		Email:     event.Email,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
		Detail:    event.Detail,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		eventID,
		string(category),
		event.Subject,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// OutboxEntry is an unpublished outbox row.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// FetchUnprocessed returns up to limit unpublished entries, oldest first.
// Rows are locked with SKIP LOCKED so concurrent relays do not double-publish.
func (s *Store) FetchUnprocessed(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	var (
		rows *sql.Rows
		err  error
	)
	if tx, ok := txcontext.From(ctx); ok {
		rows, err = tx.QueryContext(ctx, query, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkProcessed stamps an outbox entry as published.
func (s *Store) MarkProcessed(ctx context.Context, entryID uuid.UUID) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE outbox SET processed_at = $2 WHERE id = $1`, entryID, time.Now())
	if err != nil {
		return fmt.Errorf("mark outbox entry processed: %w", err)
	}
	return nil
}

// AppendWithID inserts an audit event into the audit_events table with a specific ID.
// Used by the Kafka consumer; duplicate deliveries are ignored.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	if event.Detail == nil {
		detail = []byte("{}")
	}
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, subject, action,
			reason, email, request_id, actor_id, detail
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		eventID,
		string(event.Category),
		event.Timestamp,
		event.Subject,
		event.Action,
		event.Reason,
		event.Email,
		event.RequestID,
		event.ActorID,
		detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectEvents = `
	SELECT category, timestamp, subject, action,
		   reason, email, request_id, actor_id, detail
	FROM audit_events
`

// ListBySubject returns materialized events for one aggregate, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvents+` WHERE subject = $1 ORDER BY timestamp`, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent materialized events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvents+` ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			category string
			detail   []byte
			event    audit.Event
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&event.Subject,
			&event.Action,
			&event.Reason,
			&event.Email,
			&event.RequestID,
			&event.ActorID,
			&detail,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, fmt.Errorf("decode audit detail: %w", err)
			}
			if len(event.Detail) == 0 {
				event.Detail = nil
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
