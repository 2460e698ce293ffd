package worker

import (
	"context"
	"log/slog"
	"time"

	auditpg "samved/pkg/platform/audit/store/postgres"

	"github.com/google/uuid"
)

// OutboxSource yields unpublished outbox rows and marks them once relayed.
type OutboxSource interface {
	FetchUnprocessed(ctx context.Context, limit int) ([]auditpg.OutboxEntry, error)
	MarkProcessed(ctx context.Context, entryID uuid.UUID) error
}

// Publisher delivers one record to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// TxRunner runs fn inside a transaction so fetched rows stay locked until marked.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Relay moves audit events from the outbox table to Kafka.
type Relay struct {
	source    OutboxSource
	publisher Publisher
	topic     string
	interval  time.Duration
	batchSize int
	runInTx   TxRunner
	logger    *slog.Logger
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithTxRunner(run TxRunner) Option {
	return func(r *Relay) {
		r.runInTx = run
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(source OutboxSource, publisher Publisher, topic string, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		topic:     topic,
		interval:  2 * time.Second,
		batchSize: 100,
		runInTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays batches until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "audit outbox relay failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were relayed.
// The batch stops at the first publish failure; remaining rows are retried
// on the next tick.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	relayed := 0
	err := r.runInTx(ctx, func(ctx context.Context) error {
		entries, err := r.source.FetchUnprocessed(ctx, r.batchSize)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := r.publisher.Publish(ctx, r.topic, []byte(e.AggregateID), e.Payload); err != nil {
				return err
			}
			if err := r.source.MarkProcessed(ctx, e.ID); err != nil {
				return err
			}
			relayed++
		}
		return nil
	})
	return relayed, err
}
