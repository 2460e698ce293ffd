// Package outbox queues notification intents in process memory so the
// request path never waits on delivery.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"samved/internal/notify/metrics"
	"samved/internal/notify/models"
	"samved/pkg/requestcontext"
)

// Outbox is a bounded intent queue with a wake-up signal for the worker.
// Enqueue never blocks and never fails.
type Outbox struct {
	buf     *RingBuffer
	wake    chan struct{}
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Outbox)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Outbox) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Outbox) {
		o.metrics = m
	}
}

func New(capacity int, opts ...Option) *Outbox {
	o := &Outbox{
		buf:  NewRingBuffer(capacity),
		wake: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enqueue stores the intent, evicting the oldest one when full.
func (o *Outbox) Enqueue(ctx context.Context, intent models.Intent) {
	if intent.EnqueuedAt.IsZero() {
		intent.EnqueuedAt = time.Now()
	}
	evicted, dropped := o.buf.Enqueue(intent)
	if dropped {
		if o.logger != nil {
			o.logger.WarnContext(ctx, "notification outbox full, dropped oldest intent",
				"dropped_kind", string(evicted.Kind),
				"dropped_to", evicted.To,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		if o.metrics != nil {
			o.metrics.IncrementDropped()
		}
	}
	if o.metrics != nil {
		o.metrics.IncrementEnqueued(string(intent.Kind))
	}
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Wake fires after at least one Enqueue since the last receive.
func (o *Outbox) Wake() <-chan struct{} {
	return o.wake
}

func (o *Outbox) DequeueBatch(n int) []models.Intent {
	return o.buf.DequeueBatch(n)
}

func (o *Outbox) Len() int {
	return o.buf.Len()
}

func (o *Outbox) Dropped() int64 {
	return o.buf.Dropped()
}
