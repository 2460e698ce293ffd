// Package worker drains the notification outbox in the background.
package worker

import (
	"context"
	"log/slog"
	"time"

	"samved/internal/notify/models"
)

// Source is the queue the worker drains.
type Source interface {
	Wake() <-chan struct{}
	DequeueBatch(n int) []models.Intent
	Len() int
}

type Dispatcher interface {
	Dispatch(ctx context.Context, intent models.Intent) error
}

// Worker delivers queued intents. Delivery failures are logged and the
// intent is discarded; there is no retry.
type Worker struct {
	source     Source
	dispatcher Dispatcher
	batchSize  int
	interval   time.Duration
	drainTTL   time.Duration
	logger     *slog.Logger
}

type Option func(*Worker)

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithFlushInterval sets the fallback poll interval used in addition to
// wake-ups from the outbox.
func WithFlushInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithDrainTimeout bounds delivery of the remaining intents on shutdown.
func WithDrainTimeout(d time.Duration) Option {
	return func(w *Worker) {
		w.drainTTL = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func New(source Source, dispatcher Dispatcher, opts ...Option) *Worker {
	w := &Worker{
		source:     source,
		dispatcher: dispatcher,
		batchSize:  32,
		interval:   time.Second,
		drainTTL:   5 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run delivers intents until ctx is cancelled, then drains what is left.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case <-w.source.Wake():
			w.Flush(ctx)
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush delivers everything currently queued and returns the number of
// intents attempted.
func (w *Worker) Flush(ctx context.Context) int {
	attempted := 0
	for {
		batch := w.source.DequeueBatch(w.batchSize)
		if len(batch) == 0 {
			return attempted
		}
		for _, intent := range batch {
			attempted++
			if err := w.dispatcher.Dispatch(ctx, intent); err != nil {
				w.logger.WarnContext(ctx, "notification delivery failed",
					"kind", string(intent.Kind),
					"to", intent.To,
					"recipients", len(intent.Recipients),
					"error", err,
				)
			}
		}
	}
}

func (w *Worker) drain() {
	if w.source.Len() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.drainTTL)
	defer cancel()
	n := w.Flush(ctx)
	w.logger.Info("notification outbox drained", "delivered", n)
}
