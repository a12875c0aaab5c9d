package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"caseprocessor/pkg/platform/errs"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = 500 * time.Millisecond
	defaultBatchTimeout = 2 * time.Second
)

// Relay drains pending outbox rows to the broker in id order. A publish failure
// ends the batch so later messages never overtake an earlier one. A batch also
// ends once its time budget is spent, so the transaction marking rows published
// commits before it can expire; unpublished rows stay pending for the next batch.
type Relay struct {
	store     Store
	tx        TxRunner
	publisher Publisher
	logger    *slog.Logger
	metrics   *Metrics

	batchSize    int
	batchTimeout time.Duration
	pollInterval time.Duration
	now          func() time.Time
}

// Option configures a Relay.
type Option func(*Relay)

// WithBatchSize caps the rows claimed per transaction.
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithBatchTimeout bounds the time spent publishing one batch. Keep it below the
// transaction timeout of the TxRunner.
func WithBatchTimeout(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.batchTimeout = d
		}
	}
}

// WithPollInterval sets how often an idle relay looks for work.
func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithMetrics enables relay metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

// WithClock overrides the clock used to stamp published rows and time batches.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// NewRelay builds a relay.
func NewRelay(store Store, tx TxRunner, publisher Publisher, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		store:        store,
		tx:           tx,
		publisher:    publisher,
		logger:       logger,
		batchSize:    defaultBatchSize,
		batchTimeout: defaultBatchTimeout,
		pollInterval: defaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run publishes until ctx is cancelled. Full or cut-short batches are followed
// immediately by another poll; partial batches wait for the poll interval.
func (r *Relay) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		n, more, err := r.publishBatch(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Warn("outbox relay batch failed", "error", errs.Loggable(err))
		}

		wait := r.pollInterval
		if err == nil && (more || n == r.batchSize) {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// PublishPending runs one batch and returns the number of messages published.
func (r *Relay) PublishPending(ctx context.Context) (int, error) {
	n, _, err := r.publishBatch(ctx)
	return n, err
}

// publishBatch also reports whether the time budget cut the batch short.
func (r *Relay) publishBatch(ctx context.Context) (int, bool, error) {
	published := 0
	cutShort := false
	var publishErr error

	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		msgs, err := r.store.Pending(ctx, r.batchSize)
		if err != nil {
			return errs.Wrap(err, "load pending outbox messages")
		}

		start := r.now()
		for i, msg := range msgs {
			if i > 0 && r.now().Sub(start) >= r.batchTimeout {
				cutShort = true
				break
			}
			headers := map[string]string{HeaderEventType: msg.EventType}
			if err := r.publisher.Publish(ctx, msg.Topic, []byte(msg.Key), msg.Payload, headers); err != nil {
				r.metrics.failed(msg.Topic)
				publishErr = errs.Wrapf(err, "publish outbox message %d", msg.ID)
				if markErr := r.store.MarkFailed(ctx, msg.ID, err.Error()); markErr != nil {
					return errs.Wrap(markErr, "mark outbox message failed")
				}
				return nil
			}

			now := r.now()
			if err := r.store.MarkPublished(ctx, msg.ID, now); err != nil {
				return errs.Wrap(err, "mark outbox message published")
			}
			r.metrics.published(msg.Topic, now.Sub(msg.CreatedAt))
			published++
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	if publishErr != nil {
		return published, false, publishErr
	}
	if published > 0 {
		r.logger.Debug("outbox messages published", "count", published, "cut_short", cutShort)
	}
	return published, cutShort, nil
}

