package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"caseprocessor/internal/platform/metrics"
)

const commitTimeout = 10 * time.Second

// Consumer runs a group of workers over one topic. Each worker is its own group
// member and handles its records strictly one at a time, so the broker spreads
// partitions across workers.
type Consumer struct {
	topic   string
	group   string
	brokers []string
	workers int
	handler Handler
	logger  *slog.Logger
	metrics *metrics.Metrics
	opts    []kgo.Opt
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithWorkers sets how many group members consume the topic.
func WithWorkers(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithMetrics enables consumer metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Consumer) { c.metrics = m }
}

// WithClientOpts appends raw kgo options, for tests and TLS setups.
func WithClientOpts(opts ...kgo.Opt) Option {
	return func(c *Consumer) { c.opts = append(c.opts, opts...) }
}

// New creates a consumer for topic in group.
func New(brokers []string, group, topic string, handler Handler, logger *slog.Logger, opts ...Option) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if group == "" || topic == "" {
		return nil, errors.New("group and topic are required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		topic:   topic,
		group:   group,
		brokers: brokers,
		workers: 1,
		handler: handler,
		logger:  logger.With("topic", topic, "group", group),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run starts the workers and blocks until ctx is cancelled or a worker fails.
func (c *Consumer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, c.workers)
	for i := range c.workers {
		go func() {
			errCh <- c.runWorker(ctx, i)
		}()
	}

	var first error
	for range c.workers {
		if err := <-errCh; err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func (c *Consumer) runWorker(ctx context.Context, worker int) error {
	opts := append([]kgo.Opt{
		kgo.SeedBrokers(c.brokers...),
		kgo.ConsumerGroup(c.group),
		kgo.ConsumeTopics(c.topic),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
		kgo.FetchMaxWait(time.Second),
	}, c.opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return fmt.Errorf("create consumer client: %w", err)
	}
	defer client.Close()

	log := c.logger.With("worker", worker)
	log.InfoContext(ctx, "consumer started")
	defer log.Info("consumer stopped")

	for {
		fetches := client.PollRecords(ctx, 1)
		if ctx.Err() != nil {
			client.AllowRebalance()
			return nil
		}
		if fetches.IsClientClosed() {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			log.ErrorContext(ctx, "fetch failed", "partition", partition, "error", err)
		})

		var handleErr error
		fetches.EachRecord(func(r *kgo.Record) {
			if handleErr != nil {
				return
			}
			handleErr = c.process(ctx, client, r)
		})
		client.AllowRebalance()
		if handleErr != nil {
			if ctx.Err() != nil {
				return nil
			}
			return handleErr
		}
	}
}

// process hands the record to the handler and commits it once the handler has
// disposed of it. A handler error leaves the offset uncommitted; the worker stops
// so the record is redelivered to whichever member picks up the partition.
func (c *Consumer) process(ctx context.Context, client *kgo.Client, r *kgo.Record) error {
	msg := FromRecord(r)
	start := time.Now()
	err := c.handler.Handle(ctx, msg)
	c.metrics.ObserveHandled(r.Topic, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("handle %s/%d@%d: %w", r.Topic, r.Partition, r.Offset, err)
	}
	// The message is disposed of; commit even if shutdown has begun.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	if err := client.CommitRecords(commitCtx, r); err != nil {
		c.metrics.IncrementCommitFailures(r.Topic)
		return fmt.Errorf("commit %s/%d@%d: %w", r.Topic, r.Partition, r.Offset, err)
	}
	return nil
}

// FromRecord converts a kgo record. Repeated header keys keep the last value.
func FromRecord(r *kgo.Record) *Message {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
		Timestamp: r.Timestamp,
	}
}
