// Package producer publishes to Kafka: relayed outbox messages and rejected
// inbound messages on their dead letter topics.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"

	"caseprocessor/internal/platform/kafka/consumer"
)

// Dead letter headers carried alongside the original message headers.
const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderMessageHash       = "x-message-hash"
	HeaderException         = "x-exception"
)

// Producer wraps a kgo client for synchronous produces.
type Producer struct {
	client    *kgo.Client
	dlqSuffix string
	logger    *slog.Logger
}

// Option configures a Producer.
type Option func(*producerOptions)

type producerOptions struct {
	dlqSuffix string
	kgoOpts   []kgo.Opt
}

// WithDeadLetterSuffix sets the suffix appended to a topic name to form its dead
// letter topic.
func WithDeadLetterSuffix(s string) Option {
	return func(o *producerOptions) {
		if s != "" {
			o.dlqSuffix = s
		}
	}
}

// WithClientOpts appends raw kgo options.
func WithClientOpts(opts ...kgo.Opt) Option {
	return func(o *producerOptions) { o.kgoOpts = append(o.kgoOpts, opts...) }
}

// New connects a producer. Produces wait for all in-sync replicas.
func New(brokers []string, logger *slog.Logger, opts ...Option) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := producerOptions{dlqSuffix: ".dlq"}
	for _, opt := range opts {
		opt(&o)
	}
	client, err := kgo.NewClient(append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	}, o.kgoOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("create producer client: %w", err)
	}
	return &Producer{client: client, dlqSuffix: o.dlqSuffix, logger: logger}, nil
}

// Close releases the client.
func (p *Producer) Close() {
	p.client.Close()
}

// Publish produces one record and waits for the broker acknowledgement.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	rec := &kgo.Record{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: toHeaders(headers),
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// DeadLetterTopic returns the dead letter topic for topic.
func (p *Producer) DeadLetterTopic(topic string) string {
	return topic + p.dlqSuffix
}

// Reject moves msg to its dead letter topic with the original payload, key and
// headers plus its provenance and the failure that exhausted it.
func (p *Producer) Reject(ctx context.Context, msg *consumer.Message, messageHash string, cause error) error {
	headers := make(map[string]string, len(msg.Headers)+5)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderOriginalPartition] = strconv.FormatInt(int64(msg.Partition), 10)
	headers[HeaderOriginalOffset] = strconv.FormatInt(msg.Offset, 10)
	headers[HeaderMessageHash] = messageHash
	if cause != nil {
		headers[HeaderException] = cause.Error()
	}

	dlq := p.DeadLetterTopic(msg.Topic)
	if err := p.Publish(ctx, dlq, msg.Key, msg.Value, headers); err != nil {
		return err
	}
	p.logger.WarnContext(ctx, "message rejected to dead letter topic",
		"topic", msg.Topic,
		"dead_letter_topic", dlq,
		"offset", msg.Offset,
		"message_hash", messageHash,
	)
	return nil
}

func toHeaders(headers map[string]string) []kgo.RecordHeader {
	if len(headers) == 0 {
		return nil
	}
	out := make([]kgo.RecordHeader, 0, len(headers))
	for k, v := range headers {
		out = append(out, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return out
}
