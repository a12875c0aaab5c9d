package producer

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
)

// Ping checks that the cluster answers a metadata request with at least one broker.
func (p *Producer) Ping(ctx context.Context) error {
	brokers, err := kadm.NewClient(p.client).ListBrokers(ctx)
	if err != nil {
		return fmt.Errorf("list brokers: %w", err)
	}
	if len(brokers) == 0 {
		return errors.New("no brokers available")
	}
	return nil
}

// EnsureTopics creates each topic and its dead letter topic when missing.
func (p *Producer) EnsureTopics(ctx context.Context, partitions int32, replicationFactor int16, topics ...string) error {
	names := make([]string, 0, len(topics)*2)
	for _, t := range topics {
		names = append(names, t, p.DeadLetterTopic(t))
	}
	resp, err := kadm.NewClient(p.client).CreateTopics(ctx, partitions, replicationFactor, nil, names...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, r := range resp.Sorted() {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}
