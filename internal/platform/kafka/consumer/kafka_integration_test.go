//go:build integration

package consumer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"caseprocessor/internal/platform/kafka/consumer"
	"caseprocessor/internal/platform/kafka/producer"
	"caseprocessor/pkg/testutil/containers"
)

func TestConsumeCommitAndDeadLetter(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	prod, err := producer.New(rp.Brokers, logger)
	require.NoError(t, err)
	defer prod.Close()

	require.NoError(t, prod.Ping(ctx))
	require.NoError(t, prod.EnsureTopics(ctx, 1, 1, "case.responses"))
	require.NoError(t, prod.EnsureTopics(ctx, 1, 1, "case.responses"), "existing topics are tolerated")

	for _, v := range []string{"one", "two", "three"} {
		require.NoError(t, prod.Publish(ctx, "case.responses", []byte("key-"+v), []byte(v),
			map[string]string{"eventType": "RESPONSE_RECEIVED"}))
	}

	var (
		mu       sync.Mutex
		received []*consumer.Message
	)
	runCtx, stop := context.WithCancel(ctx)
	handler := consumer.HandlerFunc(func(ctx context.Context, msg *consumer.Message) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, msg)
		if len(received) == 2 {
			// the second message is disposed of as a reject
			if err := prod.Reject(ctx, msg, "hash-two", errors.New("boom")); err != nil {
				return err
			}
		}
		if len(received) == 3 {
			stop()
		}
		return nil
	})

	c, err := consumer.New(rp.Brokers, "case-processor.case.responses", "case.responses", handler, logger,
		consumer.WithClientOpts(kgo.ConsumeResetOffset(kgo.NewOffset().AtStart())))
	require.NoError(t, err)
	require.NoError(t, c.Run(runCtx))

	mu.Lock()
	require.Len(t, received, 3)
	assert.Equal(t, "one", string(received[0].Value))
	assert.Equal(t, "key-one", string(received[0].Key))
	assert.Equal(t, "RESPONSE_RECEIVED", received[0].Headers["eventType"])
	mu.Unlock()

	t.Run("committed offsets are not redelivered", func(t *testing.T) {
		require.NoError(t, prod.Publish(ctx, "case.responses", nil, []byte("four"), nil))

		var got []string
		again, stopAgain := context.WithCancel(ctx)
		c, err := consumer.New(rp.Brokers, "case-processor.case.responses", "case.responses",
			consumer.HandlerFunc(func(_ context.Context, msg *consumer.Message) error {
				got = append(got, string(msg.Value))
				stopAgain()
				return nil
			}), logger, consumer.WithClientOpts(kgo.ConsumeResetOffset(kgo.NewOffset().AtStart())))
		require.NoError(t, err)
		require.NoError(t, c.Run(again))
		assert.Equal(t, []string{"four"}, got)
	})

	t.Run("rejected message lands on the dead letter topic", func(t *testing.T) {
		client, err := kgo.NewClient(
			kgo.SeedBrokers(rp.Brokers...),
			kgo.ConsumeTopics(prod.DeadLetterTopic("case.responses")),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		)
		require.NoError(t, err)
		defer client.Close()

		fetches := client.PollRecords(ctx, 1)
		require.NoError(t, fetches.Err())
		records := fetches.Records()
		require.Len(t, records, 1)

		msg := consumer.FromRecord(records[0])
		assert.Equal(t, "case.responses.dlq", msg.Topic)
		assert.Equal(t, "two", string(msg.Value))
		assert.Equal(t, "key-two", string(msg.Key))
		assert.Equal(t, "RESPONSE_RECEIVED", msg.Headers["eventType"])
		assert.Equal(t, "case.responses", msg.Headers[producer.HeaderOriginalTopic])
		assert.Equal(t, "1", msg.Headers[producer.HeaderOriginalOffset])
		assert.Equal(t, "hash-two", msg.Headers[producer.HeaderMessageHash])
		assert.Equal(t, "boom", msg.Headers[producer.HeaderException])
	})
}
