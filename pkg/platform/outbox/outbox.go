// Package outbox implements the transactional outbox: messages are appended in the
// same transaction as the state change they announce and a relay publishes them
// to the broker afterwards.
package outbox

import (
	"context"
	"time"
)

// Message is one outbox row.
type Message struct {
	ID          int64
	Topic       string
	Key         string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
	Attempts    int
	LastError   string
}

// Store persists outbox rows. Pending must lock the rows it returns for the
// lifetime of the surrounding transaction and skip rows locked by other relays.
type Store interface {
	Append(ctx context.Context, msg *Message) error
	Pending(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// Publisher delivers one message to the broker and returns once it is acknowledged.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// TxRunner opens the transaction a relay batch runs in.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// HeaderEventType names the event type header set on every relayed message.
const HeaderEventType = "eventType"
