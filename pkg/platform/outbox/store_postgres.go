package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	txcontext "caseprocessor/pkg/platform/tx"
)

// PostgresStore keeps outbox rows in the outbox table. Every method joins the
// transaction carried in ctx, if any.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts msg and sets its ID and CreatedAt.
func (s *PostgresStore) Append(ctx context.Context, msg *Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO outbox (topic, key, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		msg.Topic, msg.Key, msg.EventType, msg.Payload, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// Pending claims up to limit unpublished rows in id order. Outside a transaction
// the row locks are released immediately, so callers should use a TxRunner.
func (s *PostgresStore) Pending(ctx context.Context, limit int) ([]*Message, error) {
	query := `
		SELECT id, topic, key, event_type, payload, created_at, attempts, COALESCE(last_error, '')
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.ID, &m.Topic, &m.Key, &m.EventType, &m.Payload, &m.CreatedAt, &m.Attempts, &m.LastError); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return out, nil
}

// MarkPublished stamps the row as delivered.
func (s *PostgresStore) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE outbox SET published_at = $2, attempts = attempts + 1 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	return nil
}

// MarkFailed records a failed publish attempt.
func (s *PostgresStore) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE outbox SET attempts = attempts + 1, last_error = $2 WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("mark outbox entry failed: %w", err)
	}
	return nil
}
