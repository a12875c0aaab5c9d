package outbox

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process outbox for tests and single-process development runs.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	msgs   map[int64]*Message
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{msgs: make(map[int64]*Message)}
}

// RunInTx runs fn directly; each method is individually atomic.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func (s *MemoryStore) Append(_ context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	msg.ID = s.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	stored := *msg
	stored.Payload = append([]byte(nil), msg.Payload...)
	s.msgs[msg.ID] = &stored
	return nil
}

func (s *MemoryStore) Pending(_ context.Context, limit int) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, 0, limit)
	for _, m := range s.sorted() {
		if m.PublishedAt != nil {
			continue
		}
		if len(out) == limit {
			break
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) MarkPublished(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.msgs[id]; ok {
		m.PublishedAt = &at
		m.Attempts++
	}
	return nil
}

func (s *MemoryStore) MarkFailed(_ context.Context, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.msgs[id]; ok {
		m.Attempts++
		m.LastError = reason
	}
	return nil
}

// All returns copies of every message in id order.
func (s *MemoryStore) All() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, 0, len(s.msgs))
	for _, m := range s.sorted() {
		out = append(out, *m)
	}
	return out
}

func (s *MemoryStore) sorted() []*Message {
	out := make([]*Message, 0, len(s.msgs))
	for _, m := range s.msgs {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
