package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/outbox"
	"caseprocessor/pkg/platform/sentinel"
)

// InMemoryStore keeps cases, links and audit events in process. Transactions hold
// one store-wide lock, which also stands in for the case row lock, and restore a
// snapshot on failure. Outbox messages are buffered and handed to the outbox
// store only on commit.
type InMemoryStore struct {
	mu     sync.Mutex
	state  *memState
	outbox *outbox.MemoryStore
}

type memState struct {
	cases  map[uuid.UUID]*models.Case
	links  map[uuid.UUID]*models.UacQidLink
	events []*models.Event
}

type memTx struct {
	owner   *InMemoryStore
	pending []*outbox.Message
}

type memTxKey struct{}

// NewInMemoryStore creates an empty store publishing committed messages to ob.
func NewInMemoryStore(ob *outbox.MemoryStore) *InMemoryStore {
	if ob == nil {
		ob = outbox.NewMemoryStore()
	}
	return &InMemoryStore{
		state: &memState{
			cases: make(map[uuid.UUID]*models.Case),
			links: make(map[uuid.UUID]*models.UacQidLink),
		},
		outbox: ob,
	}
}

// Outbox returns the outbox receiving committed messages.
func (s *InMemoryStore) Outbox() *outbox.MemoryStore {
	return s.outbox
}

func (st *memState) clone() *memState {
	out := &memState{
		cases:  make(map[uuid.UUID]*models.Case, len(st.cases)),
		links:  make(map[uuid.UUID]*models.UacQidLink, len(st.links)),
		events: make([]*models.Event, len(st.events)),
	}
	for k, v := range st.cases {
		out.cases[k] = v.Clone()
	}
	for k, v := range st.links {
		out.links[k] = v.Clone()
	}
	copy(out.events, st.events)
	return out
}

func (s *InMemoryStore) txFrom(ctx context.Context) *memTx {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok && tx.owner == s {
		return tx
	}
	return nil
}

// RunInTx runs fn holding the store lock. The snapshot is restored when fn fails
// or panics. Nested calls join the outer transaction.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	committed := false
	defer func() {
		if !committed {
			s.state = snapshot
		}
	}()

	tx := &memTx{owner: s}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		return err
	}
	for _, msg := range tx.pending {
		if err := s.outbox.Append(ctx, msg); err != nil {
			return err
		}
	}
	committed = true
	return nil
}

// with runs fn under the store lock unless ctx already holds it.
func (s *InMemoryStore) with(ctx context.Context, fn func()) {
	if s.txFrom(ctx) == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn()
}

func (s *InMemoryStore) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	var out *models.Case
	s.with(ctx, func() {
		out = s.state.cases[id].Clone()
	})
	if out == nil {
		return nil, fmt.Errorf("case %s: %w", id, sentinel.ErrNotFound)
	}
	return out, nil
}

// LockCase behaves like GetCase; the transaction already holds the store lock.
func (s *InMemoryStore) LockCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	return s.GetCase(ctx, id)
}

func (s *InMemoryStore) CaseExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	s.with(ctx, func() {
		_, ok = s.state.cases[id]
	})
	return ok, nil
}

func (s *InMemoryStore) InsertCase(ctx context.Context, c *models.Case) error {
	var err error
	s.with(ctx, func() {
		if _, exists := s.state.cases[c.CaseID]; exists {
			err = fmt.Errorf("case %s: %w", c.CaseID, sentinel.ErrConflict)
			return
		}
		for _, other := range s.state.cases {
			if c.CaseRef != nil && other.CaseRef != nil && *other.CaseRef == *c.CaseRef {
				err = fmt.Errorf("case reference %d: %w", *c.CaseRef, sentinel.ErrConflict)
				return
			}
		}
		s.state.cases[c.CaseID] = c.Clone()
	})
	return err
}

func (s *InMemoryStore) UpdateCase(ctx context.Context, c *models.Case) error {
	var err error
	s.with(ctx, func() {
		if _, exists := s.state.cases[c.CaseID]; !exists {
			err = fmt.Errorf("case %s: %w", c.CaseID, sentinel.ErrNotFound)
			return
		}
		s.state.cases[c.CaseID] = c.Clone()
	})
	return err
}

func (s *InMemoryStore) GetLinkByQID(ctx context.Context, qid string) (*models.UacQidLink, error) {
	var out *models.UacQidLink
	s.with(ctx, func() {
		for _, l := range s.state.links {
			if l.QID == qid {
				out = l.Clone()
				return
			}
		}
	})
	if out == nil {
		return nil, fmt.Errorf("questionnaire %s: %w", qid, sentinel.ErrNotFound)
	}
	return out, nil
}

func (s *InMemoryStore) ListLinksByCase(ctx context.Context, caseID uuid.UUID) ([]*models.UacQidLink, error) {
	var out []*models.UacQidLink
	s.with(ctx, func() {
		for _, l := range s.state.links {
			if l.CaseID != nil && *l.CaseID == caseID {
				out = append(out, l.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].QID < out[j].QID })
	return out, nil
}

func (s *InMemoryStore) SaveLink(ctx context.Context, link *models.UacQidLink) error {
	var err error
	s.with(ctx, func() {
		for id, l := range s.state.links {
			if l.QID == link.QID && id != link.ID {
				err = fmt.Errorf("questionnaire %s: %w", link.QID, sentinel.ErrConflict)
				return
			}
		}
		s.state.links[link.ID] = link.Clone()
	})
	return err
}

func (s *InMemoryStore) InsertEvent(ctx context.Context, event *models.Event) error {
	if (event.CaseID == nil) == (event.UacQidLinkID == nil) {
		return fmt.Errorf("event %s must reference exactly one of case or link: %w", event.ID, sentinel.ErrInvalidState)
	}
	s.with(ctx, func() {
		s.state.events = append(s.state.events, event.Clone())
	})
	return nil
}

// AppendOutbox buffers msg until commit. Outside a transaction it is appended at once.
func (s *InMemoryStore) AppendOutbox(ctx context.Context, msg *outbox.Message) error {
	if tx := s.txFrom(ctx); tx != nil {
		tx.pending = append(tx.pending, msg)
		return nil
	}
	return s.outbox.Append(ctx, msg)
}

// Events returns copies of every audit event in insertion order.
func (s *InMemoryStore) Events() []*models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Event, 0, len(s.state.events))
	for _, e := range s.state.events {
		out = append(out, e.Clone())
	}
	return out
}
