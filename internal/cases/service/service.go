// Package service applies inbound case events to the case and link stores. Every
// handler runs its mutation, audit rows and outbound events in one transaction.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"caseprocessor/internal/cases/metrics"
	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/errs"
	"caseprocessor/pkg/platform/sentinel"
	"caseprocessor/pkg/requestcontext"
)

// Service handles every inbound case event type.
type Service struct {
	store   Store
	tx      TxRunner
	refs    ReferenceGenerator
	audit   *EventLogger
	emitter *Emitter
	logger  *slog.Logger
	metrics *metrics.Metrics
	topics  Topics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics enables case metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTopics overrides the outbound topics.
func WithTopics(t Topics) Option {
	return func(s *Service) { s.topics = t }
}

// New creates a Service.
func New(store Store, tx TxRunner, refs ReferenceGenerator, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("case store is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if refs == nil {
		return nil, errors.New("case reference generator is required")
	}
	s := &Service{
		store:  store,
		tx:     tx,
		refs:   refs,
		logger: slog.Default(),
		topics: DefaultTopics,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.audit = NewEventLogger(store)
	s.emitter = NewEmitter(store, s.topics, s.metrics)
	return s, nil
}

// inTx runs fn in a transaction with the message's processing time.
func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context, now time.Time) error) error {
	now := requestcontext.Now(ctx)
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return fn(ctx, now)
	})
}

func (s *Service) lockCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	if id == uuid.Nil {
		return nil, models.NewValidationError("caseId", "is required")
	}
	c, err := s.store.LockCase(ctx, id)
	if err != nil {
		return nil, errs.Wrapf(err, "lock case %s", id)
	}
	return c, nil
}

func (s *Service) getLink(ctx context.Context, qid string) (*models.UacQidLink, error) {
	if qid == "" {
		return nil, models.NewValidationError("questionnaireId", "is required")
	}
	link, err := s.store.GetLinkByQID(ctx, qid)
	if err != nil {
		return nil, errs.Wrapf(err, "find questionnaire %s", qid)
	}
	return link, nil
}

// findLink returns nil without error when the QID is unknown.
func (s *Service) findLink(ctx context.Context, qid string) (*models.UacQidLink, error) {
	link, err := s.store.GetLinkByQID(ctx, qid)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrapf(err, "find questionnaire %s", qid)
	}
	return link, nil
}

func (s *Service) updateCase(ctx context.Context, c *models.Case, now time.Time) error {
	c.LastUpdated = now
	if err := s.store.UpdateCase(ctx, c); err != nil {
		return errs.Wrapf(err, "update case %s", c.CaseID)
	}
	return nil
}

// insertCase stamps the case reference and persists a new case.
func (s *Service) insertCase(ctx context.Context, c *models.Case, now time.Time) error {
	ref, err := s.refs.Next(ctx)
	if err != nil {
		return errs.Wrap(err, "allocate case reference")
	}
	c.CaseRef = &ref
	c.CreatedAt = now
	c.LastUpdated = now
	if err := s.store.InsertCase(ctx, c); err != nil {
		return errs.Wrapf(err, "insert case %s", c.CaseID)
	}
	return nil
}

func (s *Service) saveLink(ctx context.Context, link *models.UacQidLink, now time.Time) error {
	link.LastUpdated = now
	if err := s.store.SaveLink(ctx, link); err != nil {
		return errs.Wrapf(err, "save questionnaire %s", link.QID)
	}
	return nil
}

func (s *Service) logCase(ctx context.Context, c *models.Case, env *models.Envelope, desc string, payload any, now time.Time) error {
	return s.audit.LogCaseEvent(ctx, c, env.Event.OccurredAt(), desc, env.Event.Type, env.Event, payload, now)
}

func (s *Service) logLink(ctx context.Context, link *models.UacQidLink, env *models.Envelope, desc string, payload any, now time.Time) error {
	return s.audit.LogUacQidEvent(ctx, link, env.Event.OccurredAt(), desc, env.Event.Type, env.Event, payload, now)
}

// fieldDecision keeps address-invalid cases out of field work. Withdrawing work
// (CANCEL, CLOSE) still goes out; sending work (CREATE, UPDATE) does not.
func fieldDecision(c *models.Case, decision models.FieldDecision) models.FieldDecision {
	if !c.AddressInvalid {
		return decision
	}
	switch decision {
	case models.FieldDecisionCreate, models.FieldDecisionUpdate:
		return models.FieldDecisionNone
	}
	return decision
}

func (s *Service) caseUpdated(ctx context.Context, c *models.Case, env *models.Envelope, decision models.FieldDecision, now time.Time) error {
	meta := models.NewMetadata(env.Event.Type, fieldDecision(c, decision))
	return s.emitter.EmitCaseUpdated(ctx, c, meta, env.Event, now)
}

func (s *Service) caseCreated(ctx context.Context, c *models.Case, env *models.Envelope, decision models.FieldDecision, now time.Time) error {
	meta := models.NewMetadata(env.Event.Type, fieldDecision(c, decision))
	return s.emitter.EmitCaseCreated(ctx, c, meta, env.Event, now)
}

func (s *Service) uacUpdated(ctx context.Context, link *models.UacQidLink, env *models.Envelope, now time.Time) error {
	return s.emitter.EmitUacUpdated(ctx, link, env.Event, now)
}
