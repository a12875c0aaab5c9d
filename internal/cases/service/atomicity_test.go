package service

import (
	"context"
	"errors"

	"caseprocessor/internal/cases/models"
	"caseprocessor/internal/cases/store"
	"caseprocessor/pkg/platform/outbox"
)

var errInjected = errors.New("injected failure")

// faultyStore fails the named step after the mutation has been written.
type faultyStore struct {
	*store.InMemoryStore
	failEvents bool
	failOutbox bool
}

func (f *faultyStore) InsertEvent(ctx context.Context, e *models.Event) error {
	if f.failEvents {
		return errInjected
	}
	return f.InMemoryStore.InsertEvent(ctx, e)
}

func (f *faultyStore) AppendOutbox(ctx context.Context, msg *outbox.Message) error {
	if f.failOutbox {
		return errInjected
	}
	return f.InMemoryStore.AppendOutbox(ctx, msg)
}

func (s *ServiceSuite) TestAtomicity_AuditFailureRollsBackMutation() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	svc := s.newService(&faultyStore{InMemoryStore: s.store, failEvents: true})
	p := &models.ResponsePayload{QuestionnaireID: householdQID}

	err := svc.ResponseReceived(s.ctx, s.env(models.EventResponseReceived, "response", p), p)

	s.Require().ErrorIs(err, errInjected)
	s.False(s.caseByID(c.CaseID).ReceiptReceived)
	l := s.linkByQID(householdQID)
	s.True(l.Active)
	s.False(l.Receipted)
	s.Empty(s.store.Events())
	s.Empty(s.outbox.All())
}

func (s *ServiceSuite) TestAtomicity_EmitFailureRollsBackMutationAndAudit() {
	old := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	svc := s.newService(&faultyStore{InMemoryStore: s.store, failOutbox: true})
	p := addressTypeChange(old, models.CaseTypeCE)

	err := svc.AddressTypeChanged(s.ctx, s.env(models.EventAddressTypeChanged, "addressTypeChange", p), p)

	s.Require().ErrorIs(err, errInjected)
	s.False(s.caseByID(old.CaseID).AddressInvalid)
	exists, err := s.store.CaseExists(context.Background(), p.NewCaseID)
	s.Require().NoError(err)
	s.False(exists)
	s.Empty(s.store.Events())
	s.Empty(s.outbox.All())
}
