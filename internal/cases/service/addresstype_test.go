package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/sentinel"
)

func addressTypeChange(old *models.Case, newType models.CaseType) *models.AddressTypeChangePayload {
	return &models.AddressTypeChangePayload{
		NewCaseID: uuid.New(),
		CollectionCase: models.AddressTypeChangeCase{
			ID:                 old.CaseID,
			CeExpectedCapacity: models.Ptr("12"),
			Address: models.AddressTypeChangeAddress{
				AddressType:      newType,
				AddressLine1:     models.Some("Acacia Care Home"),
				AddressLine2:     models.Null[string](),
				OrganisationName: models.Some("Acacia Care Ltd"),
				EstabType:        models.Some("CARE HOME"),
			},
		},
	}
}

func (s *ServiceSuite) changeAddressType(p *models.AddressTypeChangePayload) error {
	return s.service.AddressTypeChanged(s.ctx, s.env(models.EventAddressTypeChanged, "addressTypeChange", p), p)
}

func (s *ServiceSuite) TestAddressTypeChanged_HouseholdToCE() {
	old := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit, func(c *models.Case) {
		c.AddressLine2 = models.Ptr("Flat 2")
	})
	p := addressTypeChange(old, models.CaseTypeCE)

	s.Require().NoError(s.changeAddressType(p))

	invalidated := s.caseByID(old.CaseID)
	s.True(invalidated.AddressInvalid)
	s.Equal(models.CaseTypeHH, invalidated.CaseType)

	created := s.caseByID(p.NewCaseID)
	s.Equal(models.CaseTypeCE, created.CaseType)
	s.Equal(models.AddressLevelUnit, created.AddressLevel)
	s.True(created.Skeleton)
	s.Require().NotNil(created.CaseRef)
	s.Equal(int64(10000001), *created.CaseRef)
	s.Equal("Acacia Care Home", created.AddressLine1)
	s.Nil(created.AddressLine2)
	s.Equal(12, *created.CeExpectedCapacity)
	s.Equal(old.Postcode, created.Postcode)
	s.Equal(old.CollectionExerciseID, created.CollectionExerciseID)

	events := s.eventsWithDescription(models.DescAddressTypeChanged)
	s.Require().Len(events, 2)
	s.Equal(old.CaseID, *events[0].CaseID)
	s.Equal(p.NewCaseID, *events[1].CaseID)

	createdMsgs := s.emitted(models.EventCaseCreated)
	s.Require().Len(createdMsgs, 1)
	s.Equal(p.NewCaseID, createdMsgs[0].Payload.CollectionCase.ID)
	s.Equal("10000001", createdMsgs[0].Payload.CollectionCase.CaseRef)
	s.Equal(models.FieldDecisionCreate, createdMsgs[0].Payload.Metadata.FieldDecision)

	updatedMsgs := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updatedMsgs, 1)
	s.Equal(old.CaseID, updatedMsgs[0].Payload.CollectionCase.ID)
	s.Equal(models.FieldDecisionCancel, updatedMsgs[0].Payload.Metadata.FieldDecision)
}

func (s *ServiceSuite) TestAddressTypeChanged_SameFamilyPersistsNothing() {
	for _, tc := range []struct {
		from, to models.CaseType
	}{
		{models.CaseTypeHH, models.CaseTypeHH},
		{models.CaseTypeCE, models.CaseTypeCE},
	} {
		old := s.seedCase(tc.from, models.AddressLevelUnit)
		p := addressTypeChange(old, tc.to)

		err := s.changeAddressType(p)

		s.Require().Error(err)
		s.True(errors.Is(err, sentinel.ErrInvalidState), "%s to %s", tc.from, tc.to)
		s.Equal(old, s.caseByID(old.CaseID))
		exists, err := s.store.CaseExists(context.Background(), p.NewCaseID)
		s.Require().NoError(err)
		s.False(exists)
	}
	s.Empty(s.store.Events())
	s.Empty(s.outbox.All())
}

func (s *ServiceSuite) TestAddressTypeChanged_RedeliveryIsNoop() {
	old := s.seedCase(models.CaseTypeSPG, models.AddressLevelUnit)
	p := addressTypeChange(old, models.CaseTypeHH)
	s.Require().NoError(s.changeAddressType(p))
	events, messages := len(s.store.Events()), len(s.outbox.All())

	s.Require().NoError(s.changeAddressType(p))

	s.Len(s.store.Events(), events)
	s.Len(s.outbox.All(), messages)
}

func (s *ServiceSuite) TestAddressTypeChanged_NewCaseIDTakenByValidCase() {
	old := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	other := s.seedCase(models.CaseTypeCE, models.AddressLevelUnit)
	p := addressTypeChange(old, models.CaseTypeCE)
	p.NewCaseID = other.CaseID

	err := s.changeAddressType(p)

	s.True(errors.Is(err, sentinel.ErrConflict))
	s.False(s.caseByID(old.CaseID).AddressInvalid)
}

func (s *ServiceSuite) TestAddressTypeChanged_UnknownCase() {
	p := addressTypeChange(&models.Case{CaseID: uuid.New()}, models.CaseTypeCE)

	err := s.changeAddressType(p)

	s.True(errors.Is(err, sentinel.ErrNotFound))
}
