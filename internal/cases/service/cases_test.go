package service

import (
	"errors"

	"github.com/google/uuid"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/sentinel"
)

func sampleDetails(caseType models.CaseType) models.CaseDetails {
	return models.CaseDetails{
		ID:                   uuid.New(),
		CaseType:             caseType,
		Survey:               "CENSUS",
		TreatmentCode:        "HH_LF2R1E",
		CollectionExerciseID: "ce-2021",
		ActionPlanID:         "ap-2021",
		FieldCoordinatorID:   "fc-1",
		Address: models.AddressDetails{
			AddressLine1: "10 Downing Street",
			TownName:     "London",
			Postcode:     "SW1A 2AA",
			Region:       "E12000007",
		},
	}
}

func (s *ServiceSuite) TestSampleLoaded_CreatesCaseOnce() {
	p := &models.SampleLoadedPayload{CaseDetails: sampleDetails(models.CaseTypeHH)}
	env := s.env(models.EventSampleLoaded, "collectionCase", p)

	s.Require().NoError(s.service.SampleLoaded(s.ctx, env, p))
	s.Require().NoError(s.service.SampleLoaded(s.ctx, env, p))

	c := s.caseByID(p.ID)
	s.Equal(models.AddressLevelUnit, c.AddressLevel)
	s.Equal("HH", c.AddressType)
	s.Equal(int64(10000001), *c.CaseRef)
	s.Equal(processedAt, c.CreatedAt)

	s.Len(s.eventsWithDescription(models.DescSampleLoaded), 1)
	created := s.emitted(models.EventCaseCreated)
	s.Require().Len(created, 1)
	s.Equal(models.FieldDecisionNone, created[0].Payload.Metadata.FieldDecision)
	s.Equal(models.EventSampleLoaded, created[0].Payload.Metadata.CauseEventType)
}

func (s *ServiceSuite) TestSampleLoaded_RejectsMissingAddress() {
	d := sampleDetails(models.CaseTypeHH)
	d.Address.AddressLine1 = " "
	p := &models.SampleLoadedPayload{CaseDetails: d}

	err := s.service.SampleLoaded(s.ctx, s.env(models.EventSampleLoaded, "collectionCase", p), p)

	var verr *models.ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Equal("collectionCase.address.addressLine1", verr.Field)
}

func (s *ServiceSuite) TestNewAddressReported_SkeletonInheritsFromSource() {
	source := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit, func(c *models.Case) {
		c.FieldOfficerID = "fo-7"
	})
	d := sampleDetails(models.CaseTypeSPG)
	d.Survey = ""
	d.CollectionExerciseID = ""
	d.Address.AddressLevel = models.AddressLevelEstablishment
	p := &models.NewAddressPayload{SourceCaseID: &source.CaseID, CollectionCase: d}

	s.Require().NoError(s.service.NewAddressReported(s.ctx, s.env(models.EventNewAddressReported, "newAddress", p), p))

	c := s.caseByID(d.ID)
	s.True(c.Skeleton)
	s.Equal(models.AddressLevelEstablishment, c.AddressLevel)
	s.Equal(source.Survey, c.Survey)
	s.Equal(source.CollectionExerciseID, c.CollectionExerciseID)
	s.Equal("fo-7", c.FieldOfficerID)
	s.Equal("fc-1", c.FieldCoordinatorID, "reported values win over the source")

	created := s.emitted(models.EventCaseCreated)
	s.Require().Len(created, 1)
	s.Equal(models.FieldDecisionCreate, created[0].Payload.Metadata.FieldDecision)
	s.True(created[0].Payload.CollectionCase.Skeleton)
}

func (s *ServiceSuite) TestAddressModified() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit, func(c *models.Case) {
		c.AddressLine2 = models.Ptr("Flat 2")
		c.AddressLine3 = models.Ptr("Old Quarter")
	})

	s.Run("applies present fields only", func() {
		p := &models.AddressModificationPayload{
			CollectionCase: models.CaseRef{ID: c.CaseID},
			NewAddress: models.AddressOverrides{
				AddressLine1: models.Some("2 Acacia Avenue"),
				AddressLine2: models.Null[string](),
			},
		}
		s.Require().NoError(s.service.AddressModified(s.ctx, s.env(models.EventAddressModified, "addressModification", p), p))

		got := s.caseByID(c.CaseID)
		s.Equal("2 Acacia Avenue", got.AddressLine1)
		s.Nil(got.AddressLine2)
		s.Equal("Old Quarter", *got.AddressLine3)
		s.Equal(c.Postcode, got.Postcode)

		updates := s.emitted(models.EventCaseUpdated)
		s.Require().Len(updates, 1)
		s.Equal(models.FieldDecisionUpdate, updates[0].Payload.Metadata.FieldDecision)
	})

	s.Run("line one cannot be cleared", func() {
		p := &models.AddressModificationPayload{
			CollectionCase: models.CaseRef{ID: c.CaseID},
			NewAddress: models.AddressOverrides{
				AddressLine1: models.Null[string](),
				TownName:     models.Some("Cardiff"),
			},
		}
		err := s.service.AddressModified(s.ctx, s.env(models.EventAddressModified, "addressModification", p), p)

		s.True(errors.Is(err, sentinel.ErrInvalidState))
		s.Equal("Newport", s.caseByID(c.CaseID).TownName)
	})
}

func (s *ServiceSuite) TestAddressNotValidAndUninvalidate() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	invalid := &models.InvalidAddressPayload{Reason: "DEMOLISHED", CollectionCase: models.CaseRef{ID: c.CaseID}}
	env := s.env(models.EventAddressNotValid, "invalidAddress", invalid)

	s.Require().NoError(s.service.AddressNotValid(s.ctx, env, invalid))
	s.Require().NoError(s.service.AddressNotValid(s.ctx, env, invalid))
	s.True(s.caseByID(c.CaseID).AddressInvalid)

	undo := &models.UninvalidateAddressPayload{CaseID: c.CaseID}
	s.Require().NoError(s.service.UninvalidateAddress(s.ctx, s.env(models.EventRmUninvalidateAddress, "rmUnInvalidateAddress", undo), undo))
	s.False(s.caseByID(c.CaseID).AddressInvalid)

	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 2)
	s.Equal(models.FieldDecisionCancel, updates[0].Payload.Metadata.FieldDecision)
	s.Equal(models.FieldDecisionUpdate, updates[1].Payload.Metadata.FieldDecision)
	s.Len(s.eventsWithDescription(models.DescAddressNotValid), 1)
	s.Len(s.eventsWithDescription(models.DescAddressUninvalidated), 1)
}

func (s *ServiceSuite) TestRefusalReceived() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	p := &models.RefusalPayload{Type: "HARD_REFUSAL", CollectionCase: models.CaseRef{ID: c.CaseID}}
	env := s.env(models.EventRefusalReceived, "refusal", p)

	s.Require().NoError(s.service.RefusalReceived(s.ctx, env, p))
	s.Require().NoError(s.service.RefusalReceived(s.ctx, env, p))

	s.True(s.caseByID(c.CaseID).IsRefused())
	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 1)
	s.Equal(models.FieldDecisionCancel, updates[0].Payload.Metadata.FieldDecision)
	s.Require().NotNil(updates[0].Payload.CollectionCase.RefusalReceived)
	s.True(*updates[0].Payload.CollectionCase.RefusalReceived)
}

func (s *ServiceSuite) TestFieldCaseUpdated() {
	c := s.seedCase(models.CaseTypeCE, models.AddressLevelEstablishment, func(c *models.Case) {
		c.CeExpectedCapacity = models.Ptr(10)
		c.CeActualResponses = 4
	})
	update := func(capacity int) error {
		p := &models.FieldCaseUpdatePayload{ID: c.CaseID, CeExpectedCapacity: capacity}
		return s.service.FieldCaseUpdated(s.ctx, s.env(models.EventFieldCaseUpdated, "collectionCase", p), p)
	}

	s.Require().NoError(update(8))
	s.Require().NoError(update(4))

	s.Equal(4, *s.caseByID(c.CaseID).CeExpectedCapacity)
	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 2)
	s.Equal(models.FieldDecisionUpdate, updates[0].Payload.Metadata.FieldDecision)
	s.Equal(models.FieldDecisionCancel, updates[1].Payload.Metadata.FieldDecision)

	s.True(errors.Is(update(-1), sentinel.ErrInvalidState))
}

func (s *ServiceSuite) TestFieldCaseUpdated_RejectsNonCE() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	p := &models.FieldCaseUpdatePayload{ID: c.CaseID, CeExpectedCapacity: 3}

	err := s.service.FieldCaseUpdated(s.ctx, s.env(models.EventFieldCaseUpdated, "collectionCase", p), p)

	s.True(errors.Is(err, sentinel.ErrInvalidState))
	s.Empty(s.outbox.All())
}

func (s *ServiceSuite) TestFulfilmentRequested_IndividualCreatesChildOnce() {
	parent := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit, func(c *models.Case) {
		c.ReceiptReceived = true
	})
	childID := uuid.New()
	p := &models.FulfilmentPayload{FulfilmentCode: "UACIT1", CaseID: parent.CaseID, IndividualCaseID: &childID}
	env := s.env(models.EventFulfilmentRequested, "fulfilmentRequest", p)

	s.Require().NoError(s.service.FulfilmentRequested(s.ctx, env, p))
	s.Require().NoError(s.service.FulfilmentRequested(s.ctx, env, p))

	child := s.caseByID(childID)
	s.Equal(models.CaseTypeHI, child.CaseType)
	s.Equal(parent.AddressLine1, child.AddressLine1)
	s.False(child.ReceiptReceived)
	s.NotEqual(*parent.CaseRef, *child.CaseRef)

	s.Len(s.eventsWithDescription(models.DescFulfilmentRequested), 2)
	s.Len(s.emitted(models.EventCaseCreated), 1)
}

func (s *ServiceSuite) TestFulfilmentRequested_IndividualNeedsChildID() {
	parent := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	p := &models.FulfilmentPayload{FulfilmentCode: "P_OR_I1", CaseID: parent.CaseID}

	err := s.service.FulfilmentRequested(s.ctx, s.env(models.EventFulfilmentRequested, "fulfilmentRequest", p), p)

	s.True(errors.Is(err, sentinel.ErrInvalidState))
	s.Empty(s.store.Events())
}

func (s *ServiceSuite) TestFulfilmentRequested_OtherCodesAuditOnly() {
	parent := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	p := &models.FulfilmentPayload{FulfilmentCode: "P_OR_H1", CaseID: parent.CaseID}

	s.Require().NoError(s.service.FulfilmentRequested(s.ctx, s.env(models.EventFulfilmentRequested, "fulfilmentRequest", p), p))

	events := s.eventsWithDescription(models.DescFulfilmentRequested)
	s.Require().Len(events, 1)
	s.Equal(parent.CaseID, *events[0].CaseID)
	s.Empty(s.outbox.All())
}

func (s *ServiceSuite) TestInvalidAddress_UpdatesAreNotDispatched() {
	c := s.seedCase(models.CaseTypeCE, models.AddressLevelEstablishment, func(c *models.Case) {
		c.AddressInvalid = true
		c.CeExpectedCapacity = models.Ptr(10)
		c.CeActualResponses = 4
	})

	modify := &models.AddressModificationPayload{
		CollectionCase: models.CaseRef{ID: c.CaseID},
		NewAddress:     models.AddressOverrides{AddressLine1: models.Some("2 Acacia Avenue")},
	}
	s.Require().NoError(s.service.AddressModified(s.ctx, s.env(models.EventAddressModified, "addressModification", modify), modify))
	field := &models.FieldCaseUpdatePayload{ID: c.CaseID, CeExpectedCapacity: 8}
	s.Require().NoError(s.service.FieldCaseUpdated(s.ctx, s.env(models.EventFieldCaseUpdated, "collectionCase", field), field))
	field = &models.FieldCaseUpdatePayload{ID: c.CaseID, CeExpectedCapacity: 4}
	s.Require().NoError(s.service.FieldCaseUpdated(s.ctx, s.env(models.EventFieldCaseUpdated, "collectionCase", field), field))

	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 3)
	s.Equal(models.FieldDecisionNone, updates[0].Payload.Metadata.FieldDecision)
	s.Equal(models.FieldDecisionNone, updates[1].Payload.Metadata.FieldDecision)
	s.Equal(models.FieldDecisionCancel, updates[2].Payload.Metadata.FieldDecision, "withdrawing work still goes out")
}

func (s *ServiceSuite) TestAddressModified_CompletesSkeleton() {
	d := sampleDetails(models.CaseTypeHH)
	d.Address.Postcode = ""
	reported := &models.NewAddressPayload{CollectionCase: d}
	s.Require().NoError(s.service.NewAddressReported(s.ctx, s.env(models.EventNewAddressReported, "newAddress", reported), reported))
	s.True(s.caseByID(d.ID).Skeleton)

	modify := func(o models.AddressOverrides) {
		p := &models.AddressModificationPayload{CollectionCase: models.CaseRef{ID: d.ID}, NewAddress: o}
		s.Require().NoError(s.service.AddressModified(s.ctx, s.env(models.EventAddressModified, "addressModification", p), p))
	}

	modify(models.AddressOverrides{AddressLine1: models.Some("2 Elm Row, Flat A")})
	s.True(s.caseByID(d.ID).Skeleton, "postcode still missing")

	modify(models.AddressOverrides{Postcode: models.Some("SW1A 2AB")})

	got := s.caseByID(d.ID)
	s.False(got.Skeleton)
	s.Equal("2 Elm Row, Flat A", got.AddressLine1)
	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 2)
	s.True(updates[0].Payload.CollectionCase.Skeleton)
	s.False(updates[1].Payload.CollectionCase.Skeleton)
}
