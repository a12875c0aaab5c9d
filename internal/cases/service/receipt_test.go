package service

import (
	"errors"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/sentinel"
)

func (s *ServiceSuite) respond(qid string, unreceipt bool) error {
	p := &models.ResponsePayload{QuestionnaireID: qid, Unreceipt: unreceipt}
	return s.service.ResponseReceived(s.ctx, s.env(models.EventResponseReceived, "response", p), p)
}

func (s *ServiceSuite) TestResponseReceived_HouseholdEndToEnd() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	link := s.seedLink(householdQID, c)

	s.Require().NoError(s.respond(householdQID, false))

	got := s.caseByID(c.CaseID)
	s.True(got.ReceiptReceived)
	s.Equal(processedAt, got.LastUpdated)

	events := s.store.Events()
	s.Require().Len(events, 1)
	s.Equal(models.DescResponseReceived, events[0].Description)
	s.Equal(models.EventResponseReceived, events[0].Type)
	s.Equal(link.ID, *events[0].UacQidLinkID)
	s.Equal(processedAt, events[0].ProcessedAt)
	s.JSONEq(`{"questionnaireId":"`+householdQID+`","unreceipt":false}`, string(events[0].Payload))

	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 1)
	s.Equal(models.FieldDecisionCancel, updates[0].Payload.Metadata.FieldDecision)
	s.Equal(models.EventResponseReceived, updates[0].Payload.Metadata.CauseEventType)
	s.True(updates[0].Payload.CollectionCase.ReceiptReceived)
	s.Equal("CASE_SERVICE", updates[0].Event.Source)

	uacs := s.emitted(models.EventUacUpdated)
	s.Require().Len(uacs, 1)
	s.False(uacs[0].Payload.Uac.Active)

	l := s.linkByQID(householdQID)
	s.False(l.Active)
	s.True(l.Receipted)
}

func (s *ServiceSuite) TestResponseReceived_RedeliveryIsNoop() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	s.Require().NoError(s.respond(householdQID, false))
	events, messages := len(s.store.Events()), len(s.outbox.All())

	s.Require().NoError(s.respond(householdQID, false))

	s.Len(s.store.Events(), events)
	s.Len(s.outbox.All(), messages)
}

func (s *ServiceSuite) TestResponseReceived_SecondFormOnReceiptedHouseholdLeavesCase() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	s.seedLink(householdQID2, c)
	s.Require().NoError(s.respond(householdQID, false))

	s.Require().NoError(s.respond(householdQID2, false))

	s.Len(s.emitted(models.EventCaseUpdated), 1, "case is not re-receipted")
	s.Len(s.eventsWithDescription(models.DescResponseReceived), 2)
}

func (s *ServiceSuite) TestResponseReceived_TransactionIDPropagates() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	p := &models.ResponsePayload{QuestionnaireID: householdQID}
	env := s.env(models.EventResponseReceived, "response", p)

	s.Require().NoError(s.service.ResponseReceived(s.ctx, env, p))

	s.Equal(env.Event.TransactionID, s.store.Events()[0].TransactionID.String())
	s.Equal(env.Event.TransactionID, s.emitted(models.EventCaseUpdated)[0].Event.TransactionID)
}

func (s *ServiceSuite) TestResponseReceived_CECapacityBoundary() {
	s.Run("reaching capacity receipts and cancels", func() {
		c := s.seedCase(models.CaseTypeCE, models.AddressLevelUnit, func(c *models.Case) {
			c.CeExpectedCapacity = models.Ptr(2)
			c.CeActualResponses = 1
		})
		s.seedLink(individualQID, c)

		s.Require().NoError(s.respond(individualQID, false))

		got := s.caseByID(c.CaseID)
		s.Equal(2, got.CeActualResponses)
		s.True(got.ReceiptReceived)
		updates := s.emitted(models.EventCaseUpdated)
		s.Require().NotEmpty(updates)
		s.Equal(models.FieldDecisionCancel, updates[len(updates)-1].Payload.Metadata.FieldDecision)
	})

	s.Run("no expected capacity updates", func() {
		c := s.seedCase(models.CaseTypeCE, models.AddressLevelUnit, func(c *models.Case) {
			c.CeActualResponses = 1
		})
		s.seedLink("2220000000000009", c)

		s.Require().NoError(s.respond("2220000000000009", false))

		got := s.caseByID(c.CaseID)
		s.Equal(2, got.CeActualResponses)
		s.False(got.ReceiptReceived)
		updates := s.emitted(models.EventCaseUpdated)
		s.Equal(models.FieldDecisionUpdate, updates[len(updates)-1].Payload.Metadata.FieldDecision)
	})
}

func (s *ServiceSuite) TestResponseReceived_CEEstablishmentCountsEveryReturn() {
	c := s.seedCase(models.CaseTypeCE, models.AddressLevelEstablishment, func(c *models.Case) {
		c.CeExpectedCapacity = models.Ptr(50)
	})
	s.seedLink(individualQID, c)
	s.seedLink(ceIndividualQID, c)

	s.Require().NoError(s.respond(individualQID, false))
	s.Require().NoError(s.respond(ceIndividualQID, false))

	got := s.caseByID(c.CaseID)
	s.Equal(1, got.CeActualResponses)
	s.True(got.ReceiptReceived)
	for _, u := range s.emitted(models.EventCaseUpdated) {
		s.Equal(models.FieldDecisionUpdate, u.Payload.Metadata.FieldDecision)
	}
}

func (s *ServiceSuite) TestResponseReceived_DeactivatedLinkCloses() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c, func(l *models.UacQidLink) { l.Active = false })

	s.Require().NoError(s.respond(householdQID, false))

	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 1)
	s.Equal(models.FieldDecisionClose, updates[0].Payload.Metadata.FieldDecision)
}

func (s *ServiceSuite) TestResponseReceived_ContinuationNeverReceipts() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(continuationQID, c)

	s.Require().NoError(s.respond(continuationQID, false))

	s.False(s.caseByID(c.CaseID).ReceiptReceived)
	s.Empty(s.emitted(models.EventCaseUpdated))
	s.Len(s.store.Events(), 1, "the link event is still recorded")
}

func (s *ServiceSuite) TestResponseReceived_Unlinked() {
	s.seedLink(householdQID, nil)

	s.Require().NoError(s.respond(householdQID, false))

	events := s.store.Events()
	s.Require().Len(events, 1)
	s.Equal(models.DescUnlinkedResponse, events[0].Description)
	s.Empty(s.emitted(models.EventCaseUpdated))
	s.Len(s.emitted(models.EventUacUpdated), 1)
}

func (s *ServiceSuite) TestResponseReceived_UnknownQuestionnaire() {
	err := s.respond(householdQID, false)

	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
	s.Empty(s.store.Events())
	s.Empty(s.outbox.All())
}

func (s *ServiceSuite) TestBlankQuestionnaire_ReversesReceipt() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	s.Require().NoError(s.respond(householdQID, false))

	s.Require().NoError(s.respond(householdQID, true))

	s.False(s.caseByID(c.CaseID).ReceiptReceived)
	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 2)
	s.Equal(models.FieldDecisionUpdate, updates[1].Payload.Metadata.FieldDecision)
	s.Len(s.eventsWithDescription(models.DescBlankQuestionnaire), 1)

	l := s.linkByQID(householdQID)
	s.True(l.BlankQuestionnaire)
	s.False(l.HasValidReceipt())
}

func (s *ServiceSuite) TestBlankQuestionnaire_OtherFormIsNoopForCase() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	s.seedLink(continuationQID, c)
	s.Require().NoError(s.respond(householdQID, false))

	s.Require().NoError(s.respond(continuationQID, true))

	s.True(s.caseByID(c.CaseID).ReceiptReceived)
	s.Len(s.emitted(models.EventCaseUpdated), 1)
	s.True(s.linkByQID(continuationQID).BlankQuestionnaire)
}

func (s *ServiceSuite) TestBlankQuestionnaire_AnotherValidReceiptKeepsCase() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	s.seedLink(householdQID2, c)
	s.Require().NoError(s.respond(householdQID, false))
	s.Require().NoError(s.respond(householdQID2, false))

	s.Require().NoError(s.respond(householdQID, true))

	s.True(s.caseByID(c.CaseID).ReceiptReceived)
	s.Len(s.emitted(models.EventCaseUpdated), 1)
}

func (s *ServiceSuite) TestBlankQuestionnaire_BeforeReceiptBlocksIt() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)

	s.Require().NoError(s.respond(householdQID, true))
	s.Require().NoError(s.respond(householdQID, false))

	s.False(s.caseByID(c.CaseID).ReceiptReceived)
	s.Empty(s.emitted(models.EventCaseUpdated))
	s.Empty(s.eventsWithDescription(models.DescResponseReceived))
}

func (s *ServiceSuite) TestBlankQuestionnaire_RedeliveryIsNoop() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	s.Require().NoError(s.respond(householdQID, true))
	events := len(s.store.Events())

	s.Require().NoError(s.respond(householdQID, true))

	s.Len(s.store.Events(), events)
}

func (s *ServiceSuite) TestBlankQuestionnaire_InvalidAddressIsNotSentBackToField() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	s.Require().NoError(s.respond(householdQID, false))
	invalid := &models.InvalidAddressPayload{CollectionCase: models.CaseRef{ID: c.CaseID}}
	s.Require().NoError(s.service.AddressNotValid(s.ctx, s.env(models.EventAddressNotValid, "invalidAddress", invalid), invalid))

	s.Require().NoError(s.respond(householdQID, true))

	got := s.caseByID(c.CaseID)
	s.True(got.AddressInvalid)
	s.False(got.ReceiptReceived)
	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 3)
	s.Equal(models.FieldDecisionCancel, updates[1].Payload.Metadata.FieldDecision)
	s.Equal(models.FieldDecisionNone, updates[2].Payload.Metadata.FieldDecision)
	s.True(updates[2].Payload.CollectionCase.AddressInvalid)
}

func (s *ServiceSuite) TestResponseReceived_InvalidEstablishmentCountsWithoutDispatch() {
	c := s.seedCase(models.CaseTypeCE, models.AddressLevelEstablishment, func(c *models.Case) {
		c.AddressInvalid = true
	})
	s.seedLink(individualQID, c)

	s.Require().NoError(s.respond(individualQID, false))

	s.Equal(1, s.caseByID(c.CaseID).CeActualResponses)
	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 1)
	s.Equal(models.FieldDecisionNone, updates[0].Payload.Metadata.FieldDecision)
}

func (s *ServiceSuite) TestResponseReceived_InvalidHouseholdStillCancels() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit, func(c *models.Case) {
		c.AddressInvalid = true
	})
	s.seedLink(householdQID, c)

	s.Require().NoError(s.respond(householdQID, false))

	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 1)
	s.Equal(models.FieldDecisionCancel, updates[0].Payload.Metadata.FieldDecision)
}
