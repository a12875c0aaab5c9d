package service

import (
	"errors"

	"github.com/google/uuid"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/sentinel"
)

func (s *ServiceSuite) uacEnv(eventType models.EventType, p *models.UacPayload) *models.Envelope {
	return s.env(eventType, "uac", p)
}

func (s *ServiceSuite) TestUacCreated() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit, func(c *models.Case) { c.CCSCase = true })
	p := &models.UacPayload{UAC: "abcd-efgh", QuestionnaireID: householdQID, CaseID: &c.CaseID}

	s.Require().NoError(s.service.UacCreated(s.ctx, s.uacEnv(models.EventUacCreated, p), p))
	s.Require().NoError(s.service.UacCreated(s.ctx, s.uacEnv(models.EventUacCreated, p), p))

	l := s.linkByQID(householdQID)
	s.True(l.Active)
	s.True(l.CCSCase)
	s.Equal(c.CaseID, *l.CaseID)
	s.Len(s.eventsWithDescription(models.DescUacCreated), 1)
}

func (s *ServiceSuite) TestUacCreated_UnknownCase() {
	missing := uuid.New()
	p := &models.UacPayload{QuestionnaireID: householdQID, CaseID: &missing}

	err := s.service.UacCreated(s.ctx, s.uacEnv(models.EventUacCreated, p), p)

	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *ServiceSuite) TestUacUpdated_Upserts() {
	inactive := false
	p := &models.UacPayload{UAC: "abcd", QuestionnaireID: householdQID, Active: &inactive}

	s.Require().NoError(s.service.UacUpdated(s.ctx, s.uacEnv(models.EventUacUpdated, p), p))

	l := s.linkByQID(householdQID)
	s.False(l.Active)
	s.False(l.IsLinked())

	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	p2 := &models.UacPayload{QuestionnaireID: householdQID, CaseID: &c.CaseID}
	s.Require().NoError(s.service.UacUpdated(s.ctx, s.uacEnv(models.EventUacUpdated, p2), p2))

	l2 := s.linkByQID(householdQID)
	s.Equal(l.ID, l2.ID)
	s.Equal("abcd", l2.UAC)
	s.Equal(c.CaseID, *l2.CaseID)
}

func (s *ServiceSuite) TestQuestionnaireLinked_ReturnedQuestionnaireReceiptsCase() {
	s.seedLink(householdQID, nil)
	s.Require().NoError(s.respond(householdQID, false))
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	p := &models.UacPayload{QuestionnaireID: householdQID, CaseID: &c.CaseID}

	s.Require().NoError(s.service.QuestionnaireLinked(s.ctx, s.uacEnv(models.EventQuestionnaireLinked, p), p))

	s.True(s.caseByID(c.CaseID).ReceiptReceived)
	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 1)
	s.Equal(models.FieldDecisionClose, updates[0].Payload.Metadata.FieldDecision)
	s.Len(s.eventsWithDescription(models.DescQuestionnaireLinked), 1)
}

func (s *ServiceSuite) TestQuestionnaireLinked_BlankQuestionnaireDoesNotReceipt() {
	s.seedLink(householdQID, nil, func(l *models.UacQidLink) {
		l.Active = false
		l.Receipted = true
		l.BlankQuestionnaire = true
	})
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	p := &models.UacPayload{QuestionnaireID: householdQID, CaseID: &c.CaseID}

	s.Require().NoError(s.service.QuestionnaireLinked(s.ctx, s.uacEnv(models.EventQuestionnaireLinked, p), p))

	s.False(s.caseByID(c.CaseID).ReceiptReceived)
	s.Empty(s.emitted(models.EventCaseUpdated))
}

func (s *ServiceSuite) TestQuestionnaireLinked_SameCaseIsNoop() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	p := &models.UacPayload{QuestionnaireID: householdQID, CaseID: &c.CaseID}

	s.Require().NoError(s.service.QuestionnaireLinked(s.ctx, s.uacEnv(models.EventQuestionnaireLinked, p), p))

	s.Empty(s.store.Events())
	s.Empty(s.outbox.All())
}

func (s *ServiceSuite) TestQuestionnaireLinked_RequiresCase() {
	p := &models.UacPayload{QuestionnaireID: householdQID}

	err := s.service.QuestionnaireLinked(s.ctx, s.uacEnv(models.EventQuestionnaireLinked, p), p)

	var verr *models.ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Equal("uac.caseId", verr.Field)
}

func (s *ServiceSuite) TestDeactivateUac_DoesNotReceipt() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	p := &models.UacPayload{QuestionnaireID: householdQID}

	s.Require().NoError(s.service.DeactivateUac(s.ctx, s.uacEnv(models.EventDeactivateUac, p), p))
	s.Require().NoError(s.service.DeactivateUac(s.ctx, s.uacEnv(models.EventDeactivateUac, p), p))

	s.False(s.linkByQID(householdQID).Active)
	s.False(s.caseByID(c.CaseID).ReceiptReceived)
	s.Len(s.emitted(models.EventUacUpdated), 1)
	s.Empty(s.emitted(models.EventCaseUpdated))
}

func (s *ServiceSuite) TestSurveyLaunched() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	p := &models.ResponsePayload{QuestionnaireID: householdQID, AgentID: "agent-1"}
	env := s.env(models.EventSurveyLaunched, "response", p)

	s.Require().NoError(s.service.SurveyLaunched(s.ctx, env, p))
	s.Require().NoError(s.service.SurveyLaunched(s.ctx, env, p))

	s.True(s.caseByID(c.CaseID).SurveyLaunched)
	s.Len(s.eventsWithDescription(models.DescSurveyLaunched), 2, "each launch is audited")
	updates := s.emitted(models.EventCaseUpdated)
	s.Require().Len(updates, 1)
	s.Equal(models.FieldDecisionNone, updates[0].Payload.Metadata.FieldDecision)
}

func (s *ServiceSuite) TestRespondentAuthenticated_AuditOnly() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	s.seedLink(householdQID, c)
	p := &models.ResponsePayload{QuestionnaireID: householdQID}

	s.Require().NoError(s.service.RespondentAuthenticated(s.ctx, s.env(models.EventRespondentAuthenticated, "response", p), p))

	s.Len(s.eventsWithDescription(models.DescRespondentAuthenticated), 1)
	s.False(s.caseByID(c.CaseID).SurveyLaunched)
	s.Empty(s.outbox.All())
}

func (s *ServiceSuite) TestUndeliveredMailReported() {
	c := s.seedCase(models.CaseTypeHH, models.AddressLevelUnit)
	link := s.seedLink(householdQID, c)
	qid := householdQID

	byLink := &models.UndeliveredMailPayload{QuestionnaireID: &qid, CaseID: &c.CaseID}
	s.Require().NoError(s.service.UndeliveredMailReported(s.ctx, s.env(models.EventUndeliveredMailReported, "fulfilmentInformation", byLink), byLink))
	byCase := &models.UndeliveredMailPayload{CaseID: &c.CaseID, FulfilmentCode: "P_OR_H1"}
	s.Require().NoError(s.service.UndeliveredMailReported(s.ctx, s.env(models.EventUndeliveredMailReported, "fulfilmentInformation", byCase), byCase))

	events := s.eventsWithDescription(models.DescUndeliveredMail)
	s.Require().Len(events, 2)
	s.Equal(link.ID, *events[0].UacQidLinkID)
	s.Nil(events[0].CaseID)
	s.Equal(c.CaseID, *events[1].CaseID)

	empty := &models.UndeliveredMailPayload{}
	err := s.service.UndeliveredMailReported(s.ctx, s.env(models.EventUndeliveredMailReported, "fulfilmentInformation", empty), empty)
	s.True(errors.Is(err, sentinel.ErrInvalidState))
}
