package handler

import (
	"context"
	"fmt"
	"log/slog"

	"caseprocessor/internal/cases/models"
)

// Inbound topics.
const (
	TopicSample          = "case.sample"
	TopicResponses       = "case.responses"
	TopicRefusals        = "case.refusals"
	TopicFulfilments     = "case.fulfilments"
	TopicAddress         = "case.address"
	TopicUac             = "case.uac"
	TopicField           = "case.field"
	TopicSurvey          = "case.survey"
	TopicUndeliveredMail = "case.undelivered-mail"
	TopicAdmin           = "case.admin"
)

// CaseService is the set of operations the routers dispatch to.
type CaseService interface {
	SampleLoaded(ctx context.Context, env *models.Envelope, p *models.SampleLoadedPayload) error
	ResponseReceived(ctx context.Context, env *models.Envelope, p *models.ResponsePayload) error
	RefusalReceived(ctx context.Context, env *models.Envelope, p *models.RefusalPayload) error
	FulfilmentRequested(ctx context.Context, env *models.Envelope, p *models.FulfilmentPayload) error
	AddressModified(ctx context.Context, env *models.Envelope, p *models.AddressModificationPayload) error
	AddressNotValid(ctx context.Context, env *models.Envelope, p *models.InvalidAddressPayload) error
	AddressTypeChanged(ctx context.Context, env *models.Envelope, p *models.AddressTypeChangePayload) error
	NewAddressReported(ctx context.Context, env *models.Envelope, p *models.NewAddressPayload) error
	UacCreated(ctx context.Context, env *models.Envelope, p *models.UacPayload) error
	UacUpdated(ctx context.Context, env *models.Envelope, p *models.UacPayload) error
	QuestionnaireLinked(ctx context.Context, env *models.Envelope, p *models.UacPayload) error
	DeactivateUac(ctx context.Context, env *models.Envelope, p *models.UacPayload) error
	FieldCaseUpdated(ctx context.Context, env *models.Envelope, p *models.FieldCaseUpdatePayload) error
	SurveyLaunched(ctx context.Context, env *models.Envelope, p *models.ResponsePayload) error
	RespondentAuthenticated(ctx context.Context, env *models.Envelope, p *models.ResponsePayload) error
	UndeliveredMailReported(ctx context.Context, env *models.Envelope, p *models.UndeliveredMailPayload) error
	UninvalidateAddress(ctx context.Context, env *models.Envelope, p *models.UninvalidateAddressPayload) error
}

type binding map[models.EventType]func(CaseService) EventHandler

var bindings = map[string]binding{
	TopicSample: {
		models.EventSampleLoaded: func(s CaseService) EventHandler { return On(s.SampleLoaded) },
	},
	TopicResponses: {
		models.EventResponseReceived: func(s CaseService) EventHandler { return On(s.ResponseReceived) },
	},
	TopicRefusals: {
		models.EventRefusalReceived: func(s CaseService) EventHandler { return On(s.RefusalReceived) },
	},
	TopicFulfilments: {
		models.EventFulfilmentRequested: func(s CaseService) EventHandler { return On(s.FulfilmentRequested) },
	},
	TopicAddress: {
		models.EventAddressModified:    func(s CaseService) EventHandler { return On(s.AddressModified) },
		models.EventAddressNotValid:    func(s CaseService) EventHandler { return On(s.AddressNotValid) },
		models.EventAddressTypeChanged: func(s CaseService) EventHandler { return On(s.AddressTypeChanged) },
		models.EventNewAddressReported: func(s CaseService) EventHandler { return On(s.NewAddressReported) },
	},
	TopicUac: {
		models.EventUacCreated:          func(s CaseService) EventHandler { return On(s.UacCreated) },
		models.EventUacUpdated:          func(s CaseService) EventHandler { return On(s.UacUpdated) },
		models.EventQuestionnaireLinked: func(s CaseService) EventHandler { return On(s.QuestionnaireLinked) },
		models.EventDeactivateUac:       func(s CaseService) EventHandler { return On(s.DeactivateUac) },
	},
	TopicField: {
		models.EventFieldCaseUpdated: func(s CaseService) EventHandler { return On(s.FieldCaseUpdated) },
	},
	TopicSurvey: {
		models.EventSurveyLaunched:          func(s CaseService) EventHandler { return On(s.SurveyLaunched) },
		models.EventRespondentAuthenticated: func(s CaseService) EventHandler { return On(s.RespondentAuthenticated) },
	},
	TopicUndeliveredMail: {
		models.EventUndeliveredMailReported: func(s CaseService) EventHandler { return On(s.UndeliveredMailReported) },
	},
	TopicAdmin: {
		models.EventRmUninvalidateAddress: func(s CaseService) EventHandler { return On(s.UninvalidateAddress) },
	},
}

// NewTopicRouter builds the router for a known inbound topic.
func NewTopicRouter(topic string, svc CaseService, logger *slog.Logger) (*Router, error) {
	b, ok := bindings[topic]
	if !ok {
		return nil, fmt.Errorf("no event types are routed from topic %q", topic)
	}
	r := NewRouter(topic, logger)
	for eventType, bind := range b {
		r.Register(eventType, bind(svc))
	}
	return r, nil
}

// KnownTopics lists every topic NewTopicRouter accepts.
func KnownTopics() []string {
	return []string{
		TopicSample, TopicResponses, TopicRefusals, TopicFulfilments, TopicAddress,
		TopicUac, TopicField, TopicSurvey, TopicUndeliveredMail, TopicAdmin,
	}
}
