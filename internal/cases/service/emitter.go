package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	"caseprocessor/internal/cases/metrics"
	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/errs"
	"caseprocessor/pkg/platform/outbox"
)

const (
	outboundSource  = "CASE_SERVICE"
	outboundChannel = "RM"
)

// OutboxAppender accepts outbound messages inside the caller's transaction.
type OutboxAppender interface {
	AppendOutbox(ctx context.Context, msg *outbox.Message) error
}

// Topics names the outbound destinations.
type Topics struct {
	CaseEvents string
	UacEvents  string
}

// DefaultTopics are used when no topics are configured.
var DefaultTopics = Topics{
	CaseEvents: "case.events",
	UacEvents:  "uac.events",
}

// Emitter writes outbound events to the outbox so they commit or roll back with
// the state change they announce.
type Emitter struct {
	store   OutboxAppender
	topics  Topics
	metrics *metrics.Metrics
}

// NewEmitter creates an Emitter. Empty topic names fall back to DefaultTopics.
func NewEmitter(store OutboxAppender, topics Topics, m *metrics.Metrics) *Emitter {
	if topics.CaseEvents == "" {
		topics.CaseEvents = DefaultTopics.CaseEvents
	}
	if topics.UacEvents == "" {
		topics.UacEvents = DefaultTopics.UacEvents
	}
	return &Emitter{store: store, topics: topics, metrics: m}
}

// OutboundEnvelope is the wire shape of every emitted event.
type OutboundEnvelope struct {
	Event   OutboundHeader  `json:"event"`
	Payload OutboundPayload `json:"payload"`
}

// OutboundHeader mirrors the inbound event header.
type OutboundHeader struct {
	Type          models.EventType `json:"type"`
	Source        string           `json:"source"`
	Channel       string           `json:"channel"`
	DateTime      string           `json:"dateTime"`
	TransactionID string           `json:"transactionId"`
}

// OutboundPayload carries either a case or a UAC plus the field-work metadata.
type OutboundPayload struct {
	CollectionCase *CaseMessage     `json:"collectionCase,omitempty"`
	Uac            *UacMessage      `json:"uac,omitempty"`
	Metadata       *models.Metadata `json:"metadata,omitempty"`
}

// CaseMessage is the outbound view of a case.
type CaseMessage struct {
	ID                   uuid.UUID       `json:"id"`
	CaseRef              string          `json:"caseRef,omitempty"`
	CaseType             models.CaseType `json:"caseType"`
	Survey               string          `json:"survey"`
	CollectionExerciseID string          `json:"collectionExerciseId"`
	ActionPlanID         string          `json:"actionPlanId"`
	TreatmentCode        string          `json:"treatmentCode"`
	Address              AddressMessage  `json:"address"`
	ReceiptReceived      bool            `json:"receiptReceived"`
	RefusalReceived      *bool           `json:"refusalReceived"`
	AddressInvalid       bool            `json:"addressInvalid"`
	SurveyLaunched       bool            `json:"surveyLaunched"`
	HandDelivery         bool            `json:"handDelivery"`
	Skeleton             bool            `json:"skeleton"`
	CeExpectedCapacity   *int            `json:"ceExpectedCapacity"`
	CeActualResponses    int             `json:"ceActualResponses"`
	FieldCoordinatorID   string          `json:"fieldCoordinatorId,omitempty"`
	FieldOfficerID       string          `json:"fieldOfficerId,omitempty"`
	CreatedDateTime      string          `json:"createdDateTime"`
	LastUpdated          string          `json:"lastUpdated"`
}

// AddressMessage is the outbound address block.
type AddressMessage struct {
	AddressLine1     string              `json:"addressLine1"`
	AddressLine2     *string             `json:"addressLine2"`
	AddressLine3     *string             `json:"addressLine3"`
	TownName         string              `json:"townName"`
	Postcode         string              `json:"postcode"`
	Latitude         string              `json:"latitude,omitempty"`
	Longitude        string              `json:"longitude,omitempty"`
	UPRN             string              `json:"uprn,omitempty"`
	EstabUPRN        string              `json:"estabUprn,omitempty"`
	ARID             string              `json:"arid,omitempty"`
	EstabARID        string              `json:"estabArid,omitempty"`
	Region           string              `json:"region,omitempty"`
	AddressType      string              `json:"addressType"`
	AddressLevel     models.AddressLevel `json:"addressLevel"`
	EstabType        *string             `json:"estabType"`
	OrganisationName *string             `json:"organisationName"`
}

// UacMessage is the outbound view of a UAC/QID link.
type UacMessage struct {
	UAC                string     `json:"uac"`
	QuestionnaireID    string     `json:"questionnaireId"`
	CaseID             *uuid.UUID `json:"caseId"`
	Active             bool       `json:"active"`
	FormType           string     `json:"formType,omitempty"`
	BlankQuestionnaire bool       `json:"blankQuestionnaire"`
}

// NewCaseMessage builds the outbound view of c.
func NewCaseMessage(c *models.Case) *CaseMessage {
	msg := &CaseMessage{
		ID:                   c.CaseID,
		CaseType:             c.CaseType,
		Survey:               c.Survey,
		CollectionExerciseID: c.CollectionExerciseID,
		ActionPlanID:         c.ActionPlanID,
		TreatmentCode:        c.TreatmentCode,
		Address: AddressMessage{
			AddressLine1:     c.AddressLine1,
			AddressLine2:     c.AddressLine2,
			AddressLine3:     c.AddressLine3,
			TownName:         c.TownName,
			Postcode:         c.Postcode,
			Latitude:         c.Latitude,
			Longitude:        c.Longitude,
			UPRN:             c.UPRN,
			EstabUPRN:        c.EstabUPRN,
			ARID:             c.ARID,
			EstabARID:        c.EstabARID,
			Region:           c.Region,
			AddressType:      c.AddressType,
			AddressLevel:     c.AddressLevel,
			EstabType:        c.EstabType,
			OrganisationName: c.OrganisationName,
		},
		ReceiptReceived:    c.ReceiptReceived,
		RefusalReceived:    c.RefusalReceived,
		AddressInvalid:     c.AddressInvalid,
		SurveyLaunched:     c.SurveyLaunched,
		HandDelivery:       c.HandDelivery,
		Skeleton:           c.Skeleton,
		CeExpectedCapacity: c.CeExpectedCapacity,
		CeActualResponses:  c.CeActualResponses,
		FieldCoordinatorID: c.FieldCoordinatorID,
		FieldOfficerID:     c.FieldOfficerID,
		CreatedDateTime:    formatTime(c.CreatedAt),
		LastUpdated:        formatTime(c.LastUpdated),
	}
	if c.CaseRef != nil {
		msg.CaseRef = formatRef(*c.CaseRef)
	}
	return msg
}

// EmitCaseUpdated announces a changed case.
func (e *Emitter) EmitCaseUpdated(ctx context.Context, c *models.Case, meta *models.Metadata, cause models.EventHeader, now time.Time) error {
	return e.emitCase(ctx, models.EventCaseUpdated, c, meta, cause, now)
}

// EmitCaseCreated announces a new case.
func (e *Emitter) EmitCaseCreated(ctx context.Context, c *models.Case, meta *models.Metadata, cause models.EventHeader, now time.Time) error {
	return e.emitCase(ctx, models.EventCaseCreated, c, meta, cause, now)
}

func (e *Emitter) emitCase(ctx context.Context, eventType models.EventType, c *models.Case, meta *models.Metadata, cause models.EventHeader, now time.Time) error {
	env := OutboundEnvelope{
		Event:   outboundHeader(eventType, cause, now),
		Payload: OutboundPayload{CollectionCase: NewCaseMessage(c), Metadata: meta},
	}
	return e.append(ctx, e.topics.CaseEvents, c.CaseID.String(), eventType, env)
}

// EmitUacUpdated announces a changed UAC/QID link.
func (e *Emitter) EmitUacUpdated(ctx context.Context, link *models.UacQidLink, cause models.EventHeader, now time.Time) error {
	env := OutboundEnvelope{
		Event: outboundHeader(models.EventUacUpdated, cause, now),
		Payload: OutboundPayload{Uac: &UacMessage{
			UAC:                link.UAC,
			QuestionnaireID:    link.QID,
			CaseID:             link.CaseID,
			Active:             link.Active,
			FormType:           string(link.FormType()),
			BlankQuestionnaire: link.BlankQuestionnaire,
		}},
	}
	return e.append(ctx, e.topics.UacEvents, link.QID, models.EventUacUpdated, env)
}

func (e *Emitter) append(ctx context.Context, topic, key string, eventType models.EventType, env OutboundEnvelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return errs.Wrapf(err, "marshal %s", eventType)
	}
	msg := &outbox.Message{
		Topic:     topic,
		Key:       key,
		EventType: string(eventType),
		Payload:   body,
		CreatedAt: time.Now(),
	}
	if err := e.store.AppendOutbox(ctx, msg); err != nil {
		return errs.Wrapf(err, "append %s to outbox", eventType)
	}
	e.metrics.IncrementEmitted(string(eventType))
	return nil
}

// outboundHeader keeps the causing transaction id so downstream systems can
// correlate; a fresh one is minted when the cause carried none.
func outboundHeader(eventType models.EventType, cause models.EventHeader, now time.Time) OutboundHeader {
	txID := uuid.New()
	if id := cause.TxID(); id != nil {
		txID = *id
	}
	return OutboundHeader{
		Type:          eventType,
		Source:        outboundSource,
		Channel:       outboundChannel,
		DateTime:      formatTime(now),
		TransactionID: txID.String(),
	}
}

func formatRef(ref int64) string {
	return strconv.FormatInt(ref, 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
