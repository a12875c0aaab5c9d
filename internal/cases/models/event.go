package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType is the closed vocabulary of inbound and outbound event tags.
type EventType string

const (
	EventSampleLoaded            EventType = "SAMPLE_LOADED"
	EventResponseReceived        EventType = "RESPONSE_RECEIVED"
	EventRefusalReceived         EventType = "REFUSAL_RECEIVED"
	EventFulfilmentRequested     EventType = "FULFILMENT_REQUESTED"
	EventAddressModified         EventType = "ADDRESS_MODIFIED"
	EventAddressNotValid         EventType = "ADDRESS_NOT_VALID"
	EventAddressTypeChanged      EventType = "ADDRESS_TYPE_CHANGED"
	EventNewAddressReported      EventType = "NEW_ADDRESS_REPORTED"
	EventUacCreated              EventType = "UAC_CREATED"
	EventUacUpdated              EventType = "UAC_UPDATED"
	EventQuestionnaireLinked     EventType = "QUESTIONNAIRE_LINKED"
	EventDeactivateUac           EventType = "DEACTIVATE_UAC"
	EventFieldCaseUpdated        EventType = "FIELD_CASE_UPDATED"
	EventSurveyLaunched          EventType = "SURVEY_LAUNCHED"
	EventRespondentAuthenticated EventType = "RESPONDENT_AUTHENTICATED"
	EventUndeliveredMailReported EventType = "UNDELIVERED_MAIL_REPORTED"
	EventRmUninvalidateAddress   EventType = "RM_UNINVALIDATE_ADDRESS"

	EventCaseCreated EventType = "CASE_CREATED"
	EventCaseUpdated EventType = "CASE_UPDATED"
)

// Audit descriptions. Tests compare against these constants.
const (
	DescSampleLoaded            = "Create case sample received"
	DescResponseReceived        = "Returned questionnaire received"
	DescBlankQuestionnaire      = "Blank questionnaire received"
	DescUnlinkedResponse        = "Unlinked questionnaire received"
	DescRefusalReceived         = "Refusal received"
	DescFulfilmentRequested     = "Fulfilment request received"
	DescAddressModified         = "Address modified"
	DescAddressNotValid         = "Invalid address"
	DescAddressTypeChanged      = "Address type changed"
	DescNewAddressReported      = "New address reported"
	DescUacCreated              = "UAC/QID created"
	DescUacUpdated              = "UAC/QID updated"
	DescQuestionnaireLinked     = "Questionnaire linked"
	DescUacDeactivated          = "UAC/QID deactivated"
	DescFieldCaseUpdated        = "Field case updated"
	DescSurveyLaunched          = "Survey launched"
	DescRespondentAuthenticated = "Respondent authenticated"
	DescUndeliveredMail         = "Undelivered mail reported"
	DescAddressUninvalidated    = "Address uninvalidated"
)

// Event is one append-only audit row. Exactly one of CaseID and UacQidLinkID is set.
type Event struct {
	ID            uuid.UUID
	CaseID        *uuid.UUID
	UacQidLinkID  *uuid.UUID
	EventDate     *time.Time
	ProcessedAt   time.Time
	Type          EventType
	Description   string
	Channel       string
	Source        string
	TransactionID *uuid.UUID
	Payload       json.RawMessage
}

// Clone returns a deep copy.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	out := *e
	out.CaseID = clonePtr(e.CaseID)
	out.UacQidLinkID = clonePtr(e.UacQidLinkID)
	out.EventDate = clonePtr(e.EventDate)
	out.TransactionID = clonePtr(e.TransactionID)
	out.Payload = append(json.RawMessage(nil), e.Payload...)
	return &out
}

// FieldDecision is the instruction handed to field-work systems on outbound case events.
type FieldDecision string

const (
	FieldDecisionNone   FieldDecision = ""
	FieldDecisionCreate FieldDecision = "CREATE"
	FieldDecisionUpdate FieldDecision = "UPDATE"
	FieldDecisionCancel FieldDecision = "CANCEL"
	FieldDecisionClose  FieldDecision = "CLOSE"
)

// Metadata travels with outbound case events and names the cause and field instruction.
type Metadata struct {
	CauseEventType EventType     `json:"causeEventType"`
	FieldDecision  FieldDecision `json:"fieldDecision,omitempty"`
}

// NewMetadata builds metadata for an outbound event.
func NewMetadata(cause EventType, decision FieldDecision) *Metadata {
	return &Metadata{CauseEventType: cause, FieldDecision: decision}
}
