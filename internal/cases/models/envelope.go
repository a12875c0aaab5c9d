package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire shape shared by every inbound and outbound message.
// The payload stays raw until the router has accepted the event type.
type Envelope struct {
	Event   EventHeader     `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// EventHeader carries provenance copied onto every audit row.
type EventHeader struct {
	Type          EventType `json:"type"`
	Source        string    `json:"source"`
	Channel       string    `json:"channel"`
	DateTime      string    `json:"dateTime"`
	TransactionID string    `json:"transactionId"`
}

// ErrMalformedPayload marks bytes that cannot be decoded into the expected shape.
var ErrMalformedPayload = errors.New("malformed payload")

// DecodeEnvelope parses the outer envelope. Errors wrap ErrMalformedPayload.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrMalformedPayload, err)
	}
	if env.Event.Type == "" {
		return nil, fmt.Errorf("%w: event.type is missing", ErrMalformedPayload)
	}
	return &env, nil
}

// OccurredAt parses the business timestamp. Missing or unparseable values yield nil.
func (h EventHeader) OccurredAt() *time.Time {
	if h.DateTime == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, h.DateTime)
	if err != nil {
		return nil
	}
	return &t
}

// TxID parses the transaction id. Missing or unparseable values yield nil.
func (h EventHeader) TxID() *uuid.UUID {
	if h.TransactionID == "" {
		return nil
	}
	id, err := uuid.Parse(h.TransactionID)
	if err != nil {
		return nil
	}
	return &id
}

// Payload is the tagged variant decoded from Envelope.Payload. Each event type
// maps to exactly one concrete payload, found under its own key.
type Payload interface {
	payloadKey() string
}

var payloadFactories = map[EventType]func() Payload{
	EventSampleLoaded:            func() Payload { return &SampleLoadedPayload{} },
	EventResponseReceived:        func() Payload { return &ResponsePayload{} },
	EventSurveyLaunched:          func() Payload { return &ResponsePayload{} },
	EventRespondentAuthenticated: func() Payload { return &ResponsePayload{} },
	EventRefusalReceived:         func() Payload { return &RefusalPayload{} },
	EventFulfilmentRequested:     func() Payload { return &FulfilmentPayload{} },
	EventAddressModified:         func() Payload { return &AddressModificationPayload{} },
	EventAddressNotValid:         func() Payload { return &InvalidAddressPayload{} },
	EventAddressTypeChanged:      func() Payload { return &AddressTypeChangePayload{} },
	EventNewAddressReported:      func() Payload { return &NewAddressPayload{} },
	EventUacCreated:              func() Payload { return &UacPayload{} },
	EventUacUpdated:              func() Payload { return &UacPayload{} },
	EventQuestionnaireLinked:     func() Payload { return &UacPayload{} },
	EventDeactivateUac:           func() Payload { return &UacPayload{} },
	EventFieldCaseUpdated:        func() Payload { return &FieldCaseUpdatePayload{} },
	EventUndeliveredMailReported: func() Payload { return &UndeliveredMailPayload{} },
	EventRmUninvalidateAddress:   func() Payload { return &UninvalidateAddressPayload{} },
}

// DecodePayload decodes the payload variant selected by the event type.
// JSON errors wrap ErrMalformedPayload; a missing sub-object is a ValidationError.
func (e *Envelope) DecodePayload() (Payload, error) {
	factory, ok := payloadFactories[e.Event.Type]
	if !ok {
		return nil, &InvalidEventTypeError{Type: e.Event.Type}
	}
	p := factory()

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(e.Payload, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrMalformedPayload, err)
	}
	raw, ok := wrapper[p.payloadKey()]
	if !ok || string(raw) == "null" {
		return nil, NewValidationError("payload."+p.payloadKey(), "is required")
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("%w: decode payload.%s: %v", ErrMalformedPayload, p.payloadKey(), err)
	}
	return p, nil
}

// CaseRef identifies a case inside a payload.
type CaseRef struct {
	ID uuid.UUID `json:"id"`
}

// AddressDetails is the full address block carried by sample and new-address events.
type AddressDetails struct {
	AddressLine1     string       `json:"addressLine1"`
	AddressLine2     *string      `json:"addressLine2,omitempty"`
	AddressLine3     *string      `json:"addressLine3,omitempty"`
	TownName         string       `json:"townName"`
	Postcode         string       `json:"postcode"`
	Latitude         string       `json:"latitude,omitempty"`
	Longitude        string       `json:"longitude,omitempty"`
	UPRN             string       `json:"uprn,omitempty"`
	EstabUPRN        string       `json:"estabUprn,omitempty"`
	ARID             string       `json:"arid,omitempty"`
	EstabARID        string       `json:"estabArid,omitempty"`
	Region           string       `json:"region,omitempty"`
	AddressLevel     AddressLevel `json:"addressLevel,omitempty"`
	AddressType      string       `json:"addressType,omitempty"`
	EstabType        *string      `json:"estabType,omitempty"`
	OrganisationName *string      `json:"organisationName,omitempty"`
	AbpCode          string       `json:"abpCode,omitempty"`
	OA               string       `json:"oa,omitempty"`
	LSOA             string       `json:"lsoa,omitempty"`
	MSOA             string       `json:"msoa,omitempty"`
	LAD              string       `json:"lad,omitempty"`
}

// CaseDetails describes a case to be created.
type CaseDetails struct {
	ID                   uuid.UUID      `json:"id"`
	CaseType             CaseType       `json:"caseType"`
	Survey               string         `json:"survey,omitempty"`
	TreatmentCode        string         `json:"treatmentCode,omitempty"`
	CollectionExerciseID string         `json:"collectionExerciseId,omitempty"`
	ActionPlanID         string         `json:"actionPlanId,omitempty"`
	FieldCoordinatorID   string         `json:"fieldCoordinatorId,omitempty"`
	FieldOfficerID       string         `json:"fieldOfficerId,omitempty"`
	CeExpectedCapacity   *int           `json:"ceExpectedCapacity,omitempty"`
	HTCWillingness       string         `json:"htcWillingness,omitempty"`
	HTCDigital           string         `json:"htcDigital,omitempty"`
	HandDelivery         bool           `json:"handDelivery,omitempty"`
	Address              AddressDetails `json:"address"`
}

// SampleLoadedPayload creates a case from sample ingestion.
type SampleLoadedPayload struct {
	CaseDetails
}

func (*SampleLoadedPayload) payloadKey() string { return "collectionCase" }

// ResponsePayload carries questionnaire returns, survey launches and authentications.
type ResponsePayload struct {
	QuestionnaireID  string     `json:"questionnaireId"`
	CaseID           *uuid.UUID `json:"caseId,omitempty"`
	Unreceipt        bool       `json:"unreceipt"`
	AgentID          string     `json:"agentId,omitempty"`
	ResponseDateTime string     `json:"responseDateTime,omitempty"`
}

func (*ResponsePayload) payloadKey() string { return "response" }

// RefusalPayload reports a refusal against a case.
type RefusalPayload struct {
	Type           string  `json:"type"`
	Report         string  `json:"report,omitempty"`
	AgentID        string  `json:"agentId,omitempty"`
	CollectionCase CaseRef `json:"collectionCase"`
}

func (*RefusalPayload) payloadKey() string { return "refusal" }

// FulfilmentPayload requests printed or SMS material for a case.
type FulfilmentPayload struct {
	FulfilmentCode   string     `json:"fulfilmentCode"`
	CaseID           uuid.UUID  `json:"caseId"`
	IndividualCaseID *uuid.UUID `json:"individualCaseId,omitempty"`
}

func (*FulfilmentPayload) payloadKey() string { return "fulfilmentRequest" }

// AddressOverrides carries the modifiable address subset with present/absent semantics.
type AddressOverrides struct {
	AddressLine1     Optional[string] `json:"addressLine1,omitzero"`
	AddressLine2     Optional[string] `json:"addressLine2,omitzero"`
	AddressLine3     Optional[string] `json:"addressLine3,omitzero"`
	TownName         Optional[string] `json:"townName,omitzero"`
	Postcode         Optional[string] `json:"postcode,omitzero"`
	OrganisationName Optional[string] `json:"organisationName,omitzero"`
	EstabType        Optional[string] `json:"estabType,omitzero"`
}

// AddressModificationPayload corrects an existing case's address.
type AddressModificationPayload struct {
	CollectionCase CaseRef          `json:"collectionCase"`
	NewAddress     AddressOverrides `json:"newAddress"`
}

func (*AddressModificationPayload) payloadKey() string { return "addressModification" }

// AddressTypeChangeAddress is the address block of an address type change.
type AddressTypeChangeAddress struct {
	AddressType      CaseType         `json:"addressType"`
	AddressLine1     Optional[string] `json:"addressLine1,omitzero"`
	AddressLine2     Optional[string] `json:"addressLine2,omitzero"`
	AddressLine3     Optional[string] `json:"addressLine3,omitzero"`
	OrganisationName Optional[string] `json:"organisationName,omitzero"`
	EstabType        Optional[string] `json:"estabType,omitzero"`
}

// AddressTypeChangeCase identifies the case being retyped.
type AddressTypeChangeCase struct {
	ID                 uuid.UUID                `json:"id"`
	CeExpectedCapacity *string                  `json:"ceExpectedCapacity,omitempty"`
	Address            AddressTypeChangeAddress `json:"address"`
}

// AddressTypeChangePayload splits a case into an invalidated original and a new case.
type AddressTypeChangePayload struct {
	NewCaseID      uuid.UUID             `json:"newCaseId"`
	CollectionCase AddressTypeChangeCase `json:"collectionCase"`
}

func (*AddressTypeChangePayload) payloadKey() string { return "addressTypeChange" }

// NewAddressPayload reports an address missing from the sample.
type NewAddressPayload struct {
	SourceCaseID   *uuid.UUID  `json:"sourceCaseId,omitempty"`
	CollectionCase CaseDetails `json:"collectionCase"`
}

func (*NewAddressPayload) payloadKey() string { return "newAddress" }

// InvalidAddressPayload marks a case address as invalid.
type InvalidAddressPayload struct {
	Reason         string  `json:"reason"`
	Notes          string  `json:"notes,omitempty"`
	CollectionCase CaseRef `json:"collectionCase"`
}

func (*InvalidAddressPayload) payloadKey() string { return "invalidAddress" }

// UacPayload carries UAC/QID creation, linking, update and deactivation.
type UacPayload struct {
	UAC             string     `json:"uac,omitempty"`
	QuestionnaireID string     `json:"questionnaireId"`
	CaseID          *uuid.UUID `json:"caseId,omitempty"`
	Active          *bool      `json:"active,omitempty"`
}

func (*UacPayload) payloadKey() string { return "uac" }

// FieldCaseUpdatePayload is the administrative CE capacity change from field work.
type FieldCaseUpdatePayload struct {
	ID                 uuid.UUID `json:"id"`
	CeExpectedCapacity int       `json:"ceExpectedCapacity"`
}

func (*FieldCaseUpdatePayload) payloadKey() string { return "collectionCase" }

// UndeliveredMailPayload reports returned post against a QID or a case.
type UndeliveredMailPayload struct {
	QuestionnaireID *string    `json:"questionnaireId,omitempty"`
	CaseID          *uuid.UUID `json:"caseId,omitempty"`
	FulfilmentCode  string     `json:"fulfilmentCode,omitempty"`
}

func (*UndeliveredMailPayload) payloadKey() string { return "fulfilmentInformation" }

// UninvalidateAddressPayload reverses an earlier invalid-address report.
type UninvalidateAddressPayload struct {
	CaseID uuid.UUID `json:"caseId"`
}

func (*UninvalidateAddressPayload) payloadKey() string { return "rmUnInvalidateAddress" }
