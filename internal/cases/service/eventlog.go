package service

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/errs"
)

// EventStore appends audit rows.
type EventStore interface {
	InsertEvent(ctx context.Context, event *models.Event) error
}

// EventLogger writes the audit trail. It must be called inside the transaction
// of the mutation it documents.
type EventLogger struct {
	store EventStore
}

// NewEventLogger creates an EventLogger.
func NewEventLogger(store EventStore) *EventLogger {
	return &EventLogger{store: store}
}

// LogCaseEvent records an event against a case.
func (l *EventLogger) LogCaseEvent(ctx context.Context, c *models.Case, eventDate *time.Time, description string,
	eventType models.EventType, cause models.EventHeader, payload any, processedAt time.Time,
) error {
	id := c.CaseID
	return l.log(ctx, &models.Event{CaseID: &id}, eventDate, description, eventType, cause, payload, processedAt)
}

// LogUacQidEvent records an event against a UAC/QID link.
func (l *EventLogger) LogUacQidEvent(ctx context.Context, link *models.UacQidLink, eventDate *time.Time, description string,
	eventType models.EventType, cause models.EventHeader, payload any, processedAt time.Time,
) error {
	id := link.ID
	return l.log(ctx, &models.Event{UacQidLinkID: &id}, eventDate, description, eventType, cause, payload, processedAt)
}

func (l *EventLogger) log(ctx context.Context, event *models.Event, eventDate *time.Time, description string,
	eventType models.EventType, cause models.EventHeader, payload any, processedAt time.Time,
) error {
	body, err := CanonicalJSON(payload)
	if err != nil {
		return errs.Wrapf(err, "serialise %s audit payload", eventType)
	}

	event.ID = uuid.New()
	event.EventDate = eventDate
	event.ProcessedAt = processedAt
	event.Type = eventType
	event.Description = description
	event.Channel = cause.Channel
	event.Source = cause.Source
	event.TransactionID = cause.TxID()
	event.Payload = body

	if err := l.store.InsertEvent(ctx, event); err != nil {
		return errs.Wrapf(err, "insert %s audit event", eventType)
	}
	return nil
}

// CanonicalJSON serialises v with stable key order: struct fields in declaration
// order, map keys sorted, no insignificant whitespace and no HTML escaping.
func CanonicalJSON(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var decoded any
		if err := dec.Decode(&decoded); err != nil {
			return nil, err
		}
		v = decoded
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
