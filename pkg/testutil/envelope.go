package testutil

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"caseprocessor/internal/cases/models"
)

// DefaultDateTime is the business timestamp stamped on test envelopes.
const DefaultDateTime = "2021-03-21T09:00:00.000Z"

// NewEnvelope builds an inbound envelope whose payload nests body under key,
// the same shape producers put on the wire.
func NewEnvelope(t *testing.T, eventType models.EventType, key string, body any) *models.Envelope {
	t.Helper()

	raw, err := json.Marshal(map[string]any{key: body})
	require.NoError(t, err, "failed to marshal payload")

	return &models.Envelope{
		Event: models.EventHeader{
			Type:          eventType,
			Source:        "RECEIPT_SERVICE",
			Channel:       "EQ",
			DateTime:      DefaultDateTime,
			TransactionID: uuid.NewString(),
		},
		Payload: raw,
	}
}

// EnvelopeBytes marshals a full envelope for consumer and router tests.
func EnvelopeBytes(t *testing.T, eventType models.EventType, key string, body any) []byte {
	t.Helper()

	data, err := json.Marshal(NewEnvelope(t, eventType, key, body))
	require.NoError(t, err, "failed to marshal envelope")
	return data
}
