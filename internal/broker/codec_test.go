package broker

import (
	"testing"
	"time"

	"purchase-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() *models.PurchaseEvent {
	return &models.PurchaseEvent{
		Username:    "alice",
		UserID:      "u1",
		Price:       42.50,
		ProductName: "Widget",
		Description: "a widget",
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		EventID:     "7d4df38c-9f20-4dcb-b0a7-24e9b9f0a1c2",
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	event := sampleEvent()

	msg, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestEncodeRoutingMetadata(t *testing.T) {
	event := sampleEvent()

	msg, err := EncodeEvent(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("u1"), msg.Key, "partition key must be the userId")

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, event.EventID, headers[models.HeaderEventID])
	assert.Equal(t, models.EventTypePurchaseCreated, headers[models.HeaderEventType])
	assert.Equal(t, "application/json", headers[models.HeaderContentType])
}

func TestDecodeOptionalFieldsOmitted(t *testing.T) {
	event := sampleEvent()
	event.ProductName = ""
	event.Description = ""

	msg, err := EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestDecodeFailures(t *testing.T) {
	valid := sampleEvent()

	tests := []struct {
		name    string
		mutate  func(e *models.PurchaseEvent)
		payload []byte
	}{
		{name: "empty payload", payload: []byte{}},
		{name: "not json", payload: []byte("not-json{{")},
		{name: "missing eventId", mutate: func(e *models.PurchaseEvent) { e.EventID = "" }},
		{name: "missing userId", mutate: func(e *models.PurchaseEvent) { e.UserID = "" }},
		{name: "missing username", mutate: func(e *models.PurchaseEvent) { e.Username = "" }},
		{name: "missing timestamp", mutate: func(e *models.PurchaseEvent) { e.Timestamp = "" }},
		{name: "zero price", mutate: func(e *models.PurchaseEvent) { e.Price = 0 }},
		{name: "negative price", mutate: func(e *models.PurchaseEvent) { e.Price = -3.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := tt.payload
			if tt.mutate != nil {
				event := *valid
				tt.mutate(&event)
				msg, err := EncodeEvent(&event)
				require.NoError(t, err)
				payload = msg.Value
			}

			decoded, err := DecodeEvent(payload)
			assert.Nil(t, decoded)
			require.Error(t, err)
			assert.True(t, IsDecodeError(err), "expected a DecodeError, got %v", err)
		})
	}
}

func TestEventIDFromHeaders(t *testing.T) {
	headers := []kafka.Header{
		{Key: models.HeaderEventType, Value: []byte(models.EventTypePurchaseCreated)},
		{Key: models.HeaderEventID, Value: []byte("abc-123")},
	}
	assert.Equal(t, "abc-123", EventIDFromHeaders(headers))
	assert.Equal(t, "", EventIDFromHeaders(nil))
}
