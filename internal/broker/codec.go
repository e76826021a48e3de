package broker

import (
	"encoding/json"
	"errors"
	"fmt"

	"purchase-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// DecodeError marks a message as malformed. Retrying a malformed payload
// can never succeed, so the consumer treats it as non-retryable and skips
// the message.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode purchase event: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode purchase event: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is a non-retryable decode failure.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// EncodeEvent serializes a purchase event into a Kafka message. The
// partition key is the userId, which keeps all events for one user on a
// single ordered partition. The event-id header mirrors the payload's
// eventId so downstream consumers can recover it without a full decode.
func EncodeEvent(event *models.PurchaseEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal purchase event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(event.UserID),
		Value: value,
		Headers: []kafka.Header{
			{Key: models.HeaderEventID, Value: []byte(event.EventID)},
			{Key: models.HeaderEventType, Value: []byte(models.EventTypePurchaseCreated)},
			{Key: models.HeaderContentType, Value: []byte("application/json")},
		},
	}, nil
}

// DecodeEvent deserializes a message value back into a purchase event.
// A malformed payload or a missing required field yields a DecodeError.
func DecodeEvent(value []byte) (*models.PurchaseEvent, error) {
	if len(value) == 0 {
		return nil, &DecodeError{Reason: "empty payload"}
	}

	var event models.PurchaseEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, &DecodeError{Reason: "malformed payload", Err: err}
	}

	switch {
	case event.EventID == "":
		return nil, &DecodeError{Reason: "missing eventId"}
	case event.UserID == "":
		return nil, &DecodeError{Reason: "missing userId"}
	case event.Username == "":
		return nil, &DecodeError{Reason: "missing username"}
	case event.Timestamp == "":
		return nil, &DecodeError{Reason: "missing timestamp"}
	case event.Price <= 0:
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid price %v", event.Price)}
	}

	return &event, nil
}

// EventIDFromHeaders recovers the idempotency key from the message headers
// without decoding the payload. Returns "" when the header is absent.
func EventIDFromHeaders(headers []kafka.Header) string {
	for _, h := range headers {
		if h.Key == models.HeaderEventID {
			return string(h.Value)
		}
	}
	return ""
}
