package service

import (
	"context"
	"errors"
	"testing"

	"purchase-service/internal/broker"
	"purchase-service/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	messages []kafka.Message
	err      error
}

func (p *capturePublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func TestSubmitPublishesEvent(t *testing.T) {
	publisher := &capturePublisher{}
	svc := NewPurchaseService(publisher)

	intent := &models.PurchaseIntent{
		Username:    "alice",
		UserID:      "u1",
		Price:       42.50,
		ProductName: "Widget",
	}

	eventID, err := svc.Submit(context.Background(), intent)
	require.NoError(t, err)
	assert.NotEmpty(t, eventID)

	_, err = uuid.Parse(eventID)
	assert.NoError(t, err, "eventId must be a UUID")

	require.Len(t, publisher.messages, 1)
	msg := publisher.messages[0]
	assert.Equal(t, []byte("u1"), msg.Key)

	event, err := broker.DecodeEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, eventID, event.EventID)
	assert.Equal(t, "alice", event.Username)
	assert.Equal(t, 42.50, event.Price)
	assert.Equal(t, "Widget", event.ProductName)
	assert.NotEmpty(t, event.Timestamp)
}

func TestSubmitGeneratesFreshEventIDs(t *testing.T) {
	publisher := &capturePublisher{}
	svc := NewPurchaseService(publisher)

	intent := &models.PurchaseIntent{Username: "alice", UserID: "u1", Price: 1}

	first, err := svc.Submit(context.Background(), intent)
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), intent)
	require.NoError(t, err)

	// A client-side retry of the whole intent is a new event, so it can
	// never collide with the first submission downstream.
	assert.NotEqual(t, first, second)
}

func TestSubmitRejectsInvalidIntent(t *testing.T) {
	tests := []struct {
		name   string
		intent models.PurchaseIntent
	}{
		{name: "zero price", intent: models.PurchaseIntent{Username: "alice", UserID: "u1", Price: 0}},
		{name: "negative price", intent: models.PurchaseIntent{Username: "alice", UserID: "u1", Price: -9.99}},
		{name: "empty username", intent: models.PurchaseIntent{UserID: "u1", Price: 10}},
		{name: "empty userId", intent: models.PurchaseIntent{Username: "alice", Price: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &capturePublisher{}
			svc := NewPurchaseService(publisher)

			eventID, err := svc.Submit(context.Background(), &tt.intent)
			assert.Empty(t, eventID)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidIntent)
			assert.Empty(t, publisher.messages, "a rejected intent must never reach the broker")
		})
	}
}

func TestSubmitSurfacesPublishFailure(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("broker unreachable")}
	svc := NewPurchaseService(publisher)

	intent := &models.PurchaseIntent{Username: "alice", UserID: "u1", Price: 10}

	eventID, err := svc.Submit(context.Background(), intent)
	assert.Empty(t, eventID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidIntent)
}
