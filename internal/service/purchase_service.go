package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"purchase-service/internal/broker"
	"purchase-service/internal/models"
	"purchase-service/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrInvalidIntent marks a purchase intent rejected before publish
var ErrInvalidIntent = errors.New("invalid purchase intent")

// EventPublisher is the broker-facing dependency of the submit path
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// PurchaseService converts validated purchase intents into broker events.
// A successful Submit means the broker durably accepted the event, not
// that the record is persisted yet.
type PurchaseService struct {
	publisher EventPublisher
	logger    *zap.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(publisher EventPublisher) *PurchaseService {
	return &PurchaseService{
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Submit assigns a fresh eventId to the intent and publishes it to the
// purchases topic, keyed by userId. Upstream validation is assumed but
// not trusted, so the intent is checked again here.
func (s *PurchaseService) Submit(ctx context.Context, intent *models.PurchaseIntent) (string, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.Submit")
	defer span.End()

	if err := validateIntent(intent); err != nil {
		util.PurchasePublishFailures.WithLabelValues("invalid_intent").Inc()
		return "", err
	}

	event := &models.PurchaseEvent{
		Username:    intent.Username,
		UserID:      intent.UserID,
		Price:       intent.Price,
		ProductName: intent.ProductName,
		Description: intent.Description,
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		EventID:     uuid.New().String(),
	}

	msg, err := broker.EncodeEvent(event)
	if err != nil {
		util.PurchasePublishFailures.WithLabelValues("encode_error").Inc()
		return "", err
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		util.PurchasePublishFailures.WithLabelValues("broker_error").Inc()
		s.logger.Error("Failed to publish purchase event",
			zap.String("event_id", event.EventID),
			zap.String("user_id", event.UserID),
			zap.Error(err))
		return "", fmt.Errorf("failed to publish purchase event: %w", err)
	}

	util.PurchasesPublishedTotal.Inc()
	s.logger.Info("Purchase event queued",
		zap.String("event_id", event.EventID),
		zap.String("user_id", event.UserID))

	return event.EventID, nil
}

func validateIntent(intent *models.PurchaseIntent) error {
	switch {
	case intent.Username == "":
		return fmt.Errorf("%w: username is required", ErrInvalidIntent)
	case intent.UserID == "":
		return fmt.Errorf("%w: userId is required", ErrInvalidIntent)
	case intent.Price <= 0:
		return fmt.Errorf("%w: price must be positive, got %v", ErrInvalidIntent, intent.Price)
	}
	return nil
}
