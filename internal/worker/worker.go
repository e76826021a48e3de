package worker

import (
	"context"
	"time"

	"purchase-service/internal/broker"
	"purchase-service/internal/models"
	"purchase-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageSource is the broker-facing dependency of the consume loop
type MessageSource interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
	Close() error
}

// PurchaseStore persists decoded events exactly once per eventId
type PurchaseStore interface {
	SavePurchase(ctx context.Context, event *models.PurchaseEvent) (*models.Purchase, bool, error)
}

// CacheInvalidator drops cached read-path entries for a user
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

// PurchaseWorker runs the subscription loop over the purchases topic.
// It is the only goroutine touching the consumer. Each message moves
// through decode, persist, acknowledge; decode failures and transient
// persist failures are logged and skipped, so the topic never blocks.
type PurchaseWorker struct {
	consumer MessageSource
	store    PurchaseStore
	cache    CacheInvalidator
	grace    time.Duration
	logger   *zap.Logger
	done     chan struct{}
}

// NewPurchaseWorker creates a new purchase worker
func NewPurchaseWorker(consumer MessageSource, store PurchaseStore, cache CacheInvalidator, grace time.Duration) *PurchaseWorker {
	return &PurchaseWorker{
		consumer: consumer,
		store:    store,
		cache:    cache,
		grace:    grace,
		logger:   util.GetLogger(),
		done:     make(chan struct{}),
	}
}

// Start runs the consume loop until ctx is cancelled. Cancellation stops
// new fetches; the in-flight message finishes on its own grace-bounded
// context before the loop exits.
func (w *PurchaseWorker) Start(ctx context.Context) error {
	defer close(w.done)
	w.logger.Info("Starting purchase worker")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Purchase worker stopping")
			return ctx.Err()
		default:
			msg, err := w.consumer.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					w.logger.Info("Purchase worker stopping")
					return ctx.Err()
				}
				w.logger.Error("Error fetching message", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			util.EventsConsumedTotal.Inc()

			// Handling is detached from the loop context so shutdown
			// lets the in-flight message finish.
			handleCtx, cancel := context.WithTimeout(context.Background(), w.grace)
			w.handleMessage(handleCtx, msg)

			if err := w.consumer.Commit(handleCtx, msg); err != nil {
				w.logger.Error("Error committing offset",
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
			}
			cancel()
		}
	}
}

// handleMessage runs one message through the state machine. It never
// reports a terminal failure: every outcome allows offset advancement.
func (w *PurchaseWorker) handleMessage(ctx context.Context, msg kafka.Message) {
	ctx, span := util.StartSpan(ctx, "PurchaseWorker.handleMessage")
	defer span.End()

	event, err := broker.DecodeEvent(msg.Value)
	if err != nil {
		// A malformed payload is a bug upstream, not a transient fault.
		// Redelivery can never fix it, so skip it.
		util.DecodeFailuresTotal.Inc()
		w.logger.Error("Skipping undecodable message",
			zap.String("event_id", broker.EventIDFromHeaders(msg.Headers)),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return
	}

	start := time.Now()
	purchase, created, err := w.store.SavePurchase(ctx, event)
	util.PersistLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		// The offset still advances past this message; there is no
		// retry and no dead-letter topic. Known gap in this design.
		util.PersistFailuresTotal.Inc()
		w.logger.Warn("Persist failed, skipping message",
			zap.String("event_id", event.EventID),
			zap.String("user_id", event.UserID),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return
	}

	if !created {
		util.DuplicateEventsTotal.Inc()
		w.logger.Warn("Duplicate delivery resolved to existing purchase",
			zap.String("event_id", event.EventID),
			zap.String("user_id", event.UserID))
		return
	}

	util.EventsPersistedTotal.Inc()
	w.logger.Info("Purchase persisted",
		zap.String("event_id", purchase.ID),
		zap.String("user_id", purchase.UserID),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset))

	if w.cache != nil {
		w.cache.InvalidateUser(ctx, purchase.UserID)
	}
}

// Done is closed once the consume loop has fully exited
func (w *PurchaseWorker) Done() <-chan struct{} {
	return w.done
}

// Stop closes the underlying consumer
func (w *PurchaseWorker) Stop() error {
	w.logger.Info("Stopping purchase worker")
	return w.consumer.Close()
}
