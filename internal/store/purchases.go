package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"purchase-service/internal/models"

	"github.com/lib/pq"
)

// SavePurchase persists a purchase event exactly once. The insert is keyed
// by the eventId; a duplicate delivery trips the primary-key constraint
// and is resolved by re-reading the already-persisted row. The constraint,
// not a pre-check, is what serializes concurrent duplicates — a
// check-then-insert would race under redelivery across consumer instances.
func (s *Store) SavePurchase(ctx context.Context, event *models.PurchaseEvent) (*models.Purchase, bool, error) {
	ts, err := time.Parse(time.RFC3339Nano, event.Timestamp)
	if err != nil {
		return nil, false, fmt.Errorf("invalid event timestamp %q: %w", event.Timestamp, err)
	}

	purchase := &models.Purchase{
		ID:          event.EventID,
		UserID:      event.UserID,
		Username:    event.Username,
		Price:       event.Price,
		Timestamp:   ts,
		ProductName: optional(event.ProductName),
		Description: optional(event.Description),
	}

	query := `
		INSERT INTO purchases (id, user_id, username, price, ts, product_name, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err = s.db.GetContext(ctx, &purchase.CreatedAt, query,
		purchase.ID, purchase.UserID, purchase.Username, purchase.Price,
		purchase.Timestamp, purchase.ProductName, purchase.Description)

	if err == nil {
		return purchase, true, nil
	}

	if !isUniqueViolation(err) {
		return nil, false, fmt.Errorf("failed to insert purchase: %w", err)
	}

	existing, err := s.GetPurchaseByID(ctx, event.EventID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read existing purchase %s: %w", event.EventID, err)
	}
	return existing, false, nil
}

// GetPurchaseByID retrieves a purchase by its eventId
func (s *Store) GetPurchaseByID(ctx context.Context, id string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.GetContext(ctx, &purchase, "SELECT * FROM purchases WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListPurchasesByUser retrieves purchases for a user, newest first
func (s *Store) ListPurchasesByUser(ctx context.Context, userID string, limit, offset int) ([]models.Purchase, error) {
	purchases := []models.Purchase{}
	err := s.db.SelectContext(ctx, &purchases,
		"SELECT * FROM purchases WHERE user_id = $1 ORDER BY ts DESC LIMIT $2 OFFSET $3",
		userID, limit, offset)
	return purchases, err
}

// CountPurchasesByUser counts all purchases for a user
func (s *Store) CountPurchasesByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM purchases WHERE user_id = $1", userID)
	return count, err
}

// isUniqueViolation reports whether err is a Postgres unique_violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
