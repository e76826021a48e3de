package service

import (
	"context"
	"fmt"

	"purchase-service/internal/cache"
	"purchase-service/internal/models"
	"purchase-service/internal/store"
	"purchase-service/internal/util"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// QueryService serves the read path of the consumer service, with a
// short-lived Redis cache in front of the store.
type QueryService struct {
	store  *store.Store
	cache  *cache.Client
	logger *zap.Logger
}

// NewQueryService creates a new query service
func NewQueryService(store *store.Store, cache *cache.Client) *QueryService {
	return &QueryService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// ListUserPurchases returns a page of a user's purchases, newest first,
// together with the user's total purchase count.
func (s *QueryService) ListUserPurchases(ctx context.Context, userID string, limit, offset int) (*models.GetBuysResponse, error) {
	ctx, span := util.StartSpan(ctx, "QueryService.ListUserPurchases")
	defer span.End()

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	if cached, ok := s.cache.GetListResponse(ctx, userID, limit, offset); ok {
		return cached, nil
	}

	purchases, err := s.store.ListPurchasesByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases for user %s: %w", userID, err)
	}

	total, err := s.store.CountPurchasesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count purchases for user %s: %w", userID, err)
	}

	resp := &models.GetBuysResponse{
		Purchases: purchases,
		Total:     total,
		UserID:    userID,
	}

	s.cache.SetListResponse(ctx, userID, limit, offset, resp)

	s.logger.Debug("Listed purchases",
		zap.String("user_id", userID),
		zap.Int("count", len(purchases)),
		zap.Int64("total", total))

	return resp, nil
}
