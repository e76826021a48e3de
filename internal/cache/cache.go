package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"purchase-service/internal/models"
	"purchase-service/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Client caches paginated list responses on the read path. Entries are
// short-lived and invalidated whenever a new purchase lands for the user,
// so a cached response never outlives the next write by more than the TTL.
type Client struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewClient creates a Redis client and verifies the connection
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:    rdb,
		ttl:    ttl,
		logger: util.GetLogger(),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetListResponse returns a cached list response, if present
func (c *Client) GetListResponse(ctx context.Context, userID string, limit, offset int) (*models.GetBuysResponse, bool) {
	raw, err := c.rdb.Get(ctx, listKey(userID, limit, offset)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, false
	}

	var resp models.GetBuysResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("user_id", userID), zap.Error(err))
		c.rdb.Del(ctx, listKey(userID, limit, offset))
		return nil, false
	}

	return &resp, true
}

// SetListResponse stores a list response with the configured TTL
func (c *Client) SetListResponse(ctx context.Context, userID string, limit, offset int, resp *models.GetBuysResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}

	if err := c.rdb.Set(ctx, listKey(userID, limit, offset), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// InvalidateUser drops every cached page for a user. Called after a new
// purchase is persisted so stale pages disappear ahead of their TTL.
func (c *Client) InvalidateUser(ctx context.Context, userID string) {
	pattern := fmt.Sprintf("purchases:list:%s:*", userID)

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.logger.Warn("Cache invalidation scan failed", zap.String("user_id", userID), zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("Cache invalidation delete failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

func listKey(userID string, limit, offset int) string {
	return fmt.Sprintf("purchases:list:%s:%d:%d", userID, limit, offset)
}
