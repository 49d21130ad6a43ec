package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
	"retailcore/pkg/logger"
)

var _ cashbox.BalanceCache = (*BalanceCache)(nil)

const balancesKey = keyPrefix + "cashbox:balances"

// BalanceCache keeps derived cashbox balances in Redis as JSON. Read and
// write failures degrade to a cache miss.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache creates a balance cache with the given TTL.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

func (c *BalanceCache) GetBalances(ctx context.Context) (map[id.ID]types.Money, bool) {
	val, err := c.client.Get(ctx, balancesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.Warn(ctx, "balance cache read failed", "error", err)
		return nil, false
	}

	var balances map[id.ID]types.Money
	if err := json.Unmarshal(val, &balances); err != nil {
		logger.Warn(ctx, "balance cache holds invalid payload", "error", err)
		return nil, false
	}
	return balances, true
}

func (c *BalanceCache) SetBalances(ctx context.Context, balances map[id.ID]types.Money) {
	payload, err := json.Marshal(balances)
	if err != nil {
		logger.Warn(ctx, "balance cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, balancesKey, payload, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "balance cache write failed", "error", err)
	}
}

func (c *BalanceCache) InvalidateBalances(ctx context.Context) {
	if err := c.client.Del(ctx, balancesKey).Err(); err != nil {
		logger.Warn(ctx, "balance cache invalidation failed", "error", err)
	}
}
