package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// BalanceCache implements ports.BalanceCache using Redis.
// Balances are written through after every committed mutation, so a cached
// value is at worst one invalidation behind the store.
type BalanceCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewBalanceCache creates a new Redis-backed balance cache.
func NewBalanceCache(client *goredis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		client: client,
		prefix: "balance:",
		ttl:    ttl,
	}
}

func (c *BalanceCache) key(customerID, currencyCode string) string {
	return fmt.Sprintf("%s%s:%s", c.prefix, customerID, currencyCode)
}

// Get retrieves a cached balance. The second return value reports whether the
// key existed.
func (c *BalanceCache) Get(ctx context.Context, customerID, currencyCode string) (decimal.Decimal, bool, error) {
	val, err := c.client.Get(ctx, c.key(customerID, currencyCode)).Result()
	if err != nil {
		if err == goredis.Nil {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("redis balance get: %w", err)
	}

	balance, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("redis balance parse: %w", err)
	}
	return balance, true, nil
}

// Set stores a balance with the configured TTL.
func (c *BalanceCache) Set(ctx context.Context, customerID, currencyCode string, balance decimal.Decimal) error {
	err := c.client.Set(ctx, c.key(customerID, currencyCode), balance.String(), c.ttl).Err()
	if err != nil {
		return fmt.Errorf("redis balance set: %w", err)
	}
	return nil
}

// Invalidate removes a cached balance.
func (c *BalanceCache) Invalidate(ctx context.Context, customerID, currencyCode string) error {
	err := c.client.Del(ctx, c.key(customerID, currencyCode)).Err()
	if err != nil {
		return fmt.Errorf("redis balance del: %w", err)
	}
	return nil
}
