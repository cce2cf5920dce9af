package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	interfaces "marketquotes/internal/domain/interfaces"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultSymbolTTL = 24 * time.Hour
	symbolKeyPrefix  = "symbol:"
)

// SymbolCache stores company name resolutions in Redis.
type SymbolCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ interfaces.SymbolCache = (*SymbolCache)(nil)

// NewSymbolCache wraps client. A non-positive ttl falls back to
// DefaultSymbolTTL.
func NewSymbolCache(client *redis.Client, ttl time.Duration) *SymbolCache {
	if ttl <= 0 {
		ttl = DefaultSymbolTTL
	}
	return &SymbolCache{client: client, ttl: ttl}
}

func (c *SymbolCache) GetSymbol(ctx context.Context, companyName string) (string, bool, error) {
	symbol, err := c.client.Get(ctx, symbolKey(companyName)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get symbol for %q: %w", companyName, err)
	}
	return symbol, symbol != "", nil
}

func (c *SymbolCache) SetSymbol(ctx context.Context, companyName, symbol string) error {
	if err := c.client.Set(ctx, symbolKey(companyName), symbol, c.ttl).Err(); err != nil {
		return fmt.Errorf("set symbol for %q: %w", companyName, err)
	}
	return nil
}

func symbolKey(companyName string) string {
	return symbolKeyPrefix + strings.ToLower(strings.TrimSpace(companyName))
}
