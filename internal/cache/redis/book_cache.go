package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ratiowatch/internal/domain"
)

// BookCache implements domain.BookCache using Redis string values. Each
// symbol's snapshot is stored JSON-encoded at key "book:{symbol}" with the
// configured TTL.
type BookCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBookCache creates a BookCache backed by the given Client.
func NewBookCache(c *Client, ttl time.Duration) *BookCache {
	return &BookCache{rdb: c.Underlying(), ttl: ttl}
}

func bookKey(symbol string) string {
	return "book:" + symbol
}

// SetBook stores an order-book snapshot for a symbol.
func (bc *BookCache) SetBook(ctx context.Context, b domain.OrderBook) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("redis: marshal book %s: %w", b.Symbol, err)
	}
	if err := bc.rdb.Set(ctx, bookKey(b.Symbol), data, bc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set book %s: %w", b.Symbol, err)
	}
	return nil
}

// GetBook retrieves the cached snapshot for a symbol. It returns
// domain.ErrNotFound when the key does not exist.
func (bc *BookCache) GetBook(ctx context.Context, symbol string) (domain.OrderBook, error) {
	data, err := bc.rdb.Get(ctx, bookKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.OrderBook{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("redis: get book %s: %w", symbol, err)
	}

	var b domain.OrderBook
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.OrderBook{}, fmt.Errorf("redis: unmarshal book %s: %w", symbol, err)
	}
	return b, nil
}

// Compile-time interface check.
var _ domain.BookCache = (*BookCache)(nil)
