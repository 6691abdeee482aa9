// Package market composes market-data sources. The concrete Binance client
// lives in the binance subpackage; this package adds the cache-aside
// decorator used by the long-running modes.
package market

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ratiowatch/internal/domain"
)

// Source supplies quotes and order books.
type Source interface {
	GetPrice(ctx context.Context, symbol string) (domain.PriceQuote, error)
	GetOrderBook(ctx context.Context, symbol string, limit int) (domain.OrderBook, error)
}

// Cached is a cache-aside decorator over a Source. Reads are served from the
// cache while the entry is younger than the TTL; misses and stale entries
// fall through to the source and repopulate the cache. Cache errors degrade
// to source reads, they are never fatal.
type Cached struct {
	source Source
	prices domain.PriceCache
	books  domain.BookCache
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewCached(source Source, prices domain.PriceCache, books domain.BookCache, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{
		source: source,
		prices: prices,
		books:  books,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "market_cache")),
		now:    time.Now,
	}
}

var _ Source = (*Cached)(nil)

func (c *Cached) GetPrice(ctx context.Context, symbol string) (domain.PriceQuote, error) {
	if c.prices != nil {
		q, err := c.prices.GetPrice(ctx, symbol)
		switch {
		case err == nil && c.fresh(q.Timestamp):
			return q, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			c.logger.WarnContext(ctx, "price cache read failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}

	q, err := c.source.GetPrice(ctx, symbol)
	if err != nil {
		return domain.PriceQuote{}, err
	}

	if c.prices != nil {
		if err := c.prices.SetPrice(ctx, q); err != nil {
			c.logger.WarnContext(ctx, "price cache write failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}
	return q, nil
}

func (c *Cached) GetOrderBook(ctx context.Context, symbol string, limit int) (domain.OrderBook, error) {
	if c.books != nil {
		b, err := c.books.GetBook(ctx, symbol)
		switch {
		case err == nil && c.fresh(b.Timestamp) && len(b.Asks)+len(b.Bids) > 0:
			return b, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			c.logger.WarnContext(ctx, "book cache read failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}

	b, err := c.source.GetOrderBook(ctx, symbol, limit)
	if err != nil {
		return domain.OrderBook{}, err
	}

	if c.books != nil {
		if err := c.books.SetBook(ctx, b); err != nil {
			c.logger.WarnContext(ctx, "book cache write failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}
	return b, nil
}

func (c *Cached) fresh(ts time.Time) bool {
	return c.now().Sub(ts) <= c.ttl
}
