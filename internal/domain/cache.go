package domain

import "context"

// PriceCache holds recent ticker prices. Implementations return ErrNotFound
// when a symbol has no cached entry.
type PriceCache interface {
	SetPrice(ctx context.Context, q PriceQuote) error
	GetPrice(ctx context.Context, symbol string) (PriceQuote, error)
}

// BookCache holds recent order-book snapshots keyed by symbol.
type BookCache interface {
	SetBook(ctx context.Context, b OrderBook) error
	GetBook(ctx context.Context, symbol string) (OrderBook, error)
}
