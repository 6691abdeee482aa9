// Package domain defines the shared value types, errors, and persistence
// interfaces for the ratiowatch service. It has no external dependencies;
// concrete implementations live in the backend-specific packages.
package domain

import "time"

// OrderSide selects which side of an order book a computation walks.
type OrderSide string

const (
	// SideBuy consumes ask levels.
	SideBuy OrderSide = "buy"
	// SideSell consumes bid levels.
	SideSell OrderSide = "sell"
)

// PriceQuote is the current traded price for a single symbol.
type PriceQuote struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
}

// PriceLevel is a single price+quantity entry in an order book.
type PriceLevel struct {
	Price    float64
	Quantity float64
}

// OrderBook is an immutable snapshot of resting bids and asks for a symbol.
// Bids are sorted best-first descending, asks best-first ascending, so index
// 0 is always the best price on either side.
type OrderBook struct {
	Symbol    string
	BestBid   float64
	BestAsk   float64
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// Levels returns the side of the book a taker order of the given side would
// consume: asks for a buy, bids for a sell.
func (b OrderBook) Levels(side OrderSide) []PriceLevel {
	if side == SideSell {
		return b.Bids
	}
	return b.Asks
}

// BestPrice returns the best resting price on the side a taker of the given
// side would hit.
func (b OrderBook) BestPrice(side OrderSide) float64 {
	if side == SideSell {
		return b.BestBid
	}
	return b.BestAsk
}

// MidPrice returns the midpoint of the best bid and best ask.
func (b OrderBook) MidPrice() float64 {
	return (b.BestBid + b.BestAsk) / 2
}
