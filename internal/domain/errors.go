package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores and caches when no entry exists.
	ErrNotFound = errors.New("not found")
	// ErrWSDisconnect signals that a websocket connection was closed.
	ErrWSDisconnect = errors.New("websocket disconnected")
)

// InsufficientLiquidityError is returned when an order book does not hold
// enough quantity to fill a requested volume. It is produced only after the
// whole book has been scanned and never alongside a partial result.
type InsufficientLiquidityError struct {
	Symbol    string
	Side      OrderSide
	Requested float64
	Available float64
}

func (e *InsufficientLiquidityError) Error() string {
	return fmt.Sprintf("insufficient liquidity in %s %ss: requested %v, available %v",
		e.Symbol, e.Side, e.Requested, e.Available)
}

// ParseError is returned when a market-data field that should be numeric
// cannot be parsed.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
