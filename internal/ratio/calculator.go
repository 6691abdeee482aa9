// Package ratio derives exchange ratios between two instruments from live
// market data, optionally weighting by order-book depth.
package ratio

import (
	"context"
	"time"

	"ratiowatch/internal/depth"
	"ratiowatch/internal/domain"
)

// MarketData supplies the quotes and books a calculation needs. The Binance
// client and its cached decorator both satisfy it.
type MarketData interface {
	GetPrice(ctx context.Context, symbol string) (domain.PriceQuote, error)
	GetOrderBook(ctx context.Context, symbol string, limit int) (domain.OrderBook, error)
}

// bookDepthLimit is the number of levels requested per side for
// volume-weighted calculations.
const bookDepthLimit = 100

// Calculator computes ratios over a MarketData source. Errors from the
// source propagate unchanged; there are no retries and no partial results.
type Calculator struct {
	market MarketData
}

func NewCalculator(market MarketData) *Calculator {
	return &Calculator{market: market}
}

// Simple fetches both symbols' last prices and returns priceA/priceB. The
// two fetches are sequential; the quotes may be a moment apart.
func (c *Calculator) Simple(ctx context.Context, pairName, symbolA, symbolB string) (domain.SimpleRatio, error) {
	quoteA, err := c.market.GetPrice(ctx, symbolA)
	if err != nil {
		return domain.SimpleRatio{}, err
	}
	quoteB, err := c.market.GetPrice(ctx, symbolB)
	if err != nil {
		return domain.SimpleRatio{}, err
	}

	return domain.SimpleRatio{
		PairName:  pairName,
		SymbolA:   symbolA,
		SymbolB:   symbolB,
		PriceA:    quoteA.Price,
		PriceB:    quoteB.Price,
		Ratio:     quoteA.Price / quoteB.Price,
		Timestamp: time.Now().UTC(),
	}, nil
}

// VolumeBased computes the ratio of the two symbols' effective buy prices
// for the given volume. The same scalar volume is applied to both legs even
// though the instruments trade in different base units; the figure is a
// comparable liquidity-adjusted ratio, not an executable trade plan.
func (c *Calculator) VolumeBased(ctx context.Context, pairName, symbolA, symbolB string, volume float64) (domain.VolumeRatio, error) {
	bookA, err := c.market.GetOrderBook(ctx, symbolA, bookDepthLimit)
	if err != nil {
		return domain.VolumeRatio{}, err
	}
	bookB, err := c.market.GetOrderBook(ctx, symbolB, bookDepthLimit)
	if err != nil {
		return domain.VolumeRatio{}, err
	}

	execA, err := depth.Execute(bookA.Symbol, domain.SideBuy, bookA.Asks, volume)
	if err != nil {
		return domain.VolumeRatio{}, err
	}
	execB, err := depth.Execute(bookB.Symbol, domain.SideBuy, bookB.Asks, volume)
	if err != nil {
		return domain.VolumeRatio{}, err
	}

	return domain.VolumeRatio{
		PairName:        pairName,
		SymbolA:         symbolA,
		SymbolB:         symbolB,
		Volume:          volume,
		EffectivePriceA: execA.EffectivePrice,
		EffectivePriceB: execB.EffectivePrice,
		Ratio:           execA.EffectivePrice / execB.EffectivePrice,
		SlippageA:       execA.SlippagePct,
		SlippageB:       execB.SlippagePct,
		Timestamp:       time.Now().UTC(),
	}, nil
}

// Slippage analyzes the execution quality of a single taker order of the
// given side and volume against the current book.
func (c *Calculator) Slippage(ctx context.Context, symbol string, volume float64, side domain.OrderSide) (domain.SlippageReport, error) {
	book, err := c.market.GetOrderBook(ctx, symbol, bookDepthLimit)
	if err != nil {
		return domain.SlippageReport{}, err
	}

	levels := book.Levels(side)
	exec, err := depth.Execute(book.Symbol, side, levels, volume)
	if err != nil {
		return domain.SlippageReport{}, err
	}

	return domain.SlippageReport{
		Symbol:         symbol,
		MidPrice:       book.MidPrice(),
		Volume:         volume,
		Side:           side,
		EffectivePrice: exec.EffectivePrice,
		SlippagePct:    exec.SlippagePct,
		DepthConsumed:  depth.LevelsConsumed(levels, volume),
		TotalCost:      exec.EffectivePrice * volume,
	}, nil
}
