// Package binance is the REST client for the Binance spot market data API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"ratiowatch/internal/domain"
)

// DefaultBaseURL is the public Binance spot API root.
const DefaultBaseURL = "https://api.binance.com"

// Client talks to the Binance /api/v3 market data endpoints. All endpoints
// used are public; no API key is required.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Binance client. baseURL falls back to DefaultBaseURL
// when empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// tickerPrice is the wire shape of /api/v3/ticker/price. Binance sends
// prices as decimal strings.
type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// depthResponse is the wire shape of /api/v3/depth. Levels arrive as
// [price, quantity] string pairs, bids best-first descending and asks
// best-first ascending.
type depthResponse struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

// GetPrice returns the last traded price for a symbol.
func (c *Client) GetPrice(ctx context.Context, symbol string) (domain.PriceQuote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := c.doGet(ctx, "/api/v3/ticker/price?"+params.Encode())
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("binance: get price %s: %w", symbol, err)
	}

	var ticker tickerPrice
	if err := json.Unmarshal(body, &ticker); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("binance: decode price %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return domain.PriceQuote{}, &domain.ParseError{Field: "price", Value: ticker.Price, Err: err}
	}

	return domain.PriceQuote{
		Symbol:    ticker.Symbol,
		Price:     price,
		Timestamp: time.Now().UTC(),
	}, nil
}

// GetOrderBook returns an order-book snapshot with up to limit levels per
// side, preserving the venue's best-first ordering.
func (c *Client) GetOrderBook(ctx context.Context, symbol string, limit int) (domain.OrderBook, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doGet(ctx, "/api/v3/depth?"+params.Encode())
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("binance: get order book %s: %w", symbol, err)
	}

	var depth depthResponse
	if err := json.Unmarshal(body, &depth); err != nil {
		return domain.OrderBook{}, fmt.Errorf("binance: decode order book %s: %w", symbol, err)
	}

	bids, err := parseLevels("bid", depth.Bids)
	if err != nil {
		return domain.OrderBook{}, err
	}
	asks, err := parseLevels("ask", depth.Asks)
	if err != nil {
		return domain.OrderBook{}, err
	}

	book := domain.OrderBook{
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now().UTC(),
	}
	if len(bids) > 0 {
		book.BestBid = bids[0].Price
	}
	if len(asks) > 0 {
		book.BestAsk = asks[0].Price
	}

	return book, nil
}

// GetPrices fetches prices for every symbol in parallel. Any failure fails
// the whole batch; results are in input order.
func (c *Client) GetPrices(ctx context.Context, symbols []string) ([]domain.PriceQuote, error) {
	quotes := make([]domain.PriceQuote, len(symbols))

	g, ctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		g.Go(func() error {
			q, err := c.GetPrice(ctx, symbol)
			if err != nil {
				return err
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}

// GetOrderBooks fetches books for every symbol in parallel with the same
// all-or-nothing semantics as GetPrices.
func (c *Client) GetOrderBooks(ctx context.Context, symbols []string, limit int) ([]domain.OrderBook, error) {
	books := make([]domain.OrderBook, len(symbols))

	g, ctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		g.Go(func() error {
			b, err := c.GetOrderBook(ctx, symbol, limit)
			if err != nil {
				return err
			}
			books[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return books, nil
}

func parseLevels(field string, raw [][2]string) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(raw))
	for _, pair := range raw {
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			return nil, &domain.ParseError{Field: field + " price", Value: pair[0], Err: err}
		}
		qty, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			return nil, &domain.ParseError{Field: field + " quantity", Value: pair[1], Err: err}
		}
		levels = append(levels, domain.PriceLevel{Price: price, Quantity: qty})
	}
	return levels, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
