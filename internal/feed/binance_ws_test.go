package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"ratiowatch/internal/domain"
)

type memPriceCache struct {
	mu     sync.Mutex
	quotes map[string]domain.PriceQuote
}

func newMemPriceCache() *memPriceCache {
	return &memPriceCache{quotes: make(map[string]domain.PriceQuote)}
}

func (m *memPriceCache) SetPrice(ctx context.Context, q domain.PriceQuote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[q.Symbol] = q
	return nil
}

func (m *memPriceCache) GetPrice(ctx context.Context, symbol string) (domain.PriceQuote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[symbol]
	if !ok {
		return domain.PriceQuote{}, domain.ErrNotFound
	}
	return q, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStreamURL(t *testing.T) {
	f := NewBinanceWSFeed("wss://stream.binance.com:9443", []string{"BTCUSDT", "ETHUSDT"}, newMemPriceCache(), discardLogger())

	got := f.streamURL()
	want := "wss://stream.binance.com:9443/stream?streams=btcusdt@miniTicker/ethusdt@miniTicker"
	if got != want {
		t.Errorf("streamURL() = %q, want %q", got, want)
	}
}

func TestHandleMessageWritesQuote(t *testing.T) {
	cache := newMemPriceCache()
	f := NewBinanceWSFeed("wss://example.com", []string{"BTCUSDT"}, cache, discardLogger())

	raw := []byte(`{"stream":"btcusdt@miniTicker","data":{"e":"24hrMiniTicker","E":1700000000000,"s":"BTCUSDT","c":"50123.45"}}`)
	f.handleMessage(context.Background(), raw)

	q, err := cache.GetPrice(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("GetPrice: %v", err)
	}
	if q.Price != 50123.45 {
		t.Errorf("Price = %v, want 50123.45", q.Price)
	}
	if !q.Timestamp.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("Timestamp = %v", q.Timestamp)
	}
}

func TestHandleMessageDropsMalformed(t *testing.T) {
	cache := newMemPriceCache()
	f := NewBinanceWSFeed("wss://example.com", []string{"BTCUSDT"}, cache, discardLogger())

	for name, raw := range map[string]string{
		"not json":     `{{{`,
		"wrong stream": `{"stream":"btcusdt@depth","data":{}}`,
		"bad price":    `{"stream":"btcusdt@miniTicker","data":{"s":"BTCUSDT","c":"oops"}}`,
		"no symbol":    `{"stream":"btcusdt@miniTicker","data":{"c":"1.0"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			f.handleMessage(context.Background(), []byte(raw))
			if _, err := cache.GetPrice(context.Background(), "BTCUSDT"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("cache populated from malformed frame %q", raw)
			}
		})
	}
}

func TestTickerToQuoteDefaultsTimestamp(t *testing.T) {
	before := time.Now()
	q, err := tickerToQuote(miniTickerEvent{Symbol: "ETHUSDT", Close: "3000.5"})
	if err != nil {
		t.Fatalf("tickerToQuote: %v", err)
	}
	if q.Timestamp.Before(before) {
		t.Errorf("Timestamp = %v, want >= %v", q.Timestamp, before)
	}
}

func TestRunWithoutSymbols(t *testing.T) {
	f := NewBinanceWSFeed("wss://example.com", nil, newMemPriceCache(), discardLogger())
	if err := f.Run(context.Background()); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}
