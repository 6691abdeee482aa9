// Package feed streams live market data into the price cache.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ratiowatch/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// combinedStreamMessage is the envelope Binance wraps around every event on
// a combined stream connection.
type combinedStreamMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// miniTickerEvent is a 24hr rolling window mini-ticker update.
type miniTickerEvent struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

// BinanceWSFeed connects to the Binance combined stream endpoint, subscribes
// to the miniTicker stream for the given symbols, and writes every tick into
// the price cache. It reconnects with exponential backoff on disconnect.
type BinanceWSFeed struct {
	wsURL     string
	symbols   []string
	prices    domain.PriceCache
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewBinanceWSFeed creates a feed for the given symbols.
//
// wsURL is the stream endpoint, e.g. "wss://stream.binance.com:9443".
func NewBinanceWSFeed(wsURL string, symbols []string, prices domain.PriceCache, logger *slog.Logger) *BinanceWSFeed {
	return &BinanceWSFeed{
		wsURL:   wsURL,
		symbols: symbols,
		prices:  prices,
		logger:  logger.With(slog.String("component", "binance_ws_feed")),
		done:    make(chan struct{}),
	}
}

// streamURL builds the combined stream URL. Binance requires lowercase
// symbol names in stream identifiers.
func (f *BinanceWSFeed) streamURL() string {
	streams := make([]string, 0, len(f.symbols))
	for _, s := range f.symbols {
		streams = append(streams, strings.ToLower(s)+"@miniTicker")
	}
	return f.wsURL + "/stream?streams=" + strings.Join(streams, "/")
}

// Run connects and streams until ctx is cancelled or Close is called.
// Reconnects with exponential backoff on disconnect.
func (f *BinanceWSFeed) Run(ctx context.Context) error {
	if len(f.symbols) == 0 {
		f.logger.InfoContext(ctx, "no symbols to stream, exiting")
		return nil
	}

	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.WarnContext(ctx, "binance ws disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// runConnection dials the combined stream and reads until the connection
// drops or the context is cancelled.
func (f *BinanceWSFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.streamURL(), nil)
	if err != nil {
		return fmt.Errorf("feed: connect: %w", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Unblock ReadMessage when the context is cancelled or Close is called.
	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		case <-connDone:
			return
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}()

	go f.pingLoop(conn, connDone)

	f.logger.InfoContext(ctx, "binance ws subscribed", slog.Int("symbols", len(f.symbols)))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-f.done:
				return nil
			default:
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("feed: read: %w: %w", domain.ErrWSDisconnect, err)
		}
		f.handleMessage(ctx, message)
	}
}

// pingLoop sends periodic ping frames to keep the connection alive until the
// connection's lifetime channel is closed.
func (f *BinanceWSFeed) pingLoop(conn *websocket.Conn, connDone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-connDone:
			return
		case <-f.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses one combined stream frame and writes the quote to the
// price cache. Unparseable frames are dropped.
func (f *BinanceWSFeed) handleMessage(ctx context.Context, raw []byte) {
	var envelope combinedStreamMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}
	if !strings.HasSuffix(envelope.Stream, "@miniTicker") {
		return
	}

	var tick miniTickerEvent
	if err := json.Unmarshal(envelope.Data, &tick); err != nil {
		return
	}

	quote, err := tickerToQuote(tick)
	if err != nil {
		f.logger.DebugContext(ctx, "dropping malformed tick",
			slog.String("stream", envelope.Stream),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := f.prices.SetPrice(ctx, quote); err != nil {
		f.logger.WarnContext(ctx, "price cache write failed",
			slog.String("symbol", quote.Symbol),
			slog.String("error", err.Error()),
		)
	}
}

// tickerToQuote converts a mini-ticker event into a domain quote.
func tickerToQuote(tick miniTickerEvent) (domain.PriceQuote, error) {
	if tick.Symbol == "" {
		return domain.PriceQuote{}, fmt.Errorf("feed: tick has no symbol")
	}
	price, err := parsePrice(tick.Close)
	if err != nil {
		return domain.PriceQuote{}, err
	}
	ts := time.UnixMilli(tick.EventTime)
	if tick.EventTime == 0 {
		ts = time.Now()
	}
	return domain.PriceQuote{
		Symbol:    tick.Symbol,
		Price:     price,
		Timestamp: ts,
	}, nil
}

func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &domain.ParseError{Field: "close price", Value: s, Err: err}
	}
	return v, nil
}

// Close stops the feed.
func (f *BinanceWSFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
