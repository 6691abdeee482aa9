package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ratiowatch/internal/config"
	"ratiowatch/internal/feed"
	"ratiowatch/internal/monitor"
	"ratiowatch/internal/server"
	"ratiowatch/internal/server/handler"
)

// MonitorMode runs the ratio monitor loop plus the optional subsystems:
// retention, the live price feed, and the HTTP API server.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	pairs := make([]monitor.Pair, 0, len(a.cfg.Pairs))
	for _, p := range a.cfg.Pairs {
		pairs = append(pairs, monitor.Pair{
			Name:    p.Name,
			SymbolA: p.SymbolA,
			SymbolB: p.SymbolB,
		})
	}

	mon := monitor.New(monitor.Options{
		Pairs:         pairs,
		CheckInterval: a.cfg.Monitoring.CheckInterval(),
		PeriodicEvery: a.cfg.Monitoring.PeriodicEvery(),
		Thresholds:    a.cfg.Monitoring.ChangeThresholds,
		ChangeWindow:  a.cfg.Monitoring.ChangeWindow(),
	}, deps.Calculator, deps.Notifier, deps.Snapshots, deps.Alerts, a.logger)
	g.Go(func() error {
		return mon.Run(ctx)
	})

	// Retention only makes sense with persistence.
	if deps.Snapshots != nil && deps.Alerts != nil && a.cfg.Database.RetentionDays > 0 {
		retention := monitor.NewRetention(
			deps.Snapshots, deps.Alerts, deps.Archiver,
			a.cfg.Database.RetentionDays, a.logger,
		)
		g.Go(func() error {
			return retention.Run(ctx)
		})
	}

	// Live price feed keeps the Redis cache warm between REST polls.
	if a.cfg.Feed.Enabled && deps.PriceCache != nil {
		symbols := pairSymbols(a.cfg.Pairs)
		wsFeed := feed.NewBinanceWSFeed(a.cfg.Binance.WsURL, symbols, deps.PriceCache, a.logger)
		g.Go(func() error {
			defer wsFeed.Close()
			return wsFeed.Run(ctx)
		})
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// ServeMode runs the HTTP API server without the monitor loop.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// startHTTPServer registers the API routes, starts the listener, and shuts
// it down gracefully when the context is cancelled. Store-backed endpoints
// are registered only when Postgres is wired.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	pairInfos := make([]handler.PairInfo, 0, len(a.cfg.Pairs))
	for _, p := range a.cfg.Pairs {
		pairInfos = append(pairInfos, handler.PairInfo{
			Name:           p.Name,
			SymbolA:        p.SymbolA,
			SymbolB:        p.SymbolB,
			AnalysisVolume: p.AnalysisVolume,
		})
	}

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Pairs:  handler.NewPairsHandler(pairInfos, a.logger),
	}
	if deps.Snapshots != nil {
		handlers.History = handler.NewHistoryHandler(deps.Snapshots, a.logger)
		handlers.Stats = handler.NewStatsHandler(deps.Snapshots, a.logger)
	}
	if deps.Alerts != nil {
		handlers.Alerts = handler.NewAlertsHandler(deps.Alerts, a.logger)
	}
	if deps.VolumeRatios != nil {
		handlers.VolumeRatios = handler.NewVolumeRatiosHandler(deps.VolumeRatios, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, handlers, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})
}

// pairSymbols returns the unique symbols across all configured pairs,
// preserving first-seen order.
func pairSymbols(pairs []config.PairConfig) []string {
	seen := make(map[string]bool, len(pairs)*2)
	var symbols []string
	for _, p := range pairs {
		for _, s := range []string{p.SymbolA, p.SymbolB} {
			if s != "" && !seen[s] {
				seen[s] = true
				symbols = append(symbols, s)
			}
		}
	}
	return symbols
}
