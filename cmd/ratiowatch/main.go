// Command ratiowatch is the entry point for the exchange ratio monitor. It
// offers one-shot calculation commands, database query commands, and the
// long-running monitor and API server modes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ratiowatch/internal/app"
	"ratiowatch/internal/config"
	"ratiowatch/internal/domain"
	"ratiowatch/internal/market/binance"
	"ratiowatch/internal/notify"
	"ratiowatch/internal/ratio"
	"ratiowatch/internal/store/postgres"
)

const divider = "============================================================"

const usage = `Usage: ratiowatch <command> [flags]

Calculation commands (no config file required):
  simple    -name NAME -a SYMBOL -b SYMBOL        calculate a simple price ratio
  volume    -name NAME -a SYMBOL -b SYMBOL -volume N
                                                  depth-weighted ratio with order book analysis
  slippage  -symbol SYMBOL -volume N [-side buy|sell]
                                                  analyze slippage for one trade

Long-running commands:
  monitor   [-config config.toml]                 start the ratio monitor
  serve     [-config config.toml]                 start the HTTP API server

Query and utility commands:
  pairs        [-config config.toml]              show configured ratio pairs
  history      -pair NAME [-limit 100]            query historical ratio data
  alerts       [-pair NAME] [-limit 50]           show alert history
  stats        -pair NAME [-hours 24]             show pair statistics
  test-notify  [-config config.toml]              test the notification channels
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger := newLogger("info")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "simple":
		err = cmdSimple(ctx, os.Args[2:])
	case "volume":
		err = cmdVolume(ctx, os.Args[2:])
	case "slippage":
		err = cmdSlippage(ctx, os.Args[2:])
	case "monitor":
		err = cmdRun(ctx, "monitor", os.Args[2:])
	case "serve":
		err = cmdRun(ctx, "serve", os.Args[2:])
	case "pairs":
		err = cmdPairs(os.Args[2:])
	case "history":
		err = cmdHistory(ctx, os.Args[2:])
	case "alerts":
		err = cmdAlerts(ctx, os.Args[2:])
	case "stats":
		err = cmdStats(ctx, os.Args[2:])
	case "test-notify":
		err = cmdTestNotify(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		if err == context.Canceled {
			return
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// cmdSimple calculates and prints a simple price ratio.
func cmdSimple(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("simple", flag.ExitOnError)
	name := fs.String("name", "", "name for the ratio pair")
	symbolA := fs.String("a", "", "first symbol (e.g. BTCUSDT)")
	symbolB := fs.String("b", "", "second symbol (e.g. ETHUSDT)")
	fs.Parse(args)
	if *name == "" || *symbolA == "" || *symbolB == "" {
		return fmt.Errorf("simple: -name, -a, and -b are required")
	}

	calc := ratio.NewCalculator(binance.NewClient(""))
	r, err := calc.Simple(ctx, *name, *symbolA, *symbolB)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(divider)
	fmt.Println("Simple Price Ratio")
	fmt.Println(divider)
	fmt.Println(r.Summary())
	fmt.Printf("Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Println(divider)
	return nil
}

// cmdVolume calculates and prints a depth-weighted ratio. When a config file
// with an enabled database is present the result is also persisted.
func cmdVolume(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("volume", flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to configuration file")
	name := fs.String("name", "", "name for the ratio pair")
	symbolA := fs.String("a", "", "first symbol (e.g. BTCUSDT)")
	symbolB := fs.String("b", "", "second symbol (e.g. ETHUSDT)")
	volume := fs.Float64("volume", 0, "volume for analysis")
	fs.Parse(args)
	if *name == "" || *symbolA == "" || *symbolB == "" {
		return fmt.Errorf("volume: -name, -a, and -b are required")
	}
	if *volume <= 0 {
		return fmt.Errorf("volume: -volume must be > 0")
	}

	calc := ratio.NewCalculator(binance.NewClient(""))
	r, err := calc.VolumeBased(ctx, *name, *symbolA, *symbolB, *volume)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(divider)
	fmt.Println("Volume-Based Ratio (with Order Book Analysis)")
	fmt.Println(divider)
	fmt.Println(r.Summary())
	fmt.Printf("Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Println(divider)

	// Persistence is best-effort: a missing config file or disabled
	// database just skips the insert.
	cfg, err := config.Load(*configPath)
	if err != nil || !cfg.Database.Enabled {
		return nil
	}
	pg, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	id, err := postgres.NewVolumeRatioStore(pg.Pool()).Insert(ctx, r)
	if err != nil {
		return err
	}
	fmt.Printf("Saved as record #%d\n", id)
	return nil
}

// cmdSlippage analyzes slippage for a single trade.
func cmdSlippage(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("slippage", flag.ExitOnError)
	symbol := fs.String("symbol", "", "symbol to analyze (e.g. BTCUSDT)")
	volume := fs.Float64("volume", 0, "volume to analyze")
	side := fs.String("side", "buy", "order side (buy or sell)")
	fs.Parse(args)
	if *symbol == "" {
		return fmt.Errorf("slippage: -symbol is required")
	}
	if *volume <= 0 {
		return fmt.Errorf("slippage: -volume must be > 0")
	}

	var orderSide domain.OrderSide
	switch strings.ToLower(*side) {
	case "buy":
		orderSide = domain.SideBuy
	case "sell":
		orderSide = domain.SideSell
	default:
		return fmt.Errorf("invalid side %q, must be 'buy' or 'sell'", *side)
	}

	calc := ratio.NewCalculator(binance.NewClient(""))
	report, err := calc.Slippage(ctx, *symbol, *volume, orderSide)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(divider)
	fmt.Println("Slippage Analysis")
	fmt.Println(divider)
	fmt.Println(report.Summary())
	fmt.Println(divider)
	return nil
}

// cmdRun starts a long-running mode (monitor or serve).
func cmdRun(ctx context.Context, mode string, args []string) error {
	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to configuration file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Info("ratiowatch starting",
		slog.String("mode", mode),
		slog.String("config", *configPath),
	)

	application := app.New(cfg, logger)
	defer application.Close()

	if err := application.Run(ctx, mode); err != nil && err != context.Canceled {
		return err
	}
	logger.Info("ratiowatch stopped")
	return nil
}

// cmdPairs prints all configured ratio pairs.
func cmdPairs(args []string) error {
	fs := flag.NewFlagSet("pairs", flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to configuration file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(divider)
	fmt.Println("Configured Ratio Pairs")
	fmt.Println(divider)

	for i, pair := range cfg.Pairs {
		fmt.Printf("\n%d. %s\n", i+1, pair.Name)
		fmt.Printf("   Symbol A: %s\n", pair.SymbolA)
		fmt.Printf("   Symbol B: %s\n", pair.SymbolB)
		if pair.AnalysisVolume > 0 {
			fmt.Printf("   Analysis Volume: %v\n", pair.AnalysisVolume)
		}
	}

	fmt.Println()
	fmt.Println(divider)
	fmt.Printf("Total pairs: %d\n", len(cfg.Pairs))
	fmt.Println(divider)
	return nil
}

// cmdHistory prints persisted ratio snapshots for one pair.
func cmdHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to configuration file")
	pair := fs.String("pair", "", "pair name to query")
	limit := fs.Int("limit", 100, "number of records to show")
	fs.Parse(args)
	if *pair == "" {
		return fmt.Errorf("history: -pair is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	pg, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	records, err := postgres.NewSnapshotStore(pg.Pool()).ListRecent(ctx, *pair, *limit)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(divider)
	fmt.Printf("Ratio History: %s\n", *pair)
	fmt.Println(divider)

	if len(records) == 0 {
		fmt.Printf("No historical data found for %s\n", *pair)
	} else {
		for _, r := range records {
			fmt.Printf("%s | Ratio: %.8f | %s $%.2f / %s $%.2f\n",
				r.Timestamp.Format("2006-01-02 15:04:05"),
				r.Ratio, r.SymbolA, r.PriceA, r.SymbolB, r.PriceB)
		}
		fmt.Printf("\nTotal records: %d\n", len(records))
	}

	fmt.Println(divider)
	return nil
}

// cmdAlerts prints persisted alerts, optionally filtered by pair.
func cmdAlerts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to configuration file")
	pair := fs.String("pair", "", "optional pair name to filter alerts")
	limit := fs.Int("limit", 50, "number of alerts to show")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	pg, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	records, err := postgres.NewAlertStore(pg.Pool()).ListRecent(ctx, *pair, *limit)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(divider)
	if *pair != "" {
		fmt.Printf("Alert History: %s\n", *pair)
	} else {
		fmt.Println("Alert History: All Pairs")
	}
	fmt.Println(divider)

	if len(records) == 0 {
		fmt.Println("No alerts found")
	} else {
		for _, a := range records {
			fmt.Printf("%s | %s | Ratio: %.8f | Change: %+.2f%% (threshold: %v%%)\n",
				a.Timestamp.Format("2006-01-02 15:04:05"),
				a.PairName, a.Ratio, a.ChangePct, a.Threshold)
		}
		fmt.Printf("\nTotal alerts: %d\n", len(records))
	}

	fmt.Println(divider)
	return nil
}

// cmdStats prints aggregate statistics for one pair.
func cmdStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to configuration file")
	pair := fs.String("pair", "", "pair name")
	hours := fs.Int("hours", 24, "number of hours to analyze")
	fs.Parse(args)
	if *pair == "" {
		return fmt.Errorf("stats: -pair is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	pg, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	stats, err := postgres.NewSnapshotStore(pg.Pool()).Stats(ctx, *pair, *hours)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(divider)
	fmt.Println("Statistics")
	fmt.Println(divider)
	fmt.Println(stats.Summary())
	fmt.Println(divider)
	return nil
}

// cmdTestNotify sends the connectivity test message through every configured
// notification channel.
func cmdTestNotify(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("test-notify", flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to configuration file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	var senders []notify.Sender
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Telegram.Token, cfg.Telegram.ChatID, ""))
	}
	if cfg.Discord.WebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Discord.WebhookURL))
	}
	if len(senders) == 0 {
		return fmt.Errorf("test-notify: no notification channels configured")
	}

	notifier := notify.NewNotifier(senders, slog.Default())
	if err := notifier.Probe(ctx); err != nil {
		return err
	}

	fmt.Println("✅ Notification channels are working!")
	return nil
}

// openDatabase connects to PostgreSQL using the configured parameters.
func openDatabase(ctx context.Context, cfg *config.Config) (*postgres.Client, error) {
	if !cfg.Database.Enabled {
		return nil, fmt.Errorf("database is not enabled in the configuration")
	}
	pg, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Database.RunMigrations {
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			return nil, err
		}
	}
	return pg, nil
}
