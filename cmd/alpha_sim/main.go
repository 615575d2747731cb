package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"alpha_sim/internal/config"
	"alpha_sim/internal/indicators"
	"alpha_sim/internal/logger"
	"alpha_sim/internal/market"
	"alpha_sim/internal/market/alpaca"
	"alpha_sim/internal/market/binance"
	"alpha_sim/internal/storage"
	"alpha_sim/internal/telegram"
	"alpha_sim/internal/watcher"

	"github.com/rs/zerolog/log"
)

const VersionFile = "version.latest"

func main() {
	// 1. Initialization
	// Load configuration first to get logger settings
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Version = readVersion()

	rotator := logger.Setup(cfg.LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups, cfg.LogLevel)
	if rotator != nil {
		defer rotator.Close()
	}

	tf, err := market.ParseTimeframe(cfg.Timeframe)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timeframe")
	}

	// 2. Dependencies
	provider := newProvider(cfg)
	engine := indicators.NewEngine(tf.Duration())
	notifier := telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	w := watcher.New(cfg, provider, engine, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Command listener (background)
	go notifier.Listen(ctx, w.HandleCommand)

	// 4. Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Warn().Msg("Simulator shutting down: system signal received")
		cancel()
	}()

	log.Info().Str("version", cfg.Version).Str("provider", provider.Name()).
		Strs("assets", cfg.TrackedAssets).Str("timeframe", tf.String()).
		Dur("interval", cfg.PollInterval).Float64("balance", cfg.InitialBalance).
		Bool("alerts", cfg.TelegramEnabled()).
		Msg("Alpha simulator initialized")
	notifier.Notify(fmt.Sprintf("🚀 Alpha simulator %s online\nAssets: %s | Balance: %.2f",
		cfg.Version, strings.Join(cfg.TrackedAssets, ", "), cfg.InitialBalance))

	// 5. Main loop
	// Cycles get their own deadline so a signal never cuts workers mid-asset.
	runCycle := func() {
		cycleCtx, cycleCancel := context.WithTimeout(context.Background(), cfg.PollInterval)
		defer cycleCancel()
		w.Poll(cycleCtx)
	}

	runCycle() // once immediately on start

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			if ctx.Err() != nil {
				break loop
			}
			log.Debug().Time("next", time.Now().Add(cfg.PollInterval)).Msg("Next check scheduled")
			runCycle()
		}
	}

	// 6. Final report
	s := w.Summary()
	log.Info().Str("initial", s.InitialBalance.StringFixed(2)).Str("balance", s.Balance.StringFixed(2)).
		Str("pnl", s.TotalPnL.StringFixed(2)).Int("trades", s.NumTrades).Int("wins", s.Wins).
		Int("losses", s.Losses).Int("open", s.OpenPositions).Msg("Simulation summary")

	if err := storage.SaveSummary(cfg.SummaryFile, s); err != nil {
		log.Error().Err(err).Str("path", cfg.SummaryFile).Msg("Failed to export summary")
	}
	notifier.Notify(fmt.Sprintf("🛑 Alpha simulator stopped\nBalance: %s | PnL: %s | Trades: %d (W %d / L %d)",
		s.Balance.StringFixed(2), s.TotalPnL.StringFixed(2), s.NumTrades, s.Wins, s.Losses))
}

func newProvider(cfg *config.Config) market.CandleProvider {
	switch cfg.DataProvider {
	case "alpaca":
		return alpaca.NewProvider()
	default:
		return binance.NewProvider(cfg.BinanceBaseURL, nil)
	}
}

func readVersion() string {
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(version))
}
