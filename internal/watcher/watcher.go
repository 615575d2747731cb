package watcher

import (
	"context"
	"sync"
	"time"

	"alpha_sim/internal/config"
	"alpha_sim/internal/market"
	"alpha_sim/internal/models"
	"alpha_sim/internal/sim"
	"alpha_sim/internal/strategy"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// IndicatorEngine turns a candle series into its latest indicator snapshot.
type IndicatorEngine interface {
	Compute(asset string, bars []models.Bar) models.Snapshot
}

// Alerter delivers human-readable alerts. Delivery must not fail the caller.
type Alerter interface {
	Notify(text string)
}

// Watcher runs the evaluation cycle over the tracked assets and reports
// portfolio events. One Watcher owns one Portfolio.
type Watcher struct {
	config     *config.Config
	provider   market.CandleProvider
	engine     IndicatorEngine
	grader     *strategy.Grader
	targets    strategy.Targets
	portfolio  *sim.Portfolio
	alerter    Alerter
	allocation decimal.Decimal
	startTime  time.Time
	commands   []CommandDoc

	mu         sync.RWMutex
	bullish    int
	cycles     int
	lastCycle  time.Time
	lastPrices map[string]decimal.Decimal
}

// New wires a watcher and its portfolio. opts are applied to the portfolio
// after the watcher registers itself as the event sink.
func New(cfg *config.Config, provider market.CandleProvider, engine IndicatorEngine, alerter Alerter, opts ...sim.Option) *Watcher {
	w := &Watcher{
		config:     cfg,
		provider:   provider,
		engine:     engine,
		grader:     strategy.NewGrader(cfg.ScoringConfig()),
		targets:    cfg.Targets(),
		alerter:    alerter,
		allocation: decimal.NewFromFloat(cfg.Allocation),
		startTime:  time.Now(),
		lastPrices: make(map[string]decimal.Decimal),
		commands: []CommandDoc{
			{"/ping", "Connectivity check", "/ping"},
			{"/status", "Simulation dashboard", "/status"},
			{"/positions", "Open positions with live pnl", "/positions"},
			{"/fib", "Fibonacci retracement levels", "/fib <low> <high>"},
			{"/help", "This list", "/help"},
		},
	}

	opts = append([]sim.Option{sim.WithSink(w)}, opts...)
	w.portfolio = sim.NewPortfolio(decimal.NewFromFloat(cfg.InitialBalance), cfg.ExitRules(), opts...)
	return w
}

func (w *Watcher) Portfolio() *sim.Portfolio { return w.portfolio }

func (w *Watcher) Summary() sim.Summary { return w.portfolio.Summary() }

// Poll runs one cycle: score the reference asset, then evaluate every tracked
// asset on a pool of at most config.Workers goroutines and wait for all of
// them. A failing asset is logged and never aborts the cycle.
func (w *Watcher) Poll(ctx context.Context) {
	started := time.Now()
	bullish := w.marketBullishness(ctx)

	sem := make(chan struct{}, max(w.config.Workers, 1))
	var wg sync.WaitGroup

	for _, asset := range w.config.TrackedAssets {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("Cycle cut short")
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(asset string) {
			defer wg.Done()
			defer func() { <-sem }()
			w.processAsset(ctx, asset, bullish)
		}(asset)
	}
	wg.Wait()

	w.mu.Lock()
	w.bullish = bullish
	w.cycles++
	w.lastCycle = time.Now()
	cycles := w.cycles
	w.mu.Unlock()

	log.Info().Int("cycle", cycles).Int("bullishness", bullish).
		Dur("took", time.Since(started)).Str("balance", w.portfolio.Balance().StringFixed(2)).
		Msg("Cycle complete")
}

// marketBullishness scores the reference asset. Missing data scores 0.
func (w *Watcher) marketBullishness(ctx context.Context) int {
	ref := w.config.ReferenceAsset
	if ref == "" {
		return 0
	}
	bars, err := w.provider.GetCandles(ctx, ref, w.config.Timeframe, w.config.CandleLimit)
	if err != nil {
		log.Warn().Err(err).Str("asset", ref).Msg("Reference asset unavailable, bullishness 0")
		return 0
	}
	snap := w.engine.Compute(ref, bars)
	return w.grader.Bullishness(&snap)
}

func (w *Watcher) processAsset(ctx context.Context, asset string, bullish int) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("asset", asset).Interface("panic", r).Msg("Asset processing panicked")
		}
	}()

	bars, err := w.provider.GetCandles(ctx, asset, w.config.Timeframe, w.config.CandleLimit)
	if err != nil {
		log.Error().Err(err).Str("asset", asset).Str("provider", w.provider.Name()).Msg("Failed to fetch candles")
		return
	}

	snap := w.engine.Compute(asset, bars)
	price := snap.Close
	if !price.IsPositive() {
		log.Warn().Str("asset", asset).Msg("No usable close price")
		return
	}

	w.mu.Lock()
	w.lastPrices[asset] = price
	w.mu.Unlock()

	decision, score := w.grader.GradeSnapshot(&snap, bullish)
	log.Debug().Str("asset", asset).Str("price", price.String()).Int("score", score).
		Str("decision", string(decision)).Msg("Graded")

	if decision == strategy.Opportunity {
		atr := decimal.NewFromFloat(snap.Get(models.ATR))
		if atr.IsPositive() {
			tp, sl := w.targets.Long(price, atr)
			w.portfolio.EnterTrade(asset, price, tp, sl, w.allocation, atr)
		} else {
			log.Warn().Str("asset", asset).Int("score", score).Msg("Opportunity without ATR, entry skipped")
		}
	}

	w.portfolio.UpdateTrades(asset, price)
}

func (w *Watcher) lastPrice(asset string) (decimal.Decimal, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.lastPrices[asset]
	return p, ok
}
