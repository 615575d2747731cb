package config

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"alpha_sim/internal/sim"
	"alpha_sim/internal/strategy"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds every start-time setting of the simulator. It is read once by
// Load and never re-read while running.
type Config struct {
	Version string `ignored:"true"`

	LogLevel      string `envconfig:"SIM_LOG_LEVEL" default:"INFO"`
	LogFile       string `envconfig:"SIM_LOG_FILE" default:"simulator.log"`
	MaxLogSizeMB  int64  `envconfig:"MAX_LOG_SIZE_MB" default:"10"`
	MaxLogBackups int    `envconfig:"MAX_LOG_BACKUPS" default:"3"`

	// Market data
	DataProvider   string   `envconfig:"DATA_PROVIDER" default:"binance"`
	BinanceBaseURL string   `envconfig:"BINANCE_BASE_URL" default:"https://api.binance.com"`
	TrackedAssets  []string `envconfig:"TRACKED_ASSETS" default:"ETHUSDT,BNBUSDT,SOLUSDT,DOGEUSDT,XRPUSDT"`
	ReferenceAsset string   `envconfig:"REFERENCE_ASSET" default:"BTCUSDT"`
	Timeframe      string   `envconfig:"TIMEFRAME" default:"3m"`
	CandleLimit    int      `envconfig:"CANDLE_LIMIT" default:"100"`

	// Cycle
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"3m"`
	Workers      int           `envconfig:"WORKERS" default:"5"`

	// Simulation
	InitialBalance         float64       `envconfig:"INITIAL_BALANCE" default:"1000"`
	Allocation             float64       `envconfig:"ALLOCATION" default:"0.1"`
	MaxTradeDuration       time.Duration `envconfig:"MAX_TRADE_DURATION" default:"6h"`
	TrailingStopMultiplier float64       `envconfig:"TRAILING_STOP_MULTIPLIER" default:"1.0"`
	TrailingStopOffset     float64       `envconfig:"TRAILING_STOP_OFFSET" default:"0.5"`
	EntryScoreThreshold    int           `envconfig:"ENTRY_SCORE_THRESHOLD" default:"7"`
	TakeProfitMultiplier   float64       `envconfig:"TAKE_PROFIT_MULTIPLIER" default:"3.0"`
	StopLossMultiplier     float64       `envconfig:"STOP_LOSS_MULTIPLIER" default:"1.5"`

	// Alerts (optional)
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`

	SummaryFile string `envconfig:"SUMMARY_FILE" default:"simulation_summary.json"`
}

// secretVars are masked when the .env file is echoed to the log.
var secretVars = map[string]bool{
	"APCA_API_KEY_ID":     true,
	"APCA_API_SECRET_KEY": true,
	"TELEGRAM_BOT_TOKEN":  true,
	"TELEGRAM_CHAT_ID":    true,
}

// Load initializes the configuration.
// It tries to read a .env file, then decodes the process environment into Config.
func Load() (*Config, error) {
	// Load .env variables into the process environment
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	} else {
		printEnvFile()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.ReferenceAsset = strings.TrimSpace(cfg.ReferenceAsset)
	cfg.TrackedAssets = cleanAssets(cfg.TrackedAssets)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the simulator cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.TrackedAssets) == 0 {
		errs = append(errs, errors.New("TRACKED_ASSETS is empty"))
	}
	if c.Allocation <= 0 || c.Allocation > 1 {
		errs = append(errs, fmt.Errorf("ALLOCATION must be in (0, 1], got %v", c.Allocation))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval))
	}
	if c.InitialBalance <= 0 {
		errs = append(errs, fmt.Errorf("INITIAL_BALANCE must be positive, got %v", c.InitialBalance))
	}
	if c.CandleLimit <= 0 {
		errs = append(errs, fmt.Errorf("CANDLE_LIMIT must be positive, got %d", c.CandleLimit))
	}
	switch c.DataProvider {
	case "binance", "alpaca":
	default:
		errs = append(errs, fmt.Errorf("DATA_PROVIDER must be binance or alpaca, got %q", c.DataProvider))
	}
	return errors.Join(errs...)
}

// ScoringConfig is the grader rule set with the configured entry threshold.
func (c *Config) ScoringConfig() strategy.Config {
	sc := strategy.DefaultConfig()
	sc.EntryThreshold = c.EntryScoreThreshold
	return sc
}

func (c *Config) Targets() strategy.Targets {
	return strategy.Targets{
		TakeProfitMultiplier: decimal.NewFromFloat(c.TakeProfitMultiplier),
		StopLossMultiplier:   decimal.NewFromFloat(c.StopLossMultiplier),
	}
}

func (c *Config) ExitRules() sim.ExitRules {
	return sim.ExitRules{
		MaxDuration:     c.MaxTradeDuration,
		TrailMultiplier: decimal.NewFromFloat(c.TrailingStopMultiplier),
		TrailOffset:     decimal.NewFromFloat(c.TrailingStopOffset),
	}
}

// TelegramEnabled reports whether alert credentials were supplied.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func cleanAssets(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// printEnvFile echoes the .env file, masking secrets to their last 4 chars.
func printEnvFile() {
	envMap, err := godotenv.Read()
	if err != nil {
		return
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	log.Println("--- .env File Variables ---")
	for _, key := range keys {
		log.Printf("%s=%s", key, maskValue(key, envMap[key]))
	}
	log.Println("---------------------------")
}

func maskValue(key, val string) string {
	if !secretVars[key] {
		return val
	}
	if len(val) > 4 {
		return "***" + val[len(val)-4:]
	}
	return "***"
}
