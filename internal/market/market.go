package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"alpha_sim/internal/models"
)

var (
	// ErrNoData means the provider returned nothing usable for the asset.
	ErrNoData = errors.New("no candle data")
	// ErrMalformed means the provider answered with an unexpected structure.
	ErrMalformed = errors.New("malformed candle data")
)

// CandleProvider is the market-data collaborator of the simulator.
//
// Any struct that implements it can feed the watcher: Binance, Alpaca, or a
// fake in tests. Bars come back oldest first, at most limit of them.
type CandleProvider interface {
	Name() string
	GetCandles(ctx context.Context, asset, timeframe string, limit int) ([]models.Bar, error)
}

// Timeframe is a parsed candle width such as "3m", "1h" or "1d".
type Timeframe struct {
	Amount int
	Unit   byte // 'm', 'h', 'd' or 'w'
}

// ParseTimeframe parses Binance style intervals.
func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Timeframe{}, fmt.Errorf("invalid timeframe %q", s)
	}
	unit := s[len(s)-1]
	switch unit {
	case 'm', 'h', 'd', 'w':
	default:
		return Timeframe{}, fmt.Errorf("invalid timeframe unit in %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Timeframe{}, fmt.Errorf("invalid timeframe amount in %q", s)
	}
	return Timeframe{Amount: n, Unit: unit}, nil
}

// Duration is the width of one candle.
func (t Timeframe) Duration() time.Duration {
	var base time.Duration
	switch t.Unit {
	case 'm':
		base = time.Minute
	case 'h':
		base = time.Hour
	case 'd':
		base = 24 * time.Hour
	case 'w':
		base = 7 * 24 * time.Hour
	}
	return time.Duration(t.Amount) * base
}

func (t Timeframe) String() string {
	return strconv.Itoa(t.Amount) + string(t.Unit)
}
