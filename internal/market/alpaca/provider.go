package alpaca

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alpha_sim/internal/market"
	"alpha_sim/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// Provider implements market.CandleProvider on Alpaca market data.
// Symbols with a slash ("BTC/USD") are crypto pairs, everything else is a US equity.
type Provider struct {
	mdClient *marketdata.Client
}

// Ensure Provider implements the interface
var _ market.CandleProvider = (*Provider)(nil)

// NewProvider returns a new Alpaca provider.
// The SDK picks up APCA_API_KEY_ID / APCA_API_SECRET_KEY from the environment.
func NewProvider() *Provider {
	return &Provider{
		mdClient: marketdata.NewClient(marketdata.ClientOpts{}),
	}
}

func (p *Provider) Name() string { return "alpaca" }

func (p *Provider) GetCandles(ctx context.Context, asset, timeframe string, limit int) ([]models.Bar, error) {
	// The SDK has no context support; at least don't start a request we'd throw away.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tf, err := market.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	alpacaTF := toTimeFrame(tf)

	// Ask for a window wide enough to hold limit candles (gaps on closed markets
	// are covered by the extra room), then keep the latest limit.
	start := time.Now().Add(-2 * time.Duration(limit+1) * tf.Duration())

	var bars []models.Bar
	if isCrypto(asset) {
		raw, err := p.mdClient.GetCryptoBars(asset, marketdata.GetCryptoBarsRequest{
			TimeFrame: alpacaTF,
			Start:     start,
		})
		if err != nil {
			return nil, fmt.Errorf("alpaca crypto bars for %s: %w", asset, err)
		}
		bars = fromCryptoBars(raw)
	} else {
		raw, err := p.mdClient.GetBars(asset, marketdata.GetBarsRequest{
			TimeFrame: alpacaTF,
			Start:     start,
		})
		if err != nil {
			return nil, fmt.Errorf("alpaca bars for %s: %w", asset, err)
		}
		bars = fromStockBars(raw)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", asset, market.ErrNoData)
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// --- Helpers ---

func isCrypto(asset string) bool {
	return strings.Contains(asset, "/")
}

func toTimeFrame(tf market.Timeframe) marketdata.TimeFrame {
	switch tf.Unit {
	case 'h':
		return marketdata.NewTimeFrame(tf.Amount, marketdata.Hour)
	case 'd':
		return marketdata.NewTimeFrame(tf.Amount, marketdata.Day)
	case 'w':
		return marketdata.NewTimeFrame(tf.Amount, marketdata.Week)
	default:
		return marketdata.NewTimeFrame(tf.Amount, marketdata.Min)
	}
}

func fromCryptoBars(raw []marketdata.CryptoBar) []models.Bar {
	result := make([]models.Bar, 0, len(raw))
	for _, b := range raw {
		result = append(result, models.Bar{
			Time:   b.Timestamp,
			Open:   decimal.NewFromFloat(b.Open),
			High:   decimal.NewFromFloat(b.High),
			Low:    decimal.NewFromFloat(b.Low),
			Close:  decimal.NewFromFloat(b.Close),
			Volume: b.Volume,
		})
	}
	return result
}

func fromStockBars(raw []marketdata.Bar) []models.Bar {
	result := make([]models.Bar, 0, len(raw))
	for _, b := range raw {
		result = append(result, models.Bar{
			Time:   b.Timestamp,
			Open:   decimal.NewFromFloat(b.Open),
			High:   decimal.NewFromFloat(b.High),
			Low:    decimal.NewFromFloat(b.Low),
			Close:  decimal.NewFromFloat(b.Close),
			Volume: float64(b.Volume),
		})
	}
	return result
}
