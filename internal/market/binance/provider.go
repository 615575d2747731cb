// Package binance fetches spot klines from the Binance REST API.
package binance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"alpha_sim/internal/market"
	"alpha_sim/internal/models"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "https://api.binance.com"

// klineFields is the number of columns Binance returns per kline.
const klineFields = 12

// Provider implements market.CandleProvider for Binance spot.
type Provider struct {
	baseURL string
	client  *http.Client
}

var _ market.CandleProvider = (*Provider)(nil)

func NewProvider(baseURL string, client *http.Client) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Provider{baseURL: baseURL, client: client}
}

func (p *Provider) Name() string { return "binance" }

// GetCandles fetches the latest limit klines of asset (e.g. "ETHUSDT").
func (p *Provider) GetCandles(ctx context.Context, asset, timeframe string, limit int) ([]models.Bar, error) {
	if _, err := market.ParseTimeframe(timeframe); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("symbol", asset)
	q.Set("interval", timeframe)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/v3/klines?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", asset, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read klines for %s: %w", asset, err)
	}

	if resp.StatusCode != http.StatusOK {
		// Binance errors look like {"code":-1121,"msg":"Invalid symbol."}
		return nil, fmt.Errorf("binance %s for %s: %s", resp.Status, asset, gjson.GetBytes(body, "msg").String())
	}

	return parseKlines(asset, body)
}

// parseKlines decodes the [[openTime, o, h, l, c, v, closeTime, ...], ...] payload.
// Prices arrive as strings and are parsed straight into decimals.
func parseKlines(asset string, body []byte) ([]models.Bar, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: %w: invalid json", asset, market.ErrMalformed)
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("%s: %w: expected array", asset, market.ErrMalformed)
	}

	rows := root.Array()
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", asset, market.ErrNoData)
	}

	bars := make([]models.Bar, 0, len(rows))
	for i, row := range rows {
		cols := row.Array()
		if len(cols) != klineFields {
			return nil, fmt.Errorf("%s row %d: %w: %d fields", asset, i, market.ErrMalformed, len(cols))
		}

		var prices [4]decimal.Decimal
		for j := range prices {
			v, err := decimal.NewFromString(cols[j+1].String())
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w: %v", asset, i, market.ErrMalformed, err)
			}
			prices[j] = v
		}

		bars = append(bars, models.Bar{
			Time:   time.UnixMilli(cols[0].Int()).UTC(),
			Open:   prices[0],
			High:   prices[1],
			Low:    prices[2],
			Close:  prices[3],
			Volume: cols[5].Float(),
		})
	}
	return bars, nil
}
