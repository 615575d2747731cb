package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents one OHLCV candle for a timeframe.
// Prices are decimals so that entry/exit math stays exact; volume is only
// ever used as a ratio, so a float is enough.
type Bar struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume float64         `json:"volume"`
}
