package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Indicator names written by the indicator engine and read by the grader.
const (
	RSI         = "RSI"
	RSI12       = "RSI_12"
	EMA7        = "EMA_7"
	EMA9        = "EMA_9"
	EMA21       = "EMA_21"
	MACD        = "MACD"
	MACDSignal  = "MACD_signal"
	ATR         = "ATR"
	VolumeMA    = "Volume_MA"
	VolumeSpike = "Volume_Spike"
	StochRSIK   = "StochRSI_k"
	StochRSID   = "StochRSI_d"
	BBUpper     = "BB_upper"
	BBMiddle    = "BB_middle"
	BBLower     = "BB_lower"
	CCI         = "CCI"
	ADX         = "ADX"
	SAR         = "SAR"
	TenkanSen   = "tenkan_sen"
	KijunSen    = "kijun_sen"
	SenkouSpanA = "senkou_span_a"
	SenkouSpanB = "senkou_span_b"
)

// Snapshot is the latest computed indicator state of one asset.
//
// Values may be partial (or empty) when the series was too short for an
// indicator. Get reads a missing key as zero; Lookup tells the two apart.
type Snapshot struct {
	Asset  string             `json:"asset"`
	Time   time.Time          `json:"time"`
	Close  decimal.Decimal    `json:"close"`
	Values map[string]float64 `json:"values"`
}

// Get returns the named indicator value, or 0 when it was not computed.
func (s *Snapshot) Get(name string) float64 {
	if s == nil || s.Values == nil {
		return 0
	}
	return s.Values[name]
}

// Lookup returns the named indicator value and whether it was computed.
func (s *Snapshot) Lookup(name string) (float64, bool) {
	if s == nil || s.Values == nil {
		return 0, false
	}
	v, ok := s.Values[name]
	return v, ok
}

// Has reports whether the named indicator was computed.
func (s *Snapshot) Has(name string) bool {
	if s == nil || s.Values == nil {
		return false
	}
	_, ok := s.Values[name]
	return ok
}

// Empty is true when no indicator at all could be computed.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Values) == 0
}
