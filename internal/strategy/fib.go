package strategy

import "github.com/shopspring/decimal"

// FibLevel is one retracement level between a swing low and a swing high.
type FibLevel struct {
	Label string
	Price decimal.Decimal
}

var fibRatios = []struct {
	label string
	ratio string
}{
	{"0.0%", "0"},
	{"23.6%", "0.236"},
	{"38.2%", "0.382"},
	{"50.0%", "0.5"},
	{"61.8%", "0.618"},
	{"100.0%", "1"},
}

// FibLevels returns the retracement levels from the swing high down to the swing low.
func FibLevels(swingLow, swingHigh decimal.Decimal) []FibLevel {
	diff := swingHigh.Sub(swingLow)
	levels := make([]FibLevel, 0, len(fibRatios))
	for _, r := range fibRatios {
		ratio := decimal.RequireFromString(r.ratio)
		levels = append(levels, FibLevel{
			Label: r.label,
			Price: swingHigh.Sub(diff.Mul(ratio)),
		})
	}
	return levels
}
