package strategy

import "github.com/shopspring/decimal"

// Targets turns an entry price and its ATR into take-profit and stop-loss levels.
type Targets struct {
	TakeProfitMultiplier decimal.Decimal
	StopLossMultiplier   decimal.Decimal
}

func DefaultTargets() Targets {
	return Targets{
		TakeProfitMultiplier: decimal.NewFromFloat(3.0),
		StopLossMultiplier:   decimal.NewFromFloat(1.5),
	}
}

// Long returns (takeProfit, stopLoss) for a long entry.
// ATR is not validated here: zero gives tp == sl == entry, negative flips them.
func (t Targets) Long(entry, atr decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	tp := entry.Add(atr.Mul(t.TakeProfitMultiplier))
	sl := entry.Sub(atr.Mul(t.StopLossMultiplier))
	return tp, sl
}
