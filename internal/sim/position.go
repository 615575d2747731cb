// Package sim simulates long spot positions against a virtual balance.
//
// Only long positions exist. The simulator never shorts, so there is no side
// to choose and no inert short branch to fall through.
package sim

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// ExitReason records which condition closed a position.
type ExitReason string

const (
	ExitNone       ExitReason = ""
	ExitTime       ExitReason = "TIME"
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
)

// ExitRules configure the trailing stop and the forced time exit.
type ExitRules struct {
	MaxDuration     time.Duration   // <= 0 disables the time exit
	TrailMultiplier decimal.Decimal // profit must exceed EntryATR * TrailMultiplier to trail
	TrailOffset     decimal.Decimal // trailed stop sits EntryATR * TrailOffset below price
}

func DefaultExitRules() ExitRules {
	return ExitRules{
		MaxDuration:     6 * time.Hour,
		TrailMultiplier: decimal.NewFromFloat(1.0),
		TrailOffset:     decimal.NewFromFloat(0.5),
	}
}

// Position is one simulated long holding.
//
// EntryPrice, Size, EntryATR and EntryTime never change. StopLoss only moves
// up. Once Status is closed, ExitPrice, PnL, ExitTime and ExitReason are set
// and nothing changes again.
type Position struct {
	ID         uuid.UUID       `json:"id"`
	Asset      string          `json:"asset"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	TakeProfit decimal.Decimal `json:"take_profit"`
	StopLoss   decimal.Decimal `json:"stop_loss"`
	Size       decimal.Decimal `json:"size"`
	EntryATR   decimal.Decimal `json:"entry_atr"`
	EntryTime  time.Time       `json:"entry_time"`

	Status     Status          `json:"status"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	PnL        decimal.Decimal `json:"pnl"`
	ExitTime   time.Time       `json:"exit_time,omitempty"`
	ExitReason ExitReason      `json:"exit_reason,omitempty"`
}

func newPosition(asset string, entry, tp, sl, size, atr decimal.Decimal, at time.Time) *Position {
	return &Position{
		ID:         uuid.New(),
		Asset:      asset,
		EntryPrice: entry,
		TakeProfit: tp,
		StopLoss:   sl,
		Size:       size,
		EntryATR:   atr,
		EntryTime:  at,
		Status:     StatusOpen,
	}
}

func (p *Position) IsOpen() bool { return p.Status == StatusOpen }

// UnrealizedPnL is the pnl the position would realize at price.
func (p *Position) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	return price.Sub(p.EntryPrice).Mul(p.Size)
}

// Update applies one price tick and reports whether the position closed on it.
//
// The trailing stop is ratcheted first, so a stop raised on this tick can be
// hit on the same tick. Exits are then checked in fixed order: time, stop
// loss, take profit. The first one that holds wins.
func (p *Position) Update(price decimal.Decimal, now time.Time, rules ExitRules) bool {
	if !p.IsOpen() {
		return false
	}

	p.trail(price, rules)

	switch {
	case rules.MaxDuration > 0 && now.Sub(p.EntryTime) > rules.MaxDuration:
		p.close(price, now, ExitTime)
	case price.LessThanOrEqual(p.StopLoss):
		p.close(price, now, ExitStopLoss)
	case price.GreaterThanOrEqual(p.TakeProfit):
		p.close(price, now, ExitTakeProfit)
	default:
		return false
	}
	return true
}

// trail raises the stop once profit exceeds EntryATR * TrailMultiplier.
// The stop never moves down.
func (p *Position) trail(price decimal.Decimal, rules ExitRules) {
	profit := price.Sub(p.EntryPrice)
	threshold := p.EntryATR.Mul(rules.TrailMultiplier)
	if !profit.GreaterThan(threshold) {
		return
	}
	candidate := price.Sub(p.EntryATR.Mul(rules.TrailOffset))
	if candidate.GreaterThan(p.StopLoss) {
		p.StopLoss = candidate
	}
}

func (p *Position) close(price decimal.Decimal, now time.Time, reason ExitReason) {
	p.Status = StatusClosed
	p.ExitPrice = price
	p.PnL = price.Sub(p.EntryPrice).Mul(p.Size)
	p.ExitTime = now
	p.ExitReason = reason
}
