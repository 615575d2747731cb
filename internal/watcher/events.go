package watcher

import (
	"fmt"

	"alpha_sim/internal/sim"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// The watcher is the portfolio's event sink. Callbacks run outside the
// portfolio lock.

func (w *Watcher) EntrySkipped(asset string) {
	log.Debug().Str("asset", asset).Msg("Position already open, entry skipped")
}

func (w *Watcher) PositionOpened(p sim.Position) {
	log.Info().Str("asset", p.Asset).Str("id", p.ID.String()).
		Str("entry", p.EntryPrice.String()).Str("size", p.Size.StringFixed(6)).
		Str("tp", p.TakeProfit.String()).Str("sl", p.StopLoss.String()).
		Msg("Position opened")

	w.alerter.Notify(fmt.Sprintf("🟢 ENTRY %s\nPrice: %s | Size: %s\nTP: %s | SL: %s",
		p.Asset, fmtPrice(p.EntryPrice), p.Size.StringFixed(4), fmtPrice(p.TakeProfit), fmtPrice(p.StopLoss)))
}

func (w *Watcher) StopRaised(p sim.Position, previous decimal.Decimal) {
	log.Info().Str("asset", p.Asset).Str("from", previous.String()).Str("to", p.StopLoss.String()).
		Msg("Trailing stop raised")
}

func (w *Watcher) PositionClosed(p sim.Position, balance decimal.Decimal) {
	log.Info().Str("asset", p.Asset).Str("id", p.ID.String()).Str("reason", string(p.ExitReason)).
		Str("exit", p.ExitPrice.String()).Str("pnl", p.PnL.String()).Str("balance", balance.String()).
		Msg("Position closed")

	icon := "✅"
	if p.PnL.IsNegative() {
		icon = "🔴"
	}
	w.alerter.Notify(fmt.Sprintf("%s EXIT %s (%s)\nEntry: %s | Exit: %s\nPnL: %s | Balance: %s",
		icon, p.Asset, p.ExitReason, fmtPrice(p.EntryPrice), fmtPrice(p.ExitPrice),
		p.PnL.StringFixed(2), balance.StringFixed(2)))
}

// fmtPrice keeps sub-dollar coins readable.
func fmtPrice(d decimal.Decimal) string {
	if d.Abs().LessThan(decimal.NewFromInt(10)) {
		return d.StringFixed(4)
	}
	return d.StringFixed(2)
}
