package sim

import "github.com/shopspring/decimal"

// EventSink observes the portfolio. The portfolio calls it after releasing
// its lock, with copies of the positions involved, so implementations may
// log, alert or block without affecting the simulation.
type EventSink interface {
	EntrySkipped(asset string)
	PositionOpened(p Position)
	StopRaised(p Position, previous decimal.Decimal)
	PositionClosed(p Position, balance decimal.Decimal)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) EntrySkipped(string)                      {}
func (NopSink) PositionOpened(Position)                  {}
func (NopSink) StopRaised(Position, decimal.Decimal)     {}
func (NopSink) PositionClosed(Position, decimal.Decimal) {}
