package sim

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio owns the virtual balance, the open positions (at most one per
// asset) and the closed history.
//
// Capital is not reserved at entry: the balance only moves when a position
// closes, by exactly its realized pnl. All methods are safe for concurrent use.
type Portfolio struct {
	mu      sync.Mutex
	initial decimal.Decimal
	balance decimal.Decimal
	open    map[string]*Position
	closed  []*Position

	rules ExitRules
	sink  EventSink
	now   func() time.Time
}

// Option customizes a Portfolio.
type Option func(*Portfolio)

// WithSink sets the observer notified of lifecycle events.
func WithSink(s EventSink) Option {
	return func(p *Portfolio) {
		if s != nil {
			p.sink = s
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Portfolio) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPortfolio(initialBalance decimal.Decimal, rules ExitRules, opts ...Option) *Portfolio {
	p := &Portfolio{
		initial: initialBalance,
		balance: initialBalance,
		open:    make(map[string]*Position),
		rules:   rules,
		sink:    NopSink{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EnterTrade opens a long position on asset sized at allocation of the
// current balance. It is a no-op (reported as a skip) when the asset already
// has an open position. The returned bool tells whether a position was opened.
func (p *Portfolio) EnterTrade(asset string, entry, tp, sl, allocation, atr decimal.Decimal) (Position, bool) {
	p.mu.Lock()
	if _, exists := p.open[asset]; exists {
		p.mu.Unlock()
		p.sink.EntrySkipped(asset)
		return Position{}, false
	}

	size := p.balance.Mul(allocation).Div(entry)
	pos := newPosition(asset, entry, tp, sl, size, atr, p.now())
	p.open[asset] = pos
	opened := *pos
	p.mu.Unlock()

	p.sink.PositionOpened(opened)
	return opened, true
}

// UpdateTrades feeds the current price to the open position of asset, if any.
// When the position closes, its pnl is added to the balance, it is appended
// to the closed history and removed from the open set, all under one lock.
func (p *Portfolio) UpdateTrades(asset string, price decimal.Decimal) (Position, bool) {
	p.mu.Lock()
	pos, exists := p.open[asset]
	if !exists {
		p.mu.Unlock()
		return Position{}, false
	}

	previousSL := pos.StopLoss
	closed := pos.Update(price, p.now(), p.rules)
	raised := pos.StopLoss.GreaterThan(previousSL)

	if closed {
		p.balance = p.balance.Add(pos.PnL)
		p.closed = append(p.closed, pos)
		delete(p.open, asset)
	}
	snapshot := *pos
	balance := p.balance
	p.mu.Unlock()

	if raised {
		p.sink.StopRaised(snapshot, previousSL)
	}
	if closed {
		p.sink.PositionClosed(snapshot, balance)
	}
	return snapshot, closed
}

// Open returns a copy of the open position of asset.
func (p *Portfolio) Open(asset string) (Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.open[asset]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// OpenPositions returns copies of all open positions, in no particular order.
func (p *Portfolio) OpenPositions() []Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Position, 0, len(p.open))
	for _, pos := range p.open {
		out = append(out, *pos)
	}
	return out
}

func (p *Portfolio) Balance() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance
}

// Summary is a read-only view of the simulation results.
type Summary struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Balance        decimal.Decimal `json:"balance"`
	TotalPnL       decimal.Decimal `json:"total_pnl"`
	NumTrades      int             `json:"num_trades"`
	Wins           int             `json:"wins"`
	Losses         int             `json:"losses"`
	OpenPositions  int             `json:"open_positions"`
	ClosedTrades   []Position      `json:"closed_trades"`
}

// Summary aggregates the closed history. ClosedTrades is in close order.
func (p *Portfolio) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Summary{
		InitialBalance: p.initial,
		Balance:        p.balance,
		TotalPnL:       decimal.Zero,
		NumTrades:      len(p.closed),
		OpenPositions:  len(p.open),
		ClosedTrades:   make([]Position, 0, len(p.closed)),
	}
	for _, pos := range p.closed {
		s.TotalPnL = s.TotalPnL.Add(pos.PnL)
		switch {
		case pos.PnL.IsPositive():
			s.Wins++
		case pos.PnL.IsNegative():
			s.Losses++
		}
		s.ClosedTrades = append(s.ClosedTrades, *pos)
	}
	return s
}
