package sim

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// recordingSink captures events for assertions.
type recordingSink struct {
	mu      sync.Mutex
	skipped []string
	opened  []Position
	raised  []Position
	closed  []Position
}

func (r *recordingSink) EntrySkipped(asset string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, asset)
}

func (r *recordingSink) PositionOpened(p Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, p)
}

func (r *recordingSink) StopRaised(p Position, previous decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raised = append(r.raised, p)
}

func (r *recordingSink) PositionClosed(p Position, balance decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, p)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(dur time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(dur)
}

func TestEnterTrade_SizesFromBalance(t *testing.T) {
	sink := &recordingSink{}
	p := NewPortfolio(d(1000), testRules(), WithSink(sink), WithClock(func() time.Time { return t0 }))

	pos, ok := p.EnterTrade("ETHUSDT", d(100), d(106), d(97), d(0.1), d(2))
	if !ok {
		t.Fatal("Expected trade to be entered")
	}

	// 1000 * 0.1 / 100
	if !pos.Size.Equal(d(1)) {
		t.Errorf("Expected size 1, got %s", pos.Size)
	}
	if !pos.EntryTime.Equal(t0) || pos.Status != StatusOpen {
		t.Errorf("Unexpected entry state: %+v", pos)
	}
	// Balance is not touched at entry
	if !p.Balance().Equal(d(1000)) {
		t.Errorf("Expected balance 1000, got %s", p.Balance())
	}
	if len(sink.opened) != 1 {
		t.Errorf("Expected one open event, got %d", len(sink.opened))
	}
}

func TestEnterTrade_DuplicateIsNoop(t *testing.T) {
	sink := &recordingSink{}
	p := NewPortfolio(d(1000), testRules(), WithSink(sink))

	first, _ := p.EnterTrade("ETHUSDT", d(100), d(106), d(97), d(0.1), d(2))
	_, ok := p.EnterTrade("ETHUSDT", d(50), d(60), d(40), d(0.5), d(1))
	if ok {
		t.Fatal("Expected second entry on the same asset to be skipped")
	}

	current, found := p.Open("ETHUSDT")
	if !found {
		t.Fatal("Expected open position for ETHUSDT")
	}
	if current != first {
		t.Errorf("Original position changed: %+v -> %+v", first, current)
	}
	if len(p.OpenPositions()) != 1 {
		t.Errorf("Expected one open position, got %d", len(p.OpenPositions()))
	}
	if len(sink.skipped) != 1 || sink.skipped[0] != "ETHUSDT" {
		t.Errorf("Expected one skip for ETHUSDT, got %v", sink.skipped)
	}
}

func TestUpdateTrades_NoPositionIsNoop(t *testing.T) {
	p := NewPortfolio(d(1000), testRules())

	if _, closed := p.UpdateTrades("ETHUSDT", d(100)); closed {
		t.Error("Expected no-op for asset without position")
	}
	if !p.Balance().Equal(d(1000)) {
		t.Errorf("Balance changed: %s", p.Balance())
	}
}

func TestUpdateTrades_Scenario(t *testing.T) {
	sink := &recordingSink{}
	clock := &fakeClock{now: t0}
	p := NewPortfolio(d(1000), testRules(), WithSink(sink), WithClock(clock.Now))

	p.EnterTrade("ETHUSDT", d(100), d(106), d(97), d(0.1), d(2))

	clock.Advance(3 * time.Minute)
	if _, closed := p.UpdateTrades("ETHUSDT", d(100)); closed {
		t.Fatal("Expected position to stay open at 100")
	}

	clock.Advance(3 * time.Minute)
	pos, closed := p.UpdateTrades("ETHUSDT", d(108))
	if !closed {
		t.Fatal("Expected close at 108")
	}
	if pos.ExitReason != ExitTakeProfit || !pos.PnL.Equal(d(8)) || !pos.StopLoss.Equal(d(107)) {
		t.Errorf("Unexpected close: reason %s pnl %s sl %s", pos.ExitReason, pos.PnL, pos.StopLoss)
	}

	// Settled: balance, history, open set
	if !p.Balance().Equal(d(1008)) {
		t.Errorf("Expected balance 1008, got %s", p.Balance())
	}
	if _, open := p.Open("ETHUSDT"); open {
		t.Error("Expected ETHUSDT to be removed from open positions")
	}
	s := p.Summary()
	if s.NumTrades != 1 || !s.TotalPnL.Equal(d(8)) || s.Wins != 1 || s.Losses != 0 {
		t.Errorf("Unexpected summary: %+v", s)
	}
	if len(sink.raised) != 1 || len(sink.closed) != 1 {
		t.Errorf("Expected one raise and one close event, got %d and %d", len(sink.raised), len(sink.closed))
	}

	// Asset is free again
	if _, ok := p.EnterTrade("ETHUSDT", d(108), d(114), d(105), d(0.1), d(2)); !ok {
		t.Error("Expected re-entry after close")
	}
}

func TestSummary_CloseOrderAndPnLIdentity(t *testing.T) {
	p := NewPortfolio(d(1000), testRules(), WithClock(func() time.Time { return t0 }))

	p.EnterTrade("A", d(10), d(13), d(8.5), d(0.1), d(1))
	p.EnterTrade("B", d(20), d(26), d(17), d(0.2), d(2))
	p.EnterTrade("C", d(5), d(8), d(3.5), d(0.1), d(1))

	p.UpdateTrades("B", d(16))  // stop
	p.UpdateTrades("A", d(14))  // target
	p.UpdateTrades("C", d(4.5)) // still open

	s := p.Summary()
	if s.NumTrades != 2 || s.OpenPositions != 1 {
		t.Fatalf("Expected 2 closed and 1 open, got %d and %d", s.NumTrades, s.OpenPositions)
	}
	if s.ClosedTrades[0].Asset != "B" || s.ClosedTrades[1].Asset != "A" {
		t.Errorf("Expected close order [B A], got [%s %s]", s.ClosedTrades[0].Asset, s.ClosedTrades[1].Asset)
	}

	sum := decimal.Zero
	for _, c := range s.ClosedTrades {
		want := c.ExitPrice.Sub(c.EntryPrice).Mul(c.Size)
		if !c.PnL.Equal(want) {
			t.Errorf("%s: pnl %s != (exit-entry)*size %s", c.Asset, c.PnL, want)
		}
		sum = sum.Add(c.PnL)
	}
	if !s.Balance.Equal(d(1000).Add(sum)) || !s.TotalPnL.Equal(sum) {
		t.Errorf("Balance %s != initial + sum(pnl) %s", s.Balance, sum)
	}
	if s.Wins != 1 || s.Losses != 1 {
		t.Errorf("Expected 1 win and 1 loss, got %d/%d", s.Wins, s.Losses)
	}
}

func TestPortfolio_ConcurrentAssets(t *testing.T) {
	p := NewPortfolio(d(1000), testRules(), WithClock(func() time.Time { return t0 }))

	const assets = 50
	var wg sync.WaitGroup
	for i := 0; i < assets; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			asset := fmt.Sprintf("COIN%d", i)
			p.EnterTrade(asset, d(100), d(106), d(97), d(0.01), d(2))
			// even assets win, odd ones lose
			if i%2 == 0 {
				p.UpdateTrades(asset, d(110))
			} else {
				p.UpdateTrades(asset, d(95))
			}
		}(i)
	}
	wg.Wait()

	s := p.Summary()
	if s.NumTrades != assets || s.OpenPositions != 0 {
		t.Fatalf("Expected %d closed and none open, got %d/%d", assets, s.NumTrades, s.OpenPositions)
	}

	sum := decimal.Zero
	for _, c := range s.ClosedTrades {
		sum = sum.Add(c.PnL)
	}
	if !s.Balance.Equal(d(1000).Add(sum)) {
		t.Errorf("Lost update: balance %s, expected %s", s.Balance, d(1000).Add(sum))
	}
}
