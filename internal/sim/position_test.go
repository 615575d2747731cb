package sim

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

var t0 = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func testRules() ExitRules {
	return ExitRules{
		MaxDuration:     6 * time.Hour,
		TrailMultiplier: d(1.0),
		TrailOffset:     d(0.5),
	}
}

func TestPositionUpdate_TrailThenTakeProfit(t *testing.T) {
	p := newPosition("ETHUSDT", d(100), d(106), d(97), d(1), d(2), t0)
	rules := testRules()

	// 1. Flat price: profit 0 is not above ATR*MULT, nothing moves
	if p.Update(d(100), t0.Add(time.Minute), rules) {
		t.Fatal("Expected position to stay open at entry price")
	}
	if !p.StopLoss.Equal(d(97)) {
		t.Errorf("Expected SL unchanged at 97, got %s", p.StopLoss)
	}

	// 2. Price 108: profit 8 > 2, stop trails to 108 - 2*0.5 = 107, then 108 >= TP 106
	if !p.Update(d(108), t0.Add(2*time.Minute), rules) {
		t.Fatal("Expected position to close at take profit")
	}
	if !p.StopLoss.Equal(d(107)) {
		t.Errorf("Expected trailed SL 107, got %s", p.StopLoss)
	}
	if p.ExitReason != ExitTakeProfit {
		t.Errorf("Expected exit reason %s, got %s", ExitTakeProfit, p.ExitReason)
	}
	if !p.PnL.Equal(d(8)) {
		t.Errorf("Expected PnL 8, got %s", p.PnL)
	}
	if !p.ExitPrice.Equal(d(108)) || p.Status != StatusClosed {
		t.Errorf("Expected closed at 108, got %s status %s", p.ExitPrice, p.Status)
	}
}

func TestPositionUpdate_StopLoss(t *testing.T) {
	p := newPosition("SOLUSDT", d(100), d(106), d(97), d(2), d(2), t0)

	if !p.Update(d(96.5), t0.Add(time.Minute), testRules()) {
		t.Fatal("Expected stop loss exit")
	}
	if p.ExitReason != ExitStopLoss {
		t.Errorf("Expected %s, got %s", ExitStopLoss, p.ExitReason)
	}
	// (96.5 - 100) * 2
	if !p.PnL.Equal(d(-7)) {
		t.Errorf("Expected PnL -7, got %s", p.PnL)
	}
}

func TestPositionUpdate_TimeExitBeatsStopLoss(t *testing.T) {
	p := newPosition("XRPUSDT", d(100), d(106), d(97), d(1), d(2), t0)

	// Both the time limit and the stop hold; time wins.
	if !p.Update(d(90), t0.Add(7*time.Hour), testRules()) {
		t.Fatal("Expected position to close")
	}
	if p.ExitReason != ExitTime {
		t.Errorf("Expected %s, got %s", ExitTime, p.ExitReason)
	}
	if !p.PnL.Equal(d(-10)) {
		t.Errorf("Expected PnL -10, got %s", p.PnL)
	}
}

func TestPositionUpdate_TimeExitAtAnyPnL(t *testing.T) {
	p := newPosition("BNBUSDT", d(100), d(106), d(97), d(1), d(2), t0)

	// Exactly at the limit is not "exceeds"
	if p.Update(d(101), t0.Add(6*time.Hour), testRules()) {
		t.Fatal("Expected no exit at exactly max duration")
	}
	if !p.Update(d(101), t0.Add(6*time.Hour+time.Second), testRules()) {
		t.Fatal("Expected time exit past max duration")
	}
	if p.ExitReason != ExitTime || !p.PnL.Equal(d(1)) {
		t.Errorf("Expected time exit with PnL 1, got %s %s", p.ExitReason, p.PnL)
	}
}

func TestPositionUpdate_StopBeatsTakeProfit(t *testing.T) {
	// Degenerate targets (zero ATR): tp == sl == entry, both hold at entry.
	p := newPosition("DOGEUSDT", d(100), d(100), d(100), d(1), d(0), t0)

	if !p.Update(d(100), t0.Add(time.Minute), testRules()) {
		t.Fatal("Expected exit")
	}
	if p.ExitReason != ExitStopLoss {
		t.Errorf("Expected %s, got %s", ExitStopLoss, p.ExitReason)
	}
}

func TestPositionUpdate_RaisedStopHitSameTick(t *testing.T) {
	rules := testRules()
	rules.TrailOffset = decimal.Zero

	p := newPosition("ETHUSDT", d(100), d(200), d(97), d(1), d(2), t0)

	// Offset 0 trails the stop right to the price, which then triggers it.
	if !p.Update(d(105), t0.Add(time.Minute), rules) {
		t.Fatal("Expected the freshly raised stop to fire")
	}
	if p.ExitReason != ExitStopLoss || !p.StopLoss.Equal(d(105)) {
		t.Errorf("Expected stop exit at raised SL 105, got %s SL %s", p.ExitReason, p.StopLoss)
	}
}

func TestPositionUpdate_StopNeverMovesDown(t *testing.T) {
	p := newPosition("ETHUSDT", d(100), d(1000), d(97), d(1), d(2), t0)
	rules := testRules()

	prices := []float64{101, 103, 110, 108, 104.5, 112, 111, 115, 113}
	last := p.StopLoss
	for i, px := range prices {
		closed := p.Update(d(px), t0.Add(time.Duration(i+1)*time.Minute), rules)
		if p.StopLoss.LessThan(last) {
			t.Fatalf("Stop moved down at tick %d: %s -> %s", i, last, p.StopLoss)
		}
		last = p.StopLoss
		if closed {
			break
		}
	}

	// 110 trails to 109; 108 <= 109 closes on the stop.
	if p.Status != StatusClosed || p.ExitReason != ExitStopLoss {
		t.Fatalf("Expected stop exit, got %s %s", p.Status, p.ExitReason)
	}
	if !p.ExitPrice.Equal(d(108)) || !p.StopLoss.Equal(d(109)) {
		t.Errorf("Expected exit 108 with SL 109, got exit %s SL %s", p.ExitPrice, p.StopLoss)
	}
}

func TestPositionUpdate_ClosedIsImmutable(t *testing.T) {
	p := newPosition("ETHUSDT", d(100), d(106), d(97), d(1), d(2), t0)
	p.Update(d(110), t0.Add(time.Minute), testRules())
	before := *p

	if p.Update(d(50), t0.Add(time.Hour), testRules()) {
		t.Error("Expected closed position to ignore updates")
	}
	if *p != before {
		t.Errorf("Closed position mutated: %+v -> %+v", before, *p)
	}
}

func TestPositionUpdate_NoTimeExitWhenDisabled(t *testing.T) {
	rules := testRules()
	rules.MaxDuration = 0

	p := newPosition("ETHUSDT", d(100), d(106), d(97), d(1), d(2), t0)
	if p.Update(d(100), t0.Add(1000*time.Hour), rules) {
		t.Error("Expected no time exit when max duration is disabled")
	}
}
