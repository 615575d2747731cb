package indicators

import (
	"math"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// directionalMovementIndicator is +DM (plus) or -DM of a candle against the
// previous one. Only the larger, positive move counts.
type directionalMovementIndicator struct {
	series *techan.TimeSeries
	plus   bool
}

func (d directionalMovementIndicator) Calculate(index int) big.Decimal {
	if index < 1 {
		return big.ZERO
	}
	cur, prev := d.series.Candles[index], d.series.Candles[index-1]
	up := cur.MaxPrice.Sub(prev.MaxPrice).Float()
	down := prev.MinPrice.Sub(cur.MinPrice).Float()

	move, other := down, up
	if d.plus {
		move, other = up, down
	}
	if move > other && move > 0 {
		return big.NewDecimal(move)
	}
	return big.ZERO
}

// dxIndicator is 100 * |+DI - -DI| / (+DI + -DI). Both DIs share the ATR
// denominator, so the smoothed DMs are enough.
type dxIndicator struct {
	plus, minus techan.Indicator
}

func (d dxIndicator) Calculate(index int) big.Decimal {
	p, m := d.plus.Calculate(index).Float(), d.minus.Calculate(index).Float()
	if p+m == 0 {
		return big.ZERO
	}
	return big.NewDecimal(100 * math.Abs(p-m) / (p + m))
}

func newDXIndicator(series *techan.TimeSeries, window int) techan.Indicator {
	return dxIndicator{
		plus:  techan.NewMMAIndicator(directionalMovementIndicator{series: series, plus: true}, window),
		minus: techan.NewMMAIndicator(directionalMovementIndicator{series: series}, window),
	}
}

// averageFrom is an exponential average of ind over start..i, seeded with the
// simple average of its first window values. Values before start are ignored,
// so warm-up zeros of a derived indicator never leak into the seed.
func averageFrom(ind techan.Indicator, start, i, window int, alpha float64) float64 {
	if start < 0 || i-start+1 < window {
		return math.NaN()
	}
	sum := 0.0
	for n := start; n < start+window; n++ {
		sum += ind.Calculate(n).Float()
	}
	avg := sum / float64(window)
	for n := start + window; n <= i; n++ {
		avg = alpha*ind.Calculate(n).Float() + (1-alpha)*avg
	}
	return avg
}

// parabolicSAR walks the series up to index i and returns the stop-and-reverse
// level there, and whether the trend at i is long.
func parabolicSAR(highs, lows, closes techan.Indicator, i int, step, maxStep float64) (float64, bool) {
	if i < 1 {
		return math.NaN(), false
	}
	high := func(n int) float64 { return highs.Calculate(n).Float() }
	low := func(n int) float64 { return lows.Calculate(n).Float() }

	up := high(1) - high(0)
	dn := low(0) - low(1)
	falling := dn > up && dn > 0

	af := step
	sar := closes.Calculate(0).Float()
	ep := high(0)
	if falling {
		ep = low(0)
	}

	for n := 1; n <= i; n++ {
		next := sar + af*(ep-sar)
		var reverse bool

		if falling {
			reverse = high(n) > next
			if low(n) < ep {
				ep = low(n)
				af = math.Min(af+step, maxStep)
			}
			next = math.Max(next, high(n-1))
			if n > 1 {
				next = math.Max(next, high(n-2))
			}
		} else {
			reverse = low(n) < next
			if high(n) > ep {
				ep = high(n)
				af = math.Min(af+step, maxStep)
			}
			next = math.Min(next, low(n-1))
			if n > 1 {
				next = math.Min(next, low(n-2))
			}
		}

		if reverse {
			next = ep
			af = step
			falling = !falling
			ep = high(n)
			if falling {
				ep = low(n)
			}
		}
		sar = next
	}
	return sar, !falling
}
