// Package indicators computes the named technical indicators of a candle
// series with techan.
package indicators

import (
	"math"
	"time"

	"alpha_sim/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// MinBars is the shortest series indicators are computed for. Shorter series
// come back with the close price only.
const MinBars = 21

// Engine turns candles into the latest indicator snapshot.
type Engine struct {
	Period time.Duration // candle width, used to build techan time periods
}

func NewEngine(period time.Duration) *Engine {
	if period <= 0 {
		period = time.Minute
	}
	return &Engine{Period: period}
}

// Compute never fails: short history or degenerate math only leave keys out
// of the snapshot, which readers treat as zero.
func (e *Engine) Compute(asset string, bars []models.Bar) (snap models.Snapshot) {
	snap = models.Snapshot{Asset: asset, Values: map[string]float64{}}
	if len(bars) == 0 {
		return snap
	}
	last := bars[len(bars)-1]
	snap.Close = last.Close
	snap.Time = last.Time

	if len(bars) < MinBars {
		log.Warn().Str("asset", asset).Int("bars", len(bars)).Msg("Insufficient data for calculating indicators")
		return snap
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("asset", asset).Interface("panic", r).Msg("Error calculating indicators")
		}
	}()

	series := e.series(bars)
	i := series.LastIndex()
	set := func(name string, v float64) {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			snap.Values[name] = v
		}
	}
	at := func(ind techan.Indicator) float64 { return ind.Calculate(i).Float() }

	closes := techan.NewClosePriceIndicator(series)
	highs := techan.NewHighPriceIndicator(series)
	lows := techan.NewLowPriceIndicator(series)
	volume := techan.NewVolumeIndicator(series)

	set(models.EMA7, at(techan.NewEMAIndicator(closes, 7)))
	set(models.EMA9, at(techan.NewEMAIndicator(closes, 9)))
	set(models.EMA21, at(techan.NewEMAIndicator(closes, 21)))

	rsi := techan.NewRelativeStrengthIndexIndicator(closes, 14)
	set(models.RSI, at(rsi))
	set(models.RSI12, at(techan.NewRelativeStrengthIndexIndicator(closes, 12)))

	// techan reads an unfilled EMA window as 0, which would turn MACD into EMA12.
	macd := techan.NewMACDIndicator(closes, 12, 26)
	if i+1 >= 26 {
		set(models.MACD, at(macd))
	}
	set(models.MACDSignal, averageFrom(macd, 26-1, i, 9, 2.0/(9+1)))

	set(models.BBUpper, at(techan.NewBollingerUpperBandIndicator(closes, 20, 2)))
	set(models.BBMiddle, at(techan.NewSimpleMovingAverage(closes, 20)))
	set(models.BBLower, at(techan.NewBollingerLowerBandIndicator(closes, 20, 2)))

	// Wilder smoothing of the true range, which starts at the second candle
	set(models.ATR, averageFrom(techan.NewTrueRangeIndicator(series), 1, i, 14, 1.0/14))
	set(models.CCI, at(techan.NewCCIIndicator(series, 20)))
	set(models.ADX, averageFrom(newDXIndicator(series, 14), 14-1, i, 14, 1.0/14))
	if sar, long := parabolicSAR(highs, lows, closes, i, 0.02, 0.2); long {
		set(models.SAR, sar)
	}

	volMA := at(techan.NewSimpleMovingAverage(volume, 20))
	set(models.VolumeMA, volMA)
	if volMA > 0 {
		set(models.VolumeSpike, bars[len(bars)-1].Volume/volMA)
	}

	k, d := stochRSI(rsi, i, 14, 3)
	set(models.StochRSIK, k)
	set(models.StochRSID, d)

	tenkan := midpoint(highs, lows, i, 9)
	kijun := midpoint(highs, lows, i, 26)
	set(models.TenkanSen, tenkan)
	set(models.KijunSen, kijun)
	if i+1 >= 26 {
		set(models.SenkouSpanA, (tenkan+kijun)/2)
	}
	if i+1 >= 52 {
		set(models.SenkouSpanB, midpoint(highs, lows, i, 52))
	}

	return snap
}

func (e *Engine) series(bars []models.Bar) *techan.TimeSeries {
	series := techan.NewTimeSeries()
	for _, b := range bars {
		c := techan.NewCandle(techan.NewTimePeriod(b.Time, e.Period))
		c.OpenPrice = big.NewFromString(b.Open.String())
		c.MaxPrice = big.NewFromString(b.High.String())
		c.MinPrice = big.NewFromString(b.Low.String())
		c.ClosePrice = big.NewFromString(b.Close.String())
		c.Volume = big.NewDecimal(b.Volume)
		series.AddCandle(c)
	}
	return series
}

// stochRSI returns %K at index i, the position of RSI inside its range over
// the last window values, and %D, the smoothing average of %K.
func stochRSI(rsi techan.Indicator, i, window, smooth int) (float64, float64) {
	kAt := func(j int) float64 {
		if j-window+1 < 0 {
			return math.NaN()
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for n := j - window + 1; n <= j; n++ {
			v := rsi.Calculate(n).Float()
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi == lo {
			return math.NaN()
		}
		return 100 * (rsi.Calculate(j).Float() - lo) / (hi - lo)
	}

	k := kAt(i)
	sum := 0.0
	for j := i - smooth + 1; j <= i; j++ {
		sum += kAt(j)
	}
	return k, sum / float64(smooth)
}

// midpoint is (highest high + lowest low) / 2 over the last window candles.
func midpoint(highs, lows techan.Indicator, i, window int) float64 {
	if i+1 < window {
		return math.NaN()
	}
	hi, lo := math.Inf(-1), math.Inf(1)
	for n := i - window + 1; n <= i; n++ {
		hi = math.Max(hi, highs.Calculate(n).Float())
		lo = math.Min(lo, lows.Calculate(n).Float())
	}
	return (hi + lo) / 2
}
