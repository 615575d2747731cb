// Package strategy holds the entry rules of the simulator: the additive
// opportunity score, the market bullishness rule and the ATR based targets.
package strategy

import (
	"math"

	"alpha_sim/internal/models"
)

// Decision is the outcome of grading an asset.
type Decision string

const (
	Opportunity Decision = "opportunity"
	Neutral     Decision = "neutral"
)

// Weights are the points awarded by each independent gate.
type Weights struct {
	RSI         int
	EMACross    int
	MACD        int
	VolumeSpike int
	StochRSI    int
}

// Config is the immutable rule set of the grader.
type Config struct {
	Weights Weights

	RSIOversold    float64 // rsi14 below this scores Weights.RSI
	VolumeSpikeMin float64 // spike ratio above this scores Weights.VolumeSpike
	StochOversold  float64 // %K below this scores Weights.StochRSI
	EntryThreshold int     // score at or above this is an opportunity

	// Market bullishness rule, evaluated on the reference asset.
	BullishRSI   float64
	BullishScore int
}

// DefaultConfig returns the reference rule set.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			RSI:         3,
			EMACross:    2,
			MACD:        2,
			VolumeSpike: 2,
			StochRSI:    1,
		},
		RSIOversold:    40,
		VolumeSpikeMin: 1.5,
		StochOversold:  20,
		EntryThreshold: 7,
		BullishRSI:     50,
		BullishScore:   3,
	}
}

// Signals are the indicator readings the grader looks at.
type Signals struct {
	RSI14       float64
	EMA7        float64
	EMA21       float64
	MACD        float64
	VolumeSpike float64
	StochRSIK   float64
}

// SignalsFrom extracts grader inputs from a snapshot. A missing indicator
// becomes NaN, which fails every gate it feeds.
func SignalsFrom(s *models.Snapshot) Signals {
	get := func(name string) float64 {
		if v, ok := s.Lookup(name); ok {
			return v
		}
		return math.NaN()
	}
	return Signals{
		RSI14:       get(models.RSI),
		EMA7:        get(models.EMA7),
		EMA21:       get(models.EMA21),
		MACD:        get(models.MACD),
		VolumeSpike: get(models.VolumeSpike),
		StochRSIK:   get(models.StochRSIK),
	}
}

// Grader scores assets against a fixed Config. It holds no mutable state
// and is safe for concurrent use.
type Grader struct {
	cfg Config
}

func NewGrader(cfg Config) *Grader {
	return &Grader{cfg: cfg}
}

func (g *Grader) Config() Config { return g.cfg }

// Grade adds up the gates that hold and the market bullishness score.
// A NaN input fails its gate.
func (g *Grader) Grade(in Signals, bullish int) (Decision, int) {
	w := g.cfg.Weights
	score := 0
	if in.RSI14 < g.cfg.RSIOversold {
		score += w.RSI
	}
	if in.EMA7 > in.EMA21 {
		score += w.EMACross
	}
	if in.MACD > 0 {
		score += w.MACD
	}
	if in.VolumeSpike > g.cfg.VolumeSpikeMin {
		score += w.VolumeSpike
	}
	if in.StochRSIK < g.cfg.StochOversold {
		score += w.StochRSI
	}

	score += bullish

	if score >= g.cfg.EntryThreshold {
		return Opportunity, score
	}
	return Neutral, score
}

// GradeSnapshot grades the latest indicator values of an asset.
func (g *Grader) GradeSnapshot(s *models.Snapshot, bullish int) (Decision, int) {
	return g.Grade(SignalsFrom(s), bullish)
}

// Bullishness scores the reference asset: BullishScore when rsi, the EMA cross
// and MACD all point up, 0 otherwise. A nil or empty snapshot (not enough
// history) scores 0.
func (g *Grader) Bullishness(s *models.Snapshot) int {
	if s.Empty() {
		return 0
	}
	in := SignalsFrom(s)
	if in.RSI14 > g.cfg.BullishRSI && in.EMA7 > in.EMA21 && in.MACD > 0 {
		return g.cfg.BullishScore
	}
	return 0
}
