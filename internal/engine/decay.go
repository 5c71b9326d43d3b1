package engine

// Half-life decay:
//   - every edge contributes weight(type) * 2^(-age/halfLife(type))
//   - age is in days from the injected clock; future dates count as age 0
//   - undated edges are aged at the stale horizon, never dropped
//   - the per-person sum saturates as 100 * (1 - e^(-sum/k))
//   - weights and half-lives live in config.Scoring.Types

import (
	"math"
	"time"

	"github.com/lazypower/rapport/internal/config"
	"github.com/lazypower/rapport/internal/graph"
)

// Decay returns weight halved once per elapsed half-life.
func Decay(weight, ageDays, halfLifeDays float64) float64 {
	if ageDays < 0 {
		ageDays = 0
	}
	if halfLifeDays <= 0 {
		return 0
	}
	return weight * math.Pow(0.5, ageDays/halfLifeDays)
}

// Saturate maps a non-negative evidence sum onto [0,100].
func Saturate(sum, k float64) float64 {
	if sum <= 0 || k <= 0 {
		return 0
	}
	return clamp(100*(1-math.Exp(-sum/k)), 0, 100)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }

// ageDays is how old an edge is at now. Undated edges get the stale horizon.
func ageDays(e *graph.Edge, now time.Time, sc config.ScoringConfig) float64 {
	if !e.Dated {
		return sc.StaleHorizonDays
	}
	return now.Sub(e.At).Hours() / 24
}

// contribution is the decayed value of one edge.
func contribution(e *graph.Edge, now time.Time, sc config.ScoringConfig) float64 {
	p := sc.Type(string(e.Type))
	return Decay(p.Weight, ageDays(e, now, sc), p.HalfLifeDays)
}

// recency is the unweighted decay factor of one edge in [0,1].
func recency(e *graph.Edge, now time.Time, sc config.ScoringConfig) float64 {
	p := sc.Type(string(e.Type))
	return Decay(1, ageDays(e, now, sc), p.HalfLifeDays)
}
