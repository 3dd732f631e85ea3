// Package scoring turns a song's interaction counters into a recommendation
// weight. All functions are pure; the same inputs always produce the same
// score.
package scoring

import (
	"math"

	"github.com/example/minstrel/internal/store"
)

// Params holds the tunable constants of the scoring function. Use
// DefaultParams as a starting point; the zero value is not usable.
type Params struct {
	// TouchThreshold is the touch count at which scoring switches from the
	// staged listen/skip weights to logarithmic dampening.
	TouchThreshold int

	// DampenBase is the logarithm base used for dampening and for
	// connection weighting.
	DampenBase float64

	// LoveMultiplier scales the score of songs the user marked as loved.
	LoveMultiplier float64

	// SmallTouch and BigTouch bound the three weighting phases: below
	// SmallTouch new songs are given the benefit of the doubt, above
	// BigTouch skips count heavily against a song.
	SmallTouch int
	BigTouch   int
}

// DefaultParams returns the stock scoring parameters.
func DefaultParams() Params {
	return Params{
		TouchThreshold: 30,
		DampenBase:     1.2,
		LoveMultiplier: 2.0,
		SmallTouch:     5,
		BigTouch:       15,
	}
}

// Weights returns the (listen, skip) weight pair for a song that has been
// suggested the given number of times.
func (p Params) Weights(touches int) (int, int) {
	switch {
	case touches < p.SmallTouch:
		return 4, 1
	case touches <= p.BigTouch:
		return 2, 2
	default:
		return 1, 4
	}
}

// Dampen returns log base DampenBase of touches+1. Strictly increasing and
// sub-linear, so heavily-suggested songs cannot grow without bound.
func (p Params) Dampen(touches int) float64 {
	return math.Log(float64(touches)+1) / math.Log(p.DampenBase)
}

// Score computes the recommendation weight for a song. The result is never
// negative; loved songs score double.
func (p Params) Score(s *store.Song) float64 {
	var raw float64
	if s.Touches < p.TouchThreshold {
		listenWeight, skipWeight := p.Weights(s.Touches)
		raw = float64(listenWeight*s.Listens - skipWeight*s.Skips)
	} else {
		d := p.Dampen(s.Touches)
		raw = d*float64(s.Listens) - d*float64(s.Skips)
	}

	score := math.Max(raw, 0)
	if s.Loved {
		score *= p.LoveMultiplier
	}
	return score
}

// ConnectionWeight scales a base score by the strength of an observed
// transition. A count of zero leaves the score unchanged.
func (p Params) ConnectionWeight(base float64, count int) float64 {
	if count == 0 {
		return base
	}
	return base * (math.Log(float64(count)+1) / math.Log(p.DampenBase))
}
