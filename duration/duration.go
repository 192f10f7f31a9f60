package duration

import (
	"math"

	"github.com/jsphweid/pitchcoach/constants"
	"github.com/jsphweid/pitchcoach/model"
)

// candidates in the order they are tried. Longer values come first so that a
// duration sitting in two tolerance bands resolves the same way every time.
var candidates = []model.Symbol{
	model.Whole,
	model.Half,
	model.DottedHalf,
	model.Quarter,
	model.DottedQuarter,
	model.Eighth,
	model.DottedEighth,
	model.Sixteenth,
	model.DottedSixteenth,
}

func Candidates() []model.Symbol {
	res := make([]model.Symbol, len(candidates))
	copy(res, candidates)
	return res
}

// Tolerance is the distance in seconds a duration has to stay under to
// match a symbol's length.
func Tolerance(bpm model.Tempo) float64 {
	return bpm.Quarter() * constants.DurationToleranceRatio
}

// Quantize maps a duration in seconds to the first candidate symbol within
// tolerance, falling back to a quarter.
func Quantize(seconds float64, bpm model.Tempo) model.Symbol {
	if bpm <= 0 {
		return model.Quarter
	}
	q := bpm.Quarter()
	tolerance := Tolerance(bpm)
	for _, s := range candidates {
		if math.Abs(seconds-s.Beats()*q) < tolerance {
			return s
		}
	}
	return model.Quarter
}
