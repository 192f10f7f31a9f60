package pitch

import (
	"fmt"
	"math"

	"github.com/jsphweid/pitchcoach/constants"
	"github.com/jsphweid/pitchcoach/model"
)

// Report returns one line per note that was not sung in tune.
func Report(entries []model.Entry) []string {
	var res []string
	for _, e := range entries {
		if e.Classification == model.InTune {
			continue
		}
		res = append(res, fmt.Sprintf("At line %d Measure %d, Beat %.1f: %s",
			lineOf(e.MeasureIndex), e.MeasureIndex%constants.MeasuresPerLine+1, e.Beat, message(e)))
	}
	return res
}

// lineOf is ceil(measureIndex / measures per line).
func lineOf(measureIndex int) int {
	return (measureIndex + constants.MeasuresPerLine - 1) / constants.MeasuresPerLine
}

func message(e model.Entry) string {
	switch e.Classification {
	case model.Sharp, model.Flat:
		return fmt.Sprintf("%s was %.0f cents %s", e.Pitch, math.Abs(e.Cents), e.Classification)
	}
	return fmt.Sprintf("no pitch detected (expected %s)", e.Pitch)
}

type Summary struct {
	Counts        map[string]int `json:"counts"`
	InTunePercent float64        `json:"inTunePercent"`
}

func Summarize(entries []model.Entry) Summary {
	s := Summary{Counts: map[string]int{}}
	for _, c := range []model.Classification{model.InTune, model.Sharp, model.Flat, model.NoPitch} {
		s.Counts[c.String()] = 0
	}
	for _, e := range entries {
		s.Counts[e.Classification.String()]++
	}
	if len(entries) > 0 {
		s.InTunePercent = 100 * float64(s.Counts[model.InTune.String()]) / float64(len(entries))
	}
	return s
}
