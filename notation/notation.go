package notation

import (
	"math"
	"sort"
	"strings"

	"github.com/jsphweid/pitchcoach/constants"
	"github.com/jsphweid/pitchcoach/duration"
	"github.com/jsphweid/pitchcoach/model"
)

// BeatOf returns the onset in beats from the start, snapped to the
// quarter-beat grid.
func BeatOf(onset float64, bpm model.Tempo) float64 {
	beats := onset / bpm.Quarter()
	return math.Round(beats/constants.BeatGrid) * constants.BeatGrid
}

// SplitPitch turns "C#4" into ("c#", "4").
func SplitPitch(name string) model.Pitch {
	if name == "" {
		return model.Pitch{}
	}
	return model.Pitch{
		Class:  strings.ToLower(name[:len(name)-1]),
		Octave: name[len(name)-1:],
	}
}

// Group collects events whose onsets snap to the same beat. The first event
// of a group decides whether it is a rest and what its duration is.
func Group(m model.Melody) []model.Group {
	if m.Empty() {
		return nil
	}

	byBeat := make(map[float64][]model.RawEvent)
	var beats []float64
	for _, e := range m.Events {
		b := BeatOf(e.Onset, m.Tempo)
		if _, ok := byBeat[b]; !ok {
			beats = append(beats, b)
		}
		byBeat[b] = append(byBeat[b], e)
	}
	sort.Float64s(beats)

	res := make([]model.Group, 0, len(beats))
	for _, b := range beats {
		events := byBeat[b]
		first := events[0]
		g := model.Group{Beat: b, Symbol: duration.Quantize(first.Duration, m.Tempo)}
		if first.IsRest() {
			g.PitchGroup = model.RestGroup()
		} else {
			var pitches []model.Pitch
			for _, e := range events {
				if !e.IsRest() {
					pitches = append(pitches, SplitPitch(e.Pitch))
				}
			}
			g.PitchGroup = model.NotesGroup(pitches...)
		}
		res = append(res, g)
	}
	return res
}

// padding rests, largest first
var restFill = []model.Symbol{
	model.Whole,
	model.Half,
	model.Quarter,
	model.Eighth,
	model.Sixteenth,
	model.ThirtySecond,
}

// padRests fills the rest of a measure that already holds total beats.
func padRests(beat, total float64) []model.Group {
	var res []model.Group
	for total < constants.BeatsPerMeasure {
		remaining := constants.BeatsPerMeasure - total
		symbol := restFill[len(restFill)-1]
		for _, s := range restFill {
			if remaining >= s.Beats() {
				symbol = s
				break
			}
		}
		res = append(res, model.Group{Beat: beat + total, Symbol: symbol, PitchGroup: model.RestGroup()})
		total += symbol.Beats()
	}
	return res
}

// Pack lays groups out into 4/4 measures. Before a group would overflow a
// measure, the measure is closed off with rests; the last one is padded the
// same way.
func Pack(groups []model.Group) []model.Measure {
	var measures []model.Measure
	var current model.Measure
	var total float64
	start := 0.0

	for _, g := range groups {
		beats := g.Symbol.Beats()
		if total+beats > constants.BeatsPerMeasure {
			current = append(current, padRests(start, total)...)
			measures = append(measures, current)
			current = nil
			total = 0
			start += constants.BeatsPerMeasure
		}
		current = append(current, g)
		total += beats
	}

	if len(current) > 0 {
		current = append(current, padRests(start, total)...)
		measures = append(measures, current)
	}
	return measures
}

func Assemble(m model.Melody) []model.Measure {
	return Pack(Group(m))
}

func RenderSymbol(g model.Group) string {
	if g.Rest {
		return g.Symbol.String() + "-rest"
	}
	return g.Symbol.String()
}

// Render converts measures into what the staff renderer consumes.
func Render(measures []model.Measure) []model.RenderMeasure {
	res := make([]model.RenderMeasure, 0, len(measures))
	for _, m := range measures {
		rm := make(model.RenderMeasure, 0, len(m))
		for _, g := range m {
			pitches := make([]string, 0, len(g.Pitches))
			for _, p := range g.Pitches {
				pitches = append(pitches, p.String())
			}
			rm = append(rm, model.RenderNote{Pitches: pitches, DurationSymbol: RenderSymbol(g)})
		}
		res = append(res, rm)
	}
	return res
}

// Lines splits measures into staff lines of perLine measures each.
func Lines(measures []model.Measure, perLine int) [][]model.Measure {
	if perLine <= 0 {
		perLine = constants.MeasuresPerLine
	}
	var res [][]model.Measure
	for i := 0; i < len(measures); i += perLine {
		end := i + perLine
		if end > len(measures) {
			end = len(measures)
		}
		res = append(res, measures[i:end])
	}
	return res
}
