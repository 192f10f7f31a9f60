package model

type Symbol uint8

const (
	Whole Symbol = iota
	Half
	DottedHalf
	Quarter
	DottedQuarter
	Eighth
	DottedEighth
	Sixteenth
	DottedSixteenth

	// NOTE: only used to pad measures, never produced by quantizing
	ThirtySecond
)

var symbolBeats = map[Symbol]float64{
	Whole:           4,
	Half:            2,
	DottedHalf:      3,
	Quarter:         1,
	DottedQuarter:   1.5,
	Eighth:          0.5,
	DottedEighth:    0.75,
	Sixteenth:       0.25,
	DottedSixteenth: 0.375,
	ThirtySecond:    0.125,
}

var symbolNames = map[Symbol]string{
	Whole:           "whole",
	Half:            "half",
	DottedHalf:      "dotted-half",
	Quarter:         "quarter",
	DottedQuarter:   "dotted-quarter",
	Eighth:          "eighth",
	DottedEighth:    "dotted-eighth",
	Sixteenth:       "sixteenth",
	DottedSixteenth: "dotted-sixteenth",
	ThirtySecond:    "thirty-second",
}

func (s Symbol) Beats() float64 {
	return symbolBeats[s]
}

func (s Symbol) String() string {
	return symbolNames[s]
}

type Pitch struct {
	Class  string
	Octave string
}

func (p Pitch) String() string {
	return p.Class + p.Octave
}

// PitchGroup is either a rest or a set of pitches sounding together.
type PitchGroup struct {
	Rest    bool
	Pitches []Pitch
}

func RestGroup() PitchGroup {
	return PitchGroup{Rest: true}
}

func NotesGroup(pitches ...Pitch) PitchGroup {
	return PitchGroup{Pitches: pitches}
}

type Group struct {
	Beat   float64
	Symbol Symbol
	PitchGroup
}

type Measure = []Group

func MeasureBeats(m Measure) float64 {
	var total float64
	for _, g := range m {
		total += g.Symbol.Beats()
	}
	return total
}

// RenderNote is what the staff renderer consumes.
type RenderNote struct {
	Pitches        []string `json:"pitches"`
	DurationSymbol string   `json:"durationSymbol"`
}

type RenderMeasure = []RenderNote
