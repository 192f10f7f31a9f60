package notation

import (
	"math/rand"
	"testing"

	"github.com/jsphweid/pitchcoach/duration"
	"github.com/jsphweid/pitchcoach/melody"
	"github.com/jsphweid/pitchcoach/midi"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noteAt(key uint8, onset, dur float64) model.RawEvent {
	return model.NewNote(midi.NoteName(key), key, onset, dur, 0.8)
}

func TestSplitPitch(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(model.Pitch{Class: "c#", Octave: "4"}, SplitPitch("C#4"))
	assert.Equal(model.Pitch{Class: "a", Octave: "3"}, SplitPitch("A3"))
	assert.Equal("bb5", SplitPitch("Bb5").String())
}

func TestSingleQuarterEndToEnd(t *testing.T) {
	src := model.Source{
		Tracks: []model.SourceTrack{{Notes: []model.SourceNote{{Name: "C4", Key: 60, Onset: 0, Duration: 0.5, Velocity: 0.8}}}},
		Tempos: []float64{120},
	}
	m, err := melody.Ingest(src, "one note")
	require.NoError(t, err)
	require.Len(t, m.Events, 1)
	assert.Equal(t, model.Quarter, duration.Quantize(m.Events[0].Duration, m.Tempo))

	rendered := Render(Assemble(m))
	assert.Equal(t, []model.RenderMeasure{{
		{Pitches: []string{"c4"}, DurationSymbol: "quarter"},
		{Pitches: []string{}, DurationSymbol: "half-rest"},
		{Pitches: []string{}, DurationSymbol: "quarter-rest"},
	}}, rendered)
}

func TestGroupsEventsOnTheSameBeat(t *testing.T) {
	m := model.Melody{Tempo: 120, Events: []model.RawEvent{
		noteAt(60, 0, 0.5),
		// 0.02s late still snaps to beat 0
		noteAt(64, 0.02, 0.5),
		noteAt(67, 0.5, 1),
	}}
	groups := Group(m)

	assert := assert.New(t)
	assert.Len(groups, 2)
	assert.Equal([]model.Pitch{{Class: "c", Octave: "4"}, {Class: "e", Octave: "4"}}, groups[0].Pitches)
	assert.Equal(model.Quarter, groups[0].Symbol)
	assert.Equal(1.0, groups[1].Beat)
	assert.Equal(model.Half, groups[1].Symbol)
}

func TestRestGroupUsesRestDuration(t *testing.T) {
	m := model.Melody{Tempo: 60, Events: []model.RawEvent{
		noteAt(60, 0, 1),
		model.NewRest(1, 2),
		noteAt(62, 3, 1),
	}}
	groups := Group(m)

	assert := assert.New(t)
	assert.Len(groups, 3)
	assert.True(groups[1].Rest)
	assert.Empty(groups[1].Pitches)
	assert.Equal(model.Half, groups[1].Symbol)
	assert.Equal("half-rest", RenderSymbol(groups[1]))
}

func TestGroupsAreOrderedByBeat(t *testing.T) {
	m := model.Melody{Tempo: 60, Events: []model.RawEvent{
		noteAt(60, 0, 0.5),
		noteAt(62, 0.5, 0.5),
		noteAt(64, 1, 0.25),
		noteAt(65, 1.25, 0.75),
		noteAt(67, 2, 1),
	}}
	groups := Group(m)
	var beats []float64
	for _, g := range groups {
		beats = append(beats, g.Beat)
	}
	assert.Equal(t, []float64{0, 0.5, 1, 1.25, 2}, beats)
}

func TestPackSplitsOnOverflow(t *testing.T) {
	groups := []model.Group{
		{Symbol: model.Half, PitchGroup: model.NotesGroup(SplitPitch("C4"))},
		{Symbol: model.DottedQuarter, PitchGroup: model.NotesGroup(SplitPitch("D4"))},
		// 3.5 beats so far, a quarter does not fit
		{Symbol: model.Quarter, PitchGroup: model.NotesGroup(SplitPitch("E4"))},
	}
	measures := Pack(groups)

	assert := assert.New(t)
	assert.Len(measures, 2)
	assert.Equal(model.Eighth, measures[0][2].Symbol)
	assert.True(measures[0][2].Rest)
	assert.Equal(model.Quarter, measures[1][0].Symbol)
	assert.Equal(model.Half, measures[1][1].Symbol)
	assert.Equal(model.Quarter, measures[1][2].Symbol)
	for _, m := range measures {
		assert.Equal(4.0, model.MeasureBeats(m))
	}
}

func TestPadsOddThirtySecondRemainder(t *testing.T) {
	// 3.875 beats leave 1/8 of a beat that no standard rest fits
	groups := []model.Group{
		{Symbol: model.DottedHalf},
		{Symbol: model.Eighth},
		{Symbol: model.DottedSixteenth},
	}
	measures := Pack(groups)
	assert.Len(t, measures, 1)
	assert.Equal(t, 4.0, model.MeasureBeats(measures[0]))
	assert.Equal(t, model.ThirtySecond, measures[0][len(measures[0])-1].Symbol)
}

func TestEmptyMelodyAssemblesToNothing(t *testing.T) {
	assert.Empty(t, Assemble(model.Melody{}))
	assert.Empty(t, Render(nil))
}

func TestEveryMeasureSumsToFour(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	lengths := []float64{4, 2, 3, 1, 1.5, 0.5, 0.75, 0.25, 0.375, 0.3, 0.9, 2.2}

	for trial := 0; trial < 200; trial++ {
		bpm := model.Tempo(60 + r.Intn(120))
		q := bpm.Quarter()
		var events []model.RawEvent
		onset := 0.0
		for i := 0; i < 5+r.Intn(30); i++ {
			d := lengths[r.Intn(len(lengths))] * q
			if r.Intn(5) == 0 {
				events = append(events, model.NewRest(onset, d))
			} else {
				events = append(events, noteAt(uint8(55+r.Intn(20)), onset, d))
			}
			onset += d
		}
		measures := Assemble(model.Melody{Tempo: bpm, Events: events})
		require.NotEmpty(t, measures)
		for i, m := range measures {
			assert.Equal(t, 4.0, model.MeasureBeats(m), "trial %d measure %d", trial, i)
		}
	}
}

func TestLines(t *testing.T) {
	measures := make([]model.Measure, 9)
	lines := Lines(measures, 4)
	assert := assert.New(t)
	assert.Len(lines, 3)
	assert.Len(lines[0], 4)
	assert.Len(lines[2], 1)
	assert.Len(Lines(measures, 0), 3)
}
