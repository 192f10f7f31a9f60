package pitch

import (
	"math"
	"math/rand"
	"testing"

	"github.com/jsphweid/pitchcoach/audio"
	"github.com/jsphweid/pitchcoach/constants"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/stretchr/testify/assert"
)

const rate = 44100

func TestJudgeCentsBoundary(t *testing.T) {
	expected := KeyFrequency(60)
	assert := assert.New(t)

	c, cents := Judge(expected, expected)
	assert.Equal(model.InTune, c)
	assert.Equal(0.0, cents)

	c, cents = Judge(expected*math.Pow(2, 81.0/1200), expected)
	assert.Equal(model.Sharp, c)
	assert.InDelta(81, cents, 1e-6)

	c, cents = Judge(expected*math.Pow(2, 79.0/1200), expected)
	assert.Equal(model.InTune, c)
	assert.Equal(0.0, cents)

	c, cents = Judge(expected*math.Pow(2, -120.0/1200), expected)
	assert.Equal(model.Flat, c)
	assert.InDelta(-120, cents, 1e-6)
}

func TestJudgeRejectsMetronomeBleed(t *testing.T) {
	assert := assert.New(t)
	for f := 345.0; f <= 405; f += 2.5 {
		// even when the sung note really is near the click
		c, _ := Judge(f, f)
		assert.Equal(model.NoPitch, c, "%.1f Hz", f)
	}
	c, _ := Judge(344, 344)
	assert.Equal(model.InTune, c)
	c, _ = Judge(406, 406)
	assert.Equal(model.InTune, c)
}

func TestJudgeWithoutDetection(t *testing.T) {
	c, _ := Judge(0, 440)
	assert.Equal(t, model.NoPitch, c)
}

func TestExpectedFrequency(t *testing.T) {
	assert := assert.New(t)
	f, err := ExpectedFrequency("A4")
	assert.NoError(err)
	assert.Equal(440.0, f)

	f, err = ExpectedFrequency("C4")
	assert.NoError(err)
	assert.InDelta(261.63, f, 0.01)

	_, err = ExpectedFrequency("H2")
	assert.Error(err)
}

func TestMcLeodFindsSine(t *testing.T) {
	assert := assert.New(t)
	d := NewMcLeod()
	for _, f := range []float64{130.81, 261.63, 440, 987.77} {
		freq, clarity := d.Find(audio.Sine(f, 0.2, rate, 0.5)[:constants.WindowSize], rate)
		assert.InDelta(f, freq, 1, "%.2f Hz", f)
		assert.Greater(clarity, 0.9)
	}
}

func TestMcLeodNoiseIsUnclear(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	noise := make([]float64, constants.WindowSize)
	for i := range noise {
		noise[i] = r.Float64()*2 - 1
	}
	_, clarity := NewMcLeod().Find(noise, rate)
	assert.Less(t, clarity, constants.MinClarity)
}

func TestMcLeodSilence(t *testing.T) {
	freq, clarity := NewMcLeod().Find(make([]float64, constants.WindowSize), rate)
	assert := assert.New(t)
	assert.Equal(0.0, freq)
	assert.Equal(0.0, clarity)
}

func TestHighPassRemovesOffset(t *testing.T) {
	dc := make([]float64, 2000)
	for i := range dc {
		dc[i] = 0.7
	}
	y := HighPass(dc, constants.HighPassCoefficient)

	assert := assert.New(t)
	assert.Equal(0.0, y[0])
	assert.Less(RMS(y), 1e-9)
	assert.Equal(0.0, RMS(nil))
	assert.InDelta(0.5/math.Sqrt2, RMS(audio.Sine(441, 1, rate, 0.5)), 1e-3)
}

func TestWindowPadsPastEnd(t *testing.T) {
	w := window([]float64{1, 2, 3}, 1, 4)
	assert.Equal(t, []float64{2, 3, 0, 0}, w)
	assert.Equal(t, []float64{0, 0}, window([]float64{1}, 5, 2))
}

func melodyOf(bpm model.Tempo, names ...string) model.Melody {
	m := model.Melody{Name: "test", Tempo: bpm}
	q := bpm.Quarter()
	for i, n := range names {
		if n == "" {
			m.Events = append(m.Events, model.NewRest(float64(i)*q, q))
			continue
		}
		m.Events = append(m.Events, model.NewNote(n, 0, float64(i)*q, q, 0.8))
	}
	return m
}

func take(m model.Melody, detune float64) *model.CapturedAudio {
	return &model.CapturedAudio{
		Samples:    audio.RenderMelody(m, audio.RenderOptions{SampleRate: rate, Amplitude: 0.5, DetuneCents: detune}),
		SampleRate: rate,
	}
}

func TestAnalyzeInTuneTake(t *testing.T) {
	m := melodyOf(120, "C4", "", "E4", "A4")
	entries := Analyze(m, take(m, 0))

	assert := assert.New(t)
	assert.Len(entries, 3)
	for _, e := range entries {
		assert.Equal(model.InTune, e.Classification, e.Pitch)
	}
	assert.Equal([]int{0, 2, 3}, []int{entries[0].EventIndex, entries[1].EventIndex, entries[2].EventIndex})
	assert.InDelta(KeyFrequency(64), entries[1].Frequency, 2)
}

func TestAnalyzeDetunedTake(t *testing.T) {
	m := melodyOf(120, "C4", "D4")
	assert := assert.New(t)

	sharp := Analyze(m, take(m, 110))
	assert.Equal(model.Sharp, sharp[0].Classification)
	assert.InDelta(110, sharp[0].Cents, 5)

	flat := Analyze(m, take(m, -110))
	assert.Equal(model.Flat, flat[1].Classification)
	assert.InDelta(-110, flat[1].Cents, 5)
}

func TestAnalyzeSilentTake(t *testing.T) {
	m := melodyOf(120, "C4", "D4")
	silent := &model.CapturedAudio{Samples: make([]float64, rate*2), SampleRate: rate}
	entries := Analyze(m, silent)

	assert := assert.New(t)
	assert.Len(entries, 2)
	for _, e := range entries {
		assert.Equal(model.NoPitch, e.Classification)
		assert.Equal(0.0, e.Cents)
	}
}

func TestAnalyzeWindowPastEndOfTake(t *testing.T) {
	m := melodyOf(120, "C4", "D4", "E4")
	a := take(m, 0)
	// cut the take off halfway through the second note
	a.Samples = a.Samples[:int(0.75*rate)]
	entries := Analyze(m, a)

	assert := assert.New(t)
	assert.Len(entries, 3)
	assert.Equal(model.InTune, entries[0].Classification)
	assert.Equal(model.NoPitch, entries[2].Classification)
}

func TestAnalyzeNothing(t *testing.T) {
	assert := assert.New(t)
	assert.Empty(Analyze(model.Melody{}, &model.CapturedAudio{SampleRate: rate}))
	assert.Empty(Analyze(melodyOf(120, "C4"), nil))
}

func TestPosition(t *testing.T) {
	assert := assert.New(t)
	measure, beat := Position(0, 120)
	assert.Equal(0, measure)
	assert.Equal(0.0, beat)

	measure, beat = Position(2.75, 120)
	assert.Equal(1, measure)
	assert.InDelta(1.5, beat, 1e-9)

	measure, beat = Position(8, 60)
	assert.Equal(2, measure)
	assert.InDelta(0, beat, 1e-9)
}

func TestReport(t *testing.T) {
	entries := []model.Entry{
		{Pitch: "C4", MeasureIndex: 0, Beat: 0, Classification: model.InTune},
		{Pitch: "D4", MeasureIndex: 1, Beat: 1.5, Classification: model.Sharp, Cents: 93.4},
		{Pitch: "E4", MeasureIndex: 4, Beat: 2, Classification: model.Flat, Cents: -120},
		{Pitch: "F4", MeasureIndex: 5, Beat: 3, Classification: model.NoPitch},
	}
	assert.Equal(t, []string{
		"At line 1 Measure 2, Beat 1.5: D4 was 93 cents sharp",
		"At line 1 Measure 1, Beat 2.0: E4 was 120 cents flat",
		"At line 2 Measure 2, Beat 3.0: no pitch detected (expected F4)",
	}, Report(entries))
}

func TestReportAllInTune(t *testing.T) {
	assert.Empty(t, Report([]model.Entry{{Pitch: "C4", Classification: model.InTune}}))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]model.Entry{
		{Classification: model.InTune},
		{Classification: model.InTune},
		{Classification: model.Sharp},
		{Classification: model.NoPitch},
	})

	assert := assert.New(t)
	assert.Equal(map[string]int{"in-tune": 2, "sharp": 1, "flat": 0, "no-pitch": 1}, s.Counts)
	assert.Equal(50.0, s.InTunePercent)
	assert.Equal(0.0, Summarize(nil).InTunePercent)
}
