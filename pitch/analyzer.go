package pitch

import (
	"math"

	"github.com/jsphweid/pitchcoach/constants"
	"github.com/jsphweid/pitchcoach/midi"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/sirupsen/logrus"
)

type Analyzer struct {
	Detector Detector
}

func New() *Analyzer {
	return &Analyzer{Detector: NewMcLeod()}
}

// Analyze judges every note of m against the captured take, in onset order.
func Analyze(m model.Melody, a *model.CapturedAudio) []model.Entry {
	return New().Analyze(m, a)
}

func (an *Analyzer) Analyze(m model.Melody, a *model.CapturedAudio) []model.Entry {
	if m.Empty() || a == nil || a.SampleRate <= 0 {
		return nil
	}

	var res []model.Entry
	for i, e := range m.Events {
		if e.IsRest() {
			continue
		}
		entry := an.judgeNote(e, m.Tempo, a)
		entry.EventIndex = i
		res = append(res, entry)
	}

	logrus.WithFields(logrus.Fields{
		"melody": m.Name,
		"notes":  len(res),
	}).Debug("analyzed take")
	return res
}

func (an *Analyzer) judgeNote(e model.RawEvent, bpm model.Tempo, a *model.CapturedAudio) model.Entry {
	measure, beat := Position(e.Onset, bpm)
	entry := model.Entry{
		Pitch:          e.Pitch,
		Onset:          e.Onset,
		MeasureIndex:   measure,
		Beat:           beat,
		Classification: model.NoPitch,
	}

	startSec := e.Onset + constants.AttackSkipRatio*e.Duration + constants.AttackLeewaySec
	start := int(startSec * float64(a.SampleRate))
	if start >= len(a.Samples) {
		return entry
	}

	filtered := HighPass(window(a.Samples, start, constants.WindowSize), constants.HighPassCoefficient)
	if RMS(filtered) < constants.MinRMS {
		return entry
	}

	freq, clarity := an.Detector.Find(filtered, a.SampleRate)
	entry.Frequency = freq
	entry.Clarity = clarity
	if freq <= 0 || clarity < constants.MinClarity {
		return entry
	}

	expected, err := ExpectedFrequency(e.Pitch)
	if err != nil {
		logrus.Debugf("cannot judge %q: %v", e.Pitch, err)
		return entry
	}
	entry.Classification, entry.Cents = Judge(freq, expected)
	return entry
}

// Position maps an onset to a measure index and a beat within that measure.
func Position(onset float64, bpm model.Tempo) (int, float64) {
	beats := onset / bpm.Quarter()
	measure := math.Floor(beats / constants.BeatsPerMeasure)
	return int(measure), math.Mod(beats, constants.BeatsPerMeasure)
}

// ExpectedFrequency is the 12-TET frequency of a note name, A4 = 440 Hz.
func ExpectedFrequency(name string) (float64, error) {
	key, err := midi.ParseNoteName(name)
	if err != nil {
		return 0, err
	}
	return KeyFrequency(key), nil
}

func KeyFrequency(key int) float64 {
	return constants.A4Frequency * math.Pow(2, float64(key-constants.A4Key)/12)
}

func Cents(detected, expected float64) float64 {
	return 1200 * math.Log2(detected/expected)
}

// IsClickBleed reports whether freq is the metronome click leaking into the
// take rather than the singer.
func IsClickBleed(freq float64) bool {
	return math.Abs(freq-constants.ClickFrequency) <= constants.ClickRejectionHz
}

// Judge classifies a detected frequency against the expected one. Cents is
// zero unless the result is Sharp or Flat.
func Judge(detected, expected float64) (model.Classification, float64) {
	if detected <= 0 || expected <= 0 || IsClickBleed(detected) {
		return model.NoPitch, 0
	}
	cents := Cents(detected, expected)
	switch {
	case cents > constants.InTuneCents:
		return model.Sharp, cents
	case cents < -constants.InTuneCents:
		return model.Flat, cents
	}
	return model.InTune, 0
}
