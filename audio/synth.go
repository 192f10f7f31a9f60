package audio

import (
	"math"

	"github.com/jsphweid/pitchcoach/constants"
	"github.com/jsphweid/pitchcoach/midi"
	"github.com/jsphweid/pitchcoach/model"
)

const clickSeconds = 0.02

func Sine(freq, seconds float64, sampleRate int, amplitude float64) []float64 {
	n := int(seconds * float64(sampleRate))
	res := make([]float64, n)
	for i := range res {
		res[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return res
}

// Click is the metronome tick: a short sine burst at the click frequency.
func Click(sampleRate int, amplitude float64) []float64 {
	return Sine(constants.ClickFrequency, clickSeconds, sampleRate, amplitude)
}

// Mix adds src into dst starting at sample offset, clipping at the end of dst.
func Mix(dst, src []float64, offset int) {
	for i, v := range src {
		j := offset + i
		if j < 0 {
			continue
		}
		if j >= len(dst) {
			return
		}
		dst[j] += v
	}
}

type RenderOptions struct {
	SampleRate int
	Amplitude  float64
	// DetuneCents shifts every note
	DetuneCents float64
	// ClickAmplitude mixes a metronome tick on every beat when > 0
	ClickAmplitude float64
	// TailSeconds of silence after the last event
	TailSeconds float64
}

// RenderMelody synthesizes a take of m sung as pure sines.
func RenderMelody(m model.Melody, opts RenderOptions) []float64 {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if m.Empty() {
		return nil
	}
	last := m.Events[len(m.Events)-1]
	total := int((last.End() + opts.TailSeconds) * float64(opts.SampleRate))
	res := make([]float64, total)

	detune := math.Pow(2, opts.DetuneCents/1200)
	for _, e := range m.Events {
		if e.IsRest() {
			continue
		}
		key, err := midi.ParseNoteName(e.Pitch)
		if err != nil {
			continue
		}
		freq := constants.A4Frequency * math.Pow(2, float64(key-constants.A4Key)/12) * detune
		Mix(res, Sine(freq, e.Duration, opts.SampleRate, opts.Amplitude), int(e.Onset*float64(opts.SampleRate)))
	}

	if opts.ClickAmplitude > 0 && m.Tempo > 0 {
		click := Click(opts.SampleRate, opts.ClickAmplitude)
		for t := 0.0; t < last.End(); t += m.Tempo.Quarter() {
			Mix(res, click, int(t*float64(opts.SampleRate)))
		}
	}
	return res
}
