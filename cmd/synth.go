package cmd

import (
	"os"

	"github.com/jsphweid/pitchcoach/audio"
	"github.com/jsphweid/pitchcoach/melody"
	"github.com/jsphweid/pitchcoach/midi"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	synthMidi      string
	synthOut       string
	synthMelodyOut string
	synthRate      int
	synthDetune    float64
	synthClick     bool
)

func init() {
	synthCmd.Flags().StringVar(&synthMidi, "midi", "", "melody to render (.mid)")
	synthCmd.Flags().StringVar(&synthOut, "out", "take.wav", "where to write the take")
	synthCmd.Flags().StringVar(&synthMelodyOut, "melody-out", "", "also write the ingested melody line as a .mid")
	synthCmd.Flags().IntVar(&synthRate, "rate", 44100, "sample rate")
	synthCmd.Flags().Float64Var(&synthDetune, "detune", 0, "shift every note by this many cents")
	synthCmd.Flags().BoolVar(&synthClick, "click", false, "mix in metronome clicks")
	_ = synthCmd.MarkFlagRequired("midi")
	rootCmd.AddCommand(synthCmd)
}

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Renders a melody as a sung-sounding take",
	Long:  `Renders the melody of a MIDI file as sine tones into a WAV file, for trying out analyze without singing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := melody.Load(synthMidi)
		if err != nil {
			return err
		}
		if m.Empty() {
			return errors.Errorf("%s has no melody to render", synthMidi)
		}

		samples := audio.RenderMelody(m, audio.RenderOptions{
			SampleRate:     synthRate,
			Amplitude:      0.5,
			DetuneCents:    synthDetune,
			ClickAmplitude: clickAmplitude(synthClick),
			TailSeconds:    0.5,
		})
		if err := writeTake(synthOut, samples, synthRate); err != nil {
			return err
		}
		logrus.Infof("wrote %s", synthOut)

		if synthMelodyOut == "" {
			return nil
		}
		f, err := os.Create(synthMelodyOut)
		if err != nil {
			return errors.Wrap(err, "could not create melody file")
		}
		defer f.Close()
		return midi.WriteMelody(f, m)
	},
}

func clickAmplitude(on bool) float64 {
	if on {
		return 0.3
	}
	return 0
}

func writeTake(path string, samples []float64, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create take")
	}
	if err := audio.Encode(f, samples, rate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
