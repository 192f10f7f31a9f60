package cmd

import (
	"fmt"

	"github.com/jsphweid/pitchcoach/duration"
	"github.com/jsphweid/pitchcoach/melody"
	"github.com/jsphweid/pitchcoach/midi"
	"github.com/jsphweid/pitchcoach/util"
	"github.com/spf13/cobra"
)

var inspectLimit int

func init() {
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 0, "print at most this many events (0 = all)")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Inspects a midi file",
	Long:  `Prints the tracks of a MIDI file and the melody events ingest picks out of it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(cmd, args[0])
	},
}

func inspect(cmd *cobra.Command, path string) error {
	w := cmd.OutOrStdout()
	parsed, err := midi.ReadMidiFile(path)
	if err != nil {
		return err
	}
	src := midi.ToSource(parsed)

	counts := make([]int, len(src.Tracks))
	for i, tr := range src.Tracks {
		counts[i] = len(tr.Notes)
		fmt.Fprintf(w, "track %d: %d notes\n", i, counts[i])
	}
	fmt.Fprintf(w, "%d notes in total, tempos: %v\n", util.Sum(counts), src.Tempos)

	m, err := melody.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "melody at %d bpm:\n", m.Tempo)

	n := len(m.Events)
	if inspectLimit > 0 {
		n = util.Min(n, inspectLimit)
	}
	for _, e := range m.Events[:n] {
		name := e.Pitch
		if e.IsRest() {
			name = "rest"
		}
		fmt.Fprintf(w, "  %-5s onset %7.3fs  length %6.3fs  %s\n",
			name, e.Onset, e.Duration, duration.Quantize(e.Duration, m.Tempo))
	}
	return nil
}
