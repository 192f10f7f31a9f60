package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jsphweid/pitchcoach/constants"
	"github.com/jsphweid/pitchcoach/melody"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/jsphweid/pitchcoach/notation"
	"github.com/jsphweid/pitchcoach/util"
	"github.com/spf13/cobra"
)

var (
	notateJSON bool
	notateMax  int
)

func init() {
	notateCmd.Flags().BoolVar(&notateJSON, "json", false, "print the measures as JSON")
	notateCmd.Flags().IntVar(&notateMax, "max", 0, "maximum number of files to read from a directory (0 = all)")
	rootCmd.AddCommand(notateCmd)
}

var notateCmd = &cobra.Command{
	Use:   "notate <file.mid|dir>",
	Short: "Prints a melody as 4/4 notation",
	Long:  `Ingests one MIDI file, or every MIDI file under a directory, and prints the melody as measures of 4/4 notation.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := midiPaths(args[0], notateMax)
		if err != nil {
			return err
		}
		for _, path := range paths {
			m, err := melody.Load(path)
			if err != nil {
				return err
			}
			if err := printNotation(cmd.OutOrStdout(), m); err != nil {
				return err
			}
		}
		return nil
	},
}

func midiPaths(path string, maxNum int) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return util.GatherAllMidiPaths(path, maxNum)
}

func melodyResponse(m model.Melody) model.MelodyResponse {
	return model.MelodyResponse{
		Name:     m.Name,
		Bpm:      int(m.Tempo),
		Notes:    m.NoteCount(),
		Measures: notation.Render(notation.Assemble(m)),
	}
}

func printNotation(w io.Writer, m model.Melody) error {
	if notateJSON {
		return json.NewEncoder(w).Encode(melodyResponse(m))
	}

	if m.Empty() {
		fmt.Fprintf(w, "%s: no melody found\n", m.Name)
		return nil
	}
	fmt.Fprintf(w, "%s (%d bpm, %d notes)\n", m.Name, m.Tempo, m.NoteCount())
	for i, line := range notation.Lines(notation.Assemble(m), constants.MeasuresPerLine) {
		var measures []string
		for _, measure := range line {
			var groups []string
			for _, g := range measure {
				name := "r"
				if !g.Rest {
					var pitches []string
					for _, p := range g.Pitches {
						pitches = append(pitches, p.String())
					}
					name = strings.Join(pitches, "+")
				}
				groups = append(groups, name+"/"+notation.RenderSymbol(g))
			}
			measures = append(measures, strings.Join(groups, " "))
		}
		fmt.Fprintf(w, "%3d | %s |\n", i+1, strings.Join(measures, " | "))
	}
	return nil
}
