package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/jsphweid/pitchcoach/audio"
	"github.com/jsphweid/pitchcoach/constants"
	"github.com/jsphweid/pitchcoach/db"
	"github.com/jsphweid/pitchcoach/melody"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/jsphweid/pitchcoach/pitch"
	"github.com/jsphweid/pitchcoach/session"
	"github.com/jsphweid/pitchcoach/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	analyzeMidi string
	analyzeTake string
	analyzeSave bool
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeMidi, "midi", "", "melody to sing (.mid)")
	analyzeCmd.Flags().StringVar(&analyzeTake, "take", "", "recorded take (.wav)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "save the result to the practice history")
	_ = analyzeCmd.MarkFlagRequired("midi")
	_ = analyzeCmd.MarkFlagRequired("take")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Scores a recorded take against a melody",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := melody.Load(analyzeMidi)
		if err != nil {
			return err
		}
		f, err := os.Open(analyzeTake)
		if err != nil {
			return errors.Wrap(err, "could not open take")
		}
		defer f.Close()
		take, err := audio.Decode(f)
		if err != nil {
			return err
		}

		s := session.New(session.Options{})
		defer s.Close()
		if err := s.Load(m); err != nil {
			return err
		}
		if m.Empty() {
			return errors.Errorf("%s has no melody to sing", analyzeMidi)
		}
		if err := s.Import(take); err != nil {
			return err
		}
		res, err := s.Analyze()
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), res)

		if analyzeSave {
			return saveRecord(cmd.Context(), res)
		}
		return nil
	},
}

var (
	inTuneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	sharpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	flatStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5F87FF"))
	noPitchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	headerStyle  = lipgloss.NewStyle().Width(10).Align(lipgloss.Left)
)

func styleFor(c model.Classification) lipgloss.Style {
	switch c {
	case model.InTune:
		return inTuneStyle
	case model.Sharp:
		return sharpStyle
	case model.Flat:
		return flatStyle
	}
	return noPitchStyle
}

func printReport(w io.Writer, res session.Result) {
	for _, e := range res.Entries {
		if e.Classification == model.InTune {
			continue
		}
		fmt.Fprintln(w, styleFor(e.Classification).Render(pitch.Report([]model.Entry{e})[0]))
	}

	summary := pitch.Summarize(res.Entries)
	for _, name := range util.SortedKeys(summary.Counts) {
		fmt.Fprintf(w, "%s %d\n", headerStyle.Render(name), summary.Counts[name])
	}
	fmt.Fprintln(w, inTuneStyle.Render(fmt.Sprintf("%.0f%% in tune", summary.InTunePercent)))
}

func newRecord(res session.Result) model.PracticeRecord {
	return model.PracticeRecord{
		ID:         uuid.New().String(),
		MelodyName: res.Snapshot.Melody.Name,
		Bpm:        int(res.Snapshot.Melody.Tempo),
		TakenAt:    time.Now().UTC(),
		Counts:     pitch.Summarize(res.Entries).Counts,
		Lines:      res.Report,
	}
}

func saveRecord(ctx context.Context, res session.Result) error {
	store, err := db.Open(constants.GetHistoryTable(), constants.GetDynamoEndpoint(), constants.GetDynamoRegion())
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return store.Save(ctx, newRecord(res))
}
