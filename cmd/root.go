package cmd

import (
	"github.com/jsphweid/pitchcoach/constants"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "pitchcoach",
	Short: "Practice singing a melody in tune",
	Long: `pitchcoach reads a melody from a MIDI file, writes it out as 4/4 notation,
counts you in with a metronome while you record yourself singing it, and then
tells you which notes were sharp, flat or missing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return errors.Wrapf(err, "bad --log-level")
		}
		logrus.SetLevel(level)
		if logJSON {
			logrus.SetFormatter(&logrus.JSONFormatter{})
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", constants.GetLogLevel(), "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
