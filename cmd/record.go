package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jsphweid/pitchcoach/audio"
	"github.com/jsphweid/pitchcoach/cue"
	"github.com/jsphweid/pitchcoach/melody"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/jsphweid/pitchcoach/session"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

var (
	recordMidi    string
	recordPort    int
	recordSeconds float64
	recordSave    bool
)

func init() {
	recordCmd.Flags().StringVar(&recordMidi, "midi", "", "melody to sing (.mid)")
	recordCmd.Flags().IntVar(&recordPort, "port", -1, "MIDI out port for the click and reference pitch (-1 = only log them)")
	recordCmd.Flags().Float64Var(&recordSeconds, "seconds", 0, "stop after this many seconds of recording (0 = melody length + 1s)")
	recordCmd.Flags().BoolVar(&recordSave, "save", false, "save the result to the practice history")
	_ = recordCmd.MarkFlagRequired("midi")
	rootCmd.AddCommand(recordCmd)
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Counts in, records a take from stdin and scores it",
	Long: `Runs a recording session. After a four-beat count-in (the first beat also
sounds the starting pitch) the WAV stream on stdin is recorded until the
melody is over, --seconds pass, or you press Ctrl-C. For example:

  arecord -f S16_LE -r 44100 -c 1 -t wav - | pitchcoach record --midi tune.mid`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := melody.Load(recordMidi)
		if err != nil {
			return err
		}
		if m.Empty() {
			return errors.Errorf("%s has no melody to sing", recordMidi)
		}

		c, closeCue, err := openCue(recordPort)
		if err != nil {
			return err
		}
		defer closeCue()

		started := newTakeStarted()
		s := session.New(session.Options{
			Capture:  audio.NewStreamCapture(),
			Cue:      c,
			Observer: started,
		})
		defer s.Close()
		if err := s.Load(m); err != nil {
			return err
		}

		go pipeTake(os.Stdin, s, started.ch)

		if err := s.Start(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case <-started.ch:
		case <-ctx.Done():
			return s.Stop()
		}
		if failure := s.Status().Failure; failure != nil {
			return failure
		}

		seconds := recordSeconds
		if seconds <= 0 {
			last := m.Events[len(m.Events)-1]
			seconds = last.End() + 1
		}
		select {
		case <-time.After(time.Duration(seconds * float64(time.Second))):
		case <-ctx.Done():
		}

		if err := s.Stop(); err != nil {
			return err
		}
		res, err := s.Analyze()
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), res)
		if recordSave {
			return saveRecord(cmd.Context(), res)
		}
		return nil
	},
}

// openCue sends cues to a MIDI out port, or only logs them when port is
// negative.
func openCue(port int) (session.Cue, func(), error) {
	if port < 0 {
		return cue.Log{}, func() {}, nil
	}
	out, err := midi.OutPort(port)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "can't find MIDI out port %d", port)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, nil, errors.Wrap(err, "can't open MIDI out port")
	}
	logrus.Infof("sending cues to %s", out)
	c := cue.NewMIDI(send)
	return cue.Tee{c, cue.Log{}}, func() {
		c.Silence()
		midi.CloseDriver()
	}, nil
}

// takeStarted closes ch once the count-in is over, whether recording
// began or the capture refused to.
type takeStarted struct {
	once sync.Once
	ch   chan struct{}
}

func newTakeStarted() *takeStarted {
	return &takeStarted{ch: make(chan struct{})}
}

func (t *takeStarted) Transitioned(from, to session.State) {
	if to.Kind == session.Recording || to.Kind == session.Stopped {
		t.once.Do(func() { close(t.ch) })
	}
}

func (t *takeStarted) Analyzed([]model.Entry, time.Duration) {}

// pipeTake feeds the stream in r to the session once it is recording. The
// stream's header is kept, the audio from before the downbeat is not.
func pipeTake(r io.Reader, s *session.Session, recording <-chan struct{}) {
	var preroll audio.Preroll
	buf := make([]byte, 16*1024)
	started := false
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case <-recording:
				if !started {
					started = true
					if err := s.Feed(preroll.Take()); err != nil {
						logrus.Debugf("dropping take header: %v", err)
					}
				}
				if err := s.Feed(chunk); err != nil {
					logrus.Debugf("dropping %d bytes: %v", n, err)
				}
			default:
				_, _ = preroll.Write(chunk)
			}
		}
		if err != nil {
			if err != io.EOF {
				logrus.Warnf("stopped reading the take: %v", err)
			}
			return
		}
	}
}
