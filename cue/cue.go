package cue

import (
	"sync"
	"time"

	"github.com/jsphweid/pitchcoach/midi"
	"github.com/sirupsen/logrus"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// General MIDI percussion lives on channel 10 (9 zero-based).
const (
	clickChannel  = 9
	woodblockKey  = 76
	clickLength   = 50 * time.Millisecond
	pitchChannel  = 0
	pitchVelocity = 100
)

// Sender writes one message to a MIDI output, e.g. the function returned by
// gomidi's midi.SendTo.
type Sender func(msg gomidi.Message) error

// MIDI plays cues on an external synth.
type MIDI struct {
	send Sender

	mu      sync.Mutex
	pending []*time.Timer
}

func NewMIDI(send Sender) *MIDI {
	return &MIDI{send: send}
}

func (m *MIDI) Click() {
	m.play(clickChannel, woodblockKey, 110, clickLength)
}

func (m *MIDI) Pitch(name string, durationSec float64) {
	key, err := midi.ParseNoteName(name)
	if err != nil || key < 0 || key > 127 {
		logrus.Debugf("no cue for pitch %q", name)
		return
	}
	m.play(pitchChannel, uint8(key), pitchVelocity, time.Duration(durationSec*float64(time.Second)))
}

func (m *MIDI) play(channel, key, velocity uint8, length time.Duration) {
	if err := m.send(gomidi.NoteOn(channel, key, velocity)); err != nil {
		logrus.Warnf("could not send cue: %v", err)
		return
	}
	t := time.AfterFunc(length, func() {
		if err := m.send(gomidi.NoteOff(channel, key)); err != nil {
			logrus.Warnf("could not release cue: %v", err)
		}
	})

	m.mu.Lock()
	m.pending = append(m.pending, t)
	m.mu.Unlock()
}

// Silence releases every sounding cue now.
func (m *MIDI) Silence() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, t := range pending {
		t.Stop()
	}
	for ch := uint8(0); ch < 16; ch++ {
		// all notes off
		_ = m.send(gomidi.ControlChange(ch, 123, 0))
	}
}

// Log only writes cues to the log.
type Log struct{}

func (Log) Click() {
	logrus.Debug("click")
}

func (Log) Pitch(name string, durationSec float64) {
	logrus.WithFields(logrus.Fields{"pitch": name, "seconds": durationSec}).Info("reference pitch")
}

// Cue is anything that can sound a metronome click and a reference pitch.
type Cue interface {
	Click()
	Pitch(name string, durationSec float64)
}

// Tee fans every cue out to all of its cues, in order.
type Tee []Cue

func (t Tee) Click() {
	for _, c := range t {
		c.Click()
	}
}

func (t Tee) Pitch(name string, durationSec float64) {
	for _, c := range t {
		c.Pitch(name, durationSec)
	}
}
