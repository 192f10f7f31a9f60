package midi

import (
	"io"
	"math"
	"sort"

	"github.com/jsphweid/pitchcoach/model"
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const ticksPerQuarter = 960

type timedMessage struct {
	absTicks uint32
	isOff    bool
	msg      []byte
}

func secondsToTicks(sec float64, bpm float64) uint32 {
	return uint32(math.Round(sec / (60 / bpm) * ticksPerQuarter))
}

// Encode writes a format 1 SMF with a tempo track followed by one track per
// entry of tracks. All notes go out on channel 0.
func Encode(w io.Writer, bpm float64, tracks [][]model.SourceNote) error {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tempoTrack smf.Track
	tempoTrack.Add(0, smf.MetaMeter(4, 4))
	tempoTrack.Add(0, smf.MetaTempo(bpm))
	tempoTrack.Close(0)
	if err := s.Add(tempoTrack); err != nil {
		return errors.Wrap(err, "could not add tempo track")
	}

	for i, notes := range tracks {
		var msgs []timedMessage
		for _, n := range notes {
			on := secondsToTicks(n.Onset, bpm)
			off := secondsToTicks(n.Onset+n.Duration, bpm)
			vel := uint8(math.Round(n.Velocity * 127))
			if vel == 0 {
				vel = 100
			}
			msgs = append(msgs,
				timedMessage{absTicks: on, msg: gomidi.NoteOn(0, n.Key, vel)},
				timedMessage{absTicks: off, isOff: true, msg: gomidi.NoteOff(0, n.Key)},
			)
		}

		// note offs go first so repeated keys retrigger cleanly
		sort.SliceStable(msgs, func(a, b int) bool {
			if msgs[a].absTicks != msgs[b].absTicks {
				return msgs[a].absTicks < msgs[b].absTicks
			}
			return msgs[a].isOff && !msgs[b].isOff
		})

		var track smf.Track
		var last uint32
		for _, m := range msgs {
			track.Add(m.absTicks-last, m.msg)
			last = m.absTicks
		}
		track.Close(0)
		if err := s.Add(track); err != nil {
			return errors.Wrapf(err, "could not add track %d", i)
		}
	}

	if _, err := s.WriteTo(w); err != nil {
		return errors.Wrap(err, "could not write midi")
	}
	return nil
}

// WriteMelody writes the ingested melody line back out as a single track.
func WriteMelody(w io.Writer, m model.Melody) error {
	if m.Empty() {
		return errors.New("no melody to write")
	}
	var notes []model.SourceNote
	for _, e := range m.Events {
		if e.IsRest() {
			continue
		}
		notes = append(notes, model.SourceNote{
			Name:     e.Pitch,
			Key:      e.Key,
			Onset:    e.Onset,
			Duration: e.Duration,
			Velocity: e.Velocity,
		})
	}
	return Encode(w, float64(m.Tempo), [][]model.SourceNote{notes})
}
