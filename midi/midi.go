package midi

import (
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/jsphweid/pitchcoach/model"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

func ReadMidiFile(filepath string) (*smf.SMF, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "Error reading midi file")
	}
	return ReadMidi(bytes.NewReader(dat))
}

func ReadMidi(r io.Reader) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = errors.Errorf("Error parsing midi file... %v", r)
		}
	}()

	res, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrap(err, "Error parsing midi file")
	}
	return res, nil
}

type noteKey struct {
	channel uint8
	key     uint8
}

type openNote struct {
	absTicks int64
	velocity uint8
}

// ToSource flattens every track of s into timed notes. Starts are matched
// to ends per channel and key in first-in first-out order.
func ToSource(s *smf.SMF) model.Source {
	var res model.Source
	if s == nil {
		return res
	}

	type tempoAt struct {
		absTicks int64
		bpm      float64
	}
	var tempos []tempoAt

	for _, events := range s.Tracks {
		var track model.SourceTrack
		var absTicks int64
		open := make(map[noteKey][]openNote)

		closeNote := func(k noteKey, end int64) {
			starts := open[k]
			if len(starts) == 0 {
				return
			}
			start := starts[0]
			open[k] = starts[1:]
			onset := microsToSeconds(s.TimeAt(start.absTicks))
			track.Notes = append(track.Notes, model.SourceNote{
				Name:     NoteName(k.key),
				Key:      k.key,
				Onset:    onset,
				Duration: microsToSeconds(s.TimeAt(end)) - onset,
				Velocity: float64(start.velocity) / 127,
			})
		}

		for _, event := range events {
			absTicks += int64(event.Delta)
			var channel, key, velocity uint8
			var bpm float64
			switch {
			case event.Message.GetNoteStart(&channel, &key, &velocity):
				k := noteKey{channel, key}
				open[k] = append(open[k], openNote{absTicks: absTicks, velocity: velocity})
			case event.Message.GetNoteEnd(&channel, &key):
				closeNote(noteKey{channel, key}, absTicks)
			case event.Message.GetMetaTempo(&bpm):
				tempos = append(tempos, tempoAt{absTicks: absTicks, bpm: bpm})
			}
		}

		// notes that never ended are closed at the end of the track
		for k, starts := range open {
			for range starts {
				closeNote(k, absTicks)
			}
		}

		sort.SliceStable(track.Notes, func(i, j int) bool {
			return track.Notes[i].Onset < track.Notes[j].Onset
		})
		res.Tracks = append(res.Tracks, track)
	}

	sort.SliceStable(tempos, func(i, j int) bool {
		return tempos[i].absTicks < tempos[j].absTicks
	})
	for _, t := range tempos {
		res.Tempos = append(res.Tempos, t.bpm)
	}

	return res
}

func microsToSeconds(micros int64) float64 {
	return float64(micros) / 1_000_000
}
