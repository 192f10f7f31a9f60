package melody

import (
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jsphweid/pitchcoach/constants"
	"github.com/jsphweid/pitchcoach/midi"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrInvalidTempo = errors.New("tempo must be a positive number of beats per minute")

// Load reads a melody file and ingests it. A file without any notes is not
// an error: it yields an empty melody.
func Load(path string) (model.Melody, error) {
	parsed, err := midi.ReadMidiFile(path)
	if err != nil {
		return model.Melody{}, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Ingest(midi.ToSource(parsed), name)
}

func Read(r io.Reader, name string) (model.Melody, error) {
	parsed, err := midi.ReadMidi(r)
	if err != nil {
		return model.Melody{}, err
	}
	return Ingest(midi.ToSource(parsed), name)
}

// Ingest picks the melody line out of src and turns it into an ordered
// sequence of notes and rests.
func Ingest(src model.Source, name string) (model.Melody, error) {
	bpm, err := tempoOf(src)
	if err != nil {
		return model.Melody{}, err
	}

	track, ok := SelectTrack(src.Tracks)
	if !ok {
		logrus.Debugf("no melody track in %q", name)
		return model.Melody{}, nil
	}

	notes := filterRange(track.Notes)
	notes = resolveOnsets(notes)
	trimOverlaps(notes)
	events := withRests(notes, bpm)

	logrus.WithFields(logrus.Fields{
		"melody":  name,
		"bpm":     bpm,
		"notes":   len(notes),
		"dropped": len(track.Notes) - len(notes),
		"events":  len(events),
	}).Debug("ingested melody")

	return model.Melody{Name: name, Events: events, Tempo: bpm}, nil
}

func tempoOf(src model.Source) (model.Tempo, error) {
	if len(src.Tempos) == 0 {
		return constants.DefaultBpm, nil
	}
	bpm := model.Tempo(math.Round(src.Tempos[0]))
	if bpm <= 0 {
		return 0, errors.Wrapf(ErrInvalidTempo, "got %v", src.Tempos[0])
	}
	return bpm, nil
}

// SelectTrack returns the track with the most notes. The earliest such
// track wins a tie.
func SelectTrack(tracks []model.SourceTrack) (model.SourceTrack, bool) {
	best := -1
	for i, t := range tracks {
		if len(t.Notes) == 0 {
			continue
		}
		if best < 0 || len(t.Notes) > len(tracks[best].Notes) {
			best = i
		}
	}
	if best < 0 {
		return model.SourceTrack{}, false
	}
	return tracks[best], true
}

// filterRange drops notes outside the singable range, and zero-length notes.
func filterRange(notes []model.SourceNote) []model.SourceNote {
	var res []model.SourceNote
	for _, n := range notes {
		if n.Duration > 0 && n.Key >= constants.MinMelodyKey && n.Key <= constants.MaxMelodyKey {
			res = append(res, n)
		}
	}
	return res
}

// resolveOnsets keeps only the highest note of every group of notes that
// start on the same millisecond. The result is sorted by onset.
func resolveOnsets(notes []model.SourceNote) []model.SourceNote {
	highest := make(map[int64]model.SourceNote)
	for _, n := range notes {
		ms := int64(math.Round(n.Onset * 1000))
		if cur, ok := highest[ms]; !ok || n.Key > cur.Key {
			highest[ms] = n
		}
	}

	res := make([]model.SourceNote, 0, len(highest))
	for _, n := range highest {
		res = append(res, n)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Onset < res[j].Onset
	})
	return res
}

// trimOverlaps cuts a note short where the next one starts.
func trimOverlaps(notes []model.SourceNote) {
	for i := 0; i+1 < len(notes); i++ {
		if end := notes[i].Onset + notes[i].Duration; end > notes[i+1].Onset {
			notes[i].Duration = notes[i+1].Onset - notes[i].Onset
		}
	}
}

func withRests(notes []model.SourceNote, bpm model.Tempo) []model.RawEvent {
	threshold := bpm.Quarter() * constants.RestGapRatio
	var res []model.RawEvent
	for i, n := range notes {
		if i > 0 {
			prev := notes[i-1]
			prevEnd := prev.Onset + prev.Duration
			if gap := n.Onset - prevEnd; gap > threshold {
				res = append(res, model.NewRest(prevEnd, gap))
			}
		}
		res = append(res, model.NewNote(n.Name, n.Key, n.Onset, n.Duration, n.Velocity))
	}
	return res
}
