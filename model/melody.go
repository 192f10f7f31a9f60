package model

// Tempo is the fixed beats-per-minute of a melody.
type Tempo int

// Quarter is the length of one beat in seconds.
func (t Tempo) Quarter() float64 {
	return 60 / float64(t)
}

type EventKind uint8

const (
	NoteEvent EventKind = iota
	RestEvent
)

type RawEvent struct {
	Kind EventKind

	// Pitch and Key are only set for notes
	Pitch    string
	Key      uint8
	Velocity float64

	Onset    float64
	Duration float64
}

func (e RawEvent) IsRest() bool {
	return e.Kind == RestEvent
}

func (e RawEvent) End() float64 {
	return e.Onset + e.Duration
}

func NewNote(pitch string, key uint8, onset, duration, velocity float64) RawEvent {
	return RawEvent{Kind: NoteEvent, Pitch: pitch, Key: key, Onset: onset, Duration: duration, Velocity: velocity}
}

func NewRest(onset, duration float64) RawEvent {
	return RawEvent{Kind: RestEvent, Onset: onset, Duration: duration}
}

// Melody is the ingested event sequence together with the tempo it was
// timed against. The two are only ever replaced together.
type Melody struct {
	Name   string
	Events []RawEvent
	Tempo  Tempo
}

// Empty reports the "no melody" result. Every stage treats it as a no-op.
func (m Melody) Empty() bool {
	return len(m.Events) == 0
}

// FirstNote returns the first non-rest event.
func (m Melody) FirstNote() (RawEvent, bool) {
	for _, e := range m.Events {
		if !e.IsRest() {
			return e, true
		}
	}
	return RawEvent{}, false
}

func (m Melody) NoteCount() int {
	var n int
	for _, e := range m.Events {
		if !e.IsRest() {
			n++
		}
	}
	return n
}

// SourceNote is a note as read from a melody file, before ingest.
type SourceNote struct {
	Name     string
	Key      uint8
	Onset    float64
	Duration float64
	Velocity float64
}

type SourceTrack struct {
	Notes []SourceNote
}

type Source struct {
	Tracks []SourceTrack
	Tempos []float64
}
