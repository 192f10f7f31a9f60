package model

import (
	"time"

	"github.com/google/uuid"
)

type CapturedAudio struct {
	ID uuid.UUID
	// Samples is the analysis channel, normalized to [-1, 1]
	Samples    []float64
	SampleRate int
}

func (a *CapturedAudio) Seconds() float64 {
	if a == nil || a.SampleRate == 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.SampleRate)
}

type Classification uint8

const (
	InTune Classification = iota
	Sharp
	Flat
	NoPitch
)

var classificationNames = map[Classification]string{
	InTune:  "in-tune",
	Sharp:   "sharp",
	Flat:    "flat",
	NoPitch: "no-pitch",
}

func (c Classification) String() string {
	return classificationNames[c]
}

func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

type Entry struct {
	EventIndex     int            `json:"eventIndex"`
	Pitch          string         `json:"pitch"`
	Onset          float64        `json:"onset"`
	MeasureIndex   int            `json:"measureIndex"`
	Beat           float64        `json:"beat"`
	Classification Classification `json:"classification"`

	// NOTE: only meaningful for Sharp and Flat
	Cents float64 `json:"cents"`

	Frequency float64 `json:"frequency"`
	Clarity   float64 `json:"clarity"`
}

// Snapshot is one consistent (melody, audio) pair. Published snapshots are
// never mutated; the session swaps in a new one instead.
type Snapshot struct {
	ID      uuid.UUID
	Version uint64
	Melody  Melody
	Audio   *CapturedAudio
}

type PracticeRecord struct {
	ID         string         `json:"id"`
	MelodyName string         `json:"melodyName"`
	Bpm        int            `json:"bpm"`
	TakenAt    time.Time      `json:"takenAt"`
	Counts     map[string]int `json:"counts"`
	Lines      []string       `json:"lines"`
}
