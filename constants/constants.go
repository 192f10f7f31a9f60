package constants

import (
	"os"
	"time"
)

func GetListenAddr() string {
	addr := os.Getenv("PITCHCOACH_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

// GetHistoryTable returns the DynamoDB table for practice history. Empty
// means history is kept in memory only.
func GetHistoryTable() string {
	return os.Getenv("PITCHCOACH_HISTORY_TABLE")
}

func GetDynamoEndpoint() string {
	return os.Getenv("PITCHCOACH_DYNAMO_ENDPOINT")
}

func GetDynamoRegion() string {
	region := os.Getenv("PITCHCOACH_DYNAMO_REGION")
	if region != "" {
		return region
	}
	return "us-east-1"
}

func GetTempoDebounce() time.Duration {
	if s := os.Getenv("PITCHCOACH_TEMPO_DEBOUNCE"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return 300 * time.Millisecond
}

func GetLogLevel() string {
	level := os.Getenv("PITCHCOACH_LOG_LEVEL")
	if level != "" {
		return level
	}
	return "info"
}

// melody ingest
const (
	DefaultBpm = 120

	// roughly C3 to C6
	MinMelodyKey = 48
	MaxMelodyKey = 84

	// a gap longer than this fraction of a quarter becomes a rest
	RestGapRatio = 0.1
)

// notation
const (
	DurationToleranceRatio = 0.15
	BeatsPerMeasure        = 4.0
	BeatGrid               = 0.25
	MeasuresPerLine        = 4
)

// recording session
const CountInBeats = 4

// pitch analysis
const (
	A4Frequency = 440.0
	A4Key       = 69

	WindowSize      = 8192
	AttackSkipRatio = 0.23
	AttackLeewaySec = 0.075

	HighPassCoefficient = 0.95
	MinRMS              = 0.0008
	MinClarity          = 0.35

	// the metronome click is synthesized at this frequency
	ClickFrequency   = 375.0
	ClickRejectionHz = 30.0

	InTuneCents = 80.0
)
