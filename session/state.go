package session

import "fmt"

type Kind uint8

const (
	Idle Kind = iota
	Armed
	Counting
	Recording
	Stopped
)

var kindNames = map[Kind]string{
	Idle:      "idle",
	Armed:     "armed",
	Counting:  "counting",
	Recording: "recording",
	Stopped:   "stopped",
}

func (k Kind) String() string {
	return kindNames[k]
}

// State is a Kind plus, while Counting, the count-in clicks still to come.
type State struct {
	Kind      Kind
	Countdown int
}

func (s State) String() string {
	if s.Kind == Counting {
		return fmt.Sprintf("counting(%d)", s.Countdown)
	}
	return s.Kind.String()
}

// Busy reports whether timers or a capture are live.
func (s State) Busy() bool {
	return s.Kind == Counting || s.Kind == Recording
}
