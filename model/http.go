package model

type MelodyResponse struct {
	Name     string          `json:"name"`
	Bpm      int             `json:"bpm"`
	Notes    int             `json:"notes"`
	Measures []RenderMeasure `json:"measures"`
}

type TempoRequestBody struct {
	Bpm int `json:"bpm"`
}

type SessionResponse struct {
	State     string `json:"state"`
	Countdown int    `json:"countdown"`
	Bpm       int    `json:"bpm"`
	Metronome bool   `json:"metronome"`
	Melody    string `json:"melody"`
	Snapshot  string `json:"snapshot"`
	Version   uint64 `json:"version"`
	HasAudio  bool   `json:"hasAudio"`
	Failure   string `json:"failure,omitempty"`
}

type AnalyzeResponse struct {
	Entries []Entry        `json:"entries"`
	Report  []string       `json:"report"`
	Counts  map[string]int `json:"counts"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
