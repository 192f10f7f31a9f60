package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/pitchcoach/constants"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/jsphweid/pitchcoach/pitch"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoMelody          = errors.New("no melody is armed")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrBusy              = errors.New("session is counting in or recording")
	ErrAnalysisRunning   = errors.New("analysis is running")
	ErrNoRecording       = errors.New("nothing has been recorded")
	ErrNoCapture         = errors.New("no capture configured")
	ErrInvalidTempo      = errors.New("tempo must be positive")
)

// Capture records the singer between Begin and Finalize.
type Capture interface {
	Begin() (uuid.UUID, error)
	OnData(h uuid.UUID, chunk []byte) error
	Finalize(h uuid.UUID) (*model.CapturedAudio, error)
	Abort(h uuid.UUID)
}

type Cue interface {
	Click()
	Pitch(name string, durationSec float64)
}

type Observer interface {
	Transitioned(from, to State)
	Analyzed(entries []model.Entry, took time.Duration)
}

type Options struct {
	Clock    Clock
	Capture  Capture
	Cue      Cue
	Analyzer *pitch.Analyzer
	Observer Observer
}

type Result struct {
	Snapshot model.Snapshot
	Entries  []model.Entry
	Report   []string
}

type Status struct {
	State     State
	Tempo     model.Tempo
	Metronome bool
	Snapshot  model.Snapshot
	// Failure is the last error raised from a tick, e.g. the capture
	// refusing to start.
	Failure error
}

type Session struct {
	clock    Clock
	capture  Capture
	cue      Cue
	analyzer *pitch.Analyzer
	observer Observer

	snapshot atomic.Pointer[model.Snapshot]

	mu        sync.Mutex
	state     State
	tempo     model.Tempo
	epoch     uint64
	timer     Timer
	ticksFrom time.Time
	interval  time.Duration
	metronome bool
	handle    uuid.UUID
	capturing bool
	analyzing bool
	failure   error
}

func New(opts Options) *Session {
	s := &Session{
		clock:    opts.Clock,
		capture:  opts.Capture,
		cue:      opts.Cue,
		analyzer: opts.Analyzer,
		observer: opts.Observer,
		tempo:    constants.DefaultBpm,
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.cue == nil {
		s.cue = silent{}
	}
	if s.analyzer == nil {
		s.analyzer = pitch.New()
	}
	s.snapshot.Store(&model.Snapshot{ID: uuid.New()})
	return s
}

// Snapshot returns the current (melody, audio) pair. It is never torn: a
// reader sees either the previous or the next one.
func (s *Session) Snapshot() model.Snapshot {
	return *s.snapshot.Load()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:     s.state,
		Tempo:     s.tempo,
		Metronome: s.metronome,
		Snapshot:  s.Snapshot(),
		Failure:   s.failure,
	}
}

// Load arms a new melody. An empty melody leaves the session Idle.
func (s *Session) Load(m model.Melody) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Busy() {
		return ErrBusy
	}

	s.publish(m, nil)
	if m.Tempo > 0 {
		s.tempo = m.Tempo
	}
	if m.Empty() {
		s.setState(State{Kind: Idle})
	} else {
		s.setState(State{Kind: Armed})
	}
	logrus.WithFields(logrus.Fields{
		"melody": m.Name,
		"notes":  m.NoteCount(),
		"bpm":    int(m.Tempo),
	}).Info("melody loaded")
	return nil
}

// Start begins the four-click count-in. The first click comes with the
// melody's first pitch as a reference.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analyzing {
		return ErrAnalysisRunning
	}
	m := s.Snapshot().Melody
	if m.Empty() {
		return ErrNoMelody
	}
	if s.state.Kind != Armed && s.state.Kind != Stopped {
		return errors.Wrapf(ErrInvalidTransition, "cannot start while %s", s.state)
	}
	if s.capture == nil {
		return ErrNoCapture
	}

	s.cancelTimers()
	s.failure = nil
	// the previous take belongs to the previous run
	if s.Snapshot().Audio != nil {
		s.publish(m, nil)
	}
	s.setState(State{Kind: Counting, Countdown: constants.CountInBeats})
	s.startTicks(m.Tempo)
	return nil
}

// Feed hands a chunk of the take to the capture.
func (s *Session) Feed(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Kind != Recording || !s.capturing {
		return errors.Wrapf(ErrInvalidTransition, "cannot take audio while %s", s.state)
	}
	return s.capture.OnData(s.handle, chunk)
}

// Stop cancels every timer and lands in Stopped. Stopping a recording
// publishes the captured take.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Busy() {
		return errors.Wrapf(ErrInvalidTransition, "cannot stop while %s", s.state)
	}

	s.cancelTimers()
	wasRecording := s.state.Kind == Recording
	s.setState(State{Kind: Stopped})
	if !wasRecording || !s.capturing {
		return nil
	}

	s.capturing = false
	a, err := s.capture.Finalize(s.handle)
	if err != nil {
		s.capture.Abort(s.handle)
		return errors.Wrap(err, "could not finalize recording")
	}
	s.publish(s.Snapshot().Melody, a)
	logrus.WithFields(logrus.Fields{
		"take":    a.ID,
		"seconds": a.Seconds(),
	}).Info("recording captured")
	return nil
}

// Import attaches a take recorded elsewhere to the armed melody.
func (s *Session) Import(a *model.CapturedAudio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == nil {
		return ErrNoRecording
	}
	if s.state.Kind != Armed && s.state.Kind != Stopped {
		return errors.Wrapf(ErrInvalidTransition, "cannot import while %s", s.state)
	}
	s.cancelTimers()
	s.publish(s.Snapshot().Melody, a)
	s.setState(State{Kind: Stopped})
	return nil
}

// Analyze scores the current take. Start is refused until it returns.
func (s *Session) Analyze() (Result, error) {
	s.mu.Lock()
	if s.state.Kind != Stopped {
		s.mu.Unlock()
		return Result{}, errors.Wrapf(ErrInvalidTransition, "cannot analyze while %s", s.state)
	}
	if s.analyzing {
		s.mu.Unlock()
		return Result{}, ErrAnalysisRunning
	}
	snap := s.Snapshot()
	if snap.Audio == nil {
		s.mu.Unlock()
		return Result{}, ErrNoRecording
	}
	s.analyzing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.analyzing = false
		s.mu.Unlock()
	}()

	began := time.Now()
	entries := s.analyzer.Analyze(snap.Melody, snap.Audio)
	took := time.Since(began)
	if s.observer != nil {
		s.observer.Analyzed(entries, took)
	}
	logrus.WithFields(logrus.Fields{
		"melody": snap.Melody.Name,
		"notes":  len(entries),
		"took":   took,
	}).Info("analysis done")

	return Result{Snapshot: snap, Entries: entries, Report: pitch.Report(entries)}, nil
}

func (s *Session) SetTempo(bpm model.Tempo) error {
	if bpm <= 0 {
		return ErrInvalidTempo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempo = bpm
	return nil
}

func (s *Session) Tempo() model.Tempo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempo
}

// StartMetronome clicks every beat outside of a take, at the melody's tempo
// when one is loaded.
func (s *Session) StartMetronome() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Busy() {
		return ErrBusy
	}
	bpm := s.Snapshot().Melody.Tempo
	if bpm <= 0 {
		bpm = s.tempo
	}
	s.cancelTimers()
	s.metronome = true
	s.startTicks(bpm)
	return nil
}

func (s *Session) StopMetronome() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metronome {
		s.cancelTimers()
	}
}

// Close cancels every timer and drops an unfinished take.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimers()
	if s.capturing {
		s.capture.Abort(s.handle)
		s.capturing = false
	}
}

func (s *Session) publish(m model.Melody, a *model.CapturedAudio) {
	prev := s.snapshot.Load()
	s.snapshot.Store(&model.Snapshot{
		ID:      uuid.New(),
		Version: prev.Version + 1,
		Melody:  m,
		Audio:   a,
	})
}

func (s *Session) setState(to State) {
	from := s.state
	s.state = to
	if from != to {
		logrus.Debugf("session %s -> %s", from, to)
		if s.observer != nil {
			s.observer.Transitioned(from, to)
		}
	}
}

// cancelTimers invalidates every scheduled tick. A tick that already fired
// and is waiting on the lock sees the bumped epoch and does nothing.
func (s *Session) cancelTimers() {
	s.epoch++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.metronome = false
}

func (s *Session) startTicks(bpm model.Tempo) {
	s.interval = time.Duration(bpm.Quarter() * float64(time.Second))
	s.ticksFrom = s.clock.Now()
	s.tick(s.epoch, 0)
}

// scheduleTick aims every tick at ticksFrom + k beats so that timer latency
// does not accumulate.
func (s *Session) scheduleTick(epoch uint64, k int) {
	due := s.ticksFrom.Add(time.Duration(k) * s.interval)
	s.timer = s.clock.AfterFunc(due.Sub(s.clock.Now()), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if epoch != s.epoch {
			return
		}
		s.tick(epoch, k)
	})
}

func (s *Session) tick(epoch uint64, k int) {
	switch {
	case s.state.Kind == Counting && s.state.Countdown > 0:
		s.cue.Click()
		if k == 0 {
			if first, ok := s.Snapshot().Melody.FirstNote(); ok {
				s.cue.Pitch(first.Pitch, s.interval.Seconds())
			}
		}
		s.setState(State{Kind: Counting, Countdown: s.state.Countdown - 1})
	case s.state.Kind == Counting:
		if err := s.beginRecording(); err != nil {
			logrus.Errorf("could not start recording: %v", err)
			s.failure = err
			s.cancelTimers()
			s.setState(State{Kind: Stopped})
			return
		}
		s.cue.Click()
	case s.state.Kind == Recording, s.metronome:
		s.cue.Click()
	default:
		return
	}
	s.scheduleTick(epoch, k+1)
}

func (s *Session) beginRecording() error {
	h, err := s.capture.Begin()
	if err != nil {
		return errors.Wrap(err, "capture refused to begin")
	}
	s.handle = h
	s.capturing = true
	s.setState(State{Kind: Recording})
	return nil
}

type silent struct{}

func (silent) Click()                {}
func (silent) Pitch(string, float64) {}
