package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/bep/debounce"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jsphweid/pitchcoach/audio"
	"github.com/jsphweid/pitchcoach/constants"
	"github.com/jsphweid/pitchcoach/db"
	"github.com/jsphweid/pitchcoach/melody"
	"github.com/jsphweid/pitchcoach/metrics"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/jsphweid/pitchcoach/pitch"
	"github.com/jsphweid/pitchcoach/session"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// uploads bigger than this are refused
const maxBody = 64 << 20

var (
	serveAddr string
	servePort int
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", constants.GetListenAddr(), "listen address")
	serveCmd.Flags().IntVar(&servePort, "port", -1, "MIDI out port for the click and reference pitch (-1 = only log them)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the practice session over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(constants.GetHistoryTable(), constants.GetDynamoEndpoint(), constants.GetDynamoRegion())
		if err != nil {
			return err
		}
		c, closeCue, err := openCue(servePort)
		if err != nil {
			return err
		}
		defer closeCue()

		app := NewApp(Config{Store: store, Cue: c, TempoDebounce: constants.GetTempoDebounce()})
		defer app.Close()

		logrus.Infof("listening on %s", serveAddr)
		return http.ListenAndServe(serveAddr, app.Router())
	},
}

type Config struct {
	Store         db.Store
	Cue           session.Cue
	Clock         session.Clock
	TempoDebounce time.Duration
}

// App is the HTTP face of one practice session.
type App struct {
	session  *session.Session
	capture  *audio.StreamCapture
	store    db.Store
	metrics  *metrics.Metrics
	debounce func(f func())
}

func NewApp(cfg Config) *App {
	if cfg.Store == nil {
		cfg.Store = db.NewMemory()
	}
	a := &App{
		capture:  audio.NewStreamCapture(),
		store:    cfg.Store,
		metrics:  metrics.New(),
		debounce: debounce.New(cfg.TempoDebounce),
	}
	a.session = session.New(session.Options{
		Clock:    cfg.Clock,
		Capture:  a.capture,
		Cue:      cfg.Cue,
		Observer: a.metrics,
	})
	return a
}

func (a *App) Session() *session.Session {
	return a.session
}

func (a *App) Close() {
	a.session.Close()
}

func (a *App) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	route := func(path string, h http.HandlerFunc, methods ...string) {
		router.Handle(path, a.metrics.Instrument(path, h)).Methods(methods...)
	}
	route("/melody", a.HandleLoadMelody, http.MethodPost)
	route("/melody", a.HandleGetMelody, http.MethodGet)
	route("/tempo", a.HandleSetTempo, http.MethodPut)
	route("/session", a.HandleGetSession, http.MethodGet)
	route("/session/start", a.HandleStart, http.MethodPost)
	route("/session/stop", a.HandleStop, http.MethodPost)
	route("/session/chunk", a.HandleChunk, http.MethodPost)
	route("/metronome/start", a.HandleStartMetronome, http.MethodPost)
	route("/metronome/stop", a.HandleStopMetronome, http.MethodPost)
	route("/recording", a.HandleRecording, http.MethodPost)
	route("/analyze", a.HandleAnalyze, http.MethodPost)
	route("/history", a.HandleHistory, http.MethodGet)
	router.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	logged := handlers.CombinedLoggingHandler(logrus.StandardLogger().Writer(), router)
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
	}).Handler(logged)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("could not write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, melody.ErrInvalidTempo),
		errors.Is(err, session.ErrInvalidTempo),
		errors.Is(err, audio.ErrInvalidWAV),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNoMelody),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrAnalysisRunning),
		errors.Is(err, session.ErrNoRecording):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		logrus.Errorf("request failed: %v", err)
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		return nil, errors.Wrapf(errBadRequest, "%v", err)
	}
	if len(b) == 0 {
		return nil, errors.Wrap(errBadRequest, "empty body")
	}
	return b, nil
}

func (a *App) HandleLoadMelody(w http.ResponseWriter, r *http.Request) {
	b, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "melody"
	}
	m, err := melody.Read(bytes.NewReader(b), name)
	if err != nil {
		if !errors.Is(err, melody.ErrInvalidTempo) {
			err = errors.Wrapf(errBadRequest, "%v", err)
		}
		writeError(w, err)
		return
	}
	if err := a.session.Load(m); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, melodyResponse(m))
}

func (a *App) HandleGetMelody(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, melodyResponse(a.session.Snapshot().Melody))
}

// HandleSetTempo coalesces bursts of edits (a slider being dragged) into
// one update.
func (a *App) HandleSetTempo(w http.ResponseWriter, r *http.Request) {
	var body model.TempoRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.Wrapf(errBadRequest, "%v", err))
		return
	}
	bpm := model.Tempo(body.Bpm)
	if bpm <= 0 {
		writeError(w, session.ErrInvalidTempo)
		return
	}
	a.debounce(func() {
		if err := a.session.SetTempo(bpm); err != nil {
			logrus.Warnf("could not set tempo: %v", err)
		}
	})
	w.WriteHeader(http.StatusAccepted)
}

func (a *App) sessionResponse() model.SessionResponse {
	st := a.session.Status()
	res := model.SessionResponse{
		State:     st.State.Kind.String(),
		Countdown: st.State.Countdown,
		Bpm:       int(st.Tempo),
		Metronome: st.Metronome,
		Melody:    st.Snapshot.Melody.Name,
		Snapshot:  st.Snapshot.ID.String(),
		Version:   st.Snapshot.Version,
		HasAudio:  st.Snapshot.Audio != nil,
	}
	if st.Failure != nil {
		res.Failure = st.Failure.Error()
	}
	return res
}

func (a *App) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.sessionResponse())
}

func (a *App) HandleStart(w http.ResponseWriter, r *http.Request) {
	if err := a.session.Start(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.sessionResponse())
}

func (a *App) HandleStop(w http.ResponseWriter, r *http.Request) {
	if err := a.session.Stop(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.sessionResponse())
}

func (a *App) HandleChunk(w http.ResponseWriter, r *http.Request) {
	b, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.session.Feed(b); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) HandleStartMetronome(w http.ResponseWriter, r *http.Request) {
	if err := a.session.StartMetronome(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.sessionResponse())
}

func (a *App) HandleStopMetronome(w http.ResponseWriter, r *http.Request) {
	a.session.StopMetronome()
	writeJSON(w, http.StatusOK, a.sessionResponse())
}

func (a *App) HandleRecording(w http.ResponseWriter, r *http.Request) {
	b, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	take, err := audio.DecodeBytes(b)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.session.Import(take); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.sessionResponse())
}

func (a *App) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	res, err := a.session.Analyze()
	if err != nil {
		writeError(w, err)
		return
	}
	record := newRecord(res)
	if err := a.store.Save(r.Context(), record); err != nil {
		logrus.Warnf("could not save practice history: %v", err)
	}

	entries := res.Entries
	if entries == nil {
		entries = []model.Entry{}
	}
	report := res.Report
	if report == nil {
		report = []string{}
	}
	writeJSON(w, http.StatusOK, model.AnalyzeResponse{
		Entries: entries,
		Report:  report,
		Counts:  pitch.Summarize(res.Entries).Counts,
	})
}

func (a *App) HandleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := a.store.List(r.Context(), r.URL.Query().Get("melody"))
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []model.PracticeRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
