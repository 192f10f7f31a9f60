package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jsphweid/pitchcoach/model"
	"github.com/jsphweid/pitchcoach/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the session observer behind /metrics.
type Metrics struct {
	registry *prometheus.Registry

	melodiesLoaded   prometheus.Counter
	notesAnalyzed    *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	httpRequests     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		melodiesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pitchcoach_melodies_loaded_total",
			Help: "Melodies ingested and armed.",
		}),
		notesAnalyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchcoach_notes_analyzed_total",
			Help: "Analyzed notes by classification.",
		}, []string{"classification"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchcoach_session_transitions_total",
			Help: "Session transitions by the state entered.",
		}, []string{"state"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pitchcoach_analysis_duration_seconds",
			Help:    "Time spent analyzing one take.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchcoach_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
	}

	m.registry.MustRegister(
		m.melodiesLoaded,
		m.notesAnalyzed,
		m.transitions,
		m.analysisDuration,
		m.httpRequests,
	)
	return m
}

func (m *Metrics) Transitioned(from, to session.State) {
	m.transitions.WithLabelValues(to.Kind.String()).Inc()
	if to.Kind == session.Armed && from.Kind != session.Armed {
		m.melodiesLoaded.Inc()
	}
}

func (m *Metrics) Analyzed(entries []model.Entry, took time.Duration) {
	for _, e := range entries {
		m.notesAnalyzed.WithLabelValues(e.Classification.String()).Inc()
	}
	m.analysisDuration.Observe(took.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Instrument counts requests to next under route.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
