package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registerOnce sync.Once

	sessionsCreated  prometheus.Counter
	sessionsTerminal *prometheus.CounterVec
	releases         prometheus.Counter
	heartbeats       prometheus.Counter
	sessionMinutes   prometheus.Histogram
)

func ensureMetrics() {
	registerOnce.Do(func() {
		sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "escrow",
			Subsystem: "engine",
			Name:      "sessions_created_total",
			Help:      "Sessions created with funds taken into custody",
		})
		sessionsTerminal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrow",
			Subsystem: "engine",
			Name:      "sessions_terminal_total",
			Help:      "Sessions finalized, by terminal status",
		}, []string{"status"})
		releases = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "escrow",
			Subsystem: "engine",
			Name:      "releases_total",
			Help:      "Progressive payment releases executed",
		})
		heartbeats = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "escrow",
			Subsystem: "engine",
			Name:      "heartbeats_total",
			Help:      "Liveness signals received",
		})
		sessionMinutes = promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "escrow",
			Subsystem: "engine",
			Name:      "session_active_minutes",
			Help:      "Effective active minutes of finalized sessions",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		})
	})
}

// Service exposes the engine's Prometheus instrumentation.
type Service struct{}

// New returns the metrics service, registering collectors on first use.
func New() *Service {
	ensureMetrics()
	return &Service{}
}

func (s *Service) SessionCreated()        { sessionsCreated.Inc() }
func (s *Service) Release()               { releases.Inc() }
func (s *Service) Heartbeat()             { heartbeats.Inc() }
func (s *Service) Terminal(status string) { sessionsTerminal.WithLabelValues(status).Inc() }

// SessionFinalized observes the effective active time of a finished session.
func (s *Service) SessionFinalized(active time.Duration) {
	sessionMinutes.Observe(active.Minutes())
}
