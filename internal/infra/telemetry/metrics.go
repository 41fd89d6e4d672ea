package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeAllowed  = "allowed"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// SessionMetricsOptions configures session-core collectors.
type SessionMetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
	// RevocationEntries reports the current size of the local revocation set, if known.
	RevocationEntries func() float64
}

// SessionMetrics instruments the auth gate and the revocation store.
type SessionMetrics struct {
	AuthDecisions  *prometheus.CounterVec
	TokensRevoked  *prometheus.CounterVec
	SweptEntries   prometheus.Counter
	ReplicationLag prometheus.Histogram
}

// NewSessionMetrics constructs and registers the collectors, reusing ones that are already registered.
func NewSessionMetrics(opts SessionMetricsOptions) (*SessionMetrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "board"
	}
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	decisions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "decisions_total",
		Help:      "Auth gate decisions partitioned by outcome and rejection reason.",
	}, []string{"outcome", "reason"}))
	if err != nil {
		return nil, err
	}

	revoked, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "revocation",
		Name:      "tokens_revoked_total",
		Help:      "Session tokens revoked, partitioned by origin (local or replica).",
	}, []string{"origin"}))
	if err != nil {
		return nil, err
	}

	swept, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "revocation",
		Name:      "swept_entries_total",
		Help:      "Revocation entries removed by the periodic sweep.",
	}))
	if err != nil {
		return nil, err
	}

	lag, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "revocation",
		Name:      "replication_lag_seconds",
		Help:      "Delay between a revocation on a peer and its application locally.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}))
	if err != nil {
		return nil, err
	}

	if opts.RevocationEntries != nil {
		if _, err := register(reg, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "revocation",
			Name:      "entries",
			Help:      "Revocation entries currently held in memory.",
		}, opts.RevocationEntries)); err != nil {
			return nil, err
		}
	}

	return &SessionMetrics{
		AuthDecisions:  decisions,
		TokensRevoked:  revoked,
		SweptEntries:   swept,
		ReplicationLag: lag,
	}, nil
}

// ObserveAuthDecision records one gate evaluation. reason is empty for allowed requests.
func (m *SessionMetrics) ObserveAuthDecision(outcome, reason string) {
	if m == nil {
		return
	}
	m.AuthDecisions.WithLabelValues(outcome, reason).Inc()
}

// ObserveRevocation counts a revocation applied to the local store.
func (m *SessionMetrics) ObserveRevocation(origin string) {
	if m == nil {
		return
	}
	m.TokensRevoked.WithLabelValues(origin).Inc()
}

// ObserveSweep adds the number of entries removed by one sweep.
func (m *SessionMetrics) ObserveSweep(removed int) {
	if m == nil || removed <= 0 {
		return
	}
	m.SweptEntries.Add(float64(removed))
}

// ObserveRevocationLag implements kafka.LagObserver.
func (m *SessionMetrics) ObserveRevocationLag(lag time.Duration) {
	if m == nil {
		return
	}
	m.ReplicationLag.Observe(lag.Seconds())
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return collector, fmt.Errorf("register collector: %w", err)
		}
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return existing, nil
	}
	return collector, nil
}
