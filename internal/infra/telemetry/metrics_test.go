package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSessionMetricsRecordsDecisions(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewSessionMetrics(SessionMetricsOptions{
		Registerer:        reg,
		RevocationEntries: func() float64 { return 3 },
	})
	if err != nil {
		t.Fatalf("NewSessionMetrics returned error: %v", err)
	}

	metrics.ObserveAuthDecision(OutcomeAllowed, "")
	metrics.ObserveAuthDecision(OutcomeRejected, "Revoked")
	metrics.ObserveAuthDecision(OutcomeRejected, "Revoked")
	metrics.ObserveRevocation("local")
	metrics.ObserveSweep(4)
	metrics.ObserveSweep(0)
	metrics.ObserveRevocationLag(200 * time.Millisecond)

	if got := testutil.ToFloat64(metrics.AuthDecisions.WithLabelValues(OutcomeRejected, "Revoked")); got != 2 {
		t.Fatalf("expected 2 revoked rejections, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.TokensRevoked.WithLabelValues("local")); got != 1 {
		t.Fatalf("expected 1 local revocation, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.SweptEntries); got != 4 {
		t.Fatalf("expected 4 swept entries, got %v", got)
	}
	if count := testutil.CollectAndCount(reg, "board_revocation_entries"); count != 1 {
		t.Fatalf("expected entries gauge to be registered, got %d", count)
	}
}

func TestSessionMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSessionMetrics(SessionMetricsOptions{Registerer: reg})
	if err != nil {
		t.Fatalf("NewSessionMetrics returned error: %v", err)
	}
	second, err := NewSessionMetrics(SessionMetricsOptions{Registerer: reg})
	if err != nil {
		t.Fatalf("second NewSessionMetrics returned error: %v", err)
	}

	first.ObserveAuthDecision(OutcomeRejected, "Expired")
	if got := testutil.ToFloat64(second.AuthDecisions.WithLabelValues(OutcomeRejected, "Expired")); got != 1 {
		t.Fatalf("expected collectors to be shared, got %v", got)
	}
}

func TestNilSessionMetricsIsSafe(t *testing.T) {
	var metrics *SessionMetrics
	metrics.ObserveAuthDecision(OutcomeAllowed, "")
	metrics.ObserveRevocation("local")
	metrics.ObserveSweep(1)
	metrics.ObserveRevocationLag(time.Second)
}
