package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)
	m.AccountCreated()

	if m.Transfers == nil || m.HTTPRequests == nil || m.LedgerOperations == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestObserveTransfer(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransfer(KindInternal, OutcomeOK, "", 100, time.Millisecond)
	m.ObserveTransfer(KindInternal, OutcomeRejected, "insufficient_funds", 500, time.Millisecond)
	m.ObserveTransfer(KindExternal, OutcomeRejected, "self_payment", 1, time.Millisecond)

	if got := testutil.ToFloat64(m.Transfers.WithLabelValues(KindInternal, OutcomeOK)); got != 1 {
		t.Fatalf("expected 1 successful internal transfer, got %v", got)
	}
	if got := testutil.ToFloat64(m.TransferRejects.WithLabelValues(KindInternal, "insufficient_funds")); got != 1 {
		t.Fatalf("expected 1 insufficient_funds rejection, got %v", got)
	}
	if got := testutil.CollectAndCount(m.TransferRejects); got != 2 {
		t.Fatalf("expected 2 rejection series, got %d", got)
	}
	if got := testutil.CollectAndCount(m.TransferAmount); got != 1 {
		t.Fatalf("expected amount histogram to be collected, got %d", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics

	m.ObserveTransfer(KindInternal, OutcomeOK, "", 1, time.Second)
	m.ObserveLedger("deposit", OutcomeOK)
	m.AccountCreated()
	m.StorageRetry()
	m.LockFailure()
}
