package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	if err := reg.Register(ContentViews); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestObserveNetworkRequestDefaults(t *testing.T) {
	before := testutil.ToFloat64(NetworkRequestTotal.WithLabelValues("unknown", "unknown", "unknown", "error"))
	ObserveNetworkRequest("", "", "", time.Now(), errors.New("boom"))
	after := testutil.ToFloat64(NetworkRequestTotal.WithLabelValues("unknown", "unknown", "unknown", "error"))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestObserveDelivery(t *testing.T) {
	delivered := testutil.ToFloat64(BroadcastDeliveries.WithLabelValues("delivered"))
	failed := testutil.ToFloat64(BroadcastDeliveries.WithLabelValues("failed"))
	ObserveDelivery(nil)
	ObserveDelivery(errors.New("blocked"))
	ObserveDelivery(errors.New("blocked"))
	if got := testutil.ToFloat64(BroadcastDeliveries.WithLabelValues("delivered")) - delivered; got != 1 {
		t.Fatalf("delivered grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(BroadcastDeliveries.WithLabelValues("failed")) - failed; got != 2 {
		t.Fatalf("failed grew by %v, want 2", got)
	}
}
