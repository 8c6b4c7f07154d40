package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/taskgate/taskgate/adapters/metrics"
)

func TestNew(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}

	// Verify all metrics are initialized
	if m.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if m.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
	if m.RequestsInFlight == nil {
		t.Error("RequestsInFlight is nil")
	}
	if m.RateLimitHits == nil {
		t.Error("RateLimitHits is nil")
	}
	if m.DispatchTotal == nil {
		t.Error("DispatchTotal is nil")
	}
	if m.DispatchDuration == nil {
		t.Error("DispatchDuration is nil")
	}
	if m.DispatchRetries == nil {
		t.Error("DispatchRetries is nil")
	}
	if m.ProbeFailures == nil {
		t.Error("ProbeFailures is nil")
	}
}

func TestRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RequestsTotal.WithLabelValues("GET", "/tasks", "2xx").Inc()
	m.RequestsTotal.WithLabelValues("POST", "/tasks", "4xx").Add(5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "taskgate_requests_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric series, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("taskgate_requests_total metric not found")
	}
}

func TestDispatchMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.DispatchTotal.WithLabelValues("tasks", "inprocess", metrics.OutcomeOK).Inc()
	m.DispatchTotal.WithLabelValues("tasks", "http", metrics.OutcomeUnavailable).Add(3)
	m.DispatchDuration.WithLabelValues("tasks", "http").Observe(0.05)
	m.DispatchRetries.WithLabelValues("tasks").Add(2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	foundTotal := false
	foundDuration := false
	foundRetries := false
	for _, f := range families {
		switch f.GetName() {
		case "taskgate_dispatch_total":
			foundTotal = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric series, got %d", len(f.GetMetric()))
			}
		case "taskgate_dispatch_duration_seconds":
			foundDuration = true
		case "taskgate_dispatch_retries_total":
			foundRetries = true
		}
	}
	if !foundTotal {
		t.Error("taskgate_dispatch_total metric not found")
	}
	if !foundDuration {
		t.Error("taskgate_dispatch_duration_seconds metric not found")
	}
	if !foundRetries {
		t.Error("taskgate_dispatch_retries_total metric not found")
	}
}

func TestProbeFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ProbeFailures.WithLabelValues("tasks.store").Inc()
	m.ProbeFailures.WithLabelValues("tasks.endpoint").Add(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "taskgate_probe_failures_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric series, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("taskgate_probe_failures_total metric not found")
	}
}

func TestRequestsInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RequestsInFlight.Inc()
	m.RequestsInFlight.Inc()
	m.RequestsInFlight.Dec()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "taskgate_requests_in_flight" {
			found = true
			// Value should be 1 (2 inc - 1 dec)
			val := f.GetMetric()[0].GetGauge().GetValue()
			if val != 1 {
				t.Errorf("expected value 1, got %f", val)
			}
		}
	}
	if !found {
		t.Error("taskgate_requests_in_flight metric not found")
	}
}
