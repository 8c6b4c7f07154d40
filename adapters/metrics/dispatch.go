package metrics

import (
	"context"
	"time"

	"github.com/taskgate/taskgate/core/capability"
	"github.com/taskgate/taskgate/ports"
)

// InstrumentedTasks wraps a tasks strategy and records a dispatch counter
// and duration observation per call. The wrapper is transparent: requests,
// responses and errors pass through unchanged.
type InstrumentedTasks struct {
	inner     ports.TaskCapability
	collector *Collector
	module    string
	mode      string
}

// InstrumentTasks decorates a strategy with dispatch metrics.
func InstrumentTasks(inner ports.TaskCapability, collector *Collector, module, mode string) *InstrumentedTasks {
	return &InstrumentedTasks{inner: inner, collector: collector, module: module, mode: mode}
}

func (m *InstrumentedTasks) observe(start time.Time, err error) {
	m.collector.DispatchDuration.WithLabelValues(m.module, m.mode).
		Observe(time.Since(start).Seconds())
	m.collector.DispatchTotal.WithLabelValues(m.module, m.mode, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	switch capability.KindOf(err) {
	case capability.KindValidation:
		return OutcomeValidation
	case capability.KindNotFound:
		return OutcomeNotFound
	case capability.KindUnavailable:
		return OutcomeUnavailable
	default:
		return OutcomeUnexpected
	}
}

func (m *InstrumentedTasks) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (ports.TaskResponse, error) {
	start := time.Now()
	resp, err := m.inner.CreateTask(ctx, req)
	m.observe(start, err)
	return resp, err
}

func (m *InstrumentedTasks) GetTask(ctx context.Context, req ports.GetTaskRequest) (ports.TaskResponse, error) {
	start := time.Now()
	resp, err := m.inner.GetTask(ctx, req)
	m.observe(start, err)
	return resp, err
}

func (m *InstrumentedTasks) ListTasks(ctx context.Context, req ports.ListTasksRequest) (ports.ListTasksResponse, error) {
	start := time.Now()
	resp, err := m.inner.ListTasks(ctx, req)
	m.observe(start, err)
	return resp, err
}

func (m *InstrumentedTasks) CompleteTask(ctx context.Context, req ports.CompleteTaskRequest) (ports.TaskResponse, error) {
	start := time.Now()
	resp, err := m.inner.CompleteTask(ctx, req)
	m.observe(start, err)
	return resp, err
}

func (m *InstrumentedTasks) DeleteTask(ctx context.Context, req ports.DeleteTaskRequest) (ports.DeleteTaskResponse, error) {
	start := time.Now()
	resp, err := m.inner.DeleteTask(ctx, req)
	m.observe(start, err)
	return resp, err
}

// Ensure interface compliance.
var _ ports.TaskCapability = (*InstrumentedTasks)(nil)
