package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskgate/taskgate/adapters/clock"
	taskhttp "github.com/taskgate/taskgate/adapters/http"
	"github.com/taskgate/taskgate/adapters/idgen"
	"github.com/taskgate/taskgate/adapters/inprocess"
	"github.com/taskgate/taskgate/adapters/memory"
	"github.com/taskgate/taskgate/adapters/remote"
	"github.com/taskgate/taskgate/app"
	"github.com/taskgate/taskgate/config"
	"github.com/taskgate/taskgate/core/capability"
	"github.com/taskgate/taskgate/core/events"
	"github.com/taskgate/taskgate/core/health"
	"github.com/taskgate/taskgate/ports"
)

func testService(t *testing.T) *app.TaskService {
	t.Helper()
	return app.NewTaskService(
		memory.NewTaskStore(),
		clock.NewFake(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)),
		idgen.NewSequential("task-"),
		events.NewBus(zerolog.Nop()),
		zerolog.Nop(),
	)
}

func TestRegisterTasks_InProcess(t *testing.T) {
	registry := capability.NewRegistry()
	probes := health.NewSet()

	err := RegisterTasks(registry, probes, TasksDeps{
		Config:  config.ModuleConfig{Mode: config.ModeInProcess},
		Service: testService(t),
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("RegisterTasks failed: %v", err)
	}

	if registry.Len() != 1 {
		t.Errorf("registry entries = %d, want 1", registry.Len())
	}
	if probes.Len() != 1 {
		t.Errorf("probes = %d, want 1", probes.Len())
	}

	tasks, err := capability.Resolve[ports.TaskCapability](registry, ports.TasksContract)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	resp, err := tasks.CreateTask(context.Background(), ports.CreateTaskRequest{Title: "Test"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if resp.Task.Title != "Test" {
		t.Errorf("Title = %q, want Test", resp.Task.Title)
	}
}

func TestRegisterTasks_DisabledRegistersNothing(t *testing.T) {
	registry := capability.NewRegistry()
	probes := health.NewSet()

	disabled := false
	err := RegisterTasks(registry, probes, TasksDeps{
		Config:  config.ModuleConfig{Enabled: &disabled, Mode: config.ModeInProcess},
		Service: testService(t),
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("RegisterTasks failed: %v", err)
	}

	if registry.Len() != 0 {
		t.Errorf("registry entries = %d, want 0", registry.Len())
	}
	if probes.Len() != 0 {
		t.Errorf("probes = %d, want 0", probes.Len())
	}
	if _, err := capability.Resolve[ports.TaskCapability](registry, ports.TasksContract); err == nil {
		t.Error("Resolve succeeded for disabled module")
	}
}

func TestRegisterTasks_HTTPMode(t *testing.T) {
	registry := capability.NewRegistry()
	probes := health.NewSet()

	err := RegisterTasks(registry, probes, TasksDeps{
		Config: config.ModuleConfig{
			Mode:     config.ModeHTTP,
			Endpoint: config.EndpointConfig{URL: "http://tasks.internal:8080"},
		},
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("RegisterTasks failed: %v", err)
	}
	if registry.Len() != 1 || probes.Len() != 1 {
		t.Errorf("registry/probes = %d/%d, want 1/1", registry.Len(), probes.Len())
	}
}

func TestRegisterTasks_BusModeRequiresBroker(t *testing.T) {
	err := RegisterTasks(capability.NewRegistry(), health.NewSet(), TasksDeps{
		Config: config.ModuleConfig{Mode: config.ModeBus},
		Logger: zerolog.Nop(),
	})
	if err == nil {
		t.Fatal("RegisterTasks accepted bus mode without a broker")
	}
}

func TestRegisterTasks_UnknownMode(t *testing.T) {
	err := RegisterTasks(capability.NewRegistry(), health.NewSet(), TasksDeps{
		Config: config.ModuleConfig{Mode: "smoke-signals"},
		Logger: zerolog.Nop(),
	})
	if err == nil {
		t.Fatal("RegisterTasks accepted unknown mode")
	}
}

func TestRegisterTasks_SecondRegistrationFails(t *testing.T) {
	registry := capability.NewRegistry()
	probes := health.NewSet()
	deps := TasksDeps{
		Config:  config.ModuleConfig{Mode: config.ModeInProcess},
		Service: testService(t),
		Logger:  zerolog.Nop(),
	}

	if err := RegisterTasks(registry, probes, deps); err != nil {
		t.Fatalf("first RegisterTasks failed: %v", err)
	}
	if err := RegisterTasks(registry, probes, deps); err == nil {
		t.Fatal("second RegisterTasks succeeded; bindings must be decided once")
	}
}

func TestNew_InProcessEndToEnd(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Database.Driver = "memory"
	cfg.Metrics.Enabled = false
	cfg.Logging.Level = "error"

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	body, _ := json.Marshal(ports.CreateTaskRequest{Title: "Test"})
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp ports.TaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Task.Title != "Test" || resp.Task.Status != "open" {
		t.Errorf("task = %+v", resp.Task)
	}

	// Readiness reflects the store probe.
	readyReq := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	readyRec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(readyRec, readyReq)
	if readyRec.Code != http.StatusOK {
		t.Errorf("readiness = %d, want 200: %s", readyRec.Code, readyRec.Body.String())
	}
}

func TestNew_DisabledModuleServesErrors(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Database.Driver = "memory"
	cfg.Metrics.Enabled = false
	cfg.Logging.Level = "error"
	disabled := false
	mod := cfg.Modules["tasks"]
	mod.Enabled = &disabled
	cfg.Modules["tasks"] = mod

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if a.Registry.Len() != 0 {
		t.Errorf("registry entries = %d, want 0", a.Registry.Len())
	}

	req := httptest.NewRequest(http.MethodGet, "/tasks/task-1", nil)
	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for disabled module", rec.Code)
	}
}

// TestStrategySubstitutability verifies the contract promise: the caller
// observes the same semantic responses whether the capability is dispatched
// in-process or over HTTP to an instance running the same handler.
func TestStrategySubstitutability(t *testing.T) {
	ctx := context.Background()

	local := inprocess.NewTasks(testService(t))

	remoteBacking := inprocess.NewTasks(testService(t))
	probes := health.NewSet()
	probes.Add(remoteBacking.Probes()...)
	router := taskhttp.NewRouter(
		taskhttp.NewTasksHandler(remoteBacking, zerolog.Nop()),
		taskhttp.NewHealthHandler(probes),
		zerolog.Nop(),
	)
	server := httptest.NewServer(router)
	defer server.Close()

	overHTTP := remote.NewTasks(remote.NewClient(remote.ClientConfig{
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	}))

	for name, strategy := range map[string]ports.TaskCapability{
		"inprocess": local,
		"http":      overHTTP,
	} {
		created, err := strategy.CreateTask(ctx, ports.CreateTaskRequest{Title: "Test", Priority: "high"})
		if err != nil {
			t.Fatalf("%s CreateTask failed: %v", name, err)
		}
		if created.Task.Title != "Test" || created.Task.Priority != "high" || created.Task.Status != "open" {
			t.Errorf("%s created = %+v", name, created.Task)
		}

		got, err := strategy.GetTask(ctx, ports.GetTaskRequest{ID: created.Task.ID})
		if err != nil {
			t.Fatalf("%s GetTask failed: %v", name, err)
		}
		if got.Task != created.Task {
			t.Errorf("%s GetTask = %+v, want %+v", name, got.Task, created.Task)
		}

		_, err = strategy.GetTask(ctx, ports.GetTaskRequest{ID: "absent"})
		if !capability.IsKind(err, capability.KindNotFound) {
			t.Errorf("%s missing task err = %v, want not found", name, err)
		}
	}
}
