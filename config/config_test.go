package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskgate/taskgate/config"
)

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndTryLoad(t, content)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func writeAndTryLoad(t *testing.T, content string) (*config.Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return config.Load(path)
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090

database:
  driver: "sqlite"
  dsn: ":memory:"

modules:
  tasks:
    mode: "inprocess"
    features:
      notifications: true
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.DSN != ":memory:" {
		t.Errorf("DSN = %s, want :memory:", cfg.Database.DSN)
	}

	tasks := cfg.Tasks()
	if tasks.Mode != config.ModeInProcess {
		t.Errorf("tasks mode = %s, want inprocess", tasks.Mode)
	}
	if !tasks.IsEnabled() {
		t.Error("tasks module not enabled by default")
	}
	if !tasks.Feature("notifications") {
		t.Error("notifications feature not picked up")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "{}\n")

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %s, want /metrics", cfg.Metrics.Path)
	}

	// The tasks module defaults to enabled, in-process.
	tasks := cfg.Tasks()
	if tasks.Mode != config.ModeInProcess || !tasks.IsEnabled() {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestLoad_HTTPModeRequiresEndpoint(t *testing.T) {
	content := `
modules:
  tasks:
    mode: "http"
`
	_, err := writeAndTryLoad(t, content)
	if err == nil {
		t.Fatal("Load succeeded without endpoint.url")
	}
	if !strings.Contains(err.Error(), "endpoint.url") {
		t.Errorf("err = %v, want endpoint.url mention", err)
	}
}

func TestLoad_HTTPModeWithEndpoint(t *testing.T) {
	content := `
modules:
  tasks:
    mode: "http"
    endpoint:
      url: "http://tasks.internal:8080"
      timeout: 5s
      attempts: 3
`
	cfg := writeAndLoad(t, content)
	tasks := cfg.Tasks()
	if tasks.Mode != config.ModeHTTP {
		t.Errorf("mode = %s, want http", tasks.Mode)
	}
	if tasks.Endpoint.URL != "http://tasks.internal:8080" {
		t.Errorf("URL = %s", tasks.Endpoint.URL)
	}
	if tasks.Endpoint.Timeout != 5*time.Second || tasks.Endpoint.Attempts != 3 {
		t.Errorf("endpoint = %+v", tasks.Endpoint)
	}
}

func TestLoad_HTTPModeRejectsRelativeEndpoint(t *testing.T) {
	content := `
modules:
  tasks:
    mode: "http"
    endpoint:
      url: "tasks.internal/api"
`
	_, err := writeAndTryLoad(t, content)
	if err == nil {
		t.Fatal("Load accepted a relative endpoint URL")
	}
	if !strings.Contains(err.Error(), "absolute URL") {
		t.Errorf("err = %v, want absolute URL mention", err)
	}
}

func TestLoad_BusModeRequiresAddr(t *testing.T) {
	content := `
modules:
  tasks:
    mode: "bus"
`
	_, err := writeAndTryLoad(t, content)
	if err == nil {
		t.Fatal("Load succeeded without bus.addr")
	}
	if !strings.Contains(err.Error(), "bus.addr") {
		t.Errorf("err = %v, want bus.addr mention", err)
	}
}

func TestLoad_BusMode(t *testing.T) {
	content := `
bus:
  addr: "localhost:6379"

modules:
  tasks:
    mode: "bus"
    bus:
      semantics: "fire_forget"
      timeout: 2s
`
	cfg := writeAndLoad(t, content)
	tasks := cfg.Tasks()
	if tasks.Bus.Semantics != "fire_forget" || tasks.Bus.Timeout != 2*time.Second {
		t.Errorf("bus = %+v", tasks.Bus)
	}
}

func TestLoad_UnknownModeFails(t *testing.T) {
	content := `
modules:
  tasks:
    mode: "carrier-pigeon"
`
	if _, err := writeAndTryLoad(t, content); err == nil {
		t.Fatal("Load accepted unknown mode")
	}
}

func TestLoad_UnknownSemanticsFails(t *testing.T) {
	content := `
bus:
  addr: "localhost:6379"

modules:
  tasks:
    mode: "bus"
    bus:
      semantics: "broadcast"
`
	if _, err := writeAndTryLoad(t, content); err == nil {
		t.Fatal("Load accepted unknown semantics")
	}
}

func TestLoad_DisabledModule(t *testing.T) {
	content := `
modules:
  tasks:
    enabled: false
    mode: "inprocess"
`
	cfg := writeAndLoad(t, content)
	if cfg.Tasks().IsEnabled() {
		t.Error("tasks module should be disabled")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TASKGATE_SERVER_PORT", "9999")
	t.Setenv("TASKGATE_TASKS_MODE", "http")
	t.Setenv("TASKGATE_TASKS_ENDPOINT_URL", "http://override:8080")

	cfg := writeAndLoad(t, "server:\n  port: 8080\n")

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999 (env override)", cfg.Server.Port)
	}
	tasks := cfg.Tasks()
	if tasks.Mode != config.ModeHTTP || tasks.Endpoint.URL != "http://override:8080" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TASKS_URL", "http://expanded:8080")

	content := `
modules:
  tasks:
    mode: "http"
    endpoint:
      url: "${TASKS_URL}"
`
	cfg := writeAndLoad(t, content)
	if cfg.Tasks().Endpoint.URL != "http://expanded:8080" {
		t.Errorf("URL = %s, want expanded value", cfg.Tasks().Endpoint.URL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load succeeded on missing file")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	if _, err := writeAndTryLoad(t, "logging:\n  level: loud\n"); err == nil {
		t.Fatal("Load accepted invalid log level")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TASKGATE_DATABASE_DRIVER", "memory")
	t.Setenv("TASKGATE_LOG_LEVEL", "debug")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("Driver = %s, want memory", cfg.Database.Driver)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %s, want debug", cfg.Logging.Level)
	}
}
