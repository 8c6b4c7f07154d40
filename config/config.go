// Package config provides configuration loading and validation. The module
// binding it describes is fixed at startup: changing a module's dispatch
// mode requires a restart, and the drift watcher only reports that a restart
// is needed.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Module dispatch modes.
const (
	ModeInProcess = "inprocess"
	ModeHTTP      = "http"
	ModeBus       = "bus"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Database  DatabaseConfig          `yaml:"database"`
	Bus       BusConfig               `yaml:"bus"`
	RateLimit RateLimitConfig         `yaml:"rate_limit"`
	Logging   LoggingConfig           `yaml:"logging"`
	Metrics   MetricsConfig           `yaml:"metrics"`
	Modules   map[string]ModuleConfig `yaml:"modules"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the task store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// BusConfig configures the message broker connection, shared by every
// module dispatched in bus mode and by the bus listener.
type BusConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	// Serve starts the server-side listener so other instances can
	// dispatch to this one over the bus.
	Serve bool `yaml:"serve"`
}

// RateLimitConfig configures inbound request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// ModuleConfig selects a module's dispatch strategy. The choice is made
// once, at startup.
type ModuleConfig struct {
	Enabled  *bool           `yaml:"enabled,omitempty"` // nil means enabled
	Mode     string          `yaml:"mode"`              // "inprocess", "http" or "bus"
	Endpoint EndpointConfig  `yaml:"endpoint,omitempty"`
	Bus      ModuleBusConfig `yaml:"bus,omitempty"`
	Features map[string]bool `yaml:"features,omitempty"`
}

// IsEnabled reports whether the module is enabled. Absent means enabled:
// disabling is an explicit decision.
func (m ModuleConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// Feature reports whether a named module feature is switched on.
func (m ModuleConfig) Feature(name string) bool {
	return m.Features[name]
}

// EndpointConfig configures a remote module endpoint for http mode.
type EndpointConfig struct {
	URL      string            `yaml:"url"`
	Timeout  time.Duration     `yaml:"timeout,omitempty"`
	Attempts int               `yaml:"attempts,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
}

// ModuleBusConfig configures bus-mode dispatch for a module.
type ModuleBusConfig struct {
	Semantics string        `yaml:"semantics,omitempty"` // "request_reply" or "fire_forget"
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// Tasks returns the tasks module configuration, defaulted when absent.
func (c *Config) Tasks() ModuleConfig {
	return c.Modules["tasks"]
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Environment variables always override file-based configuration
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// Useful for container deployments where no config file is mounted.
//
// Environment variables:
//
//	TASKGATE_SERVER_HOST        - Server host (default: 0.0.0.0)
//	TASKGATE_SERVER_PORT        - Server port (default: 8080)
//	TASKGATE_DATABASE_DRIVER    - "sqlite" or "memory" (default: sqlite)
//	TASKGATE_DATABASE_DSN       - Database path (default: taskgate.db)
//	TASKGATE_BUS_ADDR           - Redis address for bus mode
//	TASKGATE_TASKS_MODE         - tasks dispatch mode (default: inprocess)
//	TASKGATE_TASKS_ENDPOINT_URL - tasks endpoint for http mode
//	TASKGATE_RATELIMIT_ENABLED  - Enable inbound rate limiting
//	TASKGATE_LOG_LEVEL          - Log level (default: info)
//	TASKGATE_LOG_FORMAT         - json or console (default: json)
//	TASKGATE_METRICS_ENABLED    - Enable /metrics endpoint
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables when the file is absent.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TASKGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TASKGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TASKGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("TASKGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("TASKGATE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("TASKGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("TASKGATE_BUS_ADDR"); v != "" {
		cfg.Bus.Addr = v
	}
	if v := os.Getenv("TASKGATE_BUS_SERVE"); v != "" {
		cfg.Bus.Serve = parseBool(v)
	}

	if v := os.Getenv("TASKGATE_RATELIMIT_ENABLED"); v != "" {
		cfg.RateLimit.Enabled = parseBool(v)
	}

	if v := os.Getenv("TASKGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TASKGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("TASKGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	// Per-module overrides for the tasks module
	tasksMode := os.Getenv("TASKGATE_TASKS_MODE")
	tasksURL := os.Getenv("TASKGATE_TASKS_ENDPOINT_URL")
	if tasksMode != "" || tasksURL != "" {
		if cfg.Modules == nil {
			cfg.Modules = make(map[string]ModuleConfig)
		}
		mod := cfg.Modules["tasks"]
		if tasksMode != "" {
			mod.Mode = tasksMode
		}
		if tasksURL != "" {
			mod.Endpoint.URL = tasksURL
		}
		cfg.Modules["tasks"] = mod
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "taskgate.db"
	}

	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 50
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 100
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Default tasks module: enabled, in-process
	if cfg.Modules == nil {
		cfg.Modules = make(map[string]ModuleConfig)
	}
	mod := cfg.Modules["tasks"]
	if mod.Mode == "" {
		mod.Mode = ModeInProcess
	}
	cfg.Modules["tasks"] = mod
}

func validate(cfg *Config) error {
	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}

	for name, mod := range cfg.Modules {
		switch mod.Mode {
		case ModeInProcess:
			// No further requirements: the module binds its local handler.
		case ModeHTTP:
			if mod.Endpoint.URL == "" {
				return fmt.Errorf("modules.%s.endpoint.url is required when mode is 'http'", name)
			}
			u, err := url.Parse(mod.Endpoint.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("modules.%s.endpoint.url %q is not an absolute URL", name, mod.Endpoint.URL)
			}
		case ModeBus:
			if cfg.Bus.Addr == "" {
				return fmt.Errorf("bus.addr is required when modules.%s.mode is 'bus'", name)
			}
			switch mod.Bus.Semantics {
			case "", "request_reply", "fire_forget":
			default:
				return fmt.Errorf("modules.%s.bus.semantics must be 'request_reply' or 'fire_forget', got %q",
					name, mod.Bus.Semantics)
			}
		default:
			return fmt.Errorf("modules.%s.mode must be 'inprocess', 'http' or 'bus', got %q", name, mod.Mode)
		}
	}

	if cfg.Bus.Serve && cfg.Bus.Addr == "" {
		return fmt.Errorf("bus.addr is required when bus.serve is enabled")
	}

	return nil
}
