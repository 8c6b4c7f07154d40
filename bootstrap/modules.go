package bootstrap

import (
	"fmt"

	"github.com/rs/zerolog"

	taskbus "github.com/taskgate/taskgate/adapters/bus"
	"github.com/taskgate/taskgate/adapters/inprocess"
	"github.com/taskgate/taskgate/adapters/metrics"
	"github.com/taskgate/taskgate/adapters/remote"
	"github.com/taskgate/taskgate/app"
	"github.com/taskgate/taskgate/config"
	"github.com/taskgate/taskgate/core/capability"
	"github.com/taskgate/taskgate/core/health"
	"github.com/taskgate/taskgate/ports"
)

// TasksDeps carries everything the tasks module registrar may need. Service
// backs the in-process strategy; PubSub must be set when the mode is bus.
type TasksDeps struct {
	Config  config.ModuleConfig
	Service *app.TaskService
	PubSub  taskbus.PubSub
	Metrics *metrics.Collector
	Logger  zerolog.Logger
}

// RegisterTasks selects the tasks dispatch strategy from configuration,
// binds it in the registry, and contributes the strategy's health probes.
// A disabled module registers nothing: no contract, no probes.
func RegisterTasks(registry *capability.Registry, probes *health.Set, deps TasksDeps) error {
	if !deps.Config.IsEnabled() {
		deps.Logger.Info().Str("module", ports.TasksContract).Msg("module disabled, skipping registration")
		return nil
	}

	strategy, strategyProbes, err := buildTasksStrategy(deps)
	if err != nil {
		return fmt.Errorf("build tasks strategy: %w", err)
	}

	bound := strategy
	if deps.Metrics != nil {
		bound = metrics.InstrumentTasks(strategy, deps.Metrics, ports.TasksContract, deps.Config.Mode)
	}

	if err := registry.Register(ports.TasksContract, bound); err != nil {
		return fmt.Errorf("register tasks: %w", err)
	}
	probes.Add(strategyProbes...)

	deps.Logger.Info().
		Str("module", ports.TasksContract).
		Str("mode", deps.Config.Mode).
		Msg("module registered")
	return nil
}

func buildTasksStrategy(deps TasksDeps) (ports.TaskCapability, []health.Probe, error) {
	switch deps.Config.Mode {
	case config.ModeInProcess:
		strategy := inprocess.NewTasks(deps.Service)
		return strategy, strategy.Probes(), nil

	case config.ModeHTTP:
		clientCfg := remote.ClientConfig{
			BaseURL:  deps.Config.Endpoint.URL,
			Timeout:  deps.Config.Endpoint.Timeout,
			Headers:  deps.Config.Endpoint.Headers,
			Attempts: deps.Config.Endpoint.Attempts,
			Logger:   deps.Logger,
		}
		if deps.Metrics != nil {
			clientCfg.OnRetry = func(int) {
				deps.Metrics.DispatchRetries.WithLabelValues(ports.TasksContract).Inc()
			}
		}
		strategy := remote.NewTasks(remote.NewClient(clientCfg))
		return strategy, strategy.Probes(), nil

	case config.ModeBus:
		if deps.PubSub == nil {
			return nil, nil, fmt.Errorf("bus mode requires a broker connection")
		}
		strategy := taskbus.NewTasks(taskbus.Config{
			PubSub:    deps.PubSub,
			Semantics: taskbus.Semantics(deps.Config.Bus.Semantics),
			Timeout:   deps.Config.Bus.Timeout,
			Logger:    deps.Logger,
		})
		return strategy, strategy.Probes(), nil

	default:
		return nil, nil, fmt.Errorf("unknown dispatch mode %q", deps.Config.Mode)
	}
}
