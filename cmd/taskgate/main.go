// Package main is the entry point for taskgate.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/taskgate/taskgate/bootstrap"
	"github.com/taskgate/taskgate/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "taskgate.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	validate := flag.Bool("validate", false, "Validate configuration and exit")
	watch := flag.Bool("watch-config", true, "Warn when the config file drifts from the running configuration")
	flag.Parse()

	if *showVersion {
		fmt.Printf("taskgate %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if *validate {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration valid\n")
		for name, mod := range cfg.Modules {
			state := "enabled"
			if !mod.IsEnabled() {
				state = "disabled"
			}
			fmt.Printf("  module %s: %s, mode %s\n", name, state, mod.Mode)
		}
		os.Exit(0)
	}

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
		os.Exit(1)
	}

	// Module bindings stay fixed for the process lifetime; the watcher only
	// reports that a restart would pick up different settings.
	if *watch {
		if _, statErr := os.Stat(*configPath); statErr == nil {
			if err := app.WatchConfig(*configPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: config watcher unavailable: %v\n", err)
			}
		}
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
