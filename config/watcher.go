package config

import (
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher observes the config file for drift after startup. Module bindings
// are fixed at process start, so the watcher never rebinds anything: it
// re-parses the changed file and logs whether a restart would pick up
// different settings. An unparseable edit is reported too.
type Watcher struct {
	path    string
	active  *Config
	logger  zerolog.Logger
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// NewWatcher creates a drift watcher for the given config file. active is
// the configuration the process actually started with.
func NewWatcher(path string, active *Config, logger zerolog.Logger) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	return &Watcher{
		path:   absPath,
		active: active,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Start begins watching. Watching the directory rather than the file is
// more reliable for editors that do atomic saves.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	w.watcher = watcher

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go w.watchLoop()

	w.logger.Info().Str("path", w.path).Msg("watching config file for drift")
	return nil
}

// Stop stops watching.
func (w *Watcher) Stop() {
	close(w.stopCh)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) watchLoop() {
	filename := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			// Write or create (atomic save = create)
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.checkDrift()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("config watcher error")

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) checkDrift() {
	onDisk, err := Load(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).
			Msg("config file changed but no longer loads; running config unaffected")
		return
	}

	if reflect.DeepEqual(onDisk, w.active) {
		w.logger.Debug().Str("path", w.path).Msg("config file rewritten without changes")
		return
	}

	drifted := driftedSections(w.active, onDisk)
	w.logger.Warn().
		Str("path", w.path).
		Strs("sections", drifted).
		Msg("config file drifted from running configuration; restart required to apply")
}

// driftedSections names the top-level sections that differ, so the operator
// knows what a restart would change.
func driftedSections(active, onDisk *Config) []string {
	var sections []string
	if !reflect.DeepEqual(active.Server, onDisk.Server) {
		sections = append(sections, "server")
	}
	if !reflect.DeepEqual(active.Database, onDisk.Database) {
		sections = append(sections, "database")
	}
	if !reflect.DeepEqual(active.Bus, onDisk.Bus) {
		sections = append(sections, "bus")
	}
	if !reflect.DeepEqual(active.RateLimit, onDisk.RateLimit) {
		sections = append(sections, "rate_limit")
	}
	if !reflect.DeepEqual(active.Logging, onDisk.Logging) {
		sections = append(sections, "logging")
	}
	if !reflect.DeepEqual(active.Metrics, onDisk.Metrics) {
		sections = append(sections, "metrics")
	}
	if !reflect.DeepEqual(active.Modules, onDisk.Modules) {
		sections = append(sections, "modules")
	}
	return sections
}
