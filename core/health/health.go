// Package health collects per-module health probes and aggregates them into
// the process liveness and readiness signals. Probes are contributed during
// module registration and the set is fixed afterwards.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultProbeTimeout bounds a single probe check.
const DefaultProbeTimeout = 5 * time.Second

// CheckFunc verifies one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// Probe is a named health check contributed by a module.
type Probe struct {
	// Name identifies the probe (e.g., "tasks.store", "tasks.endpoint").
	Name string

	// Ready marks the probe as readiness-affecting. Probes with Ready=false
	// are informational only; liveness never depends on any probe.
	Ready bool

	// Check performs the verification.
	Check CheckFunc
}

// Result is the outcome of a single probe check.
type Result struct {
	Name  string
	Ready bool
	Err   error
}

// Set holds the registered probes. Registration happens at startup; checks
// run concurrently per request afterwards.
type Set struct {
	mu     sync.RWMutex
	probes []Probe
}

// NewSet creates an empty probe set.
func NewSet() *Set {
	return &Set{}
}

// Add registers probes. Probes without a check function are ignored.
func (s *Set) Add(probes ...Probe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range probes {
		if p.Check == nil {
			continue
		}
		s.probes = append(s.probes, p)
	}
}

// Names returns the sorted probe names.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.probes))
	for _, p := range s.probes {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered probes.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.probes)
}

// CheckReady runs every ready-tagged probe and returns the results sorted by
// name. The process is ready only when every result has a nil error.
func (s *Set) CheckReady(ctx context.Context) []Result {
	s.mu.RLock()
	probes := make([]Probe, 0, len(s.probes))
	for _, p := range s.probes {
		if p.Ready {
			probes = append(probes, p)
		}
	}
	s.mu.RUnlock()

	results := make([]Result, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p Probe) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
			defer cancel()
			results[i] = Result{Name: p.Name, Ready: true, Err: p.Check(checkCtx)}
		}(i, p)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// Healthy reports whether every result passed.
func Healthy(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return false
		}
	}
	return true
}
