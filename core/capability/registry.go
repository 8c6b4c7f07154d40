package capability

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the bound strategy for each enabled module, keyed by
// contract name. It is written once during startup and read-only afterwards:
// Seal is called when registration finishes, and the dispatch path then reads
// without contention.
type Registry struct {
	mu      sync.RWMutex
	sealed  bool
	entries map[string]any
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]any)}
}

// Register binds an implementation to a contract name. Duplicate contracts
// and post-seal registration are programmer errors and fail loudly.
func (r *Registry) Register(contract string, impl any) error {
	if impl == nil {
		return fmt.Errorf("register %q: nil implementation", contract)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %q: registry is sealed", contract)
	}
	if _, exists := r.entries[contract]; exists {
		return fmt.Errorf("register %q: contract already bound", contract)
	}
	r.entries[contract] = impl
	return nil
}

// Seal marks the end of startup registration. Further Register calls fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Get returns the implementation bound to a contract.
func (r *Registry) Get(contract string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	impl, ok := r.entries[contract]
	return impl, ok
}

// Contracts returns the sorted list of bound contract names.
func (r *Registry) Contracts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bound contracts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Resolve returns the implementation bound to a contract, asserted to the
// caller's interface type. Business code uses this instead of ad-hoc type
// assertions on Get.
func Resolve[T any](r *Registry, contract string) (T, error) {
	var zero T

	impl, ok := r.Get(contract)
	if !ok {
		return zero, fmt.Errorf("resolve %q: contract not bound", contract)
	}
	typed, ok := impl.(T)
	if !ok {
		return zero, fmt.Errorf("resolve %q: bound implementation is %T, not %T", contract, impl, zero)
	}
	return typed, nil
}
