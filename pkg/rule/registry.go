package rule

import (
	"sort"
	"sync"

	"github.com/sahilm/fuzzy"
)

// Registry maps rule names to runners. It is safe for concurrent use.
type Registry struct {
	runners map[string]Runner
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{runners: map[string]Runner{}}
}

// Register adds or replaces the runner for name.
func (r *Registry) Register(name string, runner Runner) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runners[name] = runner
}

// Lookup returns the runner registered for name.
//
//nolint:ireturn // Runner is the registry's element type.
func (r *Registry) Lookup(name string) (Runner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runner, ok := r.runners[name]

	return runner, ok
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Describe returns the description of the runner for name, if it has one.
func (r *Registry) Describe(name string) string {
	runner, ok := r.Lookup(name)
	if !ok {
		return ""
	}

	if d, ok := runner.(Describer); ok {
		return d.Description()
	}

	return ""
}

// Suggest returns the registered name closest to name, or an empty string.
func (r *Registry) Suggest(name string) string {
	matches := fuzzy.Find(name, r.Names())
	if len(matches) == 0 {
		return ""
	}

	return matches[0].Str
}
