package pool

import (
	"sort"
	"sync"

	"entropic/internal/capability"
)

// Factory registers one entropy source kind with the pool's auto-wiring
// machinery. Construction is deferred to New so that a kind is never
// instantiated unless a pool actually requests it.
type Factory struct {
	Name                 string
	Category             string
	PlatformRequirements []string
	New                  func() Source
}

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// Register adds a source kind to the process-wide registry consulted by
// Auto. Intended to be called once from a source package's init, the
// same pattern database/sql uses for drivers: the pool package never
// imports the sources package directly, avoiding an import cycle while
// still letting Auto discover every kind that has been linked in.
func Register(f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[f.Name] = f
}

// registeredFactories returns every registered factory, sorted by name
// so Auto's wiring order is deterministic across runs.
func registeredFactories() []Factory {
	registryMu.Lock()
	defer registryMu.Unlock()

	out := make([]Factory, 0, len(registry))
	for _, f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Auto constructs a pool seeded purely from the system CSPRNG, then adds
// every registered source kind whose platform requirements the given
// capability snapshot satisfies and whose Available method, where the
// source has one, reports true, at weight 1.0.
func Auto(caps *capability.Capabilities) (*Pool, error) {
	p, err := New(nil)
	if err != nil {
		return nil, err
	}
	for _, f := range registeredFactories() {
		if !caps.HasAll(f.PlatformRequirements) {
			continue
		}
		src := f.New()
		if a, ok := src.(interface{ Available() bool }); ok && !a.Available() {
			continue
		}
		if err := p.AddSourceWithCategory(src, 1.0, f.Category); err != nil {
			return nil, err
		}
	}
	return p, nil
}
