package policy

import "sync/atomic"

// Store holds the current snapshot. Readers never block.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store seeded with the baseline snapshot
func NewStore(baseline Snapshot) *Store {
	s := &Store{}
	s.current.Store(&baseline)
	return s
}

// Load returns the current snapshot
func (s *Store) Load() Snapshot {
	return *s.current.Load()
}

// Swap replaces the current snapshot
func (s *Store) Swap(next Snapshot) {
	s.current.Store(&next)
}

// Rule decides from a snapshot whether a workflow may act
type Rule func(Snapshot) bool

// Gate answers whether a workflow should run this tick. It is a pure
// read of the store and performs no I/O.
type Gate struct {
	store *Store
	rules map[string]Rule
}

// NewGate creates a gate over store. Workflows without a rule always run.
func NewGate(store *Store, rules map[string]Rule) *Gate {
	copied := make(map[string]Rule, len(rules))
	for name, rule := range rules {
		copied[name] = rule
	}
	return &Gate{store: store, rules: copied}
}

// ShouldRun evaluates the rule of workflow against the current snapshot
func (g *Gate) ShouldRun(workflow string) bool {
	rule, ok := g.rules[workflow]
	if !ok || rule == nil {
		return true
	}
	return rule(g.store.Load())
}

// Snapshot returns the snapshot the gate currently reads
func (g *Gate) Snapshot() Snapshot {
	return g.store.Load()
}
