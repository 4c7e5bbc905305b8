// Package registry implements the static graph registry described in
// SPEC_FULL.md §4.1: a process-start-populated name→descriptor/loader
// table, replacing the distilled Python original's dynamic
// importlib-based load_graph per the Design Notes' explicit instruction.
// Grounded on
// original_source/services/workflows/src/core/registry.py's WORKFLOWS
// dict and validate_initial_state.
package registry

import (
	"sync"

	"github.com/coagents/workflow-engine/internal/node"
	"github.com/coagents/workflow-engine/internal/state"
	"github.com/coagents/workflow-engine/internal/wferrors"
)

// Descriptor is the static metadata for one registered graph.
type Descriptor struct {
	Name           string
	DisplayName    string
	Industry       string
	Tags           []string
	Capabilities   []string
	RequiredFields []string
}

// CompiledGraph is what a Loader returns: the node set and edges needed
// to drive a run, plus the entry node id.
type CompiledGraph struct {
	Descriptor Descriptor
	Entry      string
	Nodes      map[string]node.Node
	Edges      []node.Edge
}

// Loader builds a CompiledGraph. Called at most once per process per
// graph name; the result is cached.
type Loader func() (CompiledGraph, error)

type entry struct {
	descriptor Descriptor
	loader     Loader

	once     sync.Once
	compiled CompiledGraph
	loadErr  error
}

// Registry is the process-wide graph table. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a graph under lock. Re-registering a name replaces its
// entry (used by tests); production callers register each name once at
// process start.
func (r *Registry) Register(d Descriptor, loader Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[d.Name] = &entry{descriptor: d, loader: loader}
}

// List returns descriptors matching the optional industry/tag/capability
// filters; an empty filter matches everything.
func (r *Registry) List(industry, tag, capability string) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.entries))
	for _, e := range r.entries {
		d := e.descriptor
		if industry != "" && d.Industry != industry {
			continue
		}
		if tag != "" && !contains(d.Tags, tag) {
			continue
		}
		if capability != "" && !contains(d.Capabilities, capability) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Get returns the descriptor for name, or ErrUnknownGraph.
func (r *Registry) Get(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Descriptor{}, wferrors.ErrUnknownGraph
	}
	return e.descriptor, nil
}

// Load returns the compiled graph for name, building and caching it on
// first use via a sync.Once guard per entry.
func (r *Registry) Load(name string) (CompiledGraph, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return CompiledGraph{}, wferrors.ErrUnknownGraph
	}
	e.once.Do(func() {
		e.compiled, e.loadErr = e.loader()
	})
	if e.loadErr != nil {
		return CompiledGraph{}, e.loadErr
	}
	return e.compiled, nil
}

// Validate checks initial against the graph's required fields and
// returns the auto-filled base state merged with initial. Required
// fields missing from initial cause wferrors.ErrInvalidState.
func (r *Registry) Validate(name string, initial state.RunState) (state.RunState, error) {
	d, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	base := state.NewBaseState("start")
	merged := state.Merge(base, initial)

	for _, field := range d.RequiredFields {
		if _, ok := merged[field]; !ok {
			return nil, wferrors.ErrInvalidState
		}
	}
	return merged, nil
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
