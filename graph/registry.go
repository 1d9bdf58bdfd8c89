// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"encoding/json"
	"sort"
	"sync"
)

// Factory creates a node of one registered type from its serialized state.
// state is the raw JSON stored under the vertex's "state" key and may be
// nil for types with no configuration.
type Factory func(state json.RawMessage) (Node, error)

// globalRegistry is the default registry.
var globalRegistry = &Registry{}

// Registry maps node type names to factories. It is what lets a serialized
// graph be deserialized without the engine core knowing any concrete node
// types: node packages register themselves in init.
//
// Example registration:
//
//	func init() {
//	    graph.RegisterNodeType("effect", newEffectFromState)
//	}
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry. Most code should use the
// global registry via RegisterNodeType and NewNode.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterNodeType adds a node type to the global registry.
// Registering a name that already exists replaces the previous factory.
func RegisterNodeType(name string, factory Factory) {
	globalRegistry.Register(name, factory)
}

// UnregisterNodeType removes a node type from the global registry.
func UnregisterNodeType(name string) {
	globalRegistry.Unregister(name)
}

// NodeTypes returns all type names in the global registry, sorted.
func NodeTypes() []string {
	return globalRegistry.Types()
}

// NewNode creates a node of the named type using the global registry.
func NewNode(name string, state json.RawMessage) (Node, error) {
	return globalRegistry.New(name, state)
}

// Register adds a node type to this registry.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	r.factories[name] = factory
}

// Unregister removes a node type from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.factories, name)
}

// Types returns all registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a node of the named type.
func (r *Registry) New(name string, state json.RawMessage) (Node, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownTypeError{Name: name}
	}
	return factory(state)
}

// UnknownTypeError indicates a node type name with no registered factory.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return "graph: unknown node type: " + e.Name
}
