// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Serializable is an optional Node capability for nodes that can be saved
// and restored. Nodes that do not implement it are silently skipped by
// SaveGraph, along with their edges.
type Serializable interface {
	Node

	// TypeName returns the registry name used to recreate the node.
	TypeName() string

	// MarshalState returns the node's configuration as JSON. A nil result
	// is valid and means "no configuration".
	MarshalState() (json.RawMessage, error)
}

type graphJSON struct {
	Vertices map[string]vertexJSON `json:"vertices"`
	Edges    []edgeJSON            `json:"edges"`
}

type vertexJSON struct {
	Type  string          `json:"type"`
	State json.RawMessage `json:"state,omitempty"`
}

type edgeJSON struct {
	FromVertex string `json:"fromVertex"`
	ToVertex   string `json:"toVertex"`
	ToInput    int    `json:"toInput"`
}

// SaveGraph serializes the model's staged graph to JSON. Vertices are keyed
// by node identity; only Serializable nodes (and edges between them) are
// written.
func SaveGraph(m *Model) ([]byte, error) {
	doc := graphJSON{Vertices: make(map[string]vertexJSON)}

	saved := make(map[Node]bool)
	for _, v := range m.Vertices() {
		s, ok := v.(Serializable)
		if !ok {
			continue
		}
		state, err := s.MarshalState()
		if err != nil {
			return nil, fmt.Errorf("graph: marshal node %d: %w", s.ID(), err)
		}
		doc.Vertices[strconv.FormatInt(int64(s.ID()), 10)] = vertexJSON{
			Type:  s.TypeName(),
			State: state,
		}
		saved[v] = true
	}

	for _, e := range m.Edges() {
		if !saved[e.From] || !saved[e.To] {
			continue
		}
		doc.Edges = append(doc.Edges, edgeJSON{
			FromVertex: strconv.FormatInt(int64(e.From.ID()), 10),
			ToVertex:   strconv.FormatInt(int64(e.To.ID()), 10),
			ToInput:    e.ToInput,
		})
	}

	return json.MarshalIndent(doc, "", "  ")
}

// LoadGraph clears the model, rebuilds it from serialized JSON using the
// registry (nil means the global registry), and flushes. Loaded nodes get
// fresh identities; the serialized keys only tie edges to vertices within
// the document.
func LoadGraph(m *Model, reg *Registry, data []byte) error {
	if reg == nil {
		reg = globalRegistry
	}

	var doc graphJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("graph: parse: %w", err)
	}

	nodes := make(map[string]Node, len(doc.Vertices))
	for key, v := range doc.Vertices {
		n, err := reg.New(v.Type, v.State)
		if err != nil {
			return fmt.Errorf("graph: vertex %q: %w", key, err)
		}
		nodes[key] = n
	}

	m.Clear()
	// Deterministic AddNode order: sort document keys numerically where
	// possible so reloaded graphs get stable identities.
	keys := make([]string, 0, len(nodes))
	for key := range nodes {
		keys = append(keys, key)
	}
	sortVertexKeys(keys)
	for _, key := range keys {
		m.AddNode(nodes[key])
	}

	for _, e := range doc.Edges {
		from, ok := nodes[e.FromVertex]
		if !ok {
			return fmt.Errorf("graph: edge references unknown vertex %q", e.FromVertex)
		}
		to, ok := nodes[e.ToVertex]
		if !ok {
			return fmt.Errorf("graph: edge references unknown vertex %q", e.ToVertex)
		}
		if err := m.Connect(from, to, e.ToInput); err != nil {
			return err
		}
	}

	m.Flush()
	return nil
}

func sortVertexKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.ParseInt(keys[i], 10, 64)
		b, bErr := strconv.ParseInt(keys[j], 10, 64)
		if aErr == nil && bErr == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
}
