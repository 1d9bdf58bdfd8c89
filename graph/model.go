// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/lumen"
	"github.com/gogpu/lumen/render"
)

// Model errors.
var (
	// ErrBadEdge is returned when an edge references a nil node, a node
	// not in the model, or a negative input port.
	ErrBadEdge = errors.New("graph: bad edge")

	// ErrWouldCycle is returned by Connect when the new edge would create
	// a cycle in the stored structure.
	ErrWouldCycle = errors.New("graph: edge would create a cycle")

	// ErrEdgeNotFound is returned by Disconnect for an absent edge.
	ErrEdgeNotFound = errors.New("graph: edge not found")
)

// Change describes the net effect of one Flush: which vertices and edges
// appeared or disappeared relative to the previously published graph.
// The editor layer consumes it to invalidate selection-derived state.
type Change struct {
	VerticesAdded   []Node
	VerticesRemoved []Node
	EdgesAdded      []Edge
	EdgesRemoved    []Edge
}

// Model is the video-node graph: nodes, edges, and the set of active
// render chains.
//
// All mutating methods, and Flush, belong to one owning goroutine, with
// two exceptions: CopyForRendering reads only the published copy guarded
// by the publish mutex, and the chain registry (AddChain, RemoveChain,
// Chains) carries its own lock so display hotplug can register chains
// from its poll goroutine. See the package documentation for the full
// discipline.
type Model struct {
	nextID NodeID

	vertices  []Node
	edges     []Edge
	listeners []func(Change)

	// chainsMu guards the chain registry. Chains are registered and
	// unregistered by output surfaces whose screen tracking runs off the
	// owning goroutine.
	chainsMu sync.Mutex
	chains   []*render.Chain

	// publishMu guards the published-for-rendering copy below. Flush is
	// the only writer; CopyForRendering the only reader. Never held
	// during node rendering.
	publishMu   sync.Mutex
	pubVertices []Node
	pubEdges    []Edge
	pubSorted   []Node
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{nextID: 1}
}

// OnChange registers a listener invoked after every Flush with the
// changeset. Owning goroutine only; listeners run on the owning goroutine.
func (m *Model) OnChange(fn func(Change)) {
	m.listeners = append(m.listeners, fn)
}

// AddChain registers a render chain. Adding a chain that is already
// registered is a no-op. Safe from any goroutine.
func (m *Model) AddChain(chain *render.Chain) {
	if chain == nil {
		return
	}
	m.chainsMu.Lock()
	defer m.chainsMu.Unlock()
	if m.chainIndexLocked(chain) >= 0 {
		return
	}
	m.chains = append(m.chains, chain)
}

// RemoveChain unregisters a render chain. Removing an absent chain is a
// no-op. The chain's consumer must call this before releasing the chain.
// Safe from any goroutine.
func (m *Model) RemoveChain(chain *render.Chain) {
	m.chainsMu.Lock()
	defer m.chainsMu.Unlock()
	i := m.chainIndexLocked(chain)
	if i < 0 {
		return
	}
	m.chains = append(m.chains[:i], m.chains[i+1:]...)
}

// Chains returns the registered chains. Safe from any goroutine.
func (m *Model) Chains() []*render.Chain {
	m.chainsMu.Lock()
	defer m.chainsMu.Unlock()
	out := make([]*render.Chain, len(m.chains))
	copy(out, m.chains)
	return out
}

func (m *Model) chainIndexLocked(chain *render.Chain) int {
	for i, c := range m.chains {
		if c == chain {
			return i
		}
	}
	return -1
}

// AddNode adds a node to the graph and assigns its identity. Adding a nil
// or already-present node is a no-op. If the node requests private chains,
// they are registered as well.
func (m *Model) AddNode(n Node) {
	if n == nil || m.containsNode(n) {
		return
	}
	n.bindID(m.nextID)
	m.nextID++
	m.vertices = append(m.vertices, n)

	if cr, ok := n.(ChainRequester); ok {
		for _, c := range cr.RequestedChains() {
			m.AddChain(c)
		}
	}
}

// RemoveNode removes a node and every edge incident to it. Removing a nil
// or absent node is a no-op.
func (m *Model) RemoveNode(n Node) {
	if n == nil {
		return
	}
	kept := m.edges[:0]
	for _, e := range m.edges {
		if e.From != n && e.To != n {
			kept = append(kept, e)
		}
	}
	m.edges = kept

	for i, v := range m.vertices {
		if v == n {
			m.vertices = append(m.vertices[:i], m.vertices[i+1:]...)
			break
		}
	}

	if cr, ok := n.(ChainRequester); ok {
		for _, c := range cr.RequestedChains() {
			m.RemoveChain(c)
		}
	}
}

// Connect adds the edge from→to at input port toInput, replacing any edge
// already occupying that port. The edge is rejected if it would create a
// cycle in the stored structure.
func (m *Model) Connect(from, to Node, toInput int) error {
	if from == nil || to == nil || toInput < 0 ||
		!m.containsNode(from) || !m.containsNode(to) {
		return fmt.Errorf("%w: %v -> %v @%d", ErrBadEdge, from, to, toInput)
	}
	if toInput >= to.InputCount() {
		return fmt.Errorf("%w: input %d out of range for %d-input node", ErrBadEdge, toInput, to.InputCount())
	}

	edgesOld := make([]Edge, len(m.edges))
	copy(edgesOld, m.edges)

	kept := m.edges[:0]
	for _, e := range m.edges {
		if e.To == to && e.ToInput == toInput {
			if e.From == from {
				m.edges = edgesOld
				return nil // already connected
			}
			lumen.Logger().Debug("replacing edge",
				"to", int64(to.ID()), "input", toInput)
			continue
		}
		kept = append(kept, e)
	}
	m.edges = append(kept, Edge{From: from, To: to, ToInput: toInput})

	if sorted := topoSort(m.vertices, m.edges); len(sorted) < len(m.vertices) {
		m.edges = edgesOld
		lumen.Logger().Warn("rejected edge: would create a cycle",
			"from", int64(from.ID()), "to", int64(to.ID()), "input", toInput)
		return ErrWouldCycle
	}
	return nil
}

// Disconnect removes the edge from→to at toInput.
func (m *Model) Disconnect(from, to Node, toInput int) error {
	if from == nil || to == nil || toInput < 0 ||
		!m.containsNode(from) || !m.containsNode(to) {
		return fmt.Errorf("%w: %v -> %v @%d", ErrBadEdge, from, to, toInput)
	}
	for i, e := range m.edges {
		if e.From == from && e.To == to && e.ToInput == toInput {
			m.edges = append(m.edges[:i], m.edges[i+1:]...)
			return nil
		}
	}
	return ErrEdgeNotFound
}

// Vertices returns the nodes in insertion order.
func (m *Model) Vertices() []Node {
	out := make([]Node, len(m.vertices))
	copy(out, m.vertices)
	return out
}

// Edges returns the edge set.
func (m *Model) Edges() []Edge {
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out
}

// NodeByID returns the node with the given identity, or nil.
func (m *Model) NodeByID(id NodeID) Node {
	for _, v := range m.vertices {
		if v.ID() == id {
			return v
		}
	}
	return nil
}

// Clear removes every node (and its edges) from the graph.
func (m *Model) Clear() {
	for len(m.vertices) > 0 {
		m.RemoveNode(m.vertices[0])
	}
}

// Flush publishes the staged graph for rendering and notifies change
// listeners. Edits are invisible to render goroutines until flushed.
//
// Edges whose destination port no longer exists (a node lowered its input
// count) are pruned first.
func (m *Model) Flush() {
	kept := m.edges[:0]
	for _, e := range m.edges {
		if e.ToInput < e.To.InputCount() {
			kept = append(kept, e)
		} else {
			lumen.Logger().Debug("pruning invalid edge",
				"to", int64(e.To.ID()), "input", e.ToInput)
		}
	}
	m.edges = kept

	var ch Change
	for _, v := range m.vertices {
		if !nodeIn(m.pubVertices, v) {
			ch.VerticesAdded = append(ch.VerticesAdded, v)
		}
	}
	for _, v := range m.pubVertices {
		if !nodeIn(m.vertices, v) {
			ch.VerticesRemoved = append(ch.VerticesRemoved, v)
		}
	}
	for _, e := range m.edges {
		if !edgeIn(m.pubEdges, e) {
			ch.EdgesAdded = append(ch.EdgesAdded, e)
		}
	}
	for _, e := range m.pubEdges {
		if !edgeIn(m.edges, e) {
			ch.EdgesRemoved = append(ch.EdgesRemoved, e)
		}
	}

	m.publishMu.Lock()
	m.pubVertices = append([]Node(nil), m.vertices...)
	m.pubEdges = append([]Edge(nil), m.edges...)
	m.pubSorted = topoSort(m.pubVertices, m.pubEdges)
	m.publishMu.Unlock()

	for _, fn := range m.listeners {
		fn(ch)
	}
}

// CopyForRendering copies the published graph into an immutable snapshot
// bound to chain. Safe to call from a render goroutine; holds the publish
// mutex only for the duration of the copy, never while rendering.
func (m *Model) CopyForRendering(chain *render.Chain) *Snapshot {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	index := make(map[Node]int, len(m.pubSorted))
	for i, v := range m.pubSorted {
		index[v] = i
	}

	s := &Snapshot{chain: chain}
	for _, e := range m.pubEdges {
		to, ok := index[e.To]
		if !ok {
			continue
		}
		from, ok := index[e.From]
		if !ok {
			from = -1
		}
		s.fromVertex = append(s.fromVertex, from)
		s.toVertex = append(s.toVertex, to)
		s.toInput = append(s.toInput, e.ToInput)
	}
	for _, v := range m.pubSorted {
		s.vertices = append(s.vertices, v.Clone(chain))
	}
	return s
}

// Ancestors returns every node from which n is reachable.
func (m *Model) Ancestors(n Node) []Node {
	seen := make(map[Node]bool)
	stack := []Node{n}
	var out []Node

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range m.edges {
			if e.To != cur || seen[e.From] {
				continue
			}
			seen[e.From] = true
			out = append(out, e.From)
			stack = append(stack, e.From)
		}
	}
	return out
}

// IsAncestor reports whether child is reachable from parent.
func (m *Model) IsAncestor(parent, child Node) bool {
	for _, a := range m.Ancestors(child) {
		if a == parent {
			return true
		}
	}
	return false
}

func (m *Model) containsNode(n Node) bool { return nodeIn(m.vertices, n) }

func nodeIn(list []Node, n Node) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}

func edgeIn(list []Edge, e Edge) bool {
	for _, x := range list {
		if x == e {
			return true
		}
	}
	return false
}
