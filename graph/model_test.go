// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package graph_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/lumen/graph"
	"github.com/gogpu/lumen/internal/stub"
	"github.com/gogpu/lumen/render"
)

// arityNode has a settable input count, for exercising edge pruning when a
// node lowers its arity between flushes.
type arityNode struct {
	graph.BaseNode
	inputs int
}

func (n *arityNode) InputCount() int { return n.inputs }

func (n *arityNode) Clone(chain *render.Chain) graph.Node {
	c := *n
	return &c
}

func (n *arityNode) Paint(chain *render.Chain, inputs []render.TextureHandle) render.TextureHandle {
	return render.NilHandle
}

func newTestChain(t *testing.T) (*stub.Backend, *render.Chain) {
	t.Helper()
	backend := stub.NewBackend()
	chain, err := render.NewChain(backend, 100, 100)
	if err != nil {
		t.Fatalf("NewChain() = %v", err)
	}
	t.Cleanup(chain.Release)
	return backend, chain
}

func TestAddNodeAssignsIDs(t *testing.T) {
	m := graph.NewModel()
	a := stub.NewColorNode(1, 0, 0, 1)
	b := stub.NewEffectNode("b")

	if a.ID() != 0 {
		t.Errorf("ID() before add = %d, want 0", a.ID())
	}
	m.AddNode(a)
	m.AddNode(b)

	if a.ID() == 0 || b.ID() == 0 {
		t.Fatalf("IDs after add = %d, %d, want nonzero", a.ID(), b.ID())
	}
	if a.ID() == b.ID() {
		t.Errorf("IDs not unique: both %d", a.ID())
	}
	if got := m.NodeByID(a.ID()); got != graph.Node(a) {
		t.Error("NodeByID() did not return the added node")
	}
}

func TestAddNodeTwiceIsNoop(t *testing.T) {
	m := graph.NewModel()
	a := stub.NewColorNode(1, 0, 0, 1)
	m.AddNode(a)
	id := a.ID()
	m.AddNode(a)

	if a.ID() != id {
		t.Errorf("ID changed on re-add: %d -> %d", id, a.ID())
	}
	if got := len(m.Vertices()); got != 1 {
		t.Errorf("len(Vertices()) = %d, want 1", got)
	}
}

func TestConnectReplacesOccupiedPort(t *testing.T) {
	m := graph.NewModel()
	a := stub.NewColorNode(1, 0, 0, 1)
	b := stub.NewColorNode(0, 1, 0, 1)
	c := stub.NewEffectNode("c")
	m.AddNode(a)
	m.AddNode(b)
	m.AddNode(c)

	if err := m.Connect(a, c, 0); err != nil {
		t.Fatalf("Connect(a, c, 0) = %v", err)
	}
	if err := m.Connect(b, c, 0); err != nil {
		t.Fatalf("Connect(b, c, 0) = %v", err)
	}

	edges := m.Edges()
	if len(edges) != 1 {
		t.Fatalf("len(Edges()) = %d, want 1", len(edges))
	}
	want := graph.Edge{From: b, To: c, ToInput: 0}
	if edges[0] != want {
		t.Errorf("Edges()[0] = %+v, want %+v", edges[0], want)
	}
}

func TestConnectSameEdgeTwiceIsNoop(t *testing.T) {
	m := graph.NewModel()
	a := stub.NewColorNode(1, 0, 0, 1)
	b := stub.NewEffectNode("b")
	m.AddNode(a)
	m.AddNode(b)

	if err := m.Connect(a, b, 0); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if err := m.Connect(a, b, 0); err != nil {
		t.Fatalf("Connect() second time = %v", err)
	}
	if got := len(m.Edges()); got != 1 {
		t.Errorf("len(Edges()) = %d, want 1", got)
	}
}

func TestConnectRejectsCycle(t *testing.T) {
	m := graph.NewModel()
	a := stub.NewEffectNode("a")
	b := stub.NewEffectNode("b")
	c := stub.NewEffectNode("c")
	m.AddNode(a)
	m.AddNode(b)
	m.AddNode(c)

	if err := m.Connect(a, b, 0); err != nil {
		t.Fatalf("Connect(a, b) = %v", err)
	}
	if err := m.Connect(b, c, 0); err != nil {
		t.Fatalf("Connect(b, c) = %v", err)
	}

	err := m.Connect(c, a, 0)
	if !errors.Is(err, graph.ErrWouldCycle) {
		t.Fatalf("Connect(c, a) = %v, want ErrWouldCycle", err)
	}
	// The failed connect must leave the edge set untouched.
	if got := len(m.Edges()); got != 2 {
		t.Errorf("len(Edges()) after rejected connect = %d, want 2", got)
	}
}

func TestConnectValidatesEdge(t *testing.T) {
	m := graph.NewModel()
	a := stub.NewColorNode(1, 0, 0, 1)
	b := stub.NewEffectNode("b")
	outsider := stub.NewEffectNode("outsider")
	m.AddNode(a)
	m.AddNode(b)

	cases := []struct {
		name    string
		from    graph.Node
		to      graph.Node
		toInput int
	}{
		{"from outside model", outsider, b, 0},
		{"to outside model", a, outsider, 0},
		{"negative port", a, b, -1},
		{"port out of range", a, b, 1},
	}
	for _, tc := range cases {
		if err := m.Connect(tc.from, tc.to, tc.toInput); !errors.Is(err, graph.ErrBadEdge) {
			t.Errorf("%s: Connect() = %v, want ErrBadEdge", tc.name, err)
		}
	}
}

func TestDisconnect(t *testing.T) {
	m := graph.NewModel()
	a := stub.NewColorNode(1, 0, 0, 1)
	b := stub.NewEffectNode("b")
	m.AddNode(a)
	m.AddNode(b)

	if err := m.Connect(a, b, 0); err != nil {
		t.Fatalf("Connect() = %v", err)
	}
	if err := m.Disconnect(a, b, 0); err != nil {
		t.Fatalf("Disconnect() = %v", err)
	}
	if got := len(m.Edges()); got != 0 {
		t.Errorf("len(Edges()) = %d, want 0", got)
	}
	if err := m.Disconnect(a, b, 0); !errors.Is(err, graph.ErrEdgeNotFound) {
		t.Errorf("Disconnect() absent edge = %v, want ErrEdgeNotFound", err)
	}
}

func TestRemoveNodeDropsIncidentEdges(t *testing.T) {
	m := graph.NewModel()
	a := stub.NewColorNode(1, 0, 0, 1)
	b := stub.NewEffectNode("b")
	c := stub.NewEffectNode("c")
	m.AddNode(a)
	m.AddNode(b)
	m.AddNode(c)
	if err := m.Connect(a, b, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Connect(b, c, 0); err != nil {
		t.Fatal(err)
	}

	m.RemoveNode(b)

	if got := len(m.Vertices()); got != 2 {
		t.Errorf("len(Vertices()) = %d, want 2", got)
	}
	if got := len(m.Edges()); got != 0 {
		t.Errorf("len(Edges()) = %d, want 0", got)
	}
}

func TestChainSetSemantics(t *testing.T) {
	m := graph.NewModel()
	_, chain := newTestChain(t)
	_, other := newTestChain(t)

	m.AddChain(chain)
	m.AddChain(chain) // idempotent
	m.AddChain(other)

	if got := len(m.Chains()); got != 2 {
		t.Fatalf("len(Chains()) = %d, want 2", got)
	}

	m.RemoveChain(chain)
	m.RemoveChain(chain) // absent, no-op

	chains := m.Chains()
	if len(chains) != 1 || chains[0] != other {
		t.Errorf("Chains() = %v, want just the other chain", chains)
	}
}

// Output surfaces register chains from their poll goroutines, so the chain
// registry must tolerate concurrent registration against reads elsewhere.
func TestChainSetConcurrentRegistration(t *testing.T) {
	m := graph.NewModel()
	_, resident := newTestChain(t)
	m.AddChain(resident)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		_, chain := newTestChain(t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.AddChain(chain)
				m.RemoveChain(chain)
			}
		}()
	}
	for i := 0; i < 100; i++ {
		m.Chains()
	}
	wg.Wait()

	chains := m.Chains()
	if len(chains) != 1 || chains[0] != resident {
		t.Errorf("Chains() = %v, want just the resident chain", chains)
	}
}

func TestFlushPublishes(t *testing.T) {
	m := graph.NewModel()
	_, chain := newTestChain(t)
	a := stub.NewColorNode(1, 0, 0, 1)
	b := stub.NewEffectNode("b")
	m.AddNode(a)
	m.AddNode(b)
	if err := m.Connect(a, b, 0); err != nil {
		t.Fatal(err)
	}

	// Not flushed yet: render goroutines see the previous (empty) graph.
	if got := len(m.CopyForRendering(chain).Vertices()); got != 0 {
		t.Fatalf("snapshot before flush has %d vertices, want 0", got)
	}

	m.Flush()
	if got := len(m.CopyForRendering(chain).Vertices()); got != 2 {
		t.Errorf("snapshot after flush has %d vertices, want 2", got)
	}
}

func TestFlushPrunesEdgesBeyondArity(t *testing.T) {
	m := graph.NewModel()
	a := stub.NewColorNode(1, 0, 0, 1)
	n := &arityNode{inputs: 2}
	m.AddNode(a)
	m.AddNode(n)
	if err := m.Connect(a, n, 1); err != nil {
		t.Fatal(err)
	}

	n.inputs = 1
	m.Flush()

	if got := len(m.Edges()); got != 0 {
		t.Errorf("len(Edges()) after arity shrink = %d, want 0", got)
	}
}

func TestFlushNotifiesChanges(t *testing.T) {
	m := graph.NewModel()
	var last graph.Change
	m.OnChange(func(ch graph.Change) { last = ch })

	a := stub.NewColorNode(1, 0, 0, 1)
	b := stub.NewEffectNode("b")
	m.AddNode(a)
	m.AddNode(b)
	if err := m.Connect(a, b, 0); err != nil {
		t.Fatal(err)
	}
	m.Flush()

	if got := len(last.VerticesAdded); got != 2 {
		t.Errorf("VerticesAdded = %d, want 2", got)
	}
	if got := len(last.EdgesAdded); got != 1 {
		t.Errorf("EdgesAdded = %d, want 1", got)
	}

	m.RemoveNode(a)
	m.Flush()

	if len(last.VerticesRemoved) != 1 || last.VerticesRemoved[0] != graph.Node(a) {
		t.Errorf("VerticesRemoved = %v, want just a", last.VerticesRemoved)
	}
	if got := len(last.EdgesRemoved); got != 1 {
		t.Errorf("EdgesRemoved = %d, want 1", got)
	}
}

func TestAncestors(t *testing.T) {
	m := graph.NewModel()
	a := stub.NewColorNode(1, 0, 0, 1)
	b := stub.NewEffectNode("b")
	c := stub.NewEffectNode("c")
	d := stub.NewEffectNode("d")
	for _, n := range []graph.Node{a, b, c, d} {
		m.AddNode(n)
	}
	if err := m.Connect(a, b, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Connect(b, c, 0); err != nil {
		t.Fatal(err)
	}

	anc := m.Ancestors(c)
	if len(anc) != 2 {
		t.Fatalf("len(Ancestors(c)) = %d, want 2", len(anc))
	}
	if !m.IsAncestor(a, c) {
		t.Error("IsAncestor(a, c) = false, want true")
	}
	if m.IsAncestor(c, a) {
		t.Error("IsAncestor(c, a) = true, want false")
	}
	if m.IsAncestor(d, c) {
		t.Error("IsAncestor(d, c) = true, want false")
	}
}

func TestClear(t *testing.T) {
	m := graph.NewModel()
	a := stub.NewColorNode(1, 0, 0, 1)
	b := stub.NewEffectNode("b")
	m.AddNode(a)
	m.AddNode(b)
	if err := m.Connect(a, b, 0); err != nil {
		t.Fatal(err)
	}

	m.Clear()

	if got := len(m.Vertices()); got != 0 {
		t.Errorf("len(Vertices()) = %d, want 0", got)
	}
	if got := len(m.Edges()); got != 0 {
		t.Errorf("len(Edges()) = %d, want 0", got)
	}
}
