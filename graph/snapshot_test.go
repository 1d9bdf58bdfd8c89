// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package graph_test

import (
	"testing"

	"github.com/gogpu/lumen/graph"
	"github.com/gogpu/lumen/internal/stub"
)

func TestSnapshotRenderPipeline(t *testing.T) {
	m := graph.NewModel()
	_, chain := newTestChain(t)

	src := stub.NewColorNode(1, 0, 0, 1)
	blur := stub.NewEffectNode("blur")
	glow := stub.NewEffectNode("glow")
	m.AddNode(src)
	m.AddNode(blur)
	m.AddNode(glow)
	if err := m.Connect(src, blur, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Connect(blur, glow, 0); err != nil {
		t.Fatal(err)
	}
	m.Flush()

	outputs := m.CopyForRendering(chain).Render()

	srcTex, ok := outputs[src.ID()]
	if !ok || !srcTex.Valid() {
		t.Fatalf("source texture = %d, want valid", srcTex)
	}
	// The passthrough effects must see and forward the upstream texture.
	if outputs[blur.ID()] != srcTex {
		t.Errorf("blur texture = %d, want %d", outputs[blur.ID()], srcTex)
	}
	if outputs[glow.ID()] != srcTex {
		t.Errorf("glow texture = %d, want %d", outputs[glow.ID()], srcTex)
	}
}

func TestSnapshotRenderDiamond(t *testing.T) {
	m := graph.NewModel()
	_, chain := newTestChain(t)

	src := stub.NewColorNode(1, 0, 0, 1)
	left := stub.NewEffectNode("left")
	right := stub.NewEffectNode("right")
	mix := stub.NewMixNode()
	for _, n := range []graph.Node{src, left, right, mix} {
		m.AddNode(n)
	}
	for _, e := range []struct {
		from, to graph.Node
		input    int
	}{
		{src, left, 0},
		{src, right, 0},
		{left, mix, 0},
		{right, mix, 1},
	} {
		if err := m.Connect(e.from, e.to, e.input); err != nil {
			t.Fatal(err)
		}
	}
	m.Flush()

	outputs := m.CopyForRendering(chain).Render()
	for _, n := range []graph.Node{src, left, right, mix} {
		if !outputs[n.ID()].Valid() {
			t.Errorf("node %d rendered nothing", n.ID())
		}
	}
}

// A passthrough pipeline publishes the same handle under several node IDs;
// releasing the result must destroy it exactly once and must leave the
// chain's blank texture alone.
func TestReleaseOutputsDeduplicates(t *testing.T) {
	m := graph.NewModel()
	backend, chain := newTestChain(t)

	src := stub.NewColorNode(1, 0, 0, 1)
	blur := stub.NewEffectNode("blur")
	glow := stub.NewEffectNode("glow")
	m.AddNode(src)
	m.AddNode(blur)
	m.AddNode(glow)
	if err := m.Connect(src, blur, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Connect(blur, glow, 0); err != nil {
		t.Fatal(err)
	}
	m.Flush()

	before := backend.LiveTextures()
	outputs := m.CopyForRendering(chain).Render()
	if got := backend.LiveTextures(); got != before+1 {
		t.Fatalf("LiveTextures() after render = %d, want %d", got, before+1)
	}

	graph.ReleaseOutputs(chain, outputs)
	if got := backend.LiveTextures(); got != before {
		t.Errorf("LiveTextures() after release = %d, want %d", got, before)
	}
	if _, _, ok := backend.TextureSize(chain.BlankTexture()); !ok {
		t.Error("release destroyed the chain's blank texture")
	}
}

func TestSnapshotUnconnectedEffectRendersNothing(t *testing.T) {
	m := graph.NewModel()
	_, chain := newTestChain(t)

	lone := stub.NewEffectNode("lone")
	m.AddNode(lone)
	m.Flush()

	outputs := m.CopyForRendering(chain).Render()
	if _, ok := outputs[lone.ID()]; ok {
		t.Error("unconnected passthrough effect should be absent from the render result")
	}
}

func TestSnapshotTopologyMatchesModel(t *testing.T) {
	m := graph.NewModel()
	_, chain := newTestChain(t)

	src := stub.NewColorNode(1, 0, 0, 1)
	fx := stub.NewEffectNode("fx")
	m.AddNode(src)
	m.AddNode(fx)
	if err := m.Connect(src, fx, 0); err != nil {
		t.Fatal(err)
	}
	m.Flush()

	snapshot := m.CopyForRendering(chain)
	if got := snapshot.Chain(); got != chain {
		t.Error("Chain() did not return the bound chain")
	}

	vertices := snapshot.Vertices()
	if len(vertices) != 2 {
		t.Fatalf("len(Vertices()) = %d, want 2", len(vertices))
	}
	// Topological order: source before effect.
	if vertices[0].ID() != src.ID() || vertices[1].ID() != fx.ID() {
		t.Errorf("vertex order = %d, %d, want %d, %d",
			vertices[0].ID(), vertices[1].ID(), src.ID(), fx.ID())
	}
	// Clones, not the originals.
	for i, v := range vertices {
		if v == graph.Node(src) || v == graph.Node(fx) {
			t.Errorf("vertices[%d] is the live node, want a clone", i)
		}
	}
}

func TestSnapshotIsolatedFromLaterEdits(t *testing.T) {
	m := graph.NewModel()
	_, chain := newTestChain(t)

	src := stub.NewColorNode(1, 0, 0, 1)
	fx := stub.NewEffectNode("fx")
	m.AddNode(src)
	m.AddNode(fx)
	if err := m.Connect(src, fx, 0); err != nil {
		t.Fatal(err)
	}
	m.Flush()

	snapshot := m.CopyForRendering(chain)

	// Rip the graph apart after the copy.
	m.RemoveNode(src)
	m.RemoveNode(fx)
	m.Flush()

	outputs := snapshot.Render()
	if len(outputs) != 2 {
		t.Errorf("snapshot rendered %d nodes after edits, want 2", len(outputs))
	}
}
