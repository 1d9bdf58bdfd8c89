// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package graph

import "github.com/gogpu/lumen/render"

// Snapshot is an immutable copy of the published graph, bound to one render
// chain. It holds independent node clones in topological order plus the edge
// structure as parallel index arrays, so rendering needs no map lookups and
// no access to the live Model.
//
// A snapshot is built by Model.CopyForRendering, rendered once with Render,
// and discarded. It is not safe for use by more than one goroutine.
type Snapshot struct {
	chain    *render.Chain
	vertices []Node

	// Parallel edge arrays. fromVertex[i] is -1 when the source vertex was
	// absent from the published set.
	fromVertex []int
	toVertex   []int
	toInput    []int
}

// Chain returns the render chain the snapshot is bound to.
func (s *Snapshot) Chain() *render.Chain { return s.chain }

// Vertices returns the node clones in topological order. The slice is the
// snapshot's own; callers must not mutate it.
func (s *Snapshot) Vertices() []Node { return s.vertices }

// Render paints every node in topological order and returns the texture
// each node produced, keyed by node identity. Unconnected input ports
// receive the chain's blank texture; nodes that paint nothing are absent
// from the result.
//
// The caller owns the returned textures and must hand the map to
// ReleaseOutputs once the frame has been consumed, or the pass leaks one
// texture per painting node.
func (s *Snapshot) Render() map[NodeID]render.TextureHandle {
	// inputs[i][j] is the vertex index feeding vertex i's port j, -1 when
	// unconnected.
	inputs := make([][]int, len(s.vertices))
	for i, v := range s.vertices {
		inputs[i] = make([]int, v.InputCount())
		for j := range inputs[i] {
			inputs[i][j] = -1
		}
	}
	for i, to := range s.toVertex {
		port := s.toInput[i]
		if port >= len(inputs[to]) {
			continue
		}
		inputs[to][port] = s.fromVertex[i]
	}

	outputs := make([]render.TextureHandle, len(s.vertices))
	result := make(map[NodeID]render.TextureHandle, len(s.vertices))

	for i, v := range s.vertices {
		inputTextures := make([]render.TextureHandle, len(inputs[i]))
		for j, from := range inputs[i] {
			if from >= 0 && outputs[from].Valid() {
				inputTextures[j] = outputs[from]
			} else {
				inputTextures[j] = s.chain.BlankTexture()
			}
		}
		tex := v.Paint(s.chain, inputTextures)
		outputs[i] = tex
		if tex.Valid() {
			result[v.ID()] = tex
		}
	}
	return result
}

// ReleaseOutputs destroys the textures of one Render result. Handles are
// deduplicated first, so a passthrough node forwarding an upstream texture
// cannot cause a double destroy; the chain's blank texture is skipped.
//
// The map may come from an earlier pass on another chain of the same
// backend, which is what lets a consumer publish one frame and release it
// when the next one lands.
func ReleaseOutputs(chain *render.Chain, outputs map[NodeID]render.TextureHandle) {
	if chain == nil {
		return
	}
	blank := chain.BlankTexture()
	seen := make(map[render.TextureHandle]bool, len(outputs))
	for _, h := range outputs {
		if !h.Valid() || h == blank || seen[h] {
			continue
		}
		seen[h] = true
		chain.Backend().DestroyTexture(h)
	}
}
