// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package preview renders small per-node previews for an editor UI.
//
// The Adapter owns one preview-sized render chain. Once per frame the host
// calls OnFrameSync from the graph's owning goroutine; the adapter snapshots
// the graph, renders it, and publishes the per-node textures. UI code then
// reads PreviewTexture from any goroutine without ever blocking the render.
package preview

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/lumen/graph"
	"github.com/gogpu/lumen/render"
)

// DefaultSize is the preview chain's edge length in pixels.
const DefaultSize = 300

// Adapter publishes per-node preview textures.
type Adapter struct {
	model   *graph.Model
	backend render.Backend

	// mu guards the chain and its size, nothing else. PreviewTexture does
	// not take it, so a resize never stalls the UI.
	mu     sync.Mutex
	width  int
	height int
	chain  *render.Chain

	last atomic.Pointer[map[graph.NodeID]render.TextureHandle]
}

// New creates an adapter with a DefaultSize square chain and registers the
// chain with the model. Owning goroutine only.
func New(model *graph.Model, backend render.Backend) (*Adapter, error) {
	return NewWithSize(model, backend, DefaultSize, DefaultSize)
}

// NewWithSize creates an adapter with the given preview dimensions.
func NewWithSize(model *graph.Model, backend render.Backend, width, height int) (*Adapter, error) {
	chain, err := render.NewChain(backend, width, height)
	if err != nil {
		return nil, fmt.Errorf("preview: create chain: %w", err)
	}
	model.AddChain(chain)

	a := &Adapter{
		model:   model,
		backend: backend,
		width:   width,
		height:  height,
		chain:   chain,
	}
	empty := map[graph.NodeID]render.TextureHandle{}
	a.last.Store(&empty)
	return a, nil
}

// OnFrameSync renders the graph at preview size and publishes the result,
// destroying the previous frame's textures. Call once per frame from the
// owning goroutine, after any pending edits have been flushed.
func (a *Adapter) OnFrameSync() {
	a.mu.Lock()
	chain := a.chain
	a.mu.Unlock()
	if chain == nil {
		return
	}

	snapshot := a.model.CopyForRendering(chain)
	outputs := snapshot.Render()
	old := a.last.Swap(&outputs)
	graph.ReleaseOutputs(chain, *old)
}

// PreviewTexture returns the node's texture from the most recent frame,
// or the zero handle if the node rendered nothing. The handle stays valid
// until the next OnFrameSync, which destroys the superseded frame. Safe
// from any goroutine; never blocks on rendering or resizing.
func (a *Adapter) PreviewTexture(id graph.NodeID) render.TextureHandle {
	outputs := a.last.Load()
	return (*outputs)[id]
}

// PreviewSize returns the current preview dimensions.
func (a *Adapter) PreviewSize() (width, height int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.width, a.height
}

// SetPreviewSize replaces the preview chain with one of the new size. The
// old chain is unregistered before release, so no frame renders against a
// dying chain. Owning goroutine only.
func (a *Adapter) SetPreviewSize(width, height int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if width == a.width && height == a.height {
		return nil
	}

	chain, err := render.NewChain(a.backend, width, height)
	if err != nil {
		return fmt.Errorf("preview: resize chain: %w", err)
	}

	if a.chain != nil {
		a.model.RemoveChain(a.chain)
		a.chain.Release()
	}
	a.model.AddChain(chain)
	a.chain = chain
	a.width = width
	a.height = height
	return nil
}

// Chain returns the adapter's current chain. Exposed for hosts that need
// to compare chain identity across a resize.
func (a *Adapter) Chain() *render.Chain {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chain
}

// Close unregisters and releases the preview chain, destroying the last
// published frame. Owning goroutine only.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.chain != nil {
		empty := map[graph.NodeID]render.TextureHandle{}
		old := a.last.Swap(&empty)
		graph.ReleaseOutputs(a.chain, *old)

		a.model.RemoveChain(a.chain)
		a.chain.Release()
		a.chain = nil
	}
}
