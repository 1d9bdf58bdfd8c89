// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Chain is an independent render context: a fixed target size plus the GPU
// resources shared by every render pass bound to it. One chain exists per
// frame consumer (an output display, the editor preview, an export target).
//
// A Chain is pure configuration and resource ownership. It is immutable
// after creation; resizing is modeled as creating a new Chain and swapping
// it into the Model (remove old, add new) so that no in-flight render pass
// ever observes a mid-resize chain.
//
// Chain identity is pointer identity.
type Chain struct {
	backend  Backend
	width    int
	height   int
	format   gputypes.TextureFormat
	geometry GeometryID
	blank    TextureHandle
	released bool
}

// NewChain creates a chain with the given target size. It allocates the
// chain's shared quad geometry and a blank (black, transparent) texture
// that stands in for unconnected node inputs.
func NewChain(backend Backend, width, height int) (*Chain, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	geometry, err := backend.CreateGeometry()
	if err != nil {
		return nil, fmt.Errorf("create chain geometry: %w", err)
	}

	blank, err := backend.CreateTexture(1, 1, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		backend.DestroyGeometry(geometry)
		return nil, fmt.Errorf("create blank texture: %w", err)
	}

	return &Chain{
		backend:  backend,
		width:    width,
		height:   height,
		format:   gputypes.TextureFormatRGBA8Unorm,
		geometry: geometry,
		blank:    blank,
	}, nil
}

// Width returns the chain's target width in pixels.
func (c *Chain) Width() int { return c.width }

// Height returns the chain's target height in pixels.
func (c *Chain) Height() int { return c.height }

// Format returns the pixel format chain render targets use.
func (c *Chain) Format() gputypes.TextureFormat { return c.format }

// Geometry returns the chain's shared full-surface quad geometry.
// Render passes borrow this handle; they never own it.
func (c *Chain) Geometry() GeometryID { return c.geometry }

// BlankTexture returns the texture substituted for unconnected inputs.
func (c *Chain) BlankTexture() TextureHandle { return c.blank }

// Backend returns the backend the chain's resources live on.
func (c *Chain) Backend() Backend { return c.backend }

// NewTarget allocates a render-target texture at the chain's size.
// Nodes call this to obtain their per-chain output texture.
func (c *Chain) NewTarget() (TextureHandle, error) {
	return c.backend.CreateTexture(c.width, c.height, c.format)
}

// Release destroys the chain's GPU resources. The consumer that created
// the chain must remove it from the Model first: snapshots borrow the
// chain's geometry, so no in-flight snapshot may outlive this call.
// Release is idempotent.
func (c *Chain) Release() {
	if c.released {
		return
	}
	c.released = true
	c.backend.DestroyTexture(c.blank)
	c.backend.DestroyGeometry(c.geometry)
	c.blank = NilHandle
	c.geometry = NilHandle
}
