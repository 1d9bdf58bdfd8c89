// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package stub provides an in-memory render backend and trivial node types
// for tests and examples. Nothing here touches a GPU.
package stub

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/lumen/render"
)

// Backend is a render.Backend that only tracks handle lifetimes. It also
// implements render.TextureReader, returning solid-color images, so preview
// thumbnail paths can be exercised without a device.
type Backend struct {
	mu       sync.Mutex
	next     uint64
	textures map[render.TextureHandle]texInfo
	geoms    map[render.GeometryID]bool
	progs    map[render.ProgramID]bool
	draws    []render.DrawOp

	// FailCompile makes CompileProgram return an error, for exercising
	// fatal shader paths.
	FailCompile bool
}

type texInfo struct {
	width, height int
	fill          color.RGBA
}

// NewBackend creates an empty stub backend.
func NewBackend() *Backend {
	return &Backend{
		next:     1,
		textures: make(map[render.TextureHandle]texInfo),
		geoms:    make(map[render.GeometryID]bool),
		progs:    make(map[render.ProgramID]bool),
	}
}

// CreateTexture implements render.Backend.
func (b *Backend) CreateTexture(width, height int, format gputypes.TextureFormat) (render.TextureHandle, error) {
	if width <= 0 || height <= 0 {
		return render.NilHandle, fmt.Errorf("%w: %dx%d", render.ErrInvalidDimensions, width, height)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	h := render.TextureHandle(b.next)
	b.next++
	b.textures[h] = texInfo{width: width, height: height}
	return h, nil
}

// DestroyTexture implements render.Backend.
func (b *Backend) DestroyTexture(h render.TextureHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.textures, h)
}

// CreateGeometry implements render.Backend.
func (b *Backend) CreateGeometry() (render.GeometryID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := render.GeometryID(b.next)
	b.next++
	b.geoms[g] = true
	return g, nil
}

// DestroyGeometry implements render.Backend.
func (b *Backend) DestroyGeometry(g render.GeometryID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.geoms, g)
}

// CompileProgram implements render.Backend.
func (b *Backend) CompileProgram(label, vertexWGSL, fragmentWGSL string) (render.ProgramID, error) {
	if b.FailCompile {
		return 0, fmt.Errorf("stub: compile %q: compilation disabled", label)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := render.ProgramID(b.next)
	b.next++
	b.progs[p] = true
	return p, nil
}

// DestroyProgram implements render.Backend.
func (b *Backend) DestroyProgram(p render.ProgramID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.progs, p)
}

// Draw implements render.Backend, recording the op.
func (b *Backend) Draw(op render.DrawOp) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.textures[op.Target]; !ok {
		return fmt.Errorf("%w: target %d", render.ErrUnknownHandle, op.Target)
	}
	b.draws = append(b.draws, op)
	return nil
}

// ReadTexture implements render.TextureReader with a solid fill.
func (b *Backend) ReadTexture(h render.TextureHandle) (*image.RGBA, error) {
	b.mu.Lock()
	info, ok := b.textures[h]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", render.ErrUnknownHandle, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, info.width, info.height))
	for y := 0; y < info.height; y++ {
		for x := 0; x < info.width; x++ {
			img.SetRGBA(x, y, info.fill)
		}
	}
	return img, nil
}

// SetFill sets the color ReadTexture reports for a texture.
func (b *Backend) SetFill(h render.TextureHandle, c color.RGBA) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info := b.textures[h]
	info.fill = c
	b.textures[h] = info
}

// TextureSize returns a texture's dimensions and whether it is live.
func (b *Backend) TextureSize(h render.TextureHandle) (w, hgt int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.textures[h]
	return info.width, info.height, ok
}

// LiveTextures returns the number of undestroyed textures.
func (b *Backend) LiveTextures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.textures)
}

// Draws returns the recorded draw ops.
func (b *Backend) Draws() []render.DrawOp {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]render.DrawOp, len(b.draws))
	copy(out, b.draws)
	return out
}

var (
	_ render.Backend       = (*Backend)(nil)
	_ render.TextureReader = (*Backend)(nil)
)
