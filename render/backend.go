// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (a window framework, an export pipeline) implements DeviceHandle
// and passes it to lumen, allowing the engine to use the shared GPU device.
// lumen RECEIVES the device from the host, it does NOT create one.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// lumen-specific name for the interface while maintaining full
// compatibility with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// Backend is the rendering backend the engine draws through.
//
// All engine-level GPU work goes through this interface: nodes allocate
// output textures from it, chains allocate their shared geometry, and
// output surfaces compile their presentation program and submit draws.
//
// Implementations must be safe for concurrent use from multiple render
// goroutines: chains never share mutable state, but they share the backend.
type Backend interface {
	// CreateTexture allocates a render-target texture and returns its handle.
	CreateTexture(width, height int, format gputypes.TextureFormat) (TextureHandle, error)

	// DestroyTexture releases a texture. Destroying NilHandle is a no-op.
	DestroyTexture(TextureHandle)

	// CreateGeometry allocates the reusable full-surface quad geometry
	// used by every render pass of one chain.
	CreateGeometry() (GeometryID, error)

	// DestroyGeometry releases geometry. Destroying NilHandle is a no-op.
	DestroyGeometry(GeometryID)

	// CompileProgram compiles and links a shader program from WGSL sources.
	// A compile or link failure is fatal to the caller: the error must be
	// reported upward, never silently retried.
	CompileProgram(label, vertexWGSL, fragmentWGSL string) (ProgramID, error)

	// DestroyProgram releases a program. Destroying NilHandle is a no-op.
	DestroyProgram(ProgramID)

	// Draw samples op.Texture through op.Program and draws it with
	// op.Geometry into op.Target, covering the full target.
	Draw(op DrawOp) error
}

// TextureReader is an optional Backend capability for reading a texture
// back to the CPU. Used by the preview thumbnail path; expensive.
type TextureReader interface {
	// ReadTexture returns the texture contents as an RGBA image.
	ReadTexture(TextureHandle) (*image.RGBA, error)
}

// DrawOp describes one full-surface textured draw.
type DrawOp struct {
	// Program is the shader program to draw with.
	Program ProgramID

	// Geometry is the chain's shared quad geometry.
	Geometry GeometryID

	// Texture is the input texture sampled by the program.
	Texture TextureHandle

	// Target is the texture the draw renders into.
	Target TextureHandle

	// Width and Height give the target's size in pixels.
	Width, Height int
}

// Backend errors.
var (
	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("render: invalid dimensions")

	// ErrUnknownHandle is returned when an operation references a handle
	// the backend did not issue or has already destroyed.
	ErrUnknownHandle = errors.New("render: unknown handle")

	// ErrReadbackNotSupported is returned by backends without CPU readback.
	ErrReadbackNotSupported = errors.New("render: texture readback not supported")
)
