// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

// Opaque GPU resource handles.
//
// These IDs decouple the engine from any particular GPU backend. Each
// Backend implementation maintains the mapping between handles and actual
// backend resources. IDs are uint64 to accommodate various backend handle
// sizes.

// TextureHandle is an opaque reference to a rendered frame's GPU-resident
// image. The zero value means "no texture" (e.g., a node that was not
// rendered for a given chain).
type TextureHandle uint64

// GeometryID is an opaque handle to a reusable drawable geometry buffer
// (the full-surface quad a chain's render passes draw with).
type GeometryID uint64

// ProgramID is an opaque handle to a compiled and linked shader program.
type ProgramID uint64

// NilHandle is the zero value of every handle type, representing an
// invalid or absent resource.
const NilHandle = 0

// Valid reports whether the handle refers to a texture.
func (t TextureHandle) Valid() bool { return t != NilHandle }
