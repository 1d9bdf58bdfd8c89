// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package graph implements the mutable video-node graph and its snapshot
// protocol.
//
// # Model
//
// A Model owns the node set, the edge set, and the set of active render
// chains. All structural mutation (AddNode, Connect, ...) belongs to a
// single owning goroutine. Mutations are staged; Flush publishes the staged
// graph for rendering. The chain registry is the exception: AddChain and
// RemoveChain carry their own lock, because output surfaces register chains
// from their screen-tracking goroutines as displays come and go.
//
// # Snapshots
//
// Render goroutines never touch the live graph. Each frame they call
// CopyForRendering, which copies the published graph into an immutable
// Snapshot bound to one chain. The snapshot owns independent node clones,
// so in-flight rendering is unaffected by concurrent edits; a render pass
// that is mid-flight always sees a frozen view. Snapshots are read once,
// rendered once, and discarded; the rendered textures belong to the pass
// consumer, which releases them through ReleaseOutputs when the frame is
// superseded.
//
// The only synchronization between the two sides is the publish mutex:
// Flush writes the published arrays, CopyForRendering reads them. Neither
// side ever blocks the other for longer than an array copy.
package graph
