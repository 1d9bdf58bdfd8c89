// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package graph

import "github.com/gogpu/lumen/render"

// NodeID identifies a node within its Model. IDs are assigned by the Model
// when a node is added, starting at 1; 0 means "not yet added".
type NodeID int64

// Node is one unit of the processing graph: a fixed arity of input ports
// and a single output. Concrete node types (image sources, movie decoders,
// effects) live outside the engine core and are reached only through this
// interface.
//
// Nodes are chain-agnostic: chain membership is a rendering concern layered
// on top, never part of the node itself.
//
// Implementations embed BaseNode to satisfy the identity methods.
type Node interface {
	// ID returns the node's Model-assigned identity.
	ID() NodeID

	// InputCount returns the node's input port arity.
	InputCount() int

	// Clone returns an independent copy of the node for one render pass on
	// the given chain. The clone must carry the original's identity and
	// configuration at the moment of the copy, and must be renderable
	// without touching the original.
	Clone(chain *render.Chain) Node

	// Paint renders one frame. inputs holds one texture per input port
	// (the chain's blank texture for unconnected ports). Paint is called
	// at most once per render pass and must not mutate shared graph
	// structure. Returning the zero handle means "nothing rendered"; a
	// node with nothing to draw returns the zero handle, never the
	// chain's blank texture.
	//
	// The pass consumer owns every returned texture and destroys it when
	// the frame is superseded. A node must therefore return either a
	// texture created for this pass (chain.NewTarget) or, for a
	// passthrough, one of its input textures; it must never return a
	// texture it needs to survive the pass.
	Paint(chain *render.Chain, inputs []render.TextureHandle) render.TextureHandle

	bindID(NodeID)
}

// BaseNode supplies Node identity storage. Embed it by value so that
// struct-copy clones carry the identity along.
type BaseNode struct {
	id NodeID
}

// ID returns the node's Model-assigned identity.
func (b *BaseNode) ID() NodeID { return b.id }

func (b *BaseNode) bindID(id NodeID) { b.id = id }

// ChainRequester is an optional Node capability for nodes that bring their
// own private render chains (e.g. a movie decoder that renders at the
// movie's native size). The Model registers requested chains when the node
// is added and unregisters them when it is removed.
type ChainRequester interface {
	Node

	// RequestedChains returns the chains the node needs registered.
	RequestedChains() []*render.Chain
}

// Edge is an ordered connection (From's output into To's input port
// ToInput). A port accepts at most one edge; connecting a new source to an
// occupied port replaces the prior edge.
type Edge struct {
	From    Node
	To      Node
	ToInput int
}
