// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package view holds the editor-side representation of the graph: one Tile
// per node, a selection, and connected-component queries over the
// selection. It renders nothing itself; it exists so a UI can manipulate
// groups of nodes (drag, delete, insert) in terms of tiles.
//
// The view belongs to the graph's owning goroutine.
package view

import "github.com/gogpu/lumen/graph"

// Tile is the editor's handle on one graph node.
type Tile struct {
	node     graph.Node
	selected bool
}

// Node returns the graph node the tile represents.
func (t *Tile) Node() graph.Node { return t.node }

// Selected reports whether the tile is in the view's selection.
func (t *Tile) Selected() bool { return t.selected }
