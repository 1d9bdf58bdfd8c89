// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package view

import "github.com/gogpu/lumen/graph"

// View mirrors a Model's node set as tiles and tracks a selection.
//
// The view listens for model changes: tiles appear for added vertices and
// vanish (dropping out of the selection) for removed ones. Tiles survive
// edits that do not remove their node, so selection is stable across
// rewiring.
type View struct {
	model *graph.Model
	tiles []*Tile
	byNav map[graph.Node]*Tile
}

// New creates a view over the model and subscribes to its changes. The
// model's current vertices get tiles immediately.
func New(model *graph.Model) *View {
	v := &View{
		model: model,
		byNav: make(map[graph.Node]*Tile),
	}
	for _, n := range model.Vertices() {
		v.addTile(n)
	}
	model.OnChange(v.onChange)
	return v
}

// Model returns the underlying graph model.
func (v *View) Model() *graph.Model { return v.model }

func (v *View) onChange(ch graph.Change) {
	for _, n := range ch.VerticesRemoved {
		v.removeTile(n)
	}
	for _, n := range ch.VerticesAdded {
		v.addTile(n)
	}
}

func (v *View) addTile(n graph.Node) {
	if _, ok := v.byNav[n]; ok {
		return
	}
	t := &Tile{node: n}
	v.tiles = append(v.tiles, t)
	v.byNav[n] = t
}

func (v *View) removeTile(n graph.Node) {
	t, ok := v.byNav[n]
	if !ok {
		return
	}
	delete(v.byNav, n)
	for i, x := range v.tiles {
		if x == t {
			v.tiles = append(v.tiles[:i], v.tiles[i+1:]...)
			break
		}
	}
}

// Tiles returns every tile, in the order their nodes were added.
func (v *View) Tiles() []*Tile {
	out := make([]*Tile, len(v.tiles))
	copy(out, v.tiles)
	return out
}

// TileFor returns the node's tile, or nil.
func (v *View) TileFor(n graph.Node) *Tile { return v.byNav[n] }

// AddToSelection adds the tile to the selection.
func (v *View) AddToSelection(t *Tile) {
	if t != nil {
		t.selected = true
	}
}

// RemoveFromSelection removes the tile from the selection.
func (v *View) RemoveFromSelection(t *Tile) {
	if t != nil {
		t.selected = false
	}
}

// ToggleSelection flips the tile's selection state.
func (v *View) ToggleSelection(t *Tile) {
	if t != nil {
		t.selected = !t.selected
	}
}

// EnsureSelected makes the tile the selection the way a plain click does:
// whatever was selected before, afterwards exactly this tile is. Idempotent
// when the tile is already the sole selection.
func (v *View) EnsureSelected(t *Tile) {
	if t == nil {
		return
	}
	v.ClearSelection()
	t.selected = true
}

// Select replaces the selection with the given tiles. Nil entries are
// skipped; Select(nil) clears the selection.
func (v *View) Select(tiles []*Tile) {
	v.ClearSelection()
	for _, t := range tiles {
		if t != nil {
			t.selected = true
		}
	}
}

// SelectAll selects every tile.
func (v *View) SelectAll() {
	for _, t := range v.tiles {
		t.selected = true
	}
}

// ClearSelection deselects every tile.
func (v *View) ClearSelection() {
	for _, t := range v.tiles {
		t.selected = false
	}
}

// Selection returns the selected tiles in tile order.
func (v *View) Selection() []*Tile {
	var out []*Tile
	for _, t := range v.tiles {
		if t.selected {
			out = append(out, t)
		}
	}
	return out
}

// RemoveSelected deletes every selected node from the model and flushes.
// The change notification drops the corresponding tiles.
func (v *View) RemoveSelected() {
	for _, t := range v.Selection() {
		v.model.RemoveNode(t.node)
	}
	v.model.Flush()
}
