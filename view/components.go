// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package view

import (
	"sort"

	"github.com/gogpu/lumen/graph"
)

// InputPort names one open input of a connected component: a port on a
// component vertex that no internal edge feeds.
type InputPort struct {
	Vertex graph.Node
	Input  int
}

// ConnectedComponent is a maximal group of selected tiles joined by edges
// whose endpoints are both selected. Group operations (drag, detach,
// reinsert) act on components, so the component carries everything needed
// to splice it out of or back into the graph.
type ConnectedComponent struct {
	// Tiles and Vertices list the component members in model vertex order.
	Tiles    []*Tile
	Vertices []graph.Node

	// InternalEdges connect two component vertices.
	InternalEdges []graph.Edge

	// InputEdges arrive from outside the component, ordered by the
	// destination's vertex order and then by input port.
	InputEdges []graph.Edge

	// OutputEdges leave the component, in model edge order.
	OutputEdges []graph.Edge

	// InputPorts lists the component's open inputs, ordered like
	// InputEdges. Reinserting a component wires upstream sources here.
	InputPorts []InputPort

	// OutputVertices lists component vertices with no internal outgoing
	// edge. A linear chain has exactly one; degenerate selections (two
	// parallel strands selected together) have several, and callers must
	// pick one or refuse the operation.
	OutputVertices []graph.Node
}

// SelectedConnectedComponents partitions the selection into connected
// components. Components are ordered by their earliest vertex; an empty
// selection yields nil.
func (v *View) SelectedConnectedComponents() []ConnectedComponent {
	vertices := v.model.Vertices()
	edges := v.model.Edges()

	order := make(map[graph.Node]int, len(vertices))
	for i, n := range vertices {
		order[n] = i
	}
	selected := make(map[graph.Node]bool)
	for _, t := range v.tiles {
		if t.selected {
			selected[t.node] = true
		}
	}

	// Undirected adjacency over edges with both endpoints selected.
	adj := make(map[graph.Node][]graph.Node)
	for _, e := range edges {
		if selected[e.From] && selected[e.To] {
			adj[e.From] = append(adj[e.From], e.To)
			adj[e.To] = append(adj[e.To], e.From)
		}
	}

	assigned := make(map[graph.Node]int)
	var members [][]graph.Node
	for _, n := range vertices {
		if !selected[n] {
			continue
		}
		if _, ok := assigned[n]; ok {
			continue
		}
		id := len(members)
		queue := []graph.Node{n}
		assigned[n] = id
		var group []graph.Node
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			group = append(group, cur)
			for _, next := range adj[cur] {
				if _, ok := assigned[next]; ok {
					continue
				}
				assigned[next] = id
				queue = append(queue, next)
			}
		}
		members = append(members, group)
	}

	components := make([]ConnectedComponent, len(members))
	for id, group := range members {
		sortByOrder(group, order)
		c := &components[id]
		inComponent := make(map[graph.Node]bool, len(group))
		for _, n := range group {
			inComponent[n] = true
			c.Vertices = append(c.Vertices, n)
			if t := v.byNav[n]; t != nil {
				c.Tiles = append(c.Tiles, t)
			}
		}

		hasInternalOut := make(map[graph.Node]bool)
		fedInternally := make(map[InputPort]bool)
		for _, e := range edges {
			switch {
			case inComponent[e.From] && inComponent[e.To]:
				c.InternalEdges = append(c.InternalEdges, e)
				hasInternalOut[e.From] = true
				fedInternally[InputPort{Vertex: e.To, Input: e.ToInput}] = true
			case inComponent[e.To]:
				c.InputEdges = append(c.InputEdges, e)
			case inComponent[e.From]:
				c.OutputEdges = append(c.OutputEdges, e)
			}
		}
		sortEdgesByDest(c.InputEdges, order)

		for _, n := range c.Vertices {
			for port := 0; port < n.InputCount(); port++ {
				p := InputPort{Vertex: n, Input: port}
				if !fedInternally[p] {
					c.InputPorts = append(c.InputPorts, p)
				}
			}
			if !hasInternalOut[n] {
				c.OutputVertices = append(c.OutputVertices, n)
			}
		}
	}
	return components
}

// TilesBetween returns the tiles lying on any directed path from a to b,
// endpoints included. If b is not reachable from a the result is nil;
// TilesBetween(t, t) is just t.
func (v *View) TilesBetween(a, b *Tile) []*Tile {
	if a == nil || b == nil {
		return nil
	}
	if a == b {
		return []*Tile{a}
	}

	edges := v.model.Edges()
	forward := reachable(a.node, edges, false)
	backward := reachable(b.node, edges, true)

	if !forward[b.node] {
		return nil
	}

	var out []*Tile
	for _, t := range v.tiles {
		if forward[t.node] && backward[t.node] {
			out = append(out, t)
		}
	}
	return out
}

// reachable returns the set of nodes reachable from start, following edges
// forward or, when reverse is set, backward. start itself is included.
func reachable(start graph.Node, edges []graph.Edge, reverse bool) map[graph.Node]bool {
	seen := map[graph.Node]bool{start: true}
	stack := []graph.Node{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range edges {
			from, to := e.From, e.To
			if reverse {
				from, to = to, from
			}
			if from != cur || seen[to] {
				continue
			}
			seen[to] = true
			stack = append(stack, to)
		}
	}
	return seen
}

func sortByOrder(nodes []graph.Node, order map[graph.Node]int) {
	sort.Slice(nodes, func(i, j int) bool {
		return order[nodes[i]] < order[nodes[j]]
	})
}

func sortEdgesByDest(edges []graph.Edge, order map[graph.Node]int) {
	sort.Slice(edges, func(i, j int) bool {
		if order[edges[i].To] != order[edges[j].To] {
			return order[edges[i].To] < order[edges[j].To]
		}
		return edges[i].ToInput < edges[j].ToInput
	})
}
