// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package graph

// topoSort orders vertices so that every edge's From precedes its To.
// Kahn's algorithm over the vertex slice order, so the result is
// deterministic for a given insertion order. If the edge set contains a
// cycle the result is shorter than vertices; callers use that to detect
// cycles.
func topoSort(vertices []Node, edges []Edge) []Node {
	indegree := make(map[Node]int, len(vertices))
	for _, v := range vertices {
		indegree[v] = 0
	}
	for _, e := range edges {
		if _, ok := indegree[e.From]; !ok {
			continue
		}
		if _, ok := indegree[e.To]; !ok {
			continue
		}
		indegree[e.To]++
	}

	var queue []Node
	for _, v := range vertices {
		if indegree[v] == 0 {
			queue = append(queue, v)
		}
	}

	sorted := make([]Node, 0, len(vertices))
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		sorted = append(sorted, v)
		for _, e := range edges {
			if e.From != v {
				continue
			}
			if _, ok := indegree[e.To]; !ok {
				continue
			}
			indegree[e.To]--
			if indegree[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}
	return sorted
}
