// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"fmt"
	"io"
)

// WriteDOT writes the model's staged graph in Graphviz DOT form, one node
// per vertex labeled with its identity (and type name when the node is
// Serializable), one edge per connection labeled with the input port.
func WriteDOT(w io.Writer, m *Model) error {
	if _, err := fmt.Fprintln(w, "digraph model {"); err != nil {
		return err
	}
	for _, v := range m.Vertices() {
		label := fmt.Sprintf("%d", v.ID())
		if s, ok := v.(Serializable); ok {
			label = fmt.Sprintf("%d: %s", v.ID(), s.TypeName())
		}
		if _, err := fmt.Fprintf(w, "  n%d [label=%q];\n", v.ID(), label); err != nil {
			return err
		}
	}
	for _, e := range m.Edges() {
		if _, err := fmt.Fprintf(w, "  n%d -> n%d [label=\"in %d\"];\n",
			e.From.ID(), e.To.ID(), e.ToInput); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
