// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package graph_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/lumen/graph"
	"github.com/gogpu/lumen/internal/stub"
)

func TestWriteDOT(t *testing.T) {
	m := graph.NewModel()
	src := stub.NewColorNode(1, 0, 0, 1)
	fx := stub.NewEffectNode("fx")
	m.AddNode(src)
	m.AddNode(fx)
	if err := m.Connect(src, fx, 0); err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	if err := graph.WriteDOT(&sb, m); err != nil {
		t.Fatalf("WriteDOT() = %v", err)
	}
	out := sb.String()

	if !strings.HasPrefix(out, "digraph model {") {
		t.Errorf("output does not start with digraph header:\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "}") {
		t.Errorf("output does not end with closing brace:\n%s", out)
	}
	for _, want := range []string{
		fmt.Sprintf("n%d [label=", src.ID()),
		fmt.Sprintf("n%d [label=", fx.ID()),
		fmt.Sprintf("n%d -> n%d [label=\"in 0\"];", src.ID(), fx.ID()),
		"color", // serializable nodes are labeled with their type
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
