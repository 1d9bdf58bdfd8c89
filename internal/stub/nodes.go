// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package stub

import (
	"encoding/json"
	"fmt"

	"github.com/gogpu/lumen/graph"
	"github.com/gogpu/lumen/render"
)

// ColorNode is a zero-input source that paints one chain-sized texture per
// frame. The fill is only observable through Backend.ReadTexture.
type ColorNode struct {
	graph.BaseNode
	Color [4]float64
}

// NewColorNode creates a source node with the given RGBA fill, components
// in [0, 1].
func NewColorNode(r, g, b, a float64) *ColorNode {
	return &ColorNode{Color: [4]float64{r, g, b, a}}
}

// InputCount implements graph.Node.
func (n *ColorNode) InputCount() int { return 0 }

// Clone implements graph.Node.
func (n *ColorNode) Clone(chain *render.Chain) graph.Node {
	c := *n
	return &c
}

// Paint implements graph.Node.
func (n *ColorNode) Paint(chain *render.Chain, inputs []render.TextureHandle) render.TextureHandle {
	tex, err := chain.NewTarget()
	if err != nil {
		return render.NilHandle
	}
	return tex
}

// TypeName implements graph.Serializable.
func (n *ColorNode) TypeName() string { return "color" }

// MarshalState implements graph.Serializable.
func (n *ColorNode) MarshalState() (json.RawMessage, error) {
	return json.Marshal(n.Color)
}

// EffectNode is a single-input passthrough: it returns its input texture
// unchanged, or nothing when unconnected ports left it with only the blank
// texture.
type EffectNode struct {
	graph.BaseNode
	Name string
}

// NewEffectNode creates a named passthrough effect.
func NewEffectNode(name string) *EffectNode {
	return &EffectNode{Name: name}
}

// InputCount implements graph.Node.
func (n *EffectNode) InputCount() int { return 1 }

// Clone implements graph.Node.
func (n *EffectNode) Clone(chain *render.Chain) graph.Node {
	c := *n
	return &c
}

// Paint implements graph.Node.
func (n *EffectNode) Paint(chain *render.Chain, inputs []render.TextureHandle) render.TextureHandle {
	if len(inputs) == 0 {
		return render.NilHandle
	}
	if inputs[0] == chain.BlankTexture() {
		return render.NilHandle
	}
	return inputs[0]
}

// TypeName implements graph.Serializable.
func (n *EffectNode) TypeName() string { return "effect" }

// MarshalState implements graph.Serializable.
func (n *EffectNode) MarshalState() (json.RawMessage, error) {
	return json.Marshal(n.Name)
}

// MixNode is a two-input combiner used to build diamond topologies in
// tests. It paints a fresh target whenever at least one input is live.
type MixNode struct {
	graph.BaseNode
}

// NewMixNode creates a two-input mix node.
func NewMixNode() *MixNode { return &MixNode{} }

// InputCount implements graph.Node.
func (n *MixNode) InputCount() int { return 2 }

// Clone implements graph.Node.
func (n *MixNode) Clone(chain *render.Chain) graph.Node {
	c := *n
	return &c
}

// Paint implements graph.Node.
func (n *MixNode) Paint(chain *render.Chain, inputs []render.TextureHandle) render.TextureHandle {
	live := false
	for _, in := range inputs {
		if in != chain.BlankTexture() {
			live = true
			break
		}
	}
	if !live {
		return render.NilHandle
	}
	tex, err := chain.NewTarget()
	if err != nil {
		return render.NilHandle
	}
	return tex
}

// RegisterNodeTypes adds the stub node factories to reg (nil for the
// global registry).
func RegisterNodeTypes(reg *graph.Registry) {
	register := func(name string, f graph.Factory) {
		if reg == nil {
			graph.RegisterNodeType(name, f)
		} else {
			reg.Register(name, f)
		}
	}
	register("color", func(state json.RawMessage) (graph.Node, error) {
		n := &ColorNode{}
		if len(state) > 0 {
			if err := json.Unmarshal(state, &n.Color); err != nil {
				return nil, fmt.Errorf("stub: color state: %w", err)
			}
		}
		return n, nil
	})
	register("effect", func(state json.RawMessage) (graph.Node, error) {
		n := &EffectNode{}
		if len(state) > 0 {
			if err := json.Unmarshal(state, &n.Name); err != nil {
				return nil, fmt.Errorf("stub: effect state: %w", err)
			}
		}
		return n, nil
	})
	register("mix", func(state json.RawMessage) (graph.Node, error) {
		return NewMixNode(), nil
	})
}

var (
	_ graph.Serializable = (*ColorNode)(nil)
	_ graph.Serializable = (*EffectNode)(nil)
	_ graph.Node         = (*MixNode)(nil)
)
