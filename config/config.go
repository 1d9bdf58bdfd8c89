// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads engine settings from HCL files.
//
// A minimal file:
//
//	engine {
//	  poll_interval = "1s"
//	  preview_size  = [300, 300]
//
//	  output "main" {
//	    screen = "HDMI-1"
//	  }
//	}
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/gogpu/lumen/preview"
)

// Defaults applied when the file omits a setting.
const (
	DefaultPollInterval = time.Second
)

// Output configures one display attachment.
type Output struct {
	// Name labels the output block.
	Name string

	// Screen is the display name the output tracks.
	Screen string
}

// Engine is the resolved engine configuration.
type Engine struct {
	PollInterval  time.Duration
	PreviewWidth  int
	PreviewHeight int
	Outputs       []Output
}

// hclFile mirrors the top-level file structure for decoding.
type hclFile struct {
	Engine *hclEngine `hcl:"engine,block"`
}

type hclEngine struct {
	PollInterval string         `hcl:"poll_interval,optional"`
	PreviewSize  hcl.Expression `hcl:"preview_size,optional"`
	Outputs      []*hclOutput   `hcl:"output,block"`
}

type hclOutput struct {
	Name   string `hcl:"name,label"`
	Screen string `hcl:"screen"`
}

// Load reads and parses an HCL config file.
func Load(path string) (*Engine, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(src, path)
}

// Parse decodes HCL source. filename is used in diagnostics only.
func Parse(src []byte, filename string) (*Engine, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parse %s: %w", filename, diags)
	}

	var parsed hclFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: decode %s: %w", filename, diags)
	}

	eng := &Engine{
		PollInterval:  DefaultPollInterval,
		PreviewWidth:  preview.DefaultSize,
		PreviewHeight: preview.DefaultSize,
	}
	if parsed.Engine == nil {
		return eng, nil
	}

	if parsed.Engine.PollInterval != "" {
		d, err := time.ParseDuration(parsed.Engine.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("config: poll_interval: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("config: poll_interval must be positive, got %s", d)
		}
		eng.PollInterval = d
	}

	if parsed.Engine.PreviewSize != nil {
		w, h, err := previewSize(parsed.Engine.PreviewSize)
		if err != nil {
			return nil, err
		}
		if w > 0 && h > 0 {
			eng.PreviewWidth, eng.PreviewHeight = w, h
		}
	}

	seen := make(map[string]bool)
	for _, out := range parsed.Engine.Outputs {
		if seen[out.Name] {
			return nil, fmt.Errorf("config: duplicate output %q", out.Name)
		}
		seen[out.Name] = true
		eng.Outputs = append(eng.Outputs, Output{
			Name:   out.Name,
			Screen: out.Screen,
		})
	}
	return eng, nil
}

// previewSize evaluates a preview_size expression to a [width, height]
// pair. An absent attribute decodes to a nil-ish expression that evaluates
// to null, which leaves the defaults in place.
func previewSize(expr hcl.Expression) (int, int, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return 0, 0, fmt.Errorf("config: preview_size: %w", diags)
	}
	if val.IsNull() {
		return 0, 0, nil
	}

	val, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return 0, 0, fmt.Errorf("config: preview_size must be a pair of numbers: %w", err)
	}
	if val.LengthInt() != 2 {
		return 0, 0, fmt.Errorf("config: preview_size must have exactly 2 elements, got %d", val.LengthInt())
	}

	var dims [2]int
	for i, v := range val.AsValueSlice() {
		var n int
		if err := convertInt(v, &n); err != nil {
			return 0, 0, fmt.Errorf("config: preview_size[%d]: %w", i, err)
		}
		if n <= 0 {
			return 0, 0, fmt.Errorf("config: preview_size[%d] must be positive, got %d", i, n)
		}
		dims[i] = n
	}
	return dims[0], dims[1], nil
}

func convertInt(v cty.Value, out *int) error {
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return fmt.Errorf("not an integer: %s", bf.String())
	}
	n, _ := bf.Int64()
	*out = int(n)
	return nil
}
