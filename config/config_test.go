// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFull(t *testing.T) {
	src := []byte(`
engine {
  poll_interval = "250ms"
  preview_size  = [640, 360]

  output "main" {
    screen = "HDMI-1"
  }

  output "stage_left" {
    screen = "DP-2"
  }
}
`)
	eng, err := Parse(src, "full.hcl")
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, eng.PollInterval)
	assert.Equal(t, 640, eng.PreviewWidth)
	assert.Equal(t, 360, eng.PreviewHeight)
	require.Len(t, eng.Outputs, 2)
	assert.Equal(t, Output{Name: "main", Screen: "HDMI-1"}, eng.Outputs[0])
	assert.Equal(t, Output{Name: "stage_left", Screen: "DP-2"}, eng.Outputs[1])
}

func TestParseDefaults(t *testing.T) {
	for _, src := range []string{"", "engine {}"} {
		eng, err := Parse([]byte(src), "defaults.hcl")
		require.NoError(t, err, "source: %q", src)

		assert.Equal(t, DefaultPollInterval, eng.PollInterval)
		assert.Equal(t, 300, eng.PreviewWidth)
		assert.Equal(t, 300, eng.PreviewHeight)
		assert.Empty(t, eng.Outputs)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"syntax error", `engine {`},
		{"bad duration", `engine { poll_interval = "soon" }`},
		{"negative duration", `engine { poll_interval = "-1s" }`},
		{"preview size wrong arity", `engine { preview_size = [100] }`},
		{"preview size not numbers", `engine { preview_size = ["wide", "tall"] }`},
		{"preview size negative", `engine { preview_size = [-100, 100] }`},
		{"preview size fractional", `engine { preview_size = [100.5, 100] }`},
		{"output missing screen", `engine { output "main" {} }`},
		{"duplicate output", `engine {
  output "main" { screen = "a" }
  output "main" { screen = "b" }
}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src), tc.name+".hcl")
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
engine {
  output "main" { screen = "HDMI-1" }
}
`), 0o644))

	eng, err := Load(path)
	require.NoError(t, err)
	require.Len(t, eng.Outputs, 1)
	assert.Equal(t, "HDMI-1", eng.Outputs[0].Screen)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	assert.Error(t, err)
}
