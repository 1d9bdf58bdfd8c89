// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package preview_test

import (
	"image/color"
	"testing"

	"github.com/gogpu/lumen/graph"
	"github.com/gogpu/lumen/internal/stub"
	"github.com/gogpu/lumen/preview"
	"github.com/gogpu/lumen/render"
)

func buildGraph(t *testing.T) (*graph.Model, *stub.ColorNode, *stub.EffectNode) {
	t.Helper()
	m := graph.NewModel()
	src := stub.NewColorNode(0, 0.5, 1, 1)
	fx := stub.NewEffectNode("fx")
	m.AddNode(src)
	m.AddNode(fx)
	if err := m.Connect(src, fx, 0); err != nil {
		t.Fatal(err)
	}
	m.Flush()
	return m, src, fx
}

func TestNewRegistersChain(t *testing.T) {
	backend := stub.NewBackend()
	m, _, _ := buildGraph(t)

	a, err := preview.New(m, backend)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer a.Close()

	if got := len(m.Chains()); got != 1 {
		t.Errorf("len(Chains()) = %d, want 1", got)
	}
	w, h := a.PreviewSize()
	if w != preview.DefaultSize || h != preview.DefaultSize {
		t.Errorf("PreviewSize() = %dx%d, want %dx%d", w, h, preview.DefaultSize, preview.DefaultSize)
	}
}

func TestOnFrameSyncPublishesTextures(t *testing.T) {
	backend := stub.NewBackend()
	m, src, fx := buildGraph(t)

	a, err := preview.New(m, backend)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer a.Close()

	// No frame yet.
	if tex := a.PreviewTexture(src.ID()); tex.Valid() {
		t.Errorf("PreviewTexture() before any frame = %d, want nil handle", tex)
	}

	a.OnFrameSync()

	srcTex := a.PreviewTexture(src.ID())
	if !srcTex.Valid() {
		t.Fatal("PreviewTexture(src) after frame is the nil handle")
	}
	if got := a.PreviewTexture(fx.ID()); got != srcTex {
		t.Errorf("PreviewTexture(fx) = %d, want passthrough of %d", got, srcTex)
	}
	if got := a.PreviewTexture(graph.NodeID(999)); got.Valid() {
		t.Errorf("PreviewTexture(unknown) = %d, want nil handle", got)
	}

	w, h, ok := backend.TextureSize(srcTex)
	if !ok || w != preview.DefaultSize || h != preview.DefaultSize {
		t.Errorf("preview texture = %dx%d, want %dx%d", w, h, preview.DefaultSize, preview.DefaultSize)
	}
}

func TestOnFrameSyncReleasesPreviousFrame(t *testing.T) {
	backend := stub.NewBackend()
	m, src, _ := buildGraph(t)

	a, err := preview.New(m, backend)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer a.Close()

	a.OnFrameSync()
	first := a.PreviewTexture(src.ID())
	baseline := backend.LiveTextures()

	for i := 0; i < 100; i++ {
		a.OnFrameSync()
	}

	if got := backend.LiveTextures(); got != baseline {
		t.Errorf("LiveTextures() after 100 frames = %d, want %d", got, baseline)
	}
	if _, _, ok := backend.TextureSize(first); ok {
		t.Errorf("texture %d from the first frame still live, want destroyed", first)
	}
}

func TestCloseReleasesLastFrame(t *testing.T) {
	backend := stub.NewBackend()
	m, _, _ := buildGraph(t)

	a, err := preview.New(m, backend)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	a.OnFrameSync()
	a.Close()

	if got := backend.LiveTextures(); got != 0 {
		t.Errorf("LiveTextures() after Close = %d, want 0", got)
	}
}

func TestSetPreviewSizeSwapsChain(t *testing.T) {
	backend := stub.NewBackend()
	m, src, _ := buildGraph(t)

	a, err := preview.New(m, backend)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer a.Close()

	a.OnFrameSync()
	before := a.PreviewTexture(src.ID())
	oldChain := a.Chain()

	if err := a.SetPreviewSize(120, 90); err != nil {
		t.Fatalf("SetPreviewSize() = %v", err)
	}

	// Resize swaps in a new chain rather than mutating the old one.
	if a.Chain() == oldChain {
		t.Error("Chain() unchanged after resize, want a new chain")
	}
	if got := len(m.Chains()); got != 1 {
		t.Errorf("len(Chains()) after resize = %d, want 1", got)
	}

	// The published frame is untouched until the next sync.
	if got := a.PreviewTexture(src.ID()); got != before {
		t.Errorf("PreviewTexture() across resize = %d, want %d", got, before)
	}

	a.OnFrameSync()
	after := a.PreviewTexture(src.ID())
	w, h, ok := backend.TextureSize(after)
	if !ok || w != 120 || h != 90 {
		t.Errorf("preview texture after resize = %dx%d, want 120x90", w, h)
	}
}

func TestSetPreviewSizeSameSizeIsNoop(t *testing.T) {
	backend := stub.NewBackend()
	m, _, _ := buildGraph(t)

	a, err := preview.NewWithSize(m, backend, 64, 64)
	if err != nil {
		t.Fatalf("NewWithSize() = %v", err)
	}
	defer a.Close()

	chain := a.Chain()
	if err := a.SetPreviewSize(64, 64); err != nil {
		t.Fatalf("SetPreviewSize() = %v", err)
	}
	if a.Chain() != chain {
		t.Error("same-size resize replaced the chain")
	}
}

func TestCloseUnregistersChain(t *testing.T) {
	backend := stub.NewBackend()
	m, src, _ := buildGraph(t)

	a, err := preview.New(m, backend)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	a.OnFrameSync()
	a.Close()

	if got := len(m.Chains()); got != 0 {
		t.Errorf("len(Chains()) after Close = %d, want 0", got)
	}
	if tex := a.PreviewTexture(src.ID()); tex.Valid() {
		t.Errorf("PreviewTexture() after Close = %d, want nil handle", tex)
	}
	// A second close must be harmless.
	a.Close()
}

func TestThumbnail(t *testing.T) {
	backend := stub.NewBackend()
	m, src, _ := buildGraph(t)

	a, err := preview.NewWithSize(m, backend, 200, 100)
	if err != nil {
		t.Fatalf("NewWithSize() = %v", err)
	}
	defer a.Close()
	a.OnFrameSync()

	backend.SetFill(a.PreviewTexture(src.ID()), color.RGBA{R: 255, A: 255})

	img, err := a.Thumbnail(src.ID(), 50)
	if err != nil {
		t.Fatalf("Thumbnail() = %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 50 || b.Dy() != 25 {
		t.Errorf("thumbnail size = %dx%d, want 50x25 (aspect preserved)", b.Dx(), b.Dy())
	}
	if got := img.RGBAAt(10, 10); got.R == 0 {
		t.Errorf("thumbnail pixel = %v, want red content", got)
	}
}

func TestThumbnailWithoutFrame(t *testing.T) {
	backend := stub.NewBackend()
	m, src, _ := buildGraph(t)

	a, err := preview.New(m, backend)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer a.Close()

	if _, err := a.Thumbnail(src.ID(), 50); err == nil {
		t.Error("Thumbnail() before any frame should fail")
	}
}

// Compile-time check that the stub backend supports the readback path the
// thumbnail code depends on.
var _ render.TextureReader = (*stub.Backend)(nil)
