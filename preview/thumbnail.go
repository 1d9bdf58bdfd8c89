// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package preview

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/lumen/graph"
	"github.com/gogpu/lumen/render"
)

// Thumbnail reads the node's latest preview texture back from the GPU and
// scales it to fit within maxEdge pixels, preserving aspect ratio. The
// backend must implement render.TextureReader; otherwise
// render.ErrReadbackNotSupported is returned.
//
// Readback stalls the device, so this is for occasional use (drag images,
// save-file thumbnails), not per-frame display.
func (a *Adapter) Thumbnail(id graph.NodeID, maxEdge int) (*image.RGBA, error) {
	reader, ok := a.backend.(render.TextureReader)
	if !ok {
		return nil, render.ErrReadbackNotSupported
	}
	tex := a.PreviewTexture(id)
	if !tex.Valid() {
		return nil, fmt.Errorf("preview: node %d has no rendered frame", id)
	}

	src, err := reader.ReadTexture(tex)
	if err != nil {
		return nil, fmt.Errorf("preview: read texture: %w", err)
	}
	return scaleToFit(src, maxEdge), nil
}

func scaleToFit(src *image.RGBA, maxEdge int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return src
	}

	if w >= h {
		h = h * maxEdge / w
		w = maxEdge
	} else {
		w = w * maxEdge / h
		h = maxEdge
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
