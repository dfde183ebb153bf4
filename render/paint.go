// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/gogpu/euclase/internal/logging"
	"github.com/gogpu/euclase/pixel"
)

// toDisplay maps a canvas coordinate to display space at scale.
func toDisplay(v int, scale float64) int {
	return int(math.Floor(float64(v) * scale))
}

func displayRect(r image.Rectangle, scale float64) image.Rectangle {
	return image.Rect(
		toDisplay(r.Min.X, scale), toDisplay(r.Min.Y, scale),
		toDisplay(r.Max.X, scale), toDisplay(r.Max.Y, scale),
	)
}

// resizeSurfaceLocked makes the surface match req. A surface showing a
// different rectangle or scale is cleared.
func (s *Scheduler) resizeSurfaceLocked(req Request) {
	size := displayRect(req.Rect, req.Scale).Size()
	if size.X <= 0 || size.Y <= 0 {
		s.surface = nil
		return
	}
	if s.surface == nil || s.surface.Bounds().Size() != size {
		s.surface = image.NewRGBA(image.Rectangle{Max: size})
		return
	}
	if req.Rect != s.req.Rect || req.Scale != s.req.Scale {
		clear(s.surface.Pix)
	}
}

// paintLocked draws the tile buf at canvas offset off into the surface.
func (s *Scheduler) paintLocked(off image.Point, buf *pixel.Buffer) {
	if s.surface == nil {
		return
	}
	scale := s.req.Scale
	tr := displayRect(buf.Bounds().Add(off), scale)
	dr := tr.Sub(displayRect(s.req.Rect, scale).Min)
	if dr.Empty() || !dr.Overlaps(s.surface.Bounds()) {
		return
	}

	src, err := buf.ToNRGBA()
	if err != nil {
		logging.Get().Warn("render: tile unreadable", "offset", off, "error", err)
		return
	}
	if scale == 1 {
		draw.Draw(s.surface, dr, src, image.Point{}, draw.Src)
		return
	}

	key := cropKey{off: off, scale: scale}
	crop, ok := s.display.Get(key)
	if !ok {
		crop = image.NewRGBA(image.Rectangle{Max: tr.Size()})
		draw.ApproxBiLinear.Scale(crop, crop.Bounds(), src, src.Bounds(), draw.Src, nil)
		s.display.Set(key, crop)
	}
	draw.Draw(s.surface, dr, crop, image.Point{}, draw.Src)
}

// Surface returns a copy of the display surface, or nil when the current
// request shows nothing.
func (s *Scheduler) Surface() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return nil
	}
	out := image.NewRGBA(s.surface.Rect)
	copy(out.Pix, s.surface.Pix)
	return out
}
