package composite

import (
	"image"
	"slices"

	"github.com/gogpu/euclase/blend"
	"github.com/gogpu/euclase/internal/parallel"
	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/tile"
)

// RenderToPanel flattens the visible layers, bottom first, into a new
// transparent host buffer of format covering the canvas rectangle rect.
// Each layer is blended in normal mode at its opacity.
//
// which selects what is flattened: Primary renders committed content only,
// Alternate renders what a viewer sees (ComposePanels for layers previewing
// their alternate, primary otherwise), and AlternateSelection renders the
// alternate-selection coverage.
//
// When maskRect is not empty only pixels inside it are written, modulated
// by selection's coverage if selection has any panels.
func RenderToPanel(layers []*tile.Layer, format pixel.Format, rect image.Rectangle, selection *tile.Layer, maskRect image.Rectangle, which tile.Collection) (*pixel.Buffer, error) {
	if rect.Empty() {
		return nil, pixel.ErrInvalidDimensions
	}
	out, err := pixel.New(rect.Dx(), rect.Dy(), format)
	if err != nil {
		return nil, err
	}
	dst := &tile.Panel{Buf: out}

	var mask *tile.Layer
	if !maskRect.Empty() {
		mask = selection
	}

	cells := tile.Covering(rect)
	err = parallel.Default().Run(len(cells), func(i int) error {
		clip := tile.Rect(cells[i]).Intersect(rect)
		if !maskRect.Empty() {
			clip = clip.Intersect(maskRect)
		}
		if clip.Empty() {
			return nil
		}
		for _, l := range layers {
			if err := flattenLayer(dst, rect.Min, l, clip, mask, which); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func flattenLayer(dst *tile.Panel, dstOff image.Point, l *tile.Layer, clip image.Rectangle, mask *tile.Layer, which tile.Collection) error {
	if !l.Visible || l.Opacity == 0 {
		return nil
	}
	op := blend.Op{Mode: blend.ModeNormal, Color: pixel.White, Opacity: int(l.Opacity)}
	local := clip.Sub(l.Offset)

	if which == tile.Alternate && !l.PreviewActive() {
		which = tile.Primary
	}
	if which != tile.Alternate {
		for p := range l.Store(which).Range(local) {
			if err := renderClipped(dst, dstOff, p, l.Offset, clip, mask, op); err != nil {
				return err
			}
		}
		return nil
	}

	for _, off := range previewOffsets(l, local) {
		buf, err := ComposePanels(l, off, nil)
		if err != nil {
			return err
		}
		if buf == nil {
			continue
		}
		p := &tile.Panel{Offset: off, Buf: buf}
		if err := renderClipped(dst, dstOff, p, l.Offset, clip, mask, op); err != nil {
			return err
		}
	}
	return nil
}

// previewOffsets returns the row-major offsets of tiles overlapping r that
// hold primary or alternate pixels.
func previewOffsets(l *tile.Layer, r image.Rectangle) []image.Point {
	var offs []image.Point
	for _, c := range []tile.Collection{tile.Primary, tile.Alternate} {
		for p := range l.Store(c).Range(r) {
			offs = append(offs, p.Offset)
		}
	}
	slices.SortFunc(offs, tile.Compare)
	return slices.Compact(offs)
}
