package composite

import (
	"fmt"
	"image"

	"github.com/gogpu/euclase/blend"
	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/tile"
)

// everywhere is a clip rectangle that clips nothing.
var everywhere = image.Rect(-1<<30, -1<<30, 1<<30, 1<<30)

// RenderToSinglePanel blends src onto dst. dstOff and srcOff are the
// canvas offsets of the layers owning the panels. When mask is non-nil and
// has primary panels, its coverage over the working rectangle modulates
// the operation; otherwise the mask is fully open.
func RenderToSinglePanel(dst *tile.Panel, dstOff image.Point, src *tile.Panel, srcOff image.Point, mask *tile.Layer, op blend.Op) error {
	return renderClipped(dst, dstOff, src, srcOff, everywhere, mask, op)
}

func renderClipped(dst *tile.Panel, dstOff image.Point, src *tile.Panel, srcOff image.Point, clip image.Rectangle, mask *tile.Layer, op blend.Op) error {
	if dst.IsNull() || src.IsNull() {
		return nil
	}
	dr := dst.Bounds().Add(dstOff)
	sr := src.Bounds().Add(srcOff)
	w := dr.Intersect(sr).Intersect(clip)
	if w.Empty() {
		return nil
	}

	var mbuf *pixel.Buffer
	if mask != nil && !mask.IsEmpty(tile.Primary) {
		var err error
		if mbuf, err = RenderMask(mask, w); err != nil {
			return err
		}
		if mbuf == nil {
			// Nothing selected in w.
			return nil
		}
	}

	r := w.Sub(dr.Min)
	sp := w.Min.Sub(sr.Min)
	if err := blend.Buffers(dst.Buf, r, src.Buf, sp, mbuf, image.Point{}, op); err != nil {
		return fmt.Errorf("composite: panel %v onto %v: %w", src.Offset, dst.Offset, err)
	}
	return nil
}

// maskOp copies stencil coverage into a cleared Gray8 buffer unchanged.
var maskOp = blend.Op{Mode: blend.ModeReplace, Color: pixel.White, Opacity: 255}

// RenderMask renders the primary collection of mask over the canvas
// rectangle r into a new Gray8 buffer whose origin is r.Min. It returns
// nil when no mask panel overlaps r.
func RenderMask(mask *tile.Layer, r image.Rectangle) (*pixel.Buffer, error) {
	if r.Empty() {
		return nil, nil
	}
	var out *pixel.Buffer
	for p := range mask.Store(tile.Primary).Range(r.Sub(mask.Offset)) {
		if out == nil {
			var err error
			if out, err = pixel.New(r.Dx(), r.Dy(), pixel.FormatGray8); err != nil {
				return nil, err
			}
		}
		dst := &tile.Panel{Buf: out}
		if err := RenderToSinglePanel(dst, r.Min, p, mask.Offset, nil, maskOp); err != nil {
			return nil, err
		}
	}
	return out, nil
}
