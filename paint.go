package euclase

import (
	"context"
	"fmt"
	"image"

	"github.com/gogpu/euclase/blend"
	"github.com/gogpu/euclase/composite"
	"github.com/gogpu/euclase/filter"
	"github.com/gogpu/euclase/internal/logging"
	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/tile"
)

// PaintOptions describes how a stroke is painted.
type PaintOptions struct {
	// Color is the paint colour. Its alpha scales the stroke.
	Color pixel.RGBA8

	// Opacity scales the stroke, 0..255. Zero paints nothing.
	Opacity uint8

	// Eraser removes paint by the stroke coverage instead of adding Color.
	Eraser bool
}

// altKind is what an open alternate session previews.
type altKind uint8

const (
	altPaint altKind = iota + 1
	altErase
	altFilter
)

var (
	copyOp      = blend.Op{Mode: blend.ModeReplace, Opacity: 255}
	coverageOp  = blend.Op{Mode: blend.ModeReplace, Color: pixel.White, Opacity: 255}
	selectAddOp = blend.Paint(pixel.White)
	selectSubOp = blend.Erase(255)
)

// PaintToCurrentLayerAlternate paints the Gray8 coverage of stroke into the
// alternate collection of the current layer. The first stroke of a session
// captures the selection; later strokes accumulate until CommitAlternate.
// Switching between painting and erasing, or to another layer, commits the
// open session first.
func (c *Canvas) PaintToCurrentLayerAlternate(stroke *tile.Layer, opts PaintOptions) error {
	if stroke == nil || stroke.IsEmpty(tile.Primary) || opts.Opacity == 0 {
		return nil
	}
	kind, mode := altPaint, tile.AltNormal
	op := blend.Op{Mode: blend.ModeNormal, Color: opts.Color, Opacity: int(opts.Opacity)}
	if opts.Eraser {
		kind, mode = altErase, tile.AltEraser
		op.Color = pixel.White
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	cur := c.layers[c.current]
	dirty := stroke.Bounds(tile.Primary)
	if c.altLayer != nil && (c.altLayer != cur || c.altKind != kind) {
		dirty = dirty.Union(layerBounds(c.altLayer))
		if err := c.finishLocked(true); err != nil {
			c.mu.Unlock()
			c.sched.Invalidate(dirty)
			return err
		}
	}
	var err error
	if c.altLayer == nil {
		err = c.beginLocked(cur, kind, mode, image.Rectangle{})
	}
	if err == nil {
		err = composite.RenderToLayer(cur, tile.Alternate, stroke, nil, op)
	}
	c.mu.Unlock()

	c.sched.Invalidate(dirty)
	if err != nil {
		return fmt.Errorf("euclase: paint: %w", err)
	}
	return nil
}

// CommitAlternate ends the open alternate session. With apply the preview
// is written into the primary collection; otherwise it is discarded.
// Without an open session CommitAlternate does nothing.
func (c *Canvas) CommitAlternate(apply bool) error {
	c.mu.Lock()
	if c.altLayer == nil {
		c.mu.Unlock()
		return nil
	}
	dirty := layerBounds(c.altLayer)
	err := c.finishLocked(apply)
	c.mu.Unlock()

	c.sched.Invalidate(dirty)
	return err
}

// HasAlternate reports whether an alternate session is open.
func (c *Canvas) HasAlternate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.altLayer != nil
}

// PreviewFilter runs fn over the current layer and shows the result in
// place of the layer content, limited to the selection when there is one.
// The filter runs without holding the canvas lock. The preview stays until
// CommitAlternate; calling PreviewFilter again replaces it.
func (c *Canvas) PreviewFilter(ctx context.Context, fn filter.Func, params filter.Params) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	cur := c.layers[c.current]
	rect := image.Rect(0, 0, c.width, c.height)
	if !c.selection.IsEmpty(tile.Primary) {
		rect = rect.Intersect(c.selection.Bounds(tile.Primary))
	}
	if rect.Empty() {
		c.mu.Unlock()
		return nil
	}
	view := *cur
	view.Visible, view.Opacity = true, 255
	src, err := composite.RenderToPanel([]*tile.Layer{&view}, cur.Format(), rect, nil, image.Rectangle{}, tile.Primary)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("euclase: filter input: %w", err)
	}

	out, err := fn(ctx, src, params)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if out.Format() != cur.Format() {
		if out, err = out.Convert(cur.Format()); err != nil {
			return fmt.Errorf("euclase: filter output: %w", err)
		}
	}
	if out.Bounds() != src.Bounds() {
		return fmt.Errorf("euclase: filter output %v for input %v: %w", out.Bounds(), src.Bounds(), pixel.ErrSizeMismatch)
	}

	c.mu.Lock()
	dirty := rect
	if c.altLayer != nil {
		dirty = dirty.Union(layerBounds(c.altLayer))
		replace := c.altLayer == cur && c.altKind == altFilter
		if err := c.finishLocked(!replace); err != nil {
			c.mu.Unlock()
			c.sched.Invalidate(dirty)
			return err
		}
	}
	err = c.beginLocked(cur, altFilter, tile.AltReplace, rect)
	if err == nil {
		sp := &tile.Panel{Offset: rect.Min, Buf: out}
		for _, off := range tile.Covering(rect.Sub(cur.Offset)) {
			var p *tile.Panel
			if p, err = cur.Ensure(tile.Alternate, off); err != nil {
				break
			}
			if err = composite.RenderToSinglePanel(p, cur.Offset, sp, image.Point{}, nil, copyOp); err != nil {
				break
			}
		}
	}
	if err != nil {
		cur.ClearAlternate()
		c.altLayer = nil
	}
	c.mu.Unlock()

	c.sched.Invalidate(dirty)
	if err != nil {
		return fmt.Errorf("euclase: filter preview: %w", err)
	}
	logging.Get().Debug("euclase: filter preview", "layer", cur.Name(), "rect", rect)
	return nil
}

// beginLocked opens an alternate session on l. The selection is copied
// into the alternate selection; without one, a non-empty scope limits the
// session to that canvas rectangle.
func (c *Canvas) beginLocked(l *tile.Layer, kind altKind, mode tile.AltMode, scope image.Rectangle) error {
	l.ClearAlternate()
	var err error
	switch {
	case !c.selection.IsEmpty(tile.Primary):
		err = composite.RenderToLayer(l, tile.AlternateSelection, c.selection, nil, coverageOp)
	case !scope.Empty():
		var st *tile.Layer
		if st, err = rectStencil(scope); err == nil {
			err = composite.RenderToLayer(l, tile.AlternateSelection, st, nil, coverageOp)
		}
	}
	if err != nil {
		l.ClearAlternate()
		return err
	}
	l.SetActive(tile.Alternate)
	l.SetAltMode(mode)
	c.altLayer, c.altKind = l, kind
	return nil
}

// finishLocked closes the open alternate session.
func (c *Canvas) finishLocked(apply bool) error {
	l := c.altLayer
	c.altLayer = nil
	if err := composite.FinishAlternatePanels(l, apply, nil); err != nil {
		return fmt.Errorf("euclase: commit %q: %w", l.Name(), err)
	}
	logging.Get().Debug("euclase: alternate finished", "layer", l.Name(), "applied", apply)
	return nil
}

// rectStencil returns a Gray8 layer fully covering the canvas rectangle r
// with panel-aligned tiles.
func rectStencil(r image.Rectangle) (*tile.Layer, error) {
	l := tile.NewLayer(pixel.FormatGray8, pixel.Host, nil)
	for _, off := range tile.Covering(r) {
		p, err := l.Ensure(tile.Primary, off)
		if err != nil {
			return nil, err
		}
		sub := r.Intersect(tile.Rect(off)).Sub(off)
		data, stride := p.Buf.Bytes(), p.Buf.Stride()
		for y := sub.Min.Y; y < sub.Max.Y; y++ {
			row := data[y*stride+sub.Min.X : y*stride+sub.Max.X]
			for i := range row {
				row[i] = 0xff
			}
		}
	}
	return l, nil
}
