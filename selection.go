package euclase

import (
	"fmt"
	"image"

	"github.com/gogpu/euclase/composite"
	"github.com/gogpu/euclase/outline"
	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/tile"
)

// SelectionOp is how ChangeSelection combines a rectangle with the current
// selection.
type SelectionOp uint8

const (
	// SelectSet replaces the selection with the rectangle.
	SelectSet SelectionOp = iota

	// SelectAdd adds the rectangle to the selection.
	SelectAdd

	// SelectSub removes the rectangle from the selection.
	SelectSub
)

// String returns the operation name.
func (op SelectionOp) String() string {
	switch op {
	case SelectSet:
		return "set"
	case SelectAdd:
		return "add"
	case SelectSub:
		return "sub"
	default:
		return fmt.Sprintf("SelectionOp(%d)", op)
	}
}

// ChangeSelection combines the canvas rectangle r with the selection.
// An empty r is a no-op except for SelectSet, which clears the selection.
func (c *Canvas) ChangeSelection(op SelectionOp, r image.Rectangle) error {
	c.mu.Lock()
	err := c.changeSelectionLocked(op, r)
	req := c.outlineReq
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("euclase: selection %s %v: %w", op, r, err)
	}
	c.retrace(req)
	return nil
}

func (c *Canvas) changeSelectionLocked(op SelectionOp, r image.Rectangle) error {
	if op == SelectSet {
		c.selection.Clear()
		op = SelectAdd
	}
	if r.Empty() {
		return nil
	}
	st, err := rectStencil(r)
	if err != nil {
		return err
	}
	switch op {
	case SelectAdd:
		return composite.RenderToLayer(c.selection, tile.Primary, st, nil, selectAddOp)
	case SelectSub:
		if c.selection.IsEmpty(tile.Primary) {
			return nil
		}
		return composite.RenderToLayer(c.selection, tile.Primary, st, nil, selectSubOp)
	default:
		return fmt.Errorf("unknown operation %d", op)
	}
}

// ClearSelection deselects everything.
func (c *Canvas) ClearSelection() {
	c.mu.Lock()
	c.selection.Clear()
	req := c.outlineReq
	c.mu.Unlock()
	c.retrace(req)
}

// HasSelection reports whether any selection panel exists.
func (c *Canvas) HasSelection() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.selection.IsEmpty(tile.Primary)
}

// RenderSelection returns the Gray8 selection coverage of the canvas
// rectangle r, with pixel (0, 0) at r.Min. It returns nil when nothing in r
// is selected. RenderSelection implements outline.SelectionSource.
func (c *Canvas) RenderSelection(r image.Rectangle) (*pixel.Buffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return composite.RenderMask(c.selection, r)
}

func (c *Canvas) retrace(req *outline.Request) {
	if req != nil {
		_ = c.tracer.Request(*req)
	}
}
