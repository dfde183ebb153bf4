package tile

import (
	"cmp"
	"image"

	"github.com/gogpu/euclase/pixel"
)

// Size is the edge length of a panel in pixels.
const Size = 256

// Panel is one tile of a sparse surface. A nil Buf is a hole.
type Panel struct {
	Offset image.Point
	Buf    *pixel.Buffer
}

// IsNull reports whether the panel holds no pixels.
func (p *Panel) IsNull() bool {
	return p == nil || p.Buf == nil
}

// Bounds returns the rectangle the panel covers, relative to its owner.
// A null panel covers nothing.
func (p *Panel) Bounds() image.Rectangle {
	if p.IsNull() {
		return image.Rectangle{}
	}
	return p.Buf.Bounds().Add(p.Offset)
}

// Floor rounds v down to a multiple of Size, toward negative infinity.
func Floor(v int) int {
	if v >= 0 {
		return v / Size * Size
	}
	return -((-v + Size - 1) / Size * Size)
}

// Align returns the offset of the panel containing p.
func Align(p image.Point) image.Point {
	return image.Pt(Floor(p.X), Floor(p.Y))
}

// Rect returns the panel rectangle at off.
func Rect(off image.Point) image.Rectangle {
	return image.Rectangle{Min: off, Max: off.Add(image.Pt(Size, Size))}
}

// Covering returns the offsets of every panel overlapping r, row-major.
func Covering(r image.Rectangle) []image.Point {
	if r.Empty() {
		return nil
	}
	lo := Align(r.Min)
	hi := Align(r.Max.Sub(image.Pt(1, 1)))
	out := make([]image.Point, 0, ((hi.X-lo.X)/Size+1)*((hi.Y-lo.Y)/Size+1))
	for y := lo.Y; y <= hi.Y; y += Size {
		for x := lo.X; x <= hi.X; x += Size {
			out = append(out, image.Pt(x, y))
		}
	}
	return out
}

// Compare orders offsets row-major: by y, then by x.
func Compare(a, b image.Point) int {
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.X, b.X)
}
