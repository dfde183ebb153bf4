// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package outline

import (
	"errors"
	"image"
	"image/color"
	"math/bits"

	"github.com/gogpu/euclase/internal/parallel"
	"github.com/gogpu/euclase/pixel"
)

// ErrFormat is returned when coverage is not Gray8.
var ErrFormat = errors.New("outline: coverage must be Gray8")

// bandRows is the number of rows traced per parallel job.
const bandRows = 64

// Outline is a packed 1-bit boundary bitmap. It implements image.Image in
// display coordinates, with its top-left pixel at Origin, so it can be used
// directly as a draw mask.
type Outline struct {
	origin        image.Point
	width, height int
	stride        int
	bits          []byte
}

func newOutline(origin image.Point, w, h int) *Outline {
	stride := (w + 7) / 8
	return &Outline{origin: origin, width: w, height: h, stride: stride, bits: make([]byte, stride*h)}
}

// Origin returns the display position of the top-left pixel.
func (o *Outline) Origin() image.Point { return o.origin }

// Bounds implements image.Image.
func (o *Outline) Bounds() image.Rectangle {
	return image.Rect(0, 0, o.width, o.height).Add(o.origin)
}

// ColorModel implements image.Image.
func (o *Outline) ColorModel() color.Model { return color.AlphaModel }

// At implements image.Image: boundary pixels are opaque.
func (o *Outline) At(x, y int) color.Color {
	if o.Boundary(x, y) {
		return color.Opaque
	}
	return color.Transparent
}

// Boundary reports whether the display pixel (x, y) is on the boundary.
func (o *Outline) Boundary(x, y int) bool {
	x, y = x-o.origin.X, y-o.origin.Y
	if x < 0 || y < 0 || x >= o.width || y >= o.height {
		return false
	}
	return o.bits[y*o.stride+x/8]&(0x80>>(x%8)) != 0
}

// Count returns the number of boundary pixels.
func (o *Outline) Count() int {
	n := 0
	for _, b := range o.bits {
		n += bits.OnesCount8(b)
	}
	return n
}

// Stride returns the bytes per packed row; the leftmost pixel of a row is
// the high bit of its first byte.
func (o *Outline) Stride() int { return o.stride }

// Bits returns the packed rows.
func (o *Outline) Bits() []byte { return o.bits }

// Trace returns the boundary of the Gray8 coverage buf placed at origin.
func Trace(buf *pixel.Buffer, origin image.Point) (*Outline, error) {
	if buf.Format() != pixel.FormatGray8 {
		return nil, ErrFormat
	}
	pix, err := buf.ReadHost()
	if err != nil {
		return nil, err
	}
	return traceGray(pix, buf.Stride(), buf.Width(), buf.Height(), origin), nil
}

// TraceImage is Trace for an *image.Gray; the outline keeps img's origin.
func TraceImage(img *image.Gray) *Outline {
	b := img.Bounds()
	if b.Empty() {
		return newOutline(b.Min, 0, 0)
	}
	pix := img.Pix[img.PixOffset(b.Min.X, b.Min.Y):]
	return traceGray(pix, img.Stride, b.Dx(), b.Dy(), b.Min)
}

func traceGray(pix []byte, stride, w, h int, origin image.Point) *Outline {
	o := newOutline(origin, w, h)
	if w == 0 || h == 0 {
		return o
	}
	bands := (h + bandRows - 1) / bandRows
	// Bands write disjoint rows of o.bits.
	_ = parallel.Default().Run(bands, func(i int) error {
		for y := i * bandRows; y < min((i+1)*bandRows, h); y++ {
			traceRow(o, pix, stride, w, h, y)
		}
		return nil
	})
	return o
}

func traceRow(o *Outline, pix []byte, stride, w, h, y int) {
	up := pix[max(y-1, 0)*stride:]
	row := pix[y*stride:]
	dn := pix[min(y+1, h-1)*stride:]
	out := o.bits[y*o.stride:]
	for x := range w {
		l, r := max(x-1, 0), min(x+1, w-1)
		n := up[l] & up[x] & up[r] & row[l] & row[r] & dn[l] & dn[x] & dn[r]
		if (row[x]&^n)&0x80 != 0 {
			out[x/8] |= 0x80 >> (x % 8)
		}
	}
}
