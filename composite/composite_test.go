package composite

import (
	"bytes"
	"image"
	"slices"
	"testing"

	"github.com/gogpu/euclase/blend"
	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/tile"
)

var (
	red  = pixel.RGBA8{R: 255, A: 255}
	blue = pixel.RGBA8{B: 255, A: 255}
)

func solid(t *testing.T, w, h int, f pixel.Format, c pixel.RGBA8) *pixel.Buffer {
	t.Helper()
	b, err := pixel.New(w, h, f)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Fill(c); err != nil {
		t.Fatal(err)
	}
	return b
}

// coverage writes v into r of a Gray8 buffer.
func coverage(b *pixel.Buffer, r image.Rectangle, v uint8) {
	pix := b.Bytes()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			pix[y*b.Stride()+x] = v
		}
	}
}

func ensure(t *testing.T, l *tile.Layer, c tile.Collection, off image.Point) *tile.Panel {
	t.Helper()
	p, err := l.Ensure(c, off)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func selectionOf(t *testing.T, r image.Rectangle, v uint8) *tile.Layer {
	t.Helper()
	sel := tile.NewLayer(pixel.FormatGray8, pixel.Host, nil)
	for _, off := range tile.Covering(r) {
		p := ensure(t, sel, tile.Primary, off)
		coverage(p.Buf, r.Sub(off).Intersect(p.Buf.Bounds()), v)
	}
	return sel
}

func TestRenderToSinglePanelRedSquare(t *testing.T) {
	dst := &tile.Panel{Buf: solid(t, 256, 256, pixel.FormatRGBA8, pixel.Transparent)}
	src := &tile.Panel{Offset: image.Pt(32, 32), Buf: solid(t, 64, 64, pixel.FormatRGBA8, red)}

	op := blend.Op{Mode: blend.ModeNormal, Opacity: 255}
	if err := RenderToSinglePanel(dst, image.Point{}, src, image.Point{}, nil, op); err != nil {
		t.Fatal(err)
	}

	square := image.Rect(32, 32, 96, 96)
	for y := range 256 {
		for x := range 256 {
			want := pixel.Transparent
			if image.Pt(x, y).In(square) {
				want = red
			}
			if got := dst.Buf.At(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRenderToSinglePanelConfinesWrites(t *testing.T) {
	base := pixel.RGBA8{R: 10, G: 20, B: 30, A: 128}
	dst := &tile.Panel{Offset: image.Pt(256, 0), Buf: solid(t, 256, 256, pixel.FormatRGBA8, base)}
	src := &tile.Panel{Buf: solid(t, 256, 256, pixel.FormatRGBA8, red)}
	before := bytes.Clone(dst.Buf.Bytes())

	// Source layer at (200,100) covers canvas (200,100)-(456,356); the
	// destination panel covers (256,0)-(512,256).
	op := blend.Op{Mode: blend.ModeNormal, Opacity: 128}
	if err := RenderToSinglePanel(dst, image.Point{}, src, image.Pt(200, 100), nil, op); err != nil {
		t.Fatal(err)
	}

	work := image.Rect(0, 100, 200, 256)
	bpp := 4
	for y := range 256 {
		for x := range 256 {
			i := y*dst.Buf.Stride() + x*bpp
			same := bytes.Equal(before[i:i+bpp], dst.Buf.Bytes()[i:i+bpp])
			if in := image.Pt(x, y).In(work); in == same {
				t.Fatalf("pixel (%d,%d): inside working rect %v, unchanged %v", x, y, in, same)
			}
		}
	}
}

func TestRenderToSinglePanelDisjoint(t *testing.T) {
	dst := &tile.Panel{Buf: solid(t, 256, 256, pixel.FormatRGBA8, pixel.Transparent)}
	src := &tile.Panel{Offset: image.Pt(256, 0), Buf: solid(t, 64, 64, pixel.FormatRGBA8, red)}
	if err := RenderToSinglePanel(dst, image.Point{}, src, image.Point{}, nil, blend.Paint(red)); err != nil {
		t.Fatal(err)
	}
	if slices.ContainsFunc(dst.Buf.Bytes(), func(b byte) bool { return b != 0 }) {
		t.Error("disjoint panels should not write")
	}
}

func TestRenderToSinglePanelMask(t *testing.T) {
	tests := []struct {
		name  string
		mask  *tile.Layer
		left  pixel.RGBA8
		right pixel.RGBA8
	}{
		{"none", nil, red, red},
		{"left half", selectionOf(t, image.Rect(0, 0, 128, 256), 255), red, pixel.Transparent},
		{"half coverage", selectionOf(t, image.Rect(0, 0, 256, 256), 128),
			pixel.RGBA8{R: 255, A: 128}, pixel.RGBA8{R: 255, A: 128}},
		{"elsewhere", selectionOf(t, image.Rect(1000, 1000, 1010, 1010), 255), pixel.Transparent, pixel.Transparent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := &tile.Panel{Buf: solid(t, 256, 256, pixel.FormatRGBA8, pixel.Transparent)}
			src := &tile.Panel{Buf: solid(t, 256, 256, pixel.FormatRGBA8, red)}
			op := blend.Op{Mode: blend.ModeNormal, Opacity: 255}
			if err := RenderToSinglePanel(dst, image.Point{}, src, image.Point{}, tt.mask, op); err != nil {
				t.Fatal(err)
			}
			if got := dst.Buf.At(10, 10); got != tt.left {
				t.Errorf("left = %v, want %v", got, tt.left)
			}
			if got := dst.Buf.At(200, 10); got != tt.right {
				t.Errorf("right = %v, want %v", got, tt.right)
			}
		})
	}
}

func TestRenderMask(t *testing.T) {
	sel := selectionOf(t, image.Rect(10, 10, 300, 40), 200)
	m, err := RenderMask(sel, image.Rect(0, 0, 400, 50))
	if err != nil {
		t.Fatal(err)
	}
	if m.Format() != pixel.FormatGray8 || m.Bounds() != image.Rect(0, 0, 400, 50) {
		t.Fatalf("mask = %v", m)
	}
	pix := m.Bytes()
	for _, tt := range []struct {
		x, y int
		want byte
	}{{10, 10, 200}, {299, 39, 200}, {300, 39, 0}, {9, 10, 0}, {100, 45, 0}} {
		if got := pix[tt.y*m.Stride()+tt.x]; got != tt.want {
			t.Errorf("coverage at (%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}

	if m, err := RenderMask(sel, image.Rect(500, 500, 600, 600)); err != nil || m != nil {
		t.Errorf("RenderMask away from panels = %v, %v; want nil", m, err)
	}
}

func TestRenderToLayer(t *testing.T) {
	stroke := tile.NewLayer(pixel.FormatGray8, pixel.Host, nil)
	stroke.Offset = image.Pt(200, 10)
	if err := ensure(t, stroke, tile.Primary, image.Point{}).Buf.Fill(pixel.White); err != nil {
		t.Fatal(err)
	}

	dst := tile.NewLayer(pixel.FormatRGBA8, pixel.Host, nil)
	if err := RenderToLayer(dst, tile.Alternate, stroke, nil, blend.Paint(blue)); err != nil {
		t.Fatal(err)
	}

	want := []image.Point{{0, 0}, {256, 0}, {0, 256}, {256, 256}}
	if got := dst.Store(tile.Alternate).Offsets(); !slices.Equal(got, want) {
		t.Fatalf("alternate offsets = %v, want %v", got, want)
	}
	if !dst.IsEmpty(tile.Primary) {
		t.Error("primary should stay empty")
	}

	at := func(x, y int) pixel.RGBA8 {
		off := tile.Align(image.Pt(x, y))
		return dst.Store(tile.Alternate).Find(off).Buf.At(x-off.X, y-off.Y)
	}
	for _, tt := range []struct {
		x, y int
		want pixel.RGBA8
	}{
		{199, 10, pixel.Transparent},
		{200, 10, blue},
		{455, 265, blue},
		{456, 265, pixel.Transparent},
		{300, 266, pixel.Transparent},
	} {
		if got := at(tt.x, tt.y); got != tt.want {
			t.Errorf("canvas (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRenderToLayerEmptySource(t *testing.T) {
	dst := tile.NewLayer(pixel.FormatRGBA8, pixel.Host, nil)
	src := tile.NewLayer(pixel.FormatRGBA8, pixel.Host, nil)
	if err := RenderToLayer(dst, tile.Primary, src, nil, blend.Paint(red)); err != nil {
		t.Fatal(err)
	}
	if !dst.IsEmpty(tile.Primary) {
		t.Error("empty source created destination tiles")
	}
}
