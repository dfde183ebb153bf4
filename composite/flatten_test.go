package composite

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/tile"
)

func filledLayer(t *testing.T, c pixel.RGBA8) *tile.Layer {
	t.Helper()
	l := tile.NewLayer(pixel.FormatRGBA8, pixel.Host, nil)
	if err := ensure(t, l, tile.Primary, image.Point{}).Buf.Fill(c); err != nil {
		t.Fatal(err)
	}
	return l
}

func TestRenderToPanel(t *testing.T) {
	bottom := filledLayer(t, red)
	top := filledLayer(t, blue)
	rect := image.Rect(100, 100, 300, 300)

	tests := []struct {
		name    string
		visible bool
		opacity uint8
		want    pixel.RGBA8
	}{
		{"hidden", false, 255, red},
		{"opaque", true, 255, blue},
		{"half", true, 128, pixel.RGBA8{R: 127, B: 128, A: 255}},
		{"zero opacity", true, 0, red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top.Visible, top.Opacity = tt.visible, tt.opacity
			out, err := RenderToPanel([]*tile.Layer{bottom, top}, pixel.FormatRGBA8, rect, nil, image.Rectangle{}, tile.Primary)
			if err != nil {
				t.Fatal(err)
			}
			if out.Bounds() != image.Rect(0, 0, 200, 200) {
				t.Fatalf("bounds = %v", out.Bounds())
			}
			if got := out.At(0, 0); got != tt.want {
				t.Errorf("inside layers = %v, want %v", got, tt.want)
			}
			if got := out.At(155, 155); got != tt.want {
				t.Errorf("last covered pixel = %v, want %v", got, tt.want)
			}
			if got := out.At(156, 156); got != pixel.Transparent {
				t.Errorf("outside layers = %v, want transparent", got)
			}
		})
	}
}

func TestRenderToPanelMaskRect(t *testing.T) {
	layers := []*tile.Layer{filledLayer(t, red)}
	rect := image.Rect(0, 0, 256, 256)

	out, err := RenderToPanel(layers, pixel.FormatRGBA8, rect, nil, image.Rect(10, 10, 50, 50), tile.Primary)
	if err != nil {
		t.Fatal(err)
	}
	if out.At(10, 10) != red || out.At(50, 50) != pixel.Transparent || out.At(5, 20) != pixel.Transparent {
		t.Error("mask rectangle without selection should clip to the rectangle")
	}

	sel := selectionOf(t, image.Rect(0, 0, 30, 30), 255)
	out, err = RenderToPanel(layers, pixel.FormatRGBA8, rect, sel, image.Rect(10, 10, 50, 50), tile.Primary)
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range []struct {
		x, y int
		want pixel.RGBA8
	}{{10, 10, red}, {29, 29, red}, {30, 29, pixel.Transparent}, {5, 5, pixel.Transparent}} {
		if got := out.At(tt.x, tt.y); got != tt.want {
			t.Errorf("(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRenderToPanelPreview(t *testing.T) {
	l := previewLayer(t, tile.AltNormal)
	rect := image.Rect(0, 0, 512, 256)

	committed, err := RenderToPanel([]*tile.Layer{l}, pixel.FormatRGBA8, rect, nil, image.Rectangle{}, tile.Primary)
	if err != nil {
		t.Fatal(err)
	}
	shown, err := RenderToPanel([]*tile.Layer{l}, pixel.FormatRGBA8, rect, nil, image.Rectangle{}, tile.Alternate)
	if err != nil {
		t.Fatal(err)
	}
	if committed.At(10, 10) != red || committed.At(300, 10) != pixel.Transparent {
		t.Error("primary flatten should ignore the alternate collection")
	}
	if shown.At(10, 10) != blue || shown.At(300, 10) != blue {
		t.Error("alternate flatten should show the preview")
	}
}

func TestRenderToPanelFloat(t *testing.T) {
	out, err := RenderToPanel([]*tile.Layer{filledLayer(t, red)}, pixel.FormatRGBAF, image.Rect(0, 0, 8, 8), nil, image.Rectangle{}, tile.Primary)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.At(3, 3); got != red {
		t.Errorf("float flatten = %v, want %v", got, red)
	}
}

func TestRenderToPanelEmptyRect(t *testing.T) {
	_, err := RenderToPanel(nil, pixel.FormatRGBA8, image.Rectangle{}, nil, image.Rectangle{}, tile.Primary)
	if !errors.Is(err, pixel.ErrInvalidDimensions) {
		t.Errorf("empty rect: %v", err)
	}
}
