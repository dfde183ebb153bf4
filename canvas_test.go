package euclase

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/gogpu/euclase/accel"
	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/render"
	"github.com/gogpu/euclase/tile"
)

var (
	red  = pixel.RGBA8{R: 255, A: 255}
	cyan = pixel.RGBA8{G: 255, B: 255, A: 255}
)

func newCanvas(t *testing.T, w, h int, opts ...CanvasOption) *Canvas {
	t.Helper()
	c, err := New(w, h, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func solid(t *testing.T, w, h int, col pixel.RGBA8) *pixel.Buffer {
	t.Helper()
	b, err := pixel.New(w, h, pixel.FormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Fill(col); err != nil {
		t.Fatal(err)
	}
	return b
}

func flatten(t *testing.T, c *Canvas) *pixel.Buffer {
	t.Helper()
	out, err := c.Flatten(pixel.FormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func preview(t *testing.T, c *Canvas) *pixel.Buffer {
	t.Helper()
	out, err := c.RenderToPanel(AllLayers, pixel.FormatRGBA8, c.Bounds(), image.Rectangle{}, tile.Alternate)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		opts []CanvasOption
		want error
	}{
		{"zero width", 0, 10, nil, pixel.ErrInvalidDimensions},
		{"negative height", 10, -1, nil, pixel.ErrInvalidDimensions},
		{"stencil format", 10, 10, []CanvasOption{WithFormat(pixel.FormatGray8)}, pixel.ErrInvalidFormat},
		{"bad format", 10, 10, []CanvasOption{WithFormat(pixel.Format(99))}, pixel.ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.w, tt.h, tt.opts...); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCanvasLayers(t *testing.T) {
	c := newCanvas(t, 100, 80)

	if w, h := c.Size(); w != 100 || h != 80 {
		t.Fatalf("Size() = %d, %d", w, h)
	}
	if got := len(c.Layers()); got != 1 {
		t.Fatalf("new canvas has %d layers, want 1", got)
	}
	base := c.CurrentLayer()

	top := c.AddLayer()
	if c.CurrentLayer() != top || c.CurrentIndex() != 1 {
		t.Fatal("AddLayer should make the new layer current")
	}
	if top.Name() != "Layer 2" {
		t.Errorf("Name() = %q, want %q", top.Name(), "Layer 2")
	}

	if err := c.SetCurrentLayer(0); err != nil {
		t.Fatal(err)
	}
	mid := c.AddLayer()
	if got := c.Layers(); got[0] != base || got[1] != mid || got[2] != top {
		t.Fatal("AddLayer should insert above the current layer")
	}

	if err := c.SetCurrentLayer(3); !errors.Is(err, ErrLayerIndex) {
		t.Errorf("SetCurrentLayer(3) error = %v, want ErrLayerIndex", err)
	}
	if err := c.RemoveLayer(1); err != nil {
		t.Fatal(err)
	}
	if c.CurrentLayer() != base {
		t.Error("removing the current layer should select the one below")
	}
	if err := c.RemoveLayer(0); err != nil {
		t.Fatal(err)
	}
	if err := c.RemoveLayer(0); !errors.Is(err, ErrLastLayer) {
		t.Errorf("RemoveLayer(last) error = %v, want ErrLastLayer", err)
	}
	if c.CurrentLayer() != top {
		t.Error("remaining layer should be current")
	}
}

func TestImportImage(t *testing.T) {
	c := newCanvas(t, 400, 300)
	src := solid(t, 100, 50, red)

	l, err := c.ImportImage(src, image.Pt(250, 240))
	if err != nil {
		t.Fatal(err)
	}
	if c.CurrentLayer() != l {
		t.Error("imported layer should be current")
	}
	if got, want := l.Bounds(tile.Primary), image.Rect(0, 0, 512, 512); got != want {
		t.Errorf("layer bounds = %v, want %v", got, want)
	}

	out := flatten(t, c)
	tests := []struct {
		x, y int
		want pixel.RGBA8
	}{
		{250, 240, red},
		{299, 289, red},
		{249, 240, pixel.Transparent},
		{250, 239, pixel.Transparent},
		{350, 260, pixel.Transparent},
	}
	for _, tt := range tests {
		if got := out.At(tt.x, tt.y); got != tt.want {
			t.Errorf("At(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRenderToPanelScope(t *testing.T) {
	c := newCanvas(t, 64, 64)
	if _, err := c.ImportImage(solid(t, 64, 64, red), image.Point{}); err != nil {
		t.Fatal(err)
	}
	top := c.AddLayer()
	top.Visible = false

	all, err := c.RenderToPanel(AllLayers, pixel.FormatRGBA8, c.Bounds(), image.Rectangle{}, tile.Primary)
	if err != nil {
		t.Fatal(err)
	}
	if got := all.At(5, 5); got != red {
		t.Errorf("all layers At(5, 5) = %v, want red", got)
	}
	cur, err := c.RenderToPanel(CurrentLayerOnly, pixel.FormatRGBA8, c.Bounds(), image.Rectangle{}, tile.Primary)
	if err != nil {
		t.Fatal(err)
	}
	if got := cur.At(5, 5); got != pixel.Transparent {
		t.Errorf("hidden current layer At(5, 5) = %v, want transparent", got)
	}
}

func TestRenderTileClipsToCanvas(t *testing.T) {
	c := newCanvas(t, 300, 300)
	if _, err := c.ImportImage(solid(t, 600, 600, red), image.Point{}); err != nil {
		t.Fatal(err)
	}

	buf, err := c.RenderTile(context.Background(), tile.Rect(image.Pt(256, 256)))
	if err != nil {
		t.Fatal(err)
	}
	if got := buf.At(10, 10); got != red {
		t.Errorf("inside canvas = %v, want red", got)
	}
	if got := buf.At(60, 10); got != pixel.Transparent {
		t.Errorf("outside canvas = %v, want transparent", got)
	}

	far, err := c.RenderTile(context.Background(), tile.Rect(image.Pt(512, 0)))
	if err != nil {
		t.Fatal(err)
	}
	if got := far.At(0, 0); got != pixel.Transparent || far.Width() != tile.Size {
		t.Errorf("tile beyond canvas = %v (%d wide)", got, far.Width())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.RenderTile(ctx, tile.Rect(image.Point{})); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled RenderTile error = %v", err)
	}
}

func TestSetCanvasSize(t *testing.T) {
	c := newCanvas(t, 100, 100)
	if _, err := c.ImportImage(solid(t, 200, 200, red), image.Point{}); err != nil {
		t.Fatal(err)
	}
	if err := c.SetCanvasSize(150, 120); err != nil {
		t.Fatal(err)
	}
	out := flatten(t, c)
	if out.Width() != 150 || out.Height() != 120 {
		t.Fatalf("flatten size = %dx%d, want 150x120", out.Width(), out.Height())
	}
	if got := out.At(140, 110); got != red {
		t.Errorf("content kept past the old size: got %v", got)
	}
	if err := c.SetCanvasSize(0, 1); !errors.Is(err, pixel.ErrInvalidDimensions) {
		t.Errorf("SetCanvasSize(0, 1) error = %v", err)
	}
}

func TestCanvasBackgroundRendering(t *testing.T) {
	c := newCanvas(t, 512, 512, WithRenderWorkers(2))
	if _, err := c.ImportImage(solid(t, 512, 512, red), image.Point{}); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestRendering(render.Request{Rect: c.Bounds(), Focus: image.Pt(256, 256)}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Scheduler().WaitIdle(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(c.Scheduler().CachedTiles()); got != 4 {
		t.Fatalf("cached %d tiles, want 4", got)
	}
	if b := c.Scheduler().Tile(image.Pt(256, 0)); b == nil || b.At(0, 0) != red {
		t.Fatal("cached tile should hold the layer content")
	}

	// Painting invalidates the tiles the stroke touches.
	st, err := rectStencil(image.Rect(10, 10, 20, 20))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.PaintToCurrentLayerAlternate(st, PaintOptions{Color: cyan, Opacity: 255}); err != nil {
		t.Fatal(err)
	}
	if err := c.Scheduler().WaitIdle(ctx); err != nil {
		t.Fatal(err)
	}
	if b := c.Scheduler().Tile(image.Point{}); b == nil || b.At(15, 15) != cyan {
		t.Fatal("repainted tile should show the preview")
	}

	c.CancelRendering()
	if _, ok := c.Scheduler().Current(); ok {
		t.Error("CancelRendering should drop the request")
	}
}

func TestCanvasWithDevice(t *testing.T) {
	dev := accel.NewSoftware(accel.SoftwareConfig{})
	t.Cleanup(dev.Close)
	c := newCanvas(t, 64, 64, WithDevice(dev))

	l, err := c.ImportImage(solid(t, 64, 64, red), image.Point{})
	if err != nil {
		t.Fatal(err)
	}
	if l.Residency() != pixel.Accelerator {
		t.Fatalf("layer residency = %v, want accelerator", l.Residency())
	}
	if got := flatten(t, c).At(30, 30); got != red {
		t.Errorf("flatten = %v, want red", got)
	}
}

func TestCloseIdempotent(t *testing.T) {
	c, err := New(10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestRendering(render.Request{Rect: image.Rect(0, 0, 10, 10)}); !errors.Is(err, render.ErrClosed) {
		t.Errorf("RequestRendering after Close error = %v", err)
	}
	if _, err := c.ImportImage(solid(t, 4, 4, red), image.Point{}); !errors.Is(err, ErrClosed) {
		t.Errorf("ImportImage after Close error = %v", err)
	}
	st, err := rectStencil(image.Rect(0, 0, 4, 4))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.PaintToCurrentLayerAlternate(st, PaintOptions{Color: red, Opacity: 255}); !errors.Is(err, ErrClosed) {
		t.Errorf("paint after Close error = %v", err)
	}
}
