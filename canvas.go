package euclase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/gogpu/euclase/composite"
	"github.com/gogpu/euclase/internal/logging"
	"github.com/gogpu/euclase/outline"
	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/render"
	"github.com/gogpu/euclase/tile"
)

var (
	// ErrLayerIndex is returned for a layer index outside the layer list.
	ErrLayerIndex = errors.New("euclase: layer index out of range")

	// ErrLastLayer is returned when removing the only layer.
	ErrLastLayer = errors.New("euclase: cannot remove the last layer")

	// ErrClosed is returned by operations on a closed canvas.
	ErrClosed = errors.New("euclase: canvas closed")
)

// Scope selects the layers RenderToPanel flattens.
type Scope uint8

const (
	// AllLayers flattens every visible layer.
	AllLayers Scope = iota

	// CurrentLayerOnly flattens the current layer.
	CurrentLayerOnly
)

// Canvas is an ordered stack of tiled layers plus a selection layer.
//
// All methods are safe for concurrent use. Mutations run under the canvas
// mutex; background render and outline workers take it once per tile.
type Canvas struct {
	mu        sync.Mutex
	width     int
	height    int
	format    pixel.Format
	residency pixel.Residency
	device    pixel.Device

	layers    []*tile.Layer
	current   int
	selection *tile.Layer
	named     int

	// altLayer is the layer holding an uncommitted alternate session.
	altLayer *tile.Layer
	altKind  altKind

	outlineReq *outline.Request
	closed     bool

	sched  *render.Scheduler
	tracer *outline.Tracer
}

// New creates a w×h canvas with one empty layer and starts its background
// workers. Close the canvas to stop them.
func New(w, h int, opts ...CanvasOption) (*Canvas, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("euclase: canvas %dx%d: %w", w, h, pixel.ErrInvalidDimensions)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.format.IsValid() || o.format.IsStencil() {
		return nil, fmt.Errorf("euclase: layer format %v: %w", o.format, pixel.ErrInvalidFormat)
	}

	c := &Canvas{
		width:     w,
		height:    h,
		format:    o.format,
		device:    o.device,
		selection: tile.NewLayer(pixel.FormatGray8, pixel.Host, nil),
	}
	if o.device != nil {
		c.residency = pixel.Accelerator
	}
	c.selection.SetName("Selection")
	c.layers = []*tile.Layer{c.newLayer()}

	attachDevice(o.device)
	c.sched = render.New(c, o.renderOptions()...)
	c.tracer = outline.NewTracer(c, nil)

	logging.Get().Info("euclase: canvas created",
		"width", w, "height", h, "format", o.format, "residency", c.residency)
	return c, nil
}

func (c *Canvas) newLayer() *tile.Layer {
	c.named++
	l := tile.NewLayer(c.format, c.residency, c.device)
	l.SetName(fmt.Sprintf("Layer %d", c.named))
	return l
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Bounds returns the canvas rectangle, anchored at the origin.
func (c *Canvas) Bounds() image.Rectangle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return image.Rect(0, 0, c.width, c.height)
}

// Format returns the pixel format of the canvas layers.
func (c *Canvas) Format() pixel.Format { return c.format }

// SetCanvasSize changes the canvas dimensions. Layer content is kept;
// tiles outside the new bounds are clipped when rendering.
func (c *Canvas) SetCanvasSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("euclase: canvas %dx%d: %w", w, h, pixel.ErrInvalidDimensions)
	}
	c.mu.Lock()
	c.width, c.height = w, h
	c.mu.Unlock()

	c.sched.InvalidateAll()
	return nil
}

// CurrentLayer returns the layer painting and filters apply to.
func (c *Canvas) CurrentLayer() *tile.Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layers[c.current]
}

// CurrentIndex returns the index of the current layer, 0 being the bottom.
func (c *Canvas) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SelectionLayer returns the Gray8 selection coverage layer.
func (c *Canvas) SelectionLayer() *tile.Layer { return c.selection }

// Layers returns the layers, bottom first.
func (c *Canvas) Layers() []*tile.Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.layers)
}

// AddLayer inserts an empty layer above the current one and makes it
// current.
func (c *Canvas) AddLayer() *tile.Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.newLayer()
	c.current++
	c.layers = slices.Insert(c.layers, c.current, l)
	return l
}

// SetCurrentLayer selects the layer at index i.
func (c *Canvas) SetCurrentLayer(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.layers) {
		return fmt.Errorf("euclase: layer %d of %d: %w", i, len(c.layers), ErrLayerIndex)
	}
	c.current = i
	return nil
}

// RemoveLayer deletes the layer at index i and releases its panels.
func (c *Canvas) RemoveLayer(i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.layers) {
		n := len(c.layers)
		c.mu.Unlock()
		return fmt.Errorf("euclase: layer %d of %d: %w", i, n, ErrLayerIndex)
	}
	if len(c.layers) == 1 {
		c.mu.Unlock()
		return ErrLastLayer
	}
	l := c.layers[i]
	dirty := layerBounds(l)
	c.layers = slices.Delete(c.layers, i, i+1)
	if c.current >= i && c.current > 0 {
		c.current--
	}
	if c.altLayer == l {
		c.altLayer = nil
	}
	l.Clear()
	c.mu.Unlock()

	c.sched.Invalidate(dirty)
	return nil
}

// ImportImage adds a layer holding buf with its top-left corner at the
// canvas point at. The buffer is converted to the canvas format.
func (c *Canvas) ImportImage(buf *pixel.Buffer, at image.Point) (*tile.Layer, error) {
	src, err := buf.Convert(c.format)
	if err != nil {
		return nil, fmt.Errorf("euclase: import: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	l := c.newLayer()
	sp := &tile.Panel{Offset: at, Buf: src}
	for _, off := range tile.Covering(sp.Bounds()) {
		p, err := l.Ensure(tile.Primary, off)
		if err == nil {
			err = composite.RenderToSinglePanel(p, image.Point{}, sp, image.Point{}, nil, copyOp)
		}
		if err != nil {
			c.mu.Unlock()
			l.Clear()
			return nil, fmt.Errorf("euclase: import: %w", err)
		}
	}
	c.current++
	c.layers = slices.Insert(c.layers, c.current, l)
	c.mu.Unlock()

	c.sched.Invalidate(sp.Bounds())
	return l, nil
}

// Invalidate marks the canvas rectangle r as changed after a caller
// mutated a layer directly.
func (c *Canvas) Invalidate(r image.Rectangle) {
	c.sched.Invalidate(r)
}

// RenderToPanel flattens layers into a new host buffer covering rect.
// which picks committed content (tile.Primary) or what a viewer sees
// (tile.Alternate). When maskRect is not empty, writes are limited to it
// and scaled by the selection.
func (c *Canvas) RenderToPanel(scope Scope, format pixel.Format, rect, maskRect image.Rectangle, which tile.Collection) (*pixel.Buffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	layers := c.layers
	if scope == CurrentLayerOnly {
		layers = c.layers[c.current : c.current+1]
	}
	return composite.RenderToPanel(layers, format, rect, c.selection, maskRect, which)
}

// Flatten renders the committed content of every visible layer over the
// canvas bounds.
func (c *Canvas) Flatten(format pixel.Format) (*pixel.Buffer, error) {
	return c.RenderToPanel(AllLayers, format, c.Bounds(), image.Rectangle{}, tile.Primary)
}

// RenderTile renders the displayed content of the canvas rectangle rect
// as RGBA8. Pixels outside the canvas are transparent. RenderTile
// implements render.Source.
func (c *Canvas) RenderTile(ctx context.Context, rect image.Rectangle) (*pixel.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	bounds := image.Rect(0, 0, c.width, c.height)
	if !rect.Overlaps(bounds) {
		return pixel.New(rect.Dx(), rect.Dy(), pixel.FormatRGBA8)
	}
	return composite.RenderToPanel(c.layers, pixel.FormatRGBA8, rect, nil, bounds, tile.Alternate)
}

// RequestRendering replaces the viewport the background workers keep
// rendered.
func (c *Canvas) RequestRendering(req render.Request) error {
	return c.sched.Request(req)
}

// CancelRendering abandons the current viewport request.
func (c *Canvas) CancelRendering() {
	c.sched.Cancel()
}

// Scheduler returns the background render scheduler.
func (c *Canvas) Scheduler() *render.Scheduler { return c.sched }

// RequestOutline asks the outline tracer for the selection boundary inside
// req. The request is re-traced whenever the selection changes.
func (c *Canvas) RequestOutline(req outline.Request) error {
	c.mu.Lock()
	r := req
	c.outlineReq = &r
	c.mu.Unlock()
	return c.tracer.Request(req)
}

// Outline returns the latest traced selection outline, or nil.
func (c *Canvas) Outline() *outline.Outline { return c.tracer.Latest() }

// Tracer returns the selection outline tracer.
func (c *Canvas) Tracer() *outline.Tracer { return c.tracer }

// Close stops the background workers. Close is idempotent.
func (c *Canvas) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := errors.Join(c.sched.Close(), c.tracer.Close())
	detachDevice(c.device)
	logging.Get().Info("euclase: canvas closed")
	return err
}

// layerBounds returns the canvas-space rectangle touched by any collection
// of l.
func layerBounds(l *tile.Layer) image.Rectangle {
	return l.Bounds(tile.Primary).Union(l.Bounds(tile.Alternate))
}
