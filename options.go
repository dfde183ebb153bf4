package euclase

import (
	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/render"
)

// CanvasOption configures a Canvas during creation.
//
// Example:
//
//	// Float layers on the host
//	c, err := euclase.New(2048, 2048, euclase.WithFormat(pixel.FormatRGBAF))
//
//	// Layer panels in accelerator memory
//	c, err := euclase.New(2048, 2048, euclase.WithDevice(dev))
type CanvasOption func(*canvasOptions)

// canvasOptions holds optional configuration for Canvas creation.
type canvasOptions struct {
	format       pixel.Format
	device       pixel.Device
	workers      int
	displayCache int64
}

// defaultOptions returns the default canvas options.
func defaultOptions() canvasOptions {
	return canvasOptions{
		format:       pixel.FormatRGBA8,
		displayCache: render.DefaultDisplayCache,
	}
}

// WithFormat sets the pixel format of new layers. The selection layer is
// always Gray8.
func WithFormat(f pixel.Format) CanvasOption {
	return func(o *canvasOptions) {
		o.format = f
	}
}

// WithDevice places layer panels in the memory of d. Without a device all
// panels live on the host.
func WithDevice(d pixel.Device) CanvasOption {
	return func(o *canvasOptions) {
		o.device = d
	}
}

// WithRenderWorkers sets the number of background render workers.
// Zero keeps the scheduler default.
func WithRenderWorkers(n int) CanvasOption {
	return func(o *canvasOptions) {
		o.workers = n
	}
}

// WithDisplayCacheSize bounds the scaled display crops kept by the
// scheduler, in bytes.
func WithDisplayCacheSize(bytes int64) CanvasOption {
	return func(o *canvasOptions) {
		o.displayCache = bytes
	}
}

func (o canvasOptions) renderOptions() []render.Option {
	opts := []render.Option{render.WithDisplayCache(o.displayCache)}
	if o.workers > 0 {
		opts = append(opts, render.WithWorkers(o.workers))
	}
	return opts
}
