// Command euclase runs a layer-compositing pipeline: it loads an image,
// applies selections, brush strokes and filters, and saves the flattened
// result.
//
// Usage:
//
//	euclase -config edit.json
//	euclase -input photo.jpg -filter blur,sepia -output out.webp
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gogpu/euclase"
	"github.com/gogpu/euclase/accel"
	"github.com/gogpu/euclase/codec"
	"github.com/gogpu/euclase/filter"
	"github.com/gogpu/euclase/outline"
	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/render"
)

func main() {
	var (
		configPath = flag.String("config", "", "JSON pipeline config")
		input      = flag.String("input", "", "input image")
		output     = flag.String("output", "", "output image")
		width      = flag.Int("width", 0, "canvas width without an input image")
		height     = flag.Int("height", 0, "canvas height without an input image")
		device     = flag.String("device", "", "panel memory: none, software or hal")
		format     = flag.String("format", "", "layer format, e.g. rgba8 or rgbaf")
		filters    = flag.String("filter", "", "comma-separated filters to apply, e.g. blur,sepia")
		quality    = flag.Int("quality", 0, "JPEG quality")
		workers    = flag.Int("workers", 0, "background render workers")
		verbose    = flag.Bool("v", false, "debug logging to stderr")
		listFilter = flag.Bool("list-filters", false, "print the available filters and exit")
	)
	flag.Parse()

	if *listFilter {
		fmt.Println(strings.Join(filter.Names(), "\n"))
		return
	}
	if *verbose {
		euclase.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to read config: %v", err)
	}

	// Flags given on the command line override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = *input
		case "output":
			cfg.Output = *output
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "device":
			cfg.Device = *device
		case "format":
			cfg.Format = *format
		case "quality":
			cfg.Quality = *quality
		case "workers":
			cfg.Workers = *workers
		case "filter":
			for name := range strings.SplitSeq(*filters, ",") {
				if name = strings.TrimSpace(name); name != "" {
					cfg.Filters = append(cfg.Filters, filterStep{Name: name})
				}
			}
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Failed: %v", err)
	}
	log.Printf("Saved %s in %v\n", cfg.Output, time.Since(start).Round(time.Millisecond))
}

func run(ctx context.Context, cfg config) error {
	pf, ok := pixel.ParseFormat(cfg.Format)
	if !ok {
		return fmt.Errorf("unknown format %q", cfg.Format)
	}

	var src *pixel.Buffer
	if cfg.Input != "" {
		var err error
		if src, err = codec.Load(cfg.Input, pf.WithAlpha()); err != nil {
			return err
		}
		cfg.Width, cfg.Height = src.Width(), src.Height()
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	dev, closeDev := openDevice(cfg.Device)
	defer closeDev()

	opts := []euclase.CanvasOption{
		euclase.WithFormat(pf.WithAlpha()),
		euclase.WithRenderWorkers(cfg.Workers),
	}
	if dev != nil {
		opts = append(opts, euclase.WithDevice(dev))
	}
	c, err := euclase.New(cfg.Width, cfg.Height, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if src != nil {
		if _, err := c.ImportImage(src, image.Point{}); err != nil {
			return err
		}
	}
	for _, s := range cfg.Selection {
		op, _ := parseSelectOp(s.Op)
		if err := c.ChangeSelection(op, rect(s.Rect)); err != nil {
			return err
		}
	}
	for i, s := range cfg.Strokes {
		if err := paint(c, s); err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
	}
	for _, f := range cfg.Filters {
		fn, err := filter.Lookup(f.Name)
		if err != nil {
			return err
		}
		if err := c.PreviewFilter(ctx, fn, filter.Params(f.Params)); err != nil {
			return fmt.Errorf("filter %s: %w", f.Name, err)
		}
		if err := c.CommitAlternate(true); err != nil {
			return err
		}
	}

	out, err := c.Flatten(pf)
	if err != nil {
		return err
	}
	if err := codec.Save(cfg.Output, out, &codec.Options{Quality: cfg.Quality}); err != nil {
		return err
	}

	if cfg.View != nil {
		return renderView(ctx, c, *cfg.View)
	}
	return nil
}

func paint(c *euclase.Canvas, s stroke) error {
	col, err := euclase.ParseColor(s.Color)
	if err != nil {
		return err
	}
	if s.Mix != "" {
		mix, err := euclase.ParseColor(s.Mix)
		if err != nil {
			return err
		}
		col = euclase.MixColors(col, mix, s.MixAmount)
	}
	st := euclase.NewStroke(s.Radius, s.Hardness)
	st.Dab(s.Points[0][0], s.Points[0][1])
	for _, p := range s.Points[1:] {
		st.LineTo(p[0], p[1])
	}
	if err := st.Err(); err != nil {
		return err
	}
	opacity := s.Opacity
	if opacity == 0 {
		opacity = 255
	}
	err = c.PaintToCurrentLayerAlternate(st.Layer(), euclase.PaintOptions{
		Color:   col,
		Opacity: uint8(min(max(opacity, 0), 255)),
		Eraser:  s.Eraser,
	})
	if err != nil {
		return err
	}
	return c.CommitAlternate(true)
}

// renderView renders the viewport through the background scheduler and
// saves the display surface.
func renderView(ctx context.Context, c *euclase.Canvas, v view) error {
	r := rect(v.Rect)
	if r.Empty() {
		r = c.Bounds()
	}
	focus := r.Min.Add(r.Max).Div(2)
	if err := c.RequestRendering(render.Request{Rect: r, Focus: focus, Scale: v.Scale}); err != nil {
		return err
	}
	if v.Outline {
		if err := c.RequestOutline(outline.Request{Rect: r, Scale: v.Scale}); err != nil {
			return err
		}
	}
	if err := c.Scheduler().WaitIdle(ctx); err != nil {
		return err
	}

	buf, err := pixel.FromImage(c.Scheduler().Surface(), pixel.FormatRGBA8)
	if err != nil {
		return err
	}
	st := c.Scheduler().Stats()
	log.Printf("View %v at %.2fx: %d tiles rendered, %d reused\n", r, v.Scale, st.Rendered, st.Reused)

	if v.Outline {
		if err := c.Tracer().WaitIdle(ctx); err != nil {
			return err
		}
		if o := c.Outline(); o != nil {
			log.Printf("Selection outline: %d boundary pixels\n", o.Count())
		}
	}
	if v.Output == "" {
		return nil
	}
	return codec.Save(v.Output, buf, nil)
}

// openDevice returns the panel device named by kind, or nil for host
// memory. A GPU that cannot be opened falls back to host memory.
func openDevice(kind string) (pixel.Device, func()) {
	switch kind {
	case "software":
		d := accel.NewSoftware(accel.SoftwareConfig{})
		return d, d.Close
	case "hal":
		d, err := accel.OpenHAL(accel.HALConfig{Name: "euclase"})
		if err != nil {
			euclase.Logger().Warn("euclase: gpu unavailable, using host memory", "error", err)
			return nil, func() {}
		}
		return d, d.Close
	default:
		return nil, func() {}
	}
}
