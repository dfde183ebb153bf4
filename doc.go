// Package euclase is a tiled layer-compositing engine for raster image
// editors.
//
// # Overview
//
// A Canvas holds an ordered stack of layers and one selection layer. Every
// layer is a sparse grid of 256×256 panels, so huge mostly-empty canvases
// cost memory only where something was painted. Panels can live in host
// memory or, with WithDevice, in accelerator memory; the host path is
// always available.
//
// # Quick Start
//
//	c, err := euclase.New(2048, 1536)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	s := euclase.NewStroke(12, 0.6)
//	s.Line(100, 100, 900, 400)
//	c.PaintToCurrentLayerAlternate(s.Layer(), euclase.PaintOptions{
//	    Color: pixel.RGBA8{R: 200, G: 30, B: 30, A: 255}, Opacity: 255,
//	})
//	c.CommitAlternate(true)
//
//	img, err := c.Flatten(pixel.FormatRGBA8)
//
// # Alternate Sessions
//
// Painting and filter previews go to a layer's alternate collection first.
// Viewers (RenderToPanel with tile.Alternate and the background scheduler)
// show the preview mixed over the committed pixels, scoped by the selection
// captured when the session began. CommitAlternate(true) writes the
// preview into the layer; CommitAlternate(false) drops it.
//
// # Background Work
//
// RequestRendering keeps a viewport rendered by worker goroutines, nearest
// the focus point first; see package render. RequestOutline keeps the
// selection outline traced; see package outline. Both take the canvas lock
// once per tile, so foreground edits stay responsive.
//
// # Coordinate System
//
// Canvas coordinates have the origin at the top-left, X increasing right
// and Y increasing down. Layer panel offsets are in layer space; a layer's
// Offset places it on the canvas.
package euclase
