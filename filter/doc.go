// Package filter holds whole-buffer image filters.
//
// A filter is a Func: it reads a pixel buffer and returns a new one of the
// same size and format, checking its context between rows so a superseded
// preview stops early. Filters are looked up by name, which lets the
// command line and preview code share one table.
//
// Available filters:
//   - blur: separable Gaussian blur in linear light (radius, radius_x, radius_y)
//   - brightness, contrast, saturation: colour matrix adjustments (amount)
//   - grayscale, sepia, invert: fixed colour matrices
package filter
