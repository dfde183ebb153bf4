package filter

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gogpu/euclase/pixel"
)

// ErrUnknown is returned by Lookup for unregistered names.
var ErrUnknown = errors.New("filter: unknown filter")

// Params are named numeric filter parameters.
type Params map[string]float64

// Float returns the parameter name, or def when it is absent.
func (p Params) Float(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Func filters src into a new buffer of the same size and format. It
// returns ctx.Err() when cancelled.
type Func func(ctx context.Context, src *pixel.Buffer, params Params) (*pixel.Buffer, error)

var (
	mu       sync.RWMutex
	registry = map[string]Func{
		"blur":       Blur,
		"brightness": Brightness,
		"contrast":   Contrast,
		"saturation": Saturation,
		"grayscale":  Grayscale,
		"sepia":      Sepia,
		"invert":     Invert,
	}
)

// Register adds or replaces a named filter.
func Register(name string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = fn
}

// Lookup returns the filter registered under name.
func Lookup(name string) (Func, error) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return fn, nil
}

// Names returns the registered filter names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}
