package tile

import (
	"fmt"
	"image"

	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/euclase/pixel"
)

// Collection names one of a layer's three panel stores.
type Collection uint8

const (
	// Primary holds the committed pixels.
	Primary Collection = iota

	// Alternate holds the preview of an operation being adjusted.
	Alternate

	// AlternateSelection holds Gray8 coverage limiting where the
	// alternate replaces the primary.
	AlternateSelection

	collectionCount
)

// String returns the collection name.
func (c Collection) String() string {
	switch c {
	case Primary:
		return "primary"
	case Alternate:
		return "alternate"
	case AlternateSelection:
		return "alternate-selection"
	default:
		return fmt.Sprintf("Collection(%d)", c)
	}
}

// AltMode is how the alternate collection combines with the primary.
type AltMode uint8

const (
	// AltNormal composites the alternate over the primary.
	AltNormal AltMode = iota

	// AltReplace shows the alternate instead of the primary.
	AltReplace

	// AltEraser erases the primary by the alternate's coverage.
	AltEraser

	// AltDisabled hides the alternate.
	AltDisabled
)

// String returns the mode name.
func (m AltMode) String() string {
	switch m {
	case AltNormal:
		return "normal"
	case AltReplace:
		return "replace"
	case AltEraser:
		return "eraser"
	case AltDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("AltMode(%d)", m)
	}
}

// Layer is a sparse tiled surface with primary, alternate and
// alternate-selection collections. Panel offsets are in layer space; add
// Offset for canvas space.
//
// Layer is not safe for concurrent mutation; the canvas serializes access.
type Layer struct {
	// Offset places the layer on the canvas.
	Offset image.Point

	// Visible layers take part in flattening.
	Visible bool

	// Opacity scales the layer when flattening, 0..255.
	Opacity uint8

	name      string
	format    pixel.Format
	residency pixel.Residency
	device    pixel.Device

	stores  [collectionCount]Store
	active  Collection
	altMode AltMode
}

// NewLayer creates an empty, visible, opaque layer. device is used for
// Accelerator residency.
func NewLayer(format pixel.Format, residency pixel.Residency, device pixel.Device) *Layer {
	return &Layer{
		Visible:   true,
		Opacity:   255,
		format:    format,
		residency: residency,
		device:    device,
	}
}

// Name returns the layer name.
func (l *Layer) Name() string { return l.name }

// SetName sets the layer name in Unicode normalization form C, so names
// typed with combining marks compare equal to precomposed ones.
func (l *Layer) SetName(name string) { l.name = norm.NFC.String(name) }

// Format returns the pixel format of primary and alternate panels.
func (l *Layer) Format() pixel.Format { return l.format }

// Residency returns where panel memory lives.
func (l *Layer) Residency() pixel.Residency { return l.residency }

// Device returns the accelerator device, if any.
func (l *Layer) Device() pixel.Device { return l.device }

// Store returns the panel store for c.
func (l *Layer) Store(c Collection) *Store { return &l.stores[c] }

// Active returns the collection shown for this layer.
func (l *Layer) Active() Collection { return l.active }

// SetActive selects the collection shown for this layer.
func (l *Layer) SetActive(c Collection) { l.active = c }

// AltMode returns how the alternate combines with the primary.
func (l *Layer) AltMode() AltMode { return l.altMode }

// SetAltMode sets how the alternate combines with the primary.
func (l *Layer) SetAltMode(m AltMode) { l.altMode = m }

// PreviewActive reports whether the alternate collection is being shown.
func (l *Layer) PreviewActive() bool {
	return l.active == Alternate && l.altMode != AltDisabled
}

// FormatOf returns the pixel format of panels in collection c.
func (l *Layer) FormatOf(c Collection) pixel.Format {
	if c == AlternateSelection {
		return pixel.FormatGray8
	}
	return l.format
}

// NewBuffer allocates a transparent panel buffer for collection c.
// Alternate-selection panels are Gray8 host memory.
func (l *Layer) NewBuffer(c Collection) (*pixel.Buffer, error) {
	if c == AlternateSelection {
		return pixel.New(Size, Size, pixel.FormatGray8)
	}
	return pixel.Make(Size, Size, l.format, l.residency, l.device)
}

// Ensure returns the panel of c at off, creating a transparent one when
// missing. off must be panel-aligned.
func (l *Layer) Ensure(c Collection, off image.Point) (*Panel, error) {
	p, _, err := l.stores[c].InsertOrGet(off, func() (*pixel.Buffer, error) { return l.NewBuffer(c) })
	if err != nil {
		return nil, fmt.Errorf("tile: allocate %s panel at %v: %w", c, off, err)
	}
	if p.Buf == nil {
		if p.Buf, err = l.NewBuffer(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// IsEmpty reports whether collection c has no panels.
func (l *Layer) IsEmpty(c Collection) bool { return l.stores[c].IsEmpty() }

// Bounds returns the canvas-space bounds of collection c.
func (l *Layer) Bounds(c Collection) image.Rectangle {
	b := l.stores[c].Bounds()
	if b.Empty() {
		return b
	}
	return b.Add(l.Offset)
}

// ClearAlternate empties the alternate and alternate-selection collections
// and shows the primary again.
func (l *Layer) ClearAlternate() {
	l.stores[Alternate].Clear()
	l.stores[AlternateSelection].Clear()
	l.active = Primary
}

// Clear empties every collection.
func (l *Layer) Clear() {
	for i := range l.stores {
		l.stores[i].Clear()
	}
	l.active = Primary
}
