package blend

import (
	"errors"

	"github.com/gogpu/euclase/pixel"
)

// Mode selects how a source is combined with the destination.
type Mode uint8

const (
	// ModeNormal composites the source over the destination.
	ModeNormal Mode = iota

	// ModeReplace interpolates the destination toward the source by the
	// modulation. At full modulation the source is copied exactly.
	ModeReplace

	// ModeEraser reduces destination alpha by the modulated source
	// strength. Destinations without alpha fade toward zero instead.
	ModeEraser

	// ModeDisabled leaves the destination untouched.
	ModeDisabled
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeReplace:
		return "replace"
	case ModeEraser:
		return "eraser"
	case ModeDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Op describes one compositing operation.
type Op struct {
	Mode Mode

	// Color is the paint colour of stencil sources. Colour sources
	// ignore it.
	Color pixel.RGBA8

	// Opacity scales the whole operation, 0..255. A negative opacity
	// selects ModeEraser with strength -Opacity.
	Opacity int
}

// Paint returns a normal full-opacity op painting c through a stencil.
func Paint(c pixel.RGBA8) Op {
	return Op{Mode: ModeNormal, Color: c, Opacity: 255}
}

// Erase returns an eraser op of the given strength.
func Erase(strength uint8) Op {
	return Op{Mode: ModeEraser, Opacity: int(strength)}
}

// resolve applies the negative-opacity convention and clamps.
func (o Op) resolve() (Mode, uint32) {
	mode, op := o.Mode, o.Opacity
	if op < 0 {
		mode, op = ModeEraser, -op
	}
	return mode, uint32(min(op, 255))
}

var (
	// ErrUnsupportedPair is returned when no kernel exists for a
	// (source, destination) format pair.
	ErrUnsupportedPair = errors.New("blend: unsupported format pair")

	// ErrMaskFormat is returned when a mask is not Gray8.
	ErrMaskFormat = errors.New("blend: mask must be Gray8")
)
