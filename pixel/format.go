// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pixel

import "strings"

// Format represents a pixel storage format.
type Format uint8

const (
	// FormatRGB8 is 24-bit sRGB without alpha (3 bytes per pixel).
	FormatRGB8 Format = iota

	// FormatRGBA8 is 32-bit sRGB with straight alpha (4 bytes per pixel).
	FormatRGBA8

	// FormatGray8 is 8-bit sRGB gray (1 byte per pixel).
	// As a blend source it is a coverage stencil.
	FormatGray8

	// FormatGrayA8 is 8-bit sRGB gray with straight alpha (2 bytes per pixel).
	FormatGrayA8

	// FormatRGBF is linear float32 RGB (12 bytes per pixel).
	FormatRGBF

	// FormatRGBAF is linear float32 RGBA with straight alpha (16 bytes per pixel).
	FormatRGBAF

	// FormatGrayF is linear float32 gray (4 bytes per pixel).
	// As a blend source it is a coverage stencil.
	FormatGrayF

	// FormatGrayAF is linear float32 gray with straight alpha (8 bytes per pixel).
	FormatGrayAF

	// formatCount is the number of formats (for internal use).
	formatCount
)

// FormatCount is the number of valid formats. Formats are numbered
// 0..FormatCount-1 so callers can build lookup tables indexed by Format.
const FormatCount = int(formatCount)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	// BytesPerPixel is the number of bytes per pixel.
	BytesPerPixel int

	// Channels is the number of stored channels, alpha included.
	Channels int

	// HasAlpha indicates if the format has an alpha channel.
	HasAlpha bool

	// IsGrayscale indicates if the format stores a single colour channel.
	IsGrayscale bool

	// IsFloat indicates float32 linear-light channels.
	IsFloat bool
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatRGB8:   {BytesPerPixel: 3, Channels: 3},
	FormatRGBA8:  {BytesPerPixel: 4, Channels: 4, HasAlpha: true},
	FormatGray8:  {BytesPerPixel: 1, Channels: 1, IsGrayscale: true},
	FormatGrayA8: {BytesPerPixel: 2, Channels: 2, HasAlpha: true, IsGrayscale: true},
	FormatRGBF:   {BytesPerPixel: 12, Channels: 3, IsFloat: true},
	FormatRGBAF:  {BytesPerPixel: 16, Channels: 4, HasAlpha: true, IsFloat: true},
	FormatGrayF:  {BytesPerPixel: 4, Channels: 1, IsGrayscale: true, IsFloat: true},
	FormatGrayAF: {BytesPerPixel: 8, Channels: 2, HasAlpha: true, IsGrayscale: true, IsFloat: true},
}

var formatNames = [formatCount]string{
	FormatRGB8:   "RGB8",
	FormatRGBA8:  "RGBA8",
	FormatGray8:  "Gray8",
	FormatGrayA8: "GrayA8",
	FormatRGBF:   "RGBF",
	FormatRGBAF:  "RGBAF",
	FormatGrayF:  "GrayF",
	FormatGrayAF: "GrayAF",
}

// Info returns the FormatInfo for this format.
// Invalid formats return the zero FormatInfo.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// Channels returns the number of stored channels.
func (f Format) Channels() int {
	return f.Info().Channels
}

// HasAlpha returns true if this format has an alpha channel.
func (f Format) HasAlpha() bool {
	return f.Info().HasAlpha
}

// IsGrayscale returns true if this is a grayscale format.
func (f Format) IsGrayscale() bool {
	return f.Info().IsGrayscale
}

// IsFloat returns true for the float32 linear-light formats.
func (f Format) IsFloat() bool {
	return f.Info().IsFloat
}

// IsStencil reports whether a source in this format is treated as
// coverage rather than colour when blending.
func (f Format) IsStencil() bool {
	return f == FormatGray8 || f == FormatGrayF
}

// String returns a string representation of the format.
func (f Format) String() string {
	if f >= formatCount {
		return "Unknown"
	}
	return formatNames[f]
}

// IsValid returns true if the format is a valid known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// RowBytes calculates the number of bytes needed for a row of the given width.
func (f Format) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// ImageBytes calculates the total number of bytes needed for an image.
func (f Format) ImageBytes(width, height int) int {
	return f.RowBytes(width) * height
}

// WithAlpha returns the format with an alpha channel and the same encoding.
func (f Format) WithAlpha() Format {
	switch f {
	case FormatRGB8:
		return FormatRGBA8
	case FormatGray8:
		return FormatGrayA8
	case FormatRGBF:
		return FormatRGBAF
	case FormatGrayF:
		return FormatGrayAF
	default:
		return f
	}
}

// Float returns the float counterpart of an integer format.
func (f Format) Float() Format {
	if f < FormatRGBF {
		return f + FormatRGBF
	}
	return f
}

// Integer returns the 8-bit counterpart of a float format.
func (f Format) Integer() Format {
	if f >= FormatRGBF && f < formatCount {
		return f - FormatRGBF
	}
	return f
}

// ParseFormat returns the format with the given name, as printed by String.
// Case is ignored.
func ParseFormat(name string) (Format, bool) {
	for i, n := range formatNames {
		if strings.EqualFold(n, name) {
			return Format(i), true
		}
	}
	return 0, false
}
