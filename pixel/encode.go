// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pixel

import (
	"encoding/binary"
	"math"
)

// The Load/Store functions decode and encode one pixel at the start of p.
// Formats without alpha load as opaque and drop alpha on store. Loading a
// colour value from a gray format replicates the gray; storing colour into
// a gray format projects onto luma.

func f32(p []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
}

func putF32(p []byte, i int, v float32) {
	binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
}

// LoadRGBA8 decodes the pixel at p as 8-bit sRGB.
func LoadRGBA8(f Format, p []byte) RGBA8 {
	switch f {
	case FormatRGB8:
		return RGBA8{p[0], p[1], p[2], 255}
	case FormatRGBA8:
		return RGBA8{p[0], p[1], p[2], p[3]}
	case FormatGray8:
		return RGBA8{p[0], p[0], p[0], 255}
	case FormatGrayA8:
		return RGBA8{p[0], p[0], p[0], p[1]}
	case FormatRGBF, FormatRGBAF, FormatGrayF, FormatGrayAF:
		return LoadRGBAF(f, p).SRGB()
	}
	return RGBA8{}
}

// StoreRGBA8 encodes c into the pixel at p.
func StoreRGBA8(f Format, p []byte, c RGBA8) {
	switch f {
	case FormatRGB8:
		p[0], p[1], p[2] = c.R, c.G, c.B
	case FormatRGBA8:
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
	case FormatGray8:
		p[0] = Luma8(c.R, c.G, c.B)
	case FormatGrayA8:
		p[0], p[1] = Luma8(c.R, c.G, c.B), c.A
	case FormatRGBF, FormatRGBAF, FormatGrayF, FormatGrayAF:
		StoreRGBAF(f, p, c.Linear())
	}
}

// LoadRGBAF decodes the pixel at p as linear light.
func LoadRGBAF(f Format, p []byte) RGBAF {
	switch f {
	case FormatRGBF:
		return RGBAF{f32(p, 0), f32(p, 1), f32(p, 2), 1}
	case FormatRGBAF:
		return RGBAF{f32(p, 0), f32(p, 1), f32(p, 2), f32(p, 3)}
	case FormatGrayF:
		y := f32(p, 0)
		return RGBAF{y, y, y, 1}
	case FormatGrayAF:
		y := f32(p, 0)
		return RGBAF{y, y, y, f32(p, 1)}
	case FormatRGB8, FormatRGBA8, FormatGray8, FormatGrayA8:
		return LoadRGBA8(f, p).Linear()
	}
	return RGBAF{}
}

// StoreRGBAF encodes c into the pixel at p.
func StoreRGBAF(f Format, p []byte, c RGBAF) {
	switch f {
	case FormatRGBF:
		putF32(p, 0, c.R)
		putF32(p, 1, c.G)
		putF32(p, 2, c.B)
	case FormatRGBAF:
		putF32(p, 0, c.R)
		putF32(p, 1, c.G)
		putF32(p, 2, c.B)
		putF32(p, 3, c.A)
	case FormatGrayF:
		putF32(p, 0, LumaF(c.R, c.G, c.B))
	case FormatGrayAF:
		putF32(p, 0, LumaF(c.R, c.G, c.B))
		putF32(p, 1, c.A)
	case FormatRGB8, FormatRGBA8, FormatGray8, FormatGrayA8:
		StoreRGBA8(f, p, c.SRGB())
	}
}

// LoadGrayA8 decodes the pixel at p as 8-bit gray.
func LoadGrayA8(f Format, p []byte) GrayA8 {
	switch f {
	case FormatGray8:
		return GrayA8{p[0], 255}
	case FormatGrayA8:
		return GrayA8{p[0], p[1]}
	default:
		c := LoadRGBA8(f, p)
		return GrayA8{Luma8(c.R, c.G, c.B), c.A}
	}
}

// StoreGrayA8 encodes g into the pixel at p.
func StoreGrayA8(f Format, p []byte, g GrayA8) {
	switch f {
	case FormatGray8:
		p[0] = g.Y
	case FormatGrayA8:
		p[0], p[1] = g.Y, g.A
	default:
		StoreRGBA8(f, p, RGBA8{g.Y, g.Y, g.Y, g.A})
	}
}

// LoadGrayAF decodes the pixel at p as linear gray.
func LoadGrayAF(f Format, p []byte) GrayAF {
	switch f {
	case FormatGrayF:
		return GrayAF{f32(p, 0), 1}
	case FormatGrayAF:
		return GrayAF{f32(p, 0), f32(p, 1)}
	default:
		c := LoadRGBAF(f, p)
		return GrayAF{LumaF(c.R, c.G, c.B), c.A}
	}
}

// StoreGrayAF encodes g into the pixel at p.
func StoreGrayAF(f Format, p []byte, g GrayAF) {
	switch f {
	case FormatGrayF:
		putF32(p, 0, g.Y)
	case FormatGrayAF:
		putF32(p, 0, g.Y)
		putF32(p, 1, g.A)
	default:
		StoreRGBAF(f, p, RGBAF{g.Y, g.Y, g.Y, g.A})
	}
}

// LoadCoverage decodes a stencil pixel (Gray8 or GrayF) as 0..255.
func LoadCoverage(f Format, p []byte) uint8 {
	if f == FormatGrayF {
		return unitToByte(f32(p, 0))
	}
	return p[0]
}

// LoadCoverageF decodes a stencil pixel (Gray8 or GrayF) as 0..1.
func LoadCoverageF(f Format, p []byte) float32 {
	if f == FormatGrayF {
		return min(max(f32(p, 0), 0), 1)
	}
	return float32(p[0]) / 255
}

// Encode returns the bytes of one pixel of format f holding c.
func Encode(f Format, c RGBA8) []byte {
	p := make([]byte, f.BytesPerPixel())
	StoreRGBA8(f, p, c)
	return p
}
