// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pixel

import "math"

// RGBA8 is an sRGB-encoded colour with straight 8-bit alpha.
type RGBA8 struct {
	R, G, B, A uint8
}

// RGBAF is a linear-light colour with straight float alpha in [0, 1].
type RGBAF struct {
	R, G, B, A float32
}

// GrayA8 is an sRGB-encoded gray value with straight 8-bit alpha.
type GrayA8 struct {
	Y, A uint8
}

// GrayAF is a linear-light gray value with straight float alpha.
type GrayAF struct {
	Y, A float32
}

// Common colours.
var (
	Transparent = RGBA8{}
	Black       = RGBA8{0, 0, 0, 255}
	White       = RGBA8{255, 255, 255, 255}
)

// RGBA implements image/color.Color.
func (c RGBA8) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * uint32(c.A) * 0x101 / 255
	g = uint32(c.G) * uint32(c.A) * 0x101 / 255
	b = uint32(c.B) * uint32(c.A) * 0x101 / 255
	a = uint32(c.A) * 0x101
	return
}

// Linear converts the colour to linear light.
func (c RGBA8) Linear() RGBAF {
	return RGBAF{
		R: sRGBToLinearLUT[c.R],
		G: sRGBToLinearLUT[c.G],
		B: sRGBToLinearLUT[c.B],
		A: float32(c.A) / 255,
	}
}

// SRGB converts the colour to 8-bit sRGB, clamping out-of-range values.
func (c RGBAF) SRGB() RGBA8 {
	return RGBA8{
		R: LinearToSRGB8(c.R),
		G: LinearToSRGB8(c.G),
		B: LinearToSRGB8(c.B),
		A: unitToByte(c.A),
	}
}

// Luma8 projects an sRGB colour onto gray: (306r + 601g + 117b) >> 10.
func Luma8(r, g, b uint8) uint8 {
	return uint8((306*uint32(r) + 601*uint32(g) + 117*uint32(b)) >> 10)
}

// LumaF is the float counterpart of Luma8 using the same weights.
func LumaF(r, g, b float32) float32 {
	return (306*r + 601*g + 117*b) / 1024
}

// sRGBToLinearLUT maps every 8-bit sRGB value to linear light.
var sRGBToLinearLUT [256]float32

// linearToSRGBLUT maps linear light quantized to 16 bits back to sRGB.
// 16 bits keeps the 8-bit round trip exact in the steep dark segment.
var linearToSRGBLUT [65536]uint8

func init() {
	for i := range 256 {
		sRGBToLinearLUT[i] = float32(SRGBToLinear(float64(i) / 255))
	}
	for i := range 65536 {
		s := LinearToSRGB(float64(i) / 65535)
		linearToSRGBLUT[i] = uint8(min(max(s*255+0.5, 0), 255))
	}
}

// SRGBToLinear converts an sRGB value in [0, 1] to linear light.
func SRGBToLinear(s float64) float64 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

// LinearToSRGB converts a linear value in [0, 1] to sRGB.
func LinearToSRGB(l float64) float64 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*math.Pow(l, 1.0/2.4) - 0.055
}

// SRGB8ToLinear converts an 8-bit sRGB value to linear light.
func SRGB8ToLinear(s uint8) float32 {
	return sRGBToLinearLUT[s]
}

// LinearToSRGB8 converts linear light to an 8-bit sRGB value.
func LinearToSRGB8(l float32) uint8 {
	if !(l > 0) {
		return 0
	}
	if l >= 1 {
		return 255
	}
	return linearToSRGBLUT[int(l*65535+0.5)]
}

func unitToByte(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
