package blend

import "github.com/gogpu/euclase/pixel"

// div255 divides by 255 with rounding, exact for x in [0, 255*255].
func div255(x uint32) uint32 {
	return (x*257 + 256) >> 16
}

// Mul8 returns a*b/255 rounded.
func Mul8(a, b uint8) uint8 {
	return uint8(div255(uint32(a) * uint32(b)))
}

// OverRGBA8 composites over onto base.
func OverRGBA8(base, over pixel.RGBA8) pixel.RGBA8 {
	if over.A == 0 {
		return base
	}
	if over.A == 255 || base.A == 0 {
		return over
	}
	oa, ba := uint32(over.A), uint32(base.A)
	inv := 255 - oa
	a := oa*255 + ba*inv
	ch := func(o, b uint8) uint8 {
		return uint8((uint32(o)*oa*255 + uint32(b)*ba*inv) / a)
	}
	return pixel.RGBA8{
		R: ch(over.R, base.R),
		G: ch(over.G, base.G),
		B: ch(over.B, base.B),
		A: uint8(div255(a)),
	}
}

// OverGrayA8 is OverRGBA8 on a single channel.
func OverGrayA8(base, over pixel.GrayA8) pixel.GrayA8 {
	if over.A == 0 {
		return base
	}
	if over.A == 255 || base.A == 0 {
		return over
	}
	oa, ba := uint32(over.A), uint32(base.A)
	inv := 255 - oa
	a := oa*255 + ba*inv
	return pixel.GrayA8{
		Y: uint8((uint32(over.Y)*oa*255 + uint32(base.Y)*ba*inv) / a),
		A: uint8(div255(a)),
	}
}

// OverRGBAF composites over onto base in linear light.
func OverRGBAF(base, over pixel.RGBAF) pixel.RGBAF {
	if over.A <= 0 {
		return base
	}
	if over.A >= 1 || base.A <= 0 {
		return over
	}
	wb := base.A * (1 - over.A)
	a := over.A + wb
	if a <= 0 {
		return pixel.RGBAF{}
	}
	return pixel.RGBAF{
		R: (over.R*over.A + base.R*wb) / a,
		G: (over.G*over.A + base.G*wb) / a,
		B: (over.B*over.A + base.B*wb) / a,
		A: a,
	}
}

// OverGrayAF is OverRGBAF on a single channel.
func OverGrayAF(base, over pixel.GrayAF) pixel.GrayAF {
	if over.A <= 0 {
		return base
	}
	if over.A >= 1 || base.A <= 0 {
		return over
	}
	wb := base.A * (1 - over.A)
	a := over.A + wb
	if a <= 0 {
		return pixel.GrayAF{}
	}
	return pixel.GrayAF{Y: (over.Y*over.A + base.Y*wb) / a, A: a}
}

func lerp8(a, b uint8, t uint32) uint8 {
	return uint8(div255(uint32(a)*(255-t) + uint32(b)*t))
}

// LerpRGBA8 interpolates every channel from a to b by t/255.
// t == 0 returns a and t == 255 returns b exactly.
func LerpRGBA8(a, b pixel.RGBA8, t uint8) pixel.RGBA8 {
	u := uint32(t)
	return pixel.RGBA8{
		R: lerp8(a.R, b.R, u),
		G: lerp8(a.G, b.G, u),
		B: lerp8(a.B, b.B, u),
		A: lerp8(a.A, b.A, u),
	}
}

// LerpGrayA8 is LerpRGBA8 on gray.
func LerpGrayA8(a, b pixel.GrayA8, t uint8) pixel.GrayA8 {
	u := uint32(t)
	return pixel.GrayA8{Y: lerp8(a.Y, b.Y, u), A: lerp8(a.A, b.A, u)}
}

func lerpF(a, b, t float32) float32 {
	return a + (b-a)*t
}

// LerpRGBAF interpolates every channel from a to b by t in [0, 1].
func LerpRGBAF(a, b pixel.RGBAF, t float32) pixel.RGBAF {
	if t >= 1 {
		return b
	}
	return pixel.RGBAF{
		R: lerpF(a.R, b.R, t),
		G: lerpF(a.G, b.G, t),
		B: lerpF(a.B, b.B, t),
		A: lerpF(a.A, b.A, t),
	}
}

// LerpGrayAF is LerpRGBAF on gray.
func LerpGrayAF(a, b pixel.GrayAF, t float32) pixel.GrayAF {
	if t >= 1 {
		return b
	}
	return pixel.GrayAF{Y: lerpF(a.Y, b.Y, t), A: lerpF(a.A, b.A, t)}
}
