package filter

import (
	"context"

	"github.com/gogpu/euclase/internal/parallel"
	"github.com/gogpu/euclase/pixel"
)

// Matrix is a 4×5 colour matrix applied to sRGB channels in 0..255:
//
//	[R']   [m0  m1  m2  m3  m4 ]   [R]
//	[G'] = [m5  m6  m7  m8  m9 ] * [G]
//	[B']   [m10 m11 m12 m13 m14]   [B]
//	[A']   [m15 m16 m17 m18 m19]   [A]
//	                               [1]
type Matrix [20]float32

// Identity leaves pixels unchanged.
var Identity = Matrix{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// Rec. 709 luminance weights.
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

// BrightnessMatrix scales colour by factor: 0 is black, 1 unchanged.
func BrightnessMatrix(factor float32) Matrix {
	return Matrix{
		factor, 0, 0, 0, 0,
		0, factor, 0, 0, 0,
		0, 0, factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// ContrastMatrix scales colour around mid gray: 0 is flat gray, 1 unchanged.
func ContrastMatrix(factor float32) Matrix {
	off := 128 * (1 - factor)
	return Matrix{
		factor, 0, 0, 0, off,
		0, factor, 0, 0, off,
		0, 0, factor, 0, off,
		0, 0, 0, 1, 0,
	}
}

// SaturationMatrix blends between luminance (0) and the original colour (1).
func SaturationMatrix(factor float32) Matrix {
	inv := 1 - factor
	return Matrix{
		lumR*inv + factor, lumG * inv, lumB * inv, 0, 0,
		lumR * inv, lumG*inv + factor, lumB * inv, 0, 0,
		lumR * inv, lumG * inv, lumB*inv + factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// SepiaMatrix tones colour brown.
var SepiaMatrix = Matrix{
	0.393, 0.769, 0.189, 0, 0,
	0.349, 0.686, 0.168, 0, 0,
	0.272, 0.534, 0.131, 0, 0,
	0, 0, 0, 1, 0,
}

// InvertMatrix inverts colour and keeps alpha.
var InvertMatrix = Matrix{
	-1, 0, 0, 0, 255,
	0, -1, 0, 0, 255,
	0, 0, -1, 0, 255,
	0, 0, 0, 1, 0,
}

// Apply returns src transformed by m as a host buffer in src's format.
func (m Matrix) Apply(ctx context.Context, src *pixel.Buffer) (*pixel.Buffer, error) {
	pix, err := src.ReadHost()
	if err != nil {
		return nil, err
	}
	f, w := src.Format(), src.Width()
	out, err := pixel.New(w, src.Height(), f)
	if err != nil {
		return nil, err
	}
	dst, stride, bpp := out.Bytes(), out.Stride(), f.BytesPerPixel()

	err = parallel.Default().Run(src.Height(), func(y int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := range w {
			i := y*stride + x*bpp
			pixel.StoreRGBA8(f, dst[i:], m.apply(pixel.LoadRGBA8(f, pix[i:])))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Matrix) apply(c pixel.RGBA8) pixel.RGBA8 {
	r, g, b, a := float32(c.R), float32(c.G), float32(c.B), float32(c.A)
	return pixel.RGBA8{
		R: clampByte(m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4]),
		G: clampByte(m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9]),
		B: clampByte(m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14]),
		A: clampByte(m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19]),
	}
}

func clampByte(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Brightness scales colour by amount (default 1).
func Brightness(ctx context.Context, src *pixel.Buffer, params Params) (*pixel.Buffer, error) {
	return BrightnessMatrix(float32(params.Float("amount", 1))).Apply(ctx, src)
}

// Contrast scales colour around mid gray by amount (default 1).
func Contrast(ctx context.Context, src *pixel.Buffer, params Params) (*pixel.Buffer, error) {
	return ContrastMatrix(float32(params.Float("amount", 1))).Apply(ctx, src)
}

// Saturation blends toward luminance; amount 0 is gray, 1 (default) unchanged.
func Saturation(ctx context.Context, src *pixel.Buffer, params Params) (*pixel.Buffer, error) {
	return SaturationMatrix(float32(params.Float("amount", 1))).Apply(ctx, src)
}

// Grayscale replaces colour with its Rec. 709 luminance.
func Grayscale(ctx context.Context, src *pixel.Buffer, _ Params) (*pixel.Buffer, error) {
	return SaturationMatrix(0).Apply(ctx, src)
}

// Sepia applies SepiaMatrix.
func Sepia(ctx context.Context, src *pixel.Buffer, _ Params) (*pixel.Buffer, error) {
	return SepiaMatrix.Apply(ctx, src)
}

// Invert applies InvertMatrix.
func Invert(ctx context.Context, src *pixel.Buffer, _ Params) (*pixel.Buffer, error) {
	return InvertMatrix.Apply(ctx, src)
}
