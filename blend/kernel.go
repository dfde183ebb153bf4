package blend

import (
	"fmt"

	"github.com/gogpu/euclase/pixel"
)

// Kernel blends rows of one source format into one destination format.
type Kernel struct {
	Src, Dst pixel.Format
	row      func(k *Kernel, dst, src, mask []byte, n int, p *params)
}

// params is an Op resolved for one call.
type params struct {
	mode    Mode
	opacity uint32
	color   pixel.RGBA8
	colorF  pixel.RGBAF
}

func newParams(op Op) params {
	mode, opacity := op.resolve()
	return params{mode: mode, opacity: opacity, color: op.Color, colorF: op.Color.Linear()}
}

// Row blends n pixels. dst and src start at the first pixel; mask is nil
// or n Gray8 coverage values.
func (k *Kernel) Row(dst, src, mask []byte, n int, op Op) {
	p := newParams(op)
	if p.mode == ModeDisabled || p.opacity == 0 {
		return
	}
	k.row(k, dst, src, mask, n, &p)
}

var kernels [pixel.FormatCount][pixel.FormatCount]*Kernel

func init() {
	for s := range pixel.Format(pixel.FormatCount) {
		for d := range pixel.Format(pixel.FormatCount) {
			k := &Kernel{Src: s, Dst: d}
			switch {
			case d.IsFloat() && d.IsGrayscale():
				k.row = rowGrayF
			case d.IsFloat():
				k.row = rowRGBAF
			case d.IsGrayscale():
				k.row = rowGray8
			default:
				k.row = rowRGBA8
			}
			kernels[s][d] = k
		}
	}
}

// Lookup returns the kernel for a (source, destination) pair.
func Lookup(src, dst pixel.Format) (*Kernel, error) {
	if !src.IsValid() || !dst.IsValid() || kernels[src][dst] == nil {
		return nil, fmt.Errorf("%w: %s onto %s", ErrUnsupportedPair, src, dst)
	}
	return kernels[src][dst], nil
}

// sample8 returns the source colour and its strength. Stencils yield the
// op colour at their coverage; colour sources yield themselves at 255.
func (k *Kernel) sample8(src []byte, p *params) (pixel.RGBA8, uint32) {
	if k.Src.IsStencil() {
		return p.color, uint32(pixel.LoadCoverage(k.Src, src))
	}
	return pixel.LoadRGBA8(k.Src, src), 255
}

func (k *Kernel) sampleF(src []byte, p *params) (pixel.RGBAF, float32) {
	if k.Src.IsStencil() {
		return p.colorF, pixel.LoadCoverageF(k.Src, src)
	}
	return pixel.LoadRGBAF(k.Src, src), 1
}

// eraseStrength is how much alpha an eraser removes for a sample with
// modulation t. Stencils erase by coverage alone.
func (k *Kernel) eraseStrength(a uint8, t uint32) uint32 {
	if k.Src.IsStencil() {
		return t
	}
	return div255(uint32(a) * t)
}

func maskAt(mask []byte, i int) uint32 {
	if mask == nil {
		return 255
	}
	return uint32(mask[i])
}

func rowRGBA8(k *Kernel, dst, src, mask []byte, n int, p *params) {
	df, dbpp, sbpp := k.Dst, k.Dst.BytesPerPixel(), k.Src.BytesPerPixel()
	for i := range n {
		m := div255(p.opacity * maskAt(mask, i))
		if m == 0 {
			continue
		}
		c, s := k.sample8(src[i*sbpp:], p)
		t := div255(s * m)
		if t == 0 {
			continue
		}
		d := dst[i*dbpp:]
		base := pixel.LoadRGBA8(df, d)
		switch p.mode {
		case ModeNormal:
			c.A = uint8(div255(uint32(c.A) * t))
			pixel.StoreRGBA8(df, d, OverRGBA8(base, c))
		case ModeReplace:
			pixel.StoreRGBA8(df, d, LerpRGBA8(base, c, uint8(t)))
		case ModeEraser:
			keep := 255 - k.eraseStrength(c.A, t)
			if df.HasAlpha() {
				base.A = uint8(div255(uint32(base.A) * keep))
			} else {
				base.R = uint8(div255(uint32(base.R) * keep))
				base.G = uint8(div255(uint32(base.G) * keep))
				base.B = uint8(div255(uint32(base.B) * keep))
			}
			pixel.StoreRGBA8(df, d, base)
		}
	}
}

func rowGray8(k *Kernel, dst, src, mask []byte, n int, p *params) {
	df, dbpp, sbpp := k.Dst, k.Dst.BytesPerPixel(), k.Src.BytesPerPixel()
	for i := range n {
		m := div255(p.opacity * maskAt(mask, i))
		if m == 0 {
			continue
		}
		c, s := k.sample8(src[i*sbpp:], p)
		t := div255(s * m)
		if t == 0 {
			continue
		}
		d := dst[i*dbpp:]
		base := pixel.LoadGrayA8(df, d)
		over := pixel.GrayA8{Y: pixel.Luma8(c.R, c.G, c.B), A: c.A}
		switch p.mode {
		case ModeNormal:
			over.A = uint8(div255(uint32(over.A) * t))
			pixel.StoreGrayA8(df, d, OverGrayA8(base, over))
		case ModeReplace:
			pixel.StoreGrayA8(df, d, LerpGrayA8(base, over, uint8(t)))
		case ModeEraser:
			keep := 255 - k.eraseStrength(c.A, t)
			if df.HasAlpha() {
				base.A = uint8(div255(uint32(base.A) * keep))
			} else {
				base.Y = uint8(div255(uint32(base.Y) * keep))
			}
			pixel.StoreGrayA8(df, d, base)
		}
	}
}

func (k *Kernel) eraseStrengthF(a, t float32) float32 {
	if k.Src.IsStencil() {
		return t
	}
	return a * t
}

func rowRGBAF(k *Kernel, dst, src, mask []byte, n int, p *params) {
	df, dbpp, sbpp := k.Dst, k.Dst.BytesPerPixel(), k.Src.BytesPerPixel()
	opacity := float32(p.opacity) / 255
	for i := range n {
		m := opacity * float32(maskAt(mask, i)) / 255
		if m <= 0 {
			continue
		}
		c, s := k.sampleF(src[i*sbpp:], p)
		t := s * m
		if t <= 0 {
			continue
		}
		d := dst[i*dbpp:]
		base := pixel.LoadRGBAF(df, d)
		switch p.mode {
		case ModeNormal:
			c.A *= t
			pixel.StoreRGBAF(df, d, OverRGBAF(base, c))
		case ModeReplace:
			pixel.StoreRGBAF(df, d, LerpRGBAF(base, c, t))
		case ModeEraser:
			keep := 1 - k.eraseStrengthF(c.A, t)
			if df.HasAlpha() {
				base.A *= keep
			} else {
				base.R *= keep
				base.G *= keep
				base.B *= keep
			}
			pixel.StoreRGBAF(df, d, base)
		}
	}
}

func rowGrayF(k *Kernel, dst, src, mask []byte, n int, p *params) {
	df, dbpp, sbpp := k.Dst, k.Dst.BytesPerPixel(), k.Src.BytesPerPixel()
	opacity := float32(p.opacity) / 255
	for i := range n {
		m := opacity * float32(maskAt(mask, i)) / 255
		if m <= 0 {
			continue
		}
		c, s := k.sampleF(src[i*sbpp:], p)
		t := s * m
		if t <= 0 {
			continue
		}
		d := dst[i*dbpp:]
		base := pixel.LoadGrayAF(df, d)
		over := pixel.GrayAF{Y: pixel.LumaF(c.R, c.G, c.B), A: c.A}
		switch p.mode {
		case ModeNormal:
			over.A *= t
			pixel.StoreGrayAF(df, d, OverGrayAF(base, over))
		case ModeReplace:
			pixel.StoreGrayAF(df, d, LerpGrayAF(base, over, t))
		case ModeEraser:
			keep := 1 - k.eraseStrengthF(c.A, t)
			if df.HasAlpha() {
				base.A *= keep
			} else {
				base.Y *= keep
			}
			pixel.StoreGrayAF(df, d, base)
		}
	}
}
