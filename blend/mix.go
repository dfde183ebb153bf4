package blend

import "github.com/gogpu/euclase/pixel"

// Mix interpolates n pixels of dst toward alt, both in format f, by the
// Gray8 mask: 0 keeps dst, 255 takes alt, anything between lerps every
// channel. A nil mask takes alt everywhere. When one side is fully
// transparent it borrows the other side's colour, so fading in or out
// never passes through black.
func Mix(f pixel.Format, dst, alt, mask []byte, n int) {
	bpp := f.BytesPerPixel()
	if mask == nil {
		copy(dst[:n*bpp], alt[:n*bpp])
		return
	}
	for i := range n {
		m := mask[i]
		if m == 0 {
			continue
		}
		d, a := dst[i*bpp:], alt[i*bpp:]
		if m == 255 {
			copy(d[:bpp], a[:bpp])
			continue
		}
		switch {
		case f.IsFloat() && f.IsGrayscale():
			x, y := pixel.LoadGrayAF(f, d), pixel.LoadGrayAF(f, a)
			if x.A <= 0 {
				x.Y = y.Y
			} else if y.A <= 0 {
				y.Y = x.Y
			}
			pixel.StoreGrayAF(f, d, LerpGrayAF(x, y, float32(m)/255))
		case f.IsFloat():
			x, y := pixel.LoadRGBAF(f, d), pixel.LoadRGBAF(f, a)
			if x.A <= 0 {
				x.R, x.G, x.B = y.R, y.G, y.B
			} else if y.A <= 0 {
				y.R, y.G, y.B = x.R, x.G, x.B
			}
			pixel.StoreRGBAF(f, d, LerpRGBAF(x, y, float32(m)/255))
		case f.IsGrayscale():
			x, y := pixel.LoadGrayA8(f, d), pixel.LoadGrayA8(f, a)
			if x.A == 0 {
				x.Y = y.Y
			} else if y.A == 0 {
				y.Y = x.Y
			}
			pixel.StoreGrayA8(f, d, LerpGrayA8(x, y, m))
		default:
			x, y := pixel.LoadRGBA8(f, d), pixel.LoadRGBA8(f, a)
			if x.A == 0 {
				x.R, x.G, x.B = y.R, y.G, y.B
			} else if y.A == 0 {
				y.R, y.G, y.B = x.R, x.G, x.B
			}
			pixel.StoreRGBA8(f, d, LerpRGBA8(x, y, m))
		}
	}
}
