package filter

import (
	"context"

	"github.com/gogpu/euclase/internal/parallel"
	"github.com/gogpu/euclase/pixel"
)

// Blur is a separable Gaussian blur. Parameters: radius (default 2), and
// radius_x / radius_y to blur each axis differently. Pixels are blurred
// premultiplied in linear light, so transparent areas do not darken edges.
// Pixels beyond the buffer edge repeat the nearest edge pixel.
//
// The result is a host buffer in src's format.
func Blur(ctx context.Context, src *pixel.Buffer, params Params) (*pixel.Buffer, error) {
	r := params.Float("radius", 2)
	rx, ry := params.Float("radius_x", r), params.Float("radius_y", r)
	if rx <= 0 && ry <= 0 {
		return src.Copy(pixel.Host, nil)
	}

	w, h := src.Width(), src.Height()
	work, err := loadPremultiplied(src)
	if err != nil {
		return nil, err
	}
	tmp := make([]float32, len(work))

	if err := convolve(ctx, tmp, work, w, h, CachedGaussianKernel(rx), true); err != nil {
		return nil, err
	}
	if err := convolve(ctx, work, tmp, w, h, CachedGaussianKernel(ry), false); err != nil {
		return nil, err
	}
	return storePremultiplied(work, w, h, src.Format())
}

// convolve runs a 1D kernel along rows (horizontal) or columns into dst.
// Both slices hold w*h premultiplied RGBA float32 pixels.
func convolve(ctx context.Context, dst, src []float32, w, h int, k []float32, horizontal bool) error {
	half := len(k) / 2
	return parallel.Default().Run(h, func(y int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := range w {
			var r, g, b, a float32
			for i, wt := range k {
				sx, sy := x, y
				if horizontal {
					sx = min(max(x+i-half, 0), w-1)
				} else {
					sy = min(max(y+i-half, 0), h-1)
				}
				s := src[(sy*w+sx)*4:]
				r += s[0] * wt
				g += s[1] * wt
				b += s[2] * wt
				a += s[3] * wt
			}
			d := dst[(y*w+x)*4:]
			d[0], d[1], d[2], d[3] = r, g, b, a
		}
		return nil
	})
}

func loadPremultiplied(src *pixel.Buffer) ([]float32, error) {
	pix, err := src.ReadHost()
	if err != nil {
		return nil, err
	}
	f := src.Format()
	bpp := f.BytesPerPixel()
	n := src.Width() * src.Height()
	out := make([]float32, n*4)
	for i := range n {
		c := pixel.LoadRGBAF(f, pix[i*bpp:])
		o := out[i*4:]
		o[0], o[1], o[2], o[3] = c.R*c.A, c.G*c.A, c.B*c.A, c.A
	}
	return out, nil
}

func storePremultiplied(work []float32, w, h int, f pixel.Format) (*pixel.Buffer, error) {
	out, err := pixel.New(w, h, f)
	if err != nil {
		return nil, err
	}
	pix, bpp := out.Bytes(), f.BytesPerPixel()
	for i := range w * h {
		v := work[i*4:]
		c := pixel.RGBAF{A: v[3]}
		if c.A > 0 {
			c.R, c.G, c.B = v[0]/c.A, v[1]/c.A, v[2]/c.A
		}
		pixel.StoreRGBAF(f, pix[i*bpp:], c)
	}
	return out, nil
}
