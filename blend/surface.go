package blend

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/euclase/internal/logging"
	"github.com/gogpu/euclase/pixel"
)

// Surface is a host view of pixels: tightly packed rows of Format.
type Surface struct {
	Pix    []byte
	Stride int
	Format pixel.Format
}

func (s *Surface) offset(x, y int) int {
	return y*s.Stride + x*s.Format.BytesPerPixel()
}

// Composite blends src onto dst over the rectangle r of dst. The source
// pixel for dst point p is src at sp + (p - r.Min); the mask, when not nil,
// is read the same way from mp. Callers must keep every rectangle inside its
// surface; nothing outside r in dst is written.
func Composite(dst *Surface, r image.Rectangle, src *Surface, sp image.Point, mask *Surface, mp image.Point, op Op) error {
	if r.Empty() {
		return nil
	}
	k, err := Lookup(src.Format, dst.Format)
	if err != nil {
		return err
	}
	if mask != nil && mask.Format != pixel.FormatGray8 {
		return ErrMaskFormat
	}
	p := newParams(op)
	if p.mode == ModeDisabled || p.opacity == 0 {
		return nil
	}

	n := r.Dx()
	for y := 0; y < r.Dy(); y++ {
		d := dst.Pix[dst.offset(r.Min.X, r.Min.Y+y):]
		s := src.Pix[src.offset(sp.X, sp.Y+y):]
		var m []byte
		if mask != nil {
			off := mask.offset(mp.X, mp.Y+y)
			m = mask.Pix[off : off+n]
		}
		k.row(k, d, s, m, n, &p)
	}
	return nil
}

// DeviceBlender is implemented by devices that composite accelerator
// buffers without a host round trip. Returning an error wrapping
// pixel.ErrFallbackToCPU makes Buffers retry on the host.
type DeviceBlender interface {
	BlendBuffers(dst *pixel.Buffer, r image.Rectangle, src *pixel.Buffer, sp image.Point, mask *pixel.Buffer, mp image.Point, op Op) error
}

// Buffers is Composite for pixel buffers in any residency. When dst, src and
// mask share one device that implements DeviceBlender and accelerates
// pixel.OpBlend, the device does the work; otherwise the buffers are viewed
// on the host and dst is committed back.
func Buffers(dst *pixel.Buffer, r image.Rectangle, src *pixel.Buffer, sp image.Point, mask *pixel.Buffer, mp image.Point, op Op) error {
	if r.Empty() {
		return nil
	}
	if !r.In(dst.Bounds()) {
		return fmt.Errorf("blend: rectangle %v outside %v", r, dst.Bounds())
	}
	if !r.Sub(r.Min).Add(sp).In(src.Bounds()) {
		return fmt.Errorf("blend: source rectangle %v outside %v", r.Sub(r.Min).Add(sp), src.Bounds())
	}
	if mask != nil && !r.Sub(r.Min).Add(mp).In(mask.Bounds()) {
		return fmt.Errorf("blend: mask rectangle %v outside %v", r.Sub(r.Min).Add(mp), mask.Bounds())
	}

	if dev := dst.Device(); dev != nil && dev.CanAccelerate(pixel.OpBlend) &&
		src.Device() == dev && (mask == nil || mask.Device() == dev) {
		if db, ok := dev.(DeviceBlender); ok {
			err := db.BlendBuffers(dst, r, src, sp, mask, mp, op)
			if err == nil || !errors.Is(err, pixel.ErrFallbackToCPU) {
				return err
			}
			logging.Get().Debug("blend: device fallback", "device", dev.Name(), "error", err)
		}
	}

	dpix, commit, err := dst.HostView()
	if err != nil {
		return err
	}
	spix, err := src.ReadHost()
	if err != nil {
		return err
	}
	ds := &Surface{Pix: dpix, Stride: dst.Stride(), Format: dst.Format()}
	ss := &Surface{Pix: spix, Stride: src.Stride(), Format: src.Format()}
	var ms *Surface
	if mask != nil {
		mpix, err := mask.ReadHost()
		if err != nil {
			return err
		}
		ms = &Surface{Pix: mpix, Stride: mask.Stride(), Format: mask.Format()}
	}
	if err := Composite(ds, r, ss, sp, ms, mp, op); err != nil {
		return err
	}
	return commit()
}
