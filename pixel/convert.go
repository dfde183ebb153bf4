// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pixel

// Convert returns a copy of b in format f, in the same residency.
//
// Conversions between 8-bit formats are exact except for colour to gray,
// which projects onto luma. Conversions between 8-bit and float apply the
// sRGB transfer function, so an 8-bit to float to 8-bit round trip is exact
// to within 1/255.
func (b *Buffer) Convert(f Format) (*Buffer, error) {
	if !f.IsValid() {
		return nil, ErrInvalidFormat
	}
	src, err := b.ReadHost()
	if err != nil {
		return nil, err
	}
	out, err := New(b.width, b.height, f)
	if err != nil {
		return nil, err
	}
	ConvertPixels(out.data, f, src, b.format, b.width*b.height)

	if b.residency == Accelerator {
		return out.ToAccelerator(b.Device())
	}
	return out, nil
}

// ConvertPixels converts n tightly packed pixels from sf to df.
func ConvertPixels(dst []byte, df Format, src []byte, sf Format, n int) {
	dbpp, sbpp := df.BytesPerPixel(), sf.BytesPerPixel()
	if df == sf {
		copy(dst[:n*dbpp], src[:n*sbpp])
		return
	}

	switch {
	case df.IsGrayscale() && sf.IsGrayscale() && !df.IsFloat() && !sf.IsFloat():
		for i := range n {
			StoreGrayA8(df, dst[i*dbpp:], LoadGrayA8(sf, src[i*sbpp:]))
		}
	case !df.IsFloat() && !sf.IsFloat():
		for i := range n {
			StoreRGBA8(df, dst[i*dbpp:], LoadRGBA8(sf, src[i*sbpp:]))
		}
	case df.IsGrayscale() && sf.IsGrayscale():
		for i := range n {
			StoreGrayAF(df, dst[i*dbpp:], LoadGrayAF(sf, src[i*sbpp:]))
		}
	default:
		for i := range n {
			StoreRGBAF(df, dst[i*dbpp:], LoadRGBAF(sf, src[i*sbpp:]))
		}
	}
}
