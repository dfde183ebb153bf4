// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pixel

import (
	"image"
	"image/color"
)

// ToNRGBA returns the pixels as an *image.NRGBA. A host RGBA8 buffer shares
// its bytes with the result; every other buffer is converted into a copy.
func (b *Buffer) ToNRGBA() (*image.NRGBA, error) {
	if b.residency == Host && b.format == FormatRGBA8 {
		return &image.NRGBA{Pix: b.data, Stride: b.Stride(), Rect: b.Bounds()}, nil
	}
	src, err := b.ReadHost()
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(b.Bounds())
	ConvertPixels(img.Pix, FormatRGBA8, src, b.format, b.width*b.height)
	return img, nil
}

// ToGray returns the pixels as an *image.Gray, sharing bytes for a host
// Gray8 buffer.
func (b *Buffer) ToGray() (*image.Gray, error) {
	if b.residency == Host && b.format == FormatGray8 {
		return &image.Gray{Pix: b.data, Stride: b.Stride(), Rect: b.Bounds()}, nil
	}
	src, err := b.ReadHost()
	if err != nil {
		return nil, err
	}
	img := image.NewGray(b.Bounds())
	ConvertPixels(img.Pix, FormatGray8, src, b.format, b.width*b.height)
	return img, nil
}

// FromImage copies img into a new host buffer of format f. Pixel (0, 0)
// of the buffer is img.Bounds().Min.
func FromImage(img image.Image, f Format) (*Buffer, error) {
	r := img.Bounds()
	if !f.IsValid() {
		return nil, ErrInvalidFormat
	}
	w, h := r.Dx(), r.Dy()

	var (
		sf  Format
		src []byte
	)
	switch m := img.(type) {
	case *image.NRGBA:
		sf, src = FormatRGBA8, packRows(m.Pix, m.Stride, m.PixOffset(r.Min.X, r.Min.Y), w*4, h)
	case *image.Gray:
		sf, src = FormatGray8, packRows(m.Pix, m.Stride, m.PixOffset(r.Min.X, r.Min.Y), w, h)
	default:
		sf, src = FormatRGBA8, make([]byte, w*h*4)
		i := 0
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				src[i], src[i+1], src[i+2], src[i+3] = c.R, c.G, c.B, c.A
				i += 4
			}
		}
	}

	out, err := New(w, h, f)
	if err != nil {
		return nil, err
	}
	ConvertPixels(out.data, f, src, sf, w*h)
	return out, nil
}

func packRows(pix []byte, stride, off, rowBytes, rows int) []byte {
	if stride == rowBytes {
		return pix[off : off+rowBytes*rows]
	}
	out := make([]byte, 0, rowBytes*rows)
	for y := range rows {
		start := off + y*stride
		out = append(out, pix[start:start+rowBytes]...)
	}
	return out
}
