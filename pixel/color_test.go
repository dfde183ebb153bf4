// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pixel

import (
	"image"
	"image/color"
	"testing"
)

func TestGammaRoundTripExact(t *testing.T) {
	for i := range 256 {
		v := uint8(i)
		if got := LinearToSRGB8(SRGB8ToLinear(v)); got != v {
			t.Errorf("round trip %d -> %d", v, got)
		}
	}
}

func TestGammaEndpoints(t *testing.T) {
	if SRGB8ToLinear(0) != 0 || SRGB8ToLinear(255) != 1 {
		t.Errorf("endpoints = %v, %v", SRGB8ToLinear(0), SRGB8ToLinear(255))
	}
	if LinearToSRGB8(-1) != 0 || LinearToSRGB8(2) != 255 {
		t.Error("out-of-range linear values must clamp")
	}
	prev := uint8(0)
	for i := range 1001 {
		s := LinearToSRGB8(float32(i) / 1000)
		if s < prev {
			t.Fatalf("LinearToSRGB8 not monotonic at %d", i)
		}
		prev = s
	}
}

func TestLuma8(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    uint8
	}{
		{0, 0, 0, 0},
		{255, 255, 255, 255},
		{255, 0, 0, 76},
		{0, 255, 0, 149},
		{0, 0, 255, 29},
	}
	for _, tt := range tests {
		if got := Luma8(tt.r, tt.g, tt.b); got != tt.want {
			t.Errorf("Luma8(%d,%d,%d) = %d, want %d", tt.r, tt.g, tt.b, got, tt.want)
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	// Every 8-bit value through the float format and back.
	src, _ := New(256, 1, FormatRGBA8)
	for i := range 256 {
		src.Set(i, 0, RGBA8{uint8(i), uint8(255 - i), uint8(i / 2), uint8(i)})
	}

	pairs := [][2]Format{
		{FormatRGBAF, FormatRGBA8},
		{FormatRGBA8, FormatRGBA8},
	}
	for _, p := range pairs {
		mid, err := src.Convert(p[0])
		if err != nil {
			t.Fatal(err)
		}
		back, err := mid.Convert(p[1])
		if err != nil {
			t.Fatal(err)
		}
		for i := range 256 {
			if got, want := back.At(i, 0), src.At(i, 0); !near(got, want, 1) {
				t.Fatalf("via %s: pixel %d = %v, want %v", p[0], i, got, want)
			}
		}
	}
}

func TestConvertLossless(t *testing.T) {
	src, _ := New(256, 1, FormatRGB8)
	for i := range 256 {
		src.Set(i, 0, RGBA8{uint8(i), uint8(i * 3), uint8(i * 5), 255})
	}
	mid, _ := src.Convert(FormatRGBA8)
	back, _ := mid.Convert(FormatRGB8)
	for i, v := range back.Bytes() {
		if v != src.Bytes()[i] {
			t.Fatalf("RGB8->RGBA8->RGB8 changed byte %d: %d != %d", i, v, src.Bytes()[i])
		}
	}

	gray, _ := New(256, 1, FormatGray8)
	for i := range 256 {
		gray.Bytes()[i] = uint8(i)
	}
	ga, _ := gray.Convert(FormatGrayA8)
	g2, _ := ga.Convert(FormatGray8)
	for i := range 256 {
		if g2.Bytes()[i] != uint8(i) {
			t.Fatalf("Gray8->GrayA8->Gray8 changed %d to %d", i, g2.Bytes()[i])
		}
	}
}

func TestImageBridge(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(2, 1, color.NRGBA{10, 20, 30, 40})
	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*image.NRGBA)

	b, err := FromImage(sub, FormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}
	if b.Width() != 2 || b.Height() != 2 {
		t.Fatalf("size = %dx%d", b.Width(), b.Height())
	}
	if got := b.At(1, 0); got != (RGBA8{10, 20, 30, 40}) {
		t.Errorf("At(1,0) = %v", got)
	}

	out, err := b.ToNRGBA()
	if err != nil {
		t.Fatal(err)
	}
	out.Pix[0] = 77
	if b.At(0, 0).R != 77 {
		t.Error("ToNRGBA on a host RGBA8 buffer should share pixels")
	}

	g, err := b.ToGray()
	if err != nil {
		t.Fatal(err)
	}
	if g.GrayAt(1, 0).Y != Luma8(10, 20, 30) {
		t.Errorf("ToGray() = %d", g.GrayAt(1, 0).Y)
	}
}
