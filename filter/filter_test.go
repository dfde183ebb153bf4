package filter

import (
	"bytes"
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/gogpu/euclase/pixel"
)

func solid(t *testing.T, w, h int, f pixel.Format, c pixel.RGBA8) *pixel.Buffer {
	t.Helper()
	b, err := pixel.New(w, h, f)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Fill(c); err != nil {
		t.Fatal(err)
	}
	return b
}

func near(a, b pixel.RGBA8, tol int) bool {
	d := func(x, y uint8) int { return max(int(x)-int(y), int(y)-int(x)) }
	return d(a.R, b.R) <= tol && d(a.G, b.G) <= tol && d(a.B, b.B) <= tol && d(a.A, b.A) <= tol
}

func TestGaussianKernel(t *testing.T) {
	tests := []struct {
		radius float64
		size   int
	}{{0, 1}, {-1, 1}, {1, 7}, {2.5, 17}}
	for _, tt := range tests {
		k := GaussianKernel(tt.radius)
		if len(k) != tt.size {
			t.Errorf("GaussianKernel(%v) has %d taps, want %d", tt.radius, len(k), tt.size)
		}
		var sum float64
		for _, v := range k {
			sum += float64(v)
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("GaussianKernel(%v) sums to %v", tt.radius, sum)
		}
		half := len(k) / 2
		for i := range half {
			if k[i] != k[len(k)-1-i] || k[i] > k[half] {
				t.Errorf("GaussianKernel(%v) not symmetric around its peak", tt.radius)
				break
			}
		}
	}

	if a, b := CachedGaussianKernel(1.5), CachedGaussianKernel(1.5); &a[0] != &b[0] {
		t.Error("CachedGaussianKernel should return the cached slice")
	}
}

func TestBlurUniform(t *testing.T) {
	c := pixel.RGBA8{R: 200, G: 90, B: 30, A: 255}
	for _, f := range []pixel.Format{pixel.FormatRGBA8, pixel.FormatRGBAF, pixel.FormatGray8} {
		t.Run(f.String(), func(t *testing.T) {
			src := solid(t, 20, 12, f, c)
			out, err := Blur(context.Background(), src, Params{"radius": 2})
			if err != nil {
				t.Fatal(err)
			}
			if out.Format() != f || out.Bounds() != src.Bounds() {
				t.Fatalf("Blur returned %v", out)
			}
			want := src.At(0, 0)
			for _, p := range [][2]int{{0, 0}, {10, 6}, {19, 11}} {
				if got := out.At(p[0], p[1]); !near(got, want, 1) {
					t.Errorf("pixel %v = %v, want %v", p, got, want)
				}
			}
		})
	}
}

func TestBlurSpreadsAndKeepsColour(t *testing.T) {
	src := solid(t, 21, 1, pixel.FormatRGBA8, pixel.Transparent)
	src.Set(10, 0, pixel.RGBA8{R: 255, A: 255})

	out, err := Blur(context.Background(), src, Params{"radius_x": 2, "radius_y": 0})
	if err != nil {
		t.Fatal(err)
	}
	centre, side, far := out.At(10, 0), out.At(12, 0), out.At(0, 0)
	if !(centre.A > side.A && side.A > 0 && far.A == 0) {
		t.Errorf("alpha profile centre=%d side=%d far=%d", centre.A, side.A, far.A)
	}
	// Premultiplied blurring keeps the colour of the only opaque pixel.
	if side.R != 255 || side.G != 0 {
		t.Errorf("blurred edge colour = %v, want pure red", side)
	}
}

func TestBlurZeroRadius(t *testing.T) {
	src := solid(t, 4, 4, pixel.FormatRGBA8, pixel.RGBA8{R: 1, G: 2, B: 3, A: 4})
	out, err := Blur(context.Background(), src, Params{"radius": 0})
	if err != nil {
		t.Fatal(err)
	}
	if out == src || !bytes.Equal(out.Bytes(), src.Bytes()) {
		t.Error("zero radius should return an equal copy")
	}
}

func TestBlurCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Blur(ctx, solid(t, 64, 64, pixel.FormatRGBA8, pixel.White), Params{"radius": 3})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Blur on cancelled context = %v", err)
	}
}

func TestMatrices(t *testing.T) {
	c := pixel.RGBA8{R: 200, G: 100, B: 50, A: 128}
	tests := []struct {
		name string
		fn   Func
		p    Params
		want pixel.RGBA8
	}{
		{"identity brightness", Brightness, nil, c},
		{"darken", Brightness, Params{"amount": 0.5}, pixel.RGBA8{R: 100, G: 50, B: 25, A: 128}},
		{"flat contrast", Contrast, Params{"amount": 0}, pixel.RGBA8{R: 128, G: 128, B: 128, A: 128}},
		{"invert", Invert, nil, pixel.RGBA8{R: 55, G: 155, B: 205, A: 128}},
		{"sepia", Sepia, nil, pixel.RGBA8{R: 165, G: 147, B: 114, A: 128}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.fn(context.Background(), solid(t, 3, 3, pixel.FormatRGBA8, c), tt.p)
			if err != nil {
				t.Fatal(err)
			}
			if got := out.At(1, 1); !near(got, tt.want, 1) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGrayscale(t *testing.T) {
	out, err := Grayscale(context.Background(), solid(t, 2, 2, pixel.FormatRGBA8, pixel.RGBA8{R: 255, A: 255}), nil)
	if err != nil {
		t.Fatal(err)
	}
	got := out.At(0, 0)
	if got.R != got.G || got.G != got.B || !near(got, pixel.RGBA8{R: 54, G: 54, B: 54, A: 255}, 1) {
		t.Errorf("grayscale red = %v", got)
	}
}

func TestRegistry(t *testing.T) {
	if _, err := Lookup("blur"); err != nil {
		t.Fatal(err)
	}
	if _, err := Lookup("nope"); !errors.Is(err, ErrUnknown) {
		t.Errorf("Lookup(nope) = %v, want ErrUnknown", err)
	}

	Register("test-noop", func(_ context.Context, src *pixel.Buffer, _ Params) (*pixel.Buffer, error) {
		return src, nil
	})
	if !slices.Contains(Names(), "test-noop") {
		t.Error("registered filter missing from Names")
	}
	if !slices.IsSorted(Names()) {
		t.Error("Names not sorted")
	}
}
