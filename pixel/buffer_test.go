// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pixel

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

// fakeMemory and fakeDevice emulate device memory with host slices.
type fakeMemory struct{ data []byte }

func (m *fakeMemory) Size() int { return len(m.data) }

type fakeDevice struct {
	mu     sync.Mutex
	limit  int
	used   int
	frees  int
	native Op
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Alloc(size int) (Memory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.limit > 0 && d.used+size > d.limit {
		return nil, errors.New("out of memory")
	}
	d.used += size
	return &fakeMemory{data: make([]byte, size)}, nil
}

func (d *fakeDevice) Free(m Memory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.used -= m.Size()
	d.frees++
}

func (d *fakeDevice) Upload(dst Memory, src []byte) error {
	copy(dst.(*fakeMemory).data, src)
	return nil
}

func (d *fakeDevice) Download(dst []byte, src Memory) error {
	copy(dst, src.(*fakeMemory).data)
	return nil
}

func (d *fakeDevice) Fill(dst Memory, pattern []byte) error {
	if d.native&OpFill == 0 {
		return ErrFallbackToCPU
	}
	fillPattern(dst.(*fakeMemory).data, pattern)
	return nil
}

func (d *fakeDevice) Copy(dst, src Memory) error {
	if d.native&OpCopy == 0 {
		return ErrFallbackToCPU
	}
	copy(dst.(*fakeMemory).data, src.(*fakeMemory).data)
	return nil
}

func (d *fakeDevice) CanAccelerate(op Op) bool { return d.native&op == op }

func TestMakeErrors(t *testing.T) {
	tests := []struct {
		name      string
		w, h      int
		format    Format
		residency Residency
		dev       Device
		want      error
	}{
		{"zero width", 0, 4, FormatRGBA8, Host, nil, ErrInvalidDimensions},
		{"negative height", 4, -1, FormatRGBA8, Host, nil, ErrInvalidDimensions},
		{"bad format", 4, 4, Format(200), Host, nil, ErrInvalidFormat},
		{"no device", 4, 4, FormatRGBA8, Accelerator, nil, ErrNoDevice},
		{"out of memory", 64, 64, FormatRGBAF, Accelerator, &fakeDevice{limit: 1024}, ErrAllocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Make(tt.w, tt.h, tt.format, tt.residency, tt.dev)
			if !errors.Is(err, tt.want) {
				t.Errorf("Make() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMakeZeroed(t *testing.T) {
	for f := range Format(FormatCount) {
		b, err := New(3, 2, f)
		if err != nil {
			t.Fatalf("New(%s): %v", f, err)
		}
		if b.Len() != 6*f.BytesPerPixel() {
			t.Errorf("%s: Len() = %d, want %d", f, b.Len(), 6*f.BytesPerPixel())
		}
		for _, v := range b.Bytes() {
			if v != 0 {
				t.Fatalf("%s: new buffer is not zeroed", f)
			}
		}
	}
}

func TestFillAndAt(t *testing.T) {
	c := RGBA8{200, 100, 50, 255}
	for f := range Format(FormatCount) {
		t.Run(f.String(), func(t *testing.T) {
			b, _ := New(4, 4, f)
			if err := b.Fill(c); err != nil {
				t.Fatal(err)
			}
			got := b.At(3, 3)
			want := c
			switch {
			case f.IsGrayscale() && f.IsFloat():
				l := c.Linear()
				y := LinearToSRGB8(LumaF(l.R, l.G, l.B))
				want = RGBA8{y, y, y, 255}
			case f.IsGrayscale():
				y := Luma8(c.R, c.G, c.B)
				want = RGBA8{y, y, y, 255}
			}
			if !near(got, want, 1) {
				t.Errorf("At() = %v, want %v", got, want)
			}
		})
	}
}

func TestAcceleratorRoundTrip(t *testing.T) {
	for _, native := range []Op{0, OpFill | OpCopy} {
		dev := &fakeDevice{native: native}
		host, _ := New(5, 3, FormatRGBA8)
		for i := range host.Bytes() {
			host.Bytes()[i] = byte(i * 7)
		}

		acc, err := host.ToAccelerator(dev)
		if err != nil {
			t.Fatal(err)
		}
		if acc.Residency() != Accelerator || acc.Bytes() != nil {
			t.Fatalf("ToAccelerator() gave %v", acc)
		}
		again, err := acc.ToAccelerator(dev)
		if err != nil || again != acc {
			t.Errorf("ToAccelerator on same device should return the buffer itself")
		}

		clone, err := acc.Clone()
		if err != nil {
			t.Fatal(err)
		}
		back, err := clone.ToHost()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(back.Bytes(), host.Bytes()) {
			t.Errorf("native=%v: bytes changed across host/device round trip", native)
		}

		if err := acc.Fill(RGBA8{1, 2, 3, 4}); err != nil {
			t.Fatal(err)
		}
		if got := acc.At(4, 2); got != (RGBA8{1, 2, 3, 4}) {
			t.Errorf("native=%v: At after device Fill = %v", native, got)
		}
	}
}

func TestHostViewCommit(t *testing.T) {
	dev := &fakeDevice{}
	b, _ := Make(2, 2, FormatGray8, Accelerator, dev)
	data, commit, err := b.HostView()
	if err != nil {
		t.Fatal(err)
	}
	data[3] = 99
	if b.At(1, 1).R != 0 {
		t.Error("write visible before commit")
	}
	if err := commit(); err != nil {
		t.Fatal(err)
	}
	if b.At(1, 1).R != 99 {
		t.Errorf("At(1,1) = %v after commit, want 99", b.At(1, 1))
	}
}

func TestRelease(t *testing.T) {
	dev := &fakeDevice{}
	b, _ := Make(8, 8, FormatRGBA8, Accelerator, dev)
	b.Release()
	b.Release()
	if dev.frees != 1 {
		t.Errorf("frees = %d, want 1", dev.frees)
	}
	if dev.used != 0 {
		t.Errorf("used = %d after release, want 0", dev.used)
	}
	if _, err := b.ReadHost(); !errors.Is(err, ErrReleased) {
		t.Errorf("ReadHost after Release: err = %v, want ErrReleased", err)
	}
}

func TestWriteSizeMismatch(t *testing.T) {
	b, _ := New(2, 2, FormatRGB8)
	if err := b.Write(make([]byte, 5)); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Write() error = %v, want ErrSizeMismatch", err)
	}
}

func near(a, b RGBA8, tol int) bool {
	d := func(x, y uint8) bool { return absInt(int(x)-int(y)) <= tol }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
