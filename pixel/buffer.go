// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pixel

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync/atomic"
)

// Buffer is a rectangular block of pixels.
//
// A *Buffer may be shared freely between goroutines for reading. Writers must
// be externally synchronized; the tile pipeline only writes to a buffer from
// the one goroutine that owns its destination tile.
type Buffer struct {
	width     int
	height    int
	format    Format
	residency Residency

	data  []byte      // Host residency
	alloc *allocation // Accelerator residency
}

// allocation is the device side of an accelerator buffer. It is kept apart
// from Buffer so a runtime cleanup can free it once the Buffer is gone.
type allocation struct {
	dev      Device
	mem      Memory
	released atomic.Bool
}

func (a *allocation) free() {
	if a.released.CompareAndSwap(false, true) {
		a.dev.Free(a.mem)
	}
}

// Make allocates a zeroed buffer. dev is required for Accelerator residency
// and ignored for Host.
func Make(width, height int, format Format, residency Residency, dev Device) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	b := &Buffer{
		width:     width,
		height:    height,
		format:    format,
		residency: residency,
	}
	size := format.ImageBytes(width, height)

	switch residency {
	case Host:
		b.data = make([]byte, size)
	case Accelerator:
		if dev == nil {
			return nil, ErrNoDevice
		}
		mem, err := dev.Alloc(size)
		if err != nil {
			return nil, fmt.Errorf("%w: %d bytes on %s: %w", ErrAllocation, size, dev.Name(), err)
		}
		b.alloc = &allocation{dev: dev, mem: mem}
		runtime.AddCleanup(b, func(a *allocation) { a.free() }, b.alloc)
	default:
		return nil, fmt.Errorf("pixel: unknown residency %d", residency)
	}
	return b, nil
}

// New allocates a zeroed host buffer.
func New(width, height int, format Format) (*Buffer, error) {
	return Make(width, height, format, Host, nil)
}

// FromBytes wraps host bytes laid out tightly in format. The slice is
// used directly, not copied.
func FromBytes(width, height int, format Format, data []byte) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	if len(data) != format.ImageBytes(width, height) {
		return nil, ErrSizeMismatch
	}
	return &Buffer{width: width, height: height, format: format, data: data}, nil
}

// Width returns the width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the height in pixels.
func (b *Buffer) Height() int { return b.height }

// Format returns the pixel format.
func (b *Buffer) Format() Format { return b.format }

// Residency returns where the bytes live.
func (b *Buffer) Residency() Residency { return b.residency }

// Bounds returns the buffer rectangle with its origin at (0, 0).
func (b *Buffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.width, b.height) }

// Stride returns the number of bytes per row.
func (b *Buffer) Stride() int { return b.format.RowBytes(b.width) }

// Len returns the total size in bytes.
func (b *Buffer) Len() int { return b.format.ImageBytes(b.width, b.height) }

// Device returns the owning device, or nil for host buffers.
func (b *Buffer) Device() Device {
	if b.alloc == nil {
		return nil
	}
	return b.alloc.dev
}

// Memory returns the device allocation, or nil for host buffers.
func (b *Buffer) Memory() Memory {
	if b.alloc == nil {
		return nil
	}
	return b.alloc.mem
}

// Bytes returns the host bytes. It returns nil for accelerator buffers;
// use HostView or ReadHost for those.
func (b *Buffer) Bytes() []byte { return b.data }

// Released reports whether Release has been called on an accelerator buffer.
func (b *Buffer) Released() bool {
	return b.alloc != nil && b.alloc.released.Load()
}

// Release frees device memory now instead of waiting for the garbage
// collector. It is a no-op for host buffers and safe to call twice.
func (b *Buffer) Release() {
	if b.alloc != nil {
		b.alloc.free()
	}
}

func (b *Buffer) checkLive() error {
	if b.Released() {
		return ErrReleased
	}
	return nil
}

// ReadHost returns the pixel bytes for reading. Host buffers return their
// own slice; accelerator buffers return a downloaded copy.
func (b *Buffer) ReadHost() ([]byte, error) {
	if b.residency == Host {
		return b.data, nil
	}
	if err := b.checkLive(); err != nil {
		return nil, err
	}
	out := make([]byte, b.Len())
	if err := b.alloc.dev.Download(out, b.alloc.mem); err != nil {
		return nil, fmt.Errorf("pixel: download from %s: %w", b.alloc.dev.Name(), err)
	}
	return out, nil
}

// HostView returns writable host bytes and a commit function that makes the
// writes visible in the buffer. For host buffers commit does nothing; for
// accelerator buffers it uploads the bytes back to the device.
func (b *Buffer) HostView() ([]byte, func() error, error) {
	if b.residency == Host {
		return b.data, func() error { return nil }, nil
	}
	data, err := b.ReadHost()
	if err != nil {
		return nil, nil, err
	}
	commit := func() error { return b.Write(data) }
	return data, commit, nil
}

// Write replaces the buffer contents with data, which must be exactly Len
// bytes in the buffer's format.
func (b *Buffer) Write(data []byte) error {
	if len(data) != b.Len() {
		return ErrSizeMismatch
	}
	if b.residency == Host {
		copy(b.data, data)
		return nil
	}
	if err := b.checkLive(); err != nil {
		return err
	}
	if err := b.alloc.dev.Upload(b.alloc.mem, data); err != nil {
		return fmt.Errorf("pixel: upload to %s: %w", b.alloc.dev.Name(), err)
	}
	return nil
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c RGBA8) error {
	pattern := Encode(b.format, c)
	if b.residency == Accelerator {
		if err := b.checkLive(); err != nil {
			return err
		}
		dev := b.alloc.dev
		if dev.CanAccelerate(OpFill) {
			err := dev.Fill(b.alloc.mem, pattern)
			if err == nil || !errors.Is(err, ErrFallbackToCPU) {
				return err
			}
		}
		data := make([]byte, b.Len())
		fillPattern(data, pattern)
		return b.Write(data)
	}
	fillPattern(b.data, pattern)
	return nil
}

// Clear sets every byte to zero: transparent black, or black for formats
// without alpha.
func (b *Buffer) Clear() error {
	return b.Fill(Transparent)
}

// fillPattern repeats pattern over dst by doubling copies.
func fillPattern(dst, pattern []byte) {
	if len(dst) == 0 {
		return
	}
	n := copy(dst, pattern)
	for n < len(dst) {
		n += copy(dst[n:], dst[:n])
	}
}

// Copy returns a buffer with the same pixels in the requested residency.
// dev selects the target device for Accelerator residency; nil reuses the
// source buffer's device.
func (b *Buffer) Copy(residency Residency, dev Device) (*Buffer, error) {
	if err := b.checkLive(); err != nil {
		return nil, err
	}
	if residency == Accelerator && dev == nil {
		dev = b.Device()
	}
	out, err := Make(b.width, b.height, b.format, residency, dev)
	if err != nil {
		return nil, err
	}

	if b.residency == Accelerator && residency == Accelerator &&
		dev == b.alloc.dev && dev.CanAccelerate(OpCopy) {
		err := dev.Copy(out.alloc.mem, b.alloc.mem)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrFallbackToCPU) {
			return nil, err
		}
	}

	src, err := b.ReadHost()
	if err != nil {
		return nil, err
	}
	if err := out.Write(src); err != nil {
		return nil, err
	}
	return out, nil
}

// Clone returns a copy in the same residency on the same device.
func (b *Buffer) Clone() (*Buffer, error) {
	return b.Copy(b.residency, b.Device())
}

// ToHost returns b itself when it is host-resident, else a host copy.
func (b *Buffer) ToHost() (*Buffer, error) {
	if b.residency == Host {
		return b, nil
	}
	return b.Copy(Host, nil)
}

// ToAccelerator returns b itself when it already lives on dev, else a copy
// on dev.
func (b *Buffer) ToAccelerator(dev Device) (*Buffer, error) {
	if b.residency == Accelerator && b.alloc.dev == dev {
		return b, nil
	}
	return b.Copy(Accelerator, dev)
}

// At returns the pixel at (x, y) as sRGB. Out-of-range coordinates and
// unreadable buffers return Transparent. For accelerator buffers every call
// downloads the whole buffer; it is meant for tests and diagnostics.
func (b *Buffer) At(x, y int) RGBA8 {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return Transparent
	}
	data, err := b.ReadHost()
	if err != nil {
		return Transparent
	}
	bpp := b.format.BytesPerPixel()
	return LoadRGBA8(b.format, data[y*b.Stride()+x*bpp:])
}

// Set writes c at (x, y) on a host buffer. It does nothing for
// out-of-range coordinates or accelerator buffers.
func (b *Buffer) Set(x, y int, c RGBA8) {
	if b.residency != Host || x < 0 || y < 0 || x >= b.width || y >= b.height {
		return
	}
	bpp := b.format.BytesPerPixel()
	StoreRGBA8(b.format, b.data[y*b.Stride()+x*bpp:], c)
}

// String returns a short description for logs.
func (b *Buffer) String() string {
	return fmt.Sprintf("%dx%d %s (%s)", b.width, b.height, b.format, b.residency)
}
