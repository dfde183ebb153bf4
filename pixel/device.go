// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pixel

import "errors"

// Residency says where the bytes of a Buffer live.
type Residency uint8

const (
	// Host buffers keep their bytes in Go memory.
	Host Residency = iota

	// Accelerator buffers keep their bytes in Device memory.
	Accelerator
)

// String returns the residency name.
func (r Residency) String() string {
	switch r {
	case Host:
		return "host"
	case Accelerator:
		return "accelerator"
	default:
		return "unknown"
	}
}

// Op is a bitmask of operations a Device may run without a host round trip.
type Op uint32

const (
	// OpFill fills device memory with a repeated pixel.
	OpFill Op = 1 << iota

	// OpCopy copies between two allocations on the same device.
	OpCopy

	// OpBlend composites one device buffer onto another.
	OpBlend
)

// Memory is an opaque allocation owned by a Device.
type Memory interface {
	// Size returns the allocation size in bytes.
	Size() int
}

// Device is an accelerator able to hold pixel memory.
//
// Alloc must return zeroed memory. A Device must be safe for concurrent use:
// tiles are uploaded and downloaded from several goroutines at once.
type Device interface {
	// Name identifies the device in logs.
	Name() string

	// Alloc reserves size bytes of zeroed device memory.
	Alloc(size int) (Memory, error)

	// Free releases memory obtained from Alloc. Freeing twice is a no-op.
	Free(m Memory)

	// Upload copies src into the start of dst.
	Upload(dst Memory, src []byte) error

	// Download copies the start of src into dst.
	Download(dst []byte, src Memory) error

	// Fill repeats pattern over the whole of dst.
	Fill(dst Memory, pattern []byte) error

	// Copy copies src into dst. Both must come from this device.
	Copy(dst, src Memory) error

	// CanAccelerate reports whether the device runs op natively.
	// Operations it cannot run are done on the host.
	CanAccelerate(op Op) bool
}

var (
	// ErrInvalidDimensions is returned for non-positive width or height.
	ErrInvalidDimensions = errors.New("pixel: invalid dimensions")

	// ErrInvalidFormat is returned for an unknown Format.
	ErrInvalidFormat = errors.New("pixel: invalid format")

	// ErrAllocation wraps a device allocation failure.
	ErrAllocation = errors.New("pixel: allocation failed")

	// ErrNoDevice is returned when accelerator residency is requested
	// without a Device.
	ErrNoDevice = errors.New("pixel: no device for accelerator residency")

	// ErrReleased is returned by operations on a released buffer.
	ErrReleased = errors.New("pixel: buffer released")

	// ErrSizeMismatch is returned when two buffers must have equal size.
	ErrSizeMismatch = errors.New("pixel: buffer size mismatch")

	// ErrFallbackToCPU is returned by a device that cannot run an
	// operation natively. Callers retry on the host.
	ErrFallbackToCPU = errors.New("pixel: falling back to host")
)
