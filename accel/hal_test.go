// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package accel

import (
	"bytes"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/euclase/pixel"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func TestHALBufferLifecycle(t *testing.T) {
	device, queue := createNoopDevice(t)
	h := NewHAL(device, queue, HALConfig{MaxMemoryMB: 4})
	defer h.Close()

	// 3 bytes: exercises padding to the 4-byte copy alignment.
	b, err := pixel.Make(3, 1, pixel.FormatGray8, pixel.Accelerator, h)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if got := h.Stats().UsedBytes; got != 4 {
		t.Errorf("UsedBytes = %d, want 4", got)
	}
	if err := b.Write([]byte{1, 2, 3}); err != nil {
		t.Errorf("Write: %v", err)
	}
	if _, err := b.ReadHost(); err != nil {
		t.Errorf("ReadHost: %v", err)
	}
	if err := b.Fill(pixel.White); err != nil {
		t.Errorf("Fill through host fallback: %v", err)
	}
	c, err := b.Clone()
	if err != nil {
		t.Fatalf("Clone through host fallback: %v", err)
	}

	b.Release()
	if got := h.Stats().Allocations; got != 1 {
		t.Errorf("Allocations = %d after releasing one of two, want 1", got)
	}
	runtime.KeepAlive(c)
}

func TestHALReadback(t *testing.T) {
	device, queue := createNoopDevice(t)
	h := NewHAL(device, queue, HALConfig{})
	defer h.Close()

	b, err := pixel.Make(3, 1, pixel.FormatGray8, pixel.Accelerator, h)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	defer b.Release()
	got, err := b.ReadHost()
	if err != nil {
		t.Fatalf("ReadHost: %v", err)
	}
	if !bytes.Equal(got, []byte{0, 0, 0}) {
		t.Errorf("new buffer = %v, want zeroed", got)
	}

	if err := b.Write([]byte{7, 8, 9}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, err = b.ReadHost(); err != nil {
		t.Fatalf("ReadHost: %v", err)
	}
	if !bytes.Equal(got, []byte{7, 8, 9}) {
		t.Errorf("ReadHost() = %v, want [7 8 9]", got)
	}
}

// failingQueue fails WriteBuffer while fail is set.
type failingQueue struct {
	hal.Queue
	fail atomic.Bool
}

func (q *failingQueue) WriteBuffer(buf hal.Buffer, off uint64, data []byte) error {
	if q.fail.Load() {
		return errors.New("device lost")
	}
	return q.Queue.WriteBuffer(buf, off, data)
}

func TestHALWriteErrors(t *testing.T) {
	device, queue := createNoopDevice(t)
	q := &failingQueue{Queue: queue}
	h := NewHAL(device, q, HALConfig{MaxMemoryMB: 1})
	defer h.Close()

	m, err := h.Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	q.fail.Store(true)
	if err := h.Upload(m, make([]byte, 16)); err == nil {
		t.Error("Upload succeeded on a failing queue")
	}
	if _, err := h.Alloc(16); err == nil {
		t.Error("Alloc succeeded without zeroing the buffer")
	}
	if got := h.Stats().Allocations; got != 1 {
		t.Errorf("Allocations = %d after failed Alloc, want 1", got)
	}
	if got := h.Stats().UsedBytes; got != 16 {
		t.Errorf("UsedBytes = %d after failed Alloc, want 16", got)
	}
	h.Free(m)
}

func TestHALCapabilities(t *testing.T) {
	device, queue := createNoopDevice(t)
	h := NewHAL(device, queue, HALConfig{})
	defer h.Close()

	if h.Name() != "hal" {
		t.Errorf("Name() = %q", h.Name())
	}
	if h.CanAccelerate(pixel.OpFill) || h.CanAccelerate(pixel.OpBlend) {
		t.Error("HAL should not claim native fill or blend")
	}
	if err := h.Copy(nil, nil); !errors.Is(err, pixel.ErrFallbackToCPU) {
		t.Errorf("Copy() error = %v", err)
	}
}

type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device   { return nil }
func (plainProvider) Queue() gpucontext.Queue     { return nil }
func (plainProvider) Adapter() gpucontext.Adapter { return nil }
func (plainProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "test adapter"}
}
func (plainProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}

type halBackedProvider struct {
	plainProvider
	device hal.Device
	queue  hal.Queue
}

func (p halBackedProvider) HalDevice() any { return p.device }
func (p halBackedProvider) HalQueue() any  { return p.queue }

func TestFromProvider(t *testing.T) {
	if _, err := FromProvider(plainProvider{}, HALConfig{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("FromProvider(plain) error = %v, want ErrNoHAL", err)
	}

	device, queue := createNoopDevice(t)
	h, err := FromProvider(halBackedProvider{device: device, queue: queue}, HALConfig{Name: "shared"})
	if err != nil {
		t.Fatalf("FromProvider: %v", err)
	}
	defer h.Close()
	if h.Name() != "shared" {
		t.Errorf("Name() = %q", h.Name())
	}
}

func TestTextureFormatMapping(t *testing.T) {
	tests := []struct {
		f  pixel.Format
		tf gputypes.TextureFormat
	}{
		{pixel.FormatRGBA8, gputypes.TextureFormatRGBA8Unorm},
		{pixel.FormatGray8, gputypes.TextureFormatR8Unorm},
		{pixel.FormatRGBAF, gputypes.TextureFormatUndefined},
	}
	for _, tt := range tests {
		if got := TextureFormat(tt.f); got != tt.tf {
			t.Errorf("TextureFormat(%s) = %v, want %v", tt.f, got, tt.tf)
		}
	}
	if f, ok := PixelFormat(gputypes.TextureFormatBGRA8Unorm); !ok || f != pixel.FormatRGBA8 {
		t.Errorf("PixelFormat(BGRA8) = %v, %v", f, ok)
	}
	if _, ok := PixelFormat(gputypes.TextureFormatDepth24PlusStencil8); ok {
		t.Error("depth format should have no pixel format")
	}
}
