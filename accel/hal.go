// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package accel

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/euclase/internal/logging"
	"github.com/gogpu/euclase/pixel"
)

// DeviceHandle is the host application's GPU device, as exposed through
// gpucontext. euclase never creates a device from a handle; it borrows it.
type DeviceHandle = gpucontext.DeviceProvider

// halProvider is implemented by device handles that expose their
// underlying HAL objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// ErrNoHAL is returned when a device handle does not expose HAL types.
var ErrNoHAL = errors.New("accel: provider does not expose HAL device")

// HALConfig configures a HAL device.
type HALConfig struct {
	// Name identifies the device in logs. Defaults to "hal".
	Name string

	// MaxMemoryMB is the budget for tile buffers.
	MaxMemoryMB int
}

// HAL is a pixel.Device backed by wgpu HAL buffers.
//
// Tile memory is a mappable buffer (MapRead | CopyDst): uploads go through
// Queue.WriteBuffer, downloads wait for the device and map the buffer.
// Fill, copy and blend run on the host.
type HAL struct {
	name   string
	device hal.Device
	queue  hal.Queue
	budget *budget
	logger atomic.Pointer[slog.Logger]

	// queueMu serializes queue access; HAL queues are not required to be
	// safe for concurrent use.
	queueMu sync.Mutex

	// instance is set when the device was opened standalone and is
	// destroyed with it.
	instance hal.Instance
	owned    bool
}

type halMemory struct {
	owner  *HAL
	buf    hal.Buffer
	size   int
	padded uint64
	freed  atomic.Bool
}

func (m *halMemory) Size() int { return m.size }

// NewHAL wraps an open HAL device and queue. The caller keeps ownership
// of both; Close only releases tile buffers.
func NewHAL(device hal.Device, queue hal.Queue, cfg HALConfig) *HAL {
	name := cfg.Name
	if name == "" {
		name = "hal"
	}
	return &HAL{
		name:   name,
		device: device,
		queue:  queue,
		budget: newBudget(cfg.MaxMemoryMB),
	}
}

// FromProvider borrows the HAL device of a host application.
func FromProvider(p DeviceHandle, cfg HALConfig) (*HAL, error) {
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	h := NewHAL(device, queue, cfg)
	if f, ok := PixelFormat(p.SurfaceFormat()); ok {
		h.slogger().Info("accel: using host device", "adapter", p.AdapterInfo().Name, "surface", f)
	}
	return h, nil
}

// SetLogger sets the device logger. nil restores the shared logger.
func (h *HAL) SetLogger(l *slog.Logger) {
	h.logger.Store(l)
}

func (h *HAL) slogger() *slog.Logger {
	if l := h.logger.Load(); l != nil {
		return l
	}
	return logging.Get()
}

// Name implements pixel.Device.
func (h *HAL) Name() string { return h.name }

// Alloc implements pixel.Device.
func (h *HAL) Alloc(size int) (pixel.Memory, error) {
	padded := uint64(size+3) &^ 3
	if err := h.budget.reserve(padded); err != nil {
		return nil, err
	}
	buf, err := h.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "euclase-tile",
		Size:  padded,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		h.budget.release(padded)
		return nil, fmt.Errorf("accel: create buffer: %w", err)
	}

	h.queueMu.Lock()
	err = h.queue.WriteBuffer(buf, 0, make([]byte, padded))
	h.queueMu.Unlock()
	if err != nil {
		h.device.DestroyBuffer(buf)
		h.budget.release(padded)
		return nil, fmt.Errorf("accel: write buffer: %w", err)
	}

	return &halMemory{owner: h, buf: buf, size: size, padded: padded}, nil
}

// Free implements pixel.Device.
func (h *HAL) Free(m pixel.Memory) {
	hm, ok := m.(*halMemory)
	if !ok || hm.owner != h || !hm.freed.CompareAndSwap(false, true) {
		return
	}
	h.device.DestroyBuffer(hm.buf)
	h.budget.release(hm.padded)
}

func (h *HAL) mem(m pixel.Memory) (*halMemory, error) {
	hm, ok := m.(*halMemory)
	if !ok || hm.owner != h {
		return nil, ErrForeignMemory
	}
	if hm.freed.Load() {
		return nil, pixel.ErrReleased
	}
	return hm, nil
}

// Upload implements pixel.Device.
func (h *HAL) Upload(dst pixel.Memory, src []byte) error {
	hm, err := h.mem(dst)
	if err != nil {
		return err
	}
	data := src
	if uint64(len(src)) != hm.padded {
		data = make([]byte, hm.padded)
		copy(data, src)
	}
	h.queueMu.Lock()
	defer h.queueMu.Unlock()
	if err := h.queue.WriteBuffer(hm.buf, 0, data); err != nil {
		return fmt.Errorf("accel: write buffer: %w", err)
	}
	return nil
}

// Download implements pixel.Device. Pending writes are waited for before
// the buffer is mapped.
func (h *HAL) Download(dst []byte, src pixel.Memory) error {
	hm, err := h.mem(src)
	if err != nil {
		return err
	}
	h.queueMu.Lock()
	defer h.queueMu.Unlock()
	if err := h.device.WaitIdle(); err != nil {
		return fmt.Errorf("accel: readback: %w", err)
	}
	m, err := h.device.MapBuffer(hm.buf, 0, hm.padded)
	if err != nil {
		return fmt.Errorf("accel: map buffer: %w", err)
	}
	copy(dst, unsafe.Slice((*byte)(m.Ptr), hm.size))
	if err := h.device.UnmapBuffer(hm.buf); err != nil {
		return fmt.Errorf("accel: unmap buffer: %w", err)
	}
	return nil
}

// Fill implements pixel.Device. It always defers to the host.
func (h *HAL) Fill(pixel.Memory, []byte) error { return pixel.ErrFallbackToCPU }

// Copy implements pixel.Device. It always defers to the host.
func (h *HAL) Copy(_, _ pixel.Memory) error { return pixel.ErrFallbackToCPU }

// CanAccelerate implements pixel.Device.
func (h *HAL) CanAccelerate(pixel.Op) bool { return false }

// Stats returns tile buffer usage statistics.
func (h *HAL) Stats() MemoryStats {
	return h.budget.stats()
}

// Close stops further allocations. A standalone device is destroyed.
// Buffers still alive must not be used afterwards.
func (h *HAL) Close() {
	if !h.budget.close() {
		return
	}
	if h.owned {
		h.device.Destroy()
		if h.instance != nil {
			h.instance.Destroy()
		}
	}
	h.slogger().Debug("accel: hal device closed", "name", h.name)
}

// TextureFormat returns the GPU texture format matching a pixel format,
// or TextureFormatUndefined when there is none.
func TextureFormat(f pixel.Format) gputypes.TextureFormat {
	switch f {
	case pixel.FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm
	case pixel.FormatGray8:
		return gputypes.TextureFormatR8Unorm
	default:
		return gputypes.TextureFormatUndefined
	}
}

// PixelFormat returns the pixel format for a GPU texture format.
// BGRA surfaces map to RGBA8; the swizzle happens at presentation.
func PixelFormat(tf gputypes.TextureFormat) (pixel.Format, bool) {
	switch tf {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return pixel.FormatRGBA8, true
	case gputypes.TextureFormatR8Unorm:
		return pixel.FormatGray8, true
	default:
		return 0, false
	}
}

var _ pixel.Device = (*HAL)(nil)
