// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package accel

import (
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/euclase/blend"
	"github.com/gogpu/euclase/internal/logging"
	"github.com/gogpu/euclase/pixel"
)

// SoftwareConfig configures a Software device.
type SoftwareConfig struct {
	// MaxMemoryMB is the memory budget. Values below MinMemoryMB select
	// DefaultMaxMemoryMB.
	MaxMemoryMB int
}

// Software is a pixel.Device whose memory is Go slices under a budget.
//
// Software is safe for concurrent use.
type Software struct {
	budget *budget
	logger atomic.Pointer[slog.Logger]
}

type softMemory struct {
	owner *Software
	data  []byte
	freed atomic.Bool
}

func (m *softMemory) Size() int { return len(m.data) }

// NewSoftware creates a software device.
func NewSoftware(cfg SoftwareConfig) *Software {
	return &Software{budget: newBudget(cfg.MaxMemoryMB)}
}

// SetLogger sets the device logger. nil restores the shared logger.
func (s *Software) SetLogger(l *slog.Logger) {
	s.logger.Store(l)
}

func (s *Software) slogger() *slog.Logger {
	if l := s.logger.Load(); l != nil {
		return l
	}
	return logging.Get()
}

// Name implements pixel.Device.
func (s *Software) Name() string { return "software" }

// Alloc implements pixel.Device.
func (s *Software) Alloc(size int) (pixel.Memory, error) {
	if err := s.budget.reserve(uint64(size)); err != nil {
		s.slogger().Warn("accel: software allocation refused", "bytes", size, "error", err)
		return nil, err
	}
	return &softMemory{owner: s, data: make([]byte, size)}, nil
}

// Free implements pixel.Device.
func (s *Software) Free(m pixel.Memory) {
	sm, ok := m.(*softMemory)
	if !ok || sm.owner != s || !sm.freed.CompareAndSwap(false, true) {
		return
	}
	s.budget.release(uint64(len(sm.data)))
}

func (s *Software) mem(m pixel.Memory) (*softMemory, error) {
	sm, ok := m.(*softMemory)
	if !ok || sm.owner != s {
		return nil, ErrForeignMemory
	}
	if sm.freed.Load() {
		return nil, pixel.ErrReleased
	}
	return sm, nil
}

// Upload implements pixel.Device.
func (s *Software) Upload(dst pixel.Memory, src []byte) error {
	sm, err := s.mem(dst)
	if err != nil {
		return err
	}
	copy(sm.data, src)
	return nil
}

// Download implements pixel.Device.
func (s *Software) Download(dst []byte, src pixel.Memory) error {
	sm, err := s.mem(src)
	if err != nil {
		return err
	}
	copy(dst, sm.data)
	return nil
}

// Fill implements pixel.Device.
func (s *Software) Fill(dst pixel.Memory, pattern []byte) error {
	sm, err := s.mem(dst)
	if err != nil {
		return err
	}
	if len(pattern) == 0 {
		clear(sm.data)
		return nil
	}
	n := copy(sm.data, pattern)
	for n < len(sm.data) {
		n += copy(sm.data[n:], sm.data[:n])
	}
	return nil
}

// Copy implements pixel.Device.
func (s *Software) Copy(dst, src pixel.Memory) error {
	d, err := s.mem(dst)
	if err != nil {
		return err
	}
	sm, err := s.mem(src)
	if err != nil {
		return err
	}
	copy(d.data, sm.data)
	return nil
}

// CanAccelerate implements pixel.Device.
func (s *Software) CanAccelerate(op pixel.Op) bool {
	const native = pixel.OpFill | pixel.OpCopy | pixel.OpBlend
	return op&^native == 0
}

// BlendBuffers implements blend.DeviceBlender by compositing directly in
// device memory.
func (s *Software) BlendBuffers(dst *pixel.Buffer, r image.Rectangle, src *pixel.Buffer, sp image.Point, mask *pixel.Buffer, mp image.Point, op blend.Op) error {
	ds, err := s.surface(dst)
	if err != nil {
		return err
	}
	ss, err := s.surface(src)
	if err != nil {
		return err
	}
	var ms *blend.Surface
	if mask != nil {
		if ms, err = s.surface(mask); err != nil {
			return err
		}
	}
	return blend.Composite(ds, r, ss, sp, ms, mp, op)
}

func (s *Software) surface(b *pixel.Buffer) (*blend.Surface, error) {
	sm, err := s.mem(b.Memory())
	if err != nil {
		return nil, err
	}
	return &blend.Surface{Pix: sm.data, Stride: b.Stride(), Format: b.Format()}, nil
}

// Stats returns memory usage statistics.
func (s *Software) Stats() MemoryStats {
	return s.budget.stats()
}

// Close releases the budget. Later allocations fail with ErrClosed.
func (s *Software) Close() {
	if s.budget.close() {
		s.slogger().Debug("accel: software device closed")
	}
}

var (
	_ pixel.Device        = (*Software)(nil)
	_ blend.DeviceBlender = (*Software)(nil)
)
