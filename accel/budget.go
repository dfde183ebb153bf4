// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package accel

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrBudgetExceeded is returned when an allocation would exceed the
	// device memory budget.
	ErrBudgetExceeded = errors.New("accel: memory budget exceeded")

	// ErrClosed is returned when operating on a closed device.
	ErrClosed = errors.New("accel: device closed")

	// ErrForeignMemory is returned when memory from another device is
	// passed in.
	ErrForeignMemory = errors.New("accel: memory not owned by this device")
)

const (
	// DefaultMaxMemoryMB is the default device memory budget.
	DefaultMaxMemoryMB = 256

	// MinMemoryMB is the smallest accepted budget.
	MinMemoryMB = 1
)

// MemoryStats contains device memory usage statistics.
type MemoryStats struct {
	// TotalBytes is the memory budget in bytes.
	TotalBytes uint64

	// UsedBytes is the currently allocated memory in bytes.
	UsedBytes uint64

	// AvailableBytes is the remaining budget.
	AvailableBytes uint64

	// Allocations is the number of live allocations.
	Allocations int

	// Utilization is UsedBytes/TotalBytes.
	Utilization float64
}

// String returns a human-readable summary.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d KB, %d allocations]",
		s.Utilization*100, s.UsedBytes/1024, s.TotalBytes/1024, s.Allocations)
}

// budget tracks bytes reserved against a fixed limit.
type budget struct {
	mu     sync.Mutex
	limit  uint64
	used   uint64
	count  int
	closed bool
}

func newBudget(maxMB int) *budget {
	if maxMB < MinMemoryMB {
		maxMB = DefaultMaxMemoryMB
	}
	return &budget{limit: uint64(maxMB) * 1024 * 1024}
}

func (b *budget) reserve(n uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if b.used+n > b.limit {
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			ErrBudgetExceeded, n, b.used, b.limit)
	}
	b.used += n
	b.count++
	return nil
}

func (b *budget) release(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.used -= n
	b.count--
}

func (b *budget) close() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.closed = true
	b.used, b.count = 0, 0
	return true
}

func (b *budget) stats() MemoryStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	var u float64
	if b.limit > 0 {
		u = float64(b.used) / float64(b.limit)
	}
	return MemoryStats{
		TotalBytes:     b.limit,
		UsedBytes:      b.used,
		AvailableBytes: b.limit - b.used,
		Allocations:    b.count,
		Utilization:    u,
	}
}
