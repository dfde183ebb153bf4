// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package accel provides pixel.Device implementations.
//
// [Software] keeps "device" memory in Go slices under a byte budget. It
// accelerates fill, copy and blend, so accelerator-resident layers never
// round-trip through host views for compositing. It is the reference
// device and the one used in tests.
//
// [HAL] keeps pixel memory in GPU buffers created through gogpu/wgpu/hal.
// It runs uploads and downloads on the device queue and leaves every other
// operation to the host fallback. A HAL device can be shared with a host
// application through [FromProvider] or opened standalone with [OpenHAL].
//
// Devices accept a logger through SetLogger; euclase.SetLogger propagates
// to the configured device.
package accel
