// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pixel provides the pixel buffer shared by every euclase stage.
//
// A [Buffer] is a rectangular block of pixels in one of eight [Format]s:
// 8-bit sRGB-encoded RGB, RGBA, gray and gray+alpha, and their 32-bit float
// linear-light counterparts. Colour is never premultiplied in storage.
//
// Every buffer lives in one of two residencies. Host buffers keep their bytes
// in a Go slice. Accelerator buffers keep them in memory owned by a [Device];
// the host only sees a copy obtained through [Buffer.HostView] or
// [Buffer.ReadHost]. Format and residency never change after [Make]:
// converting or moving a buffer returns a new one.
//
// Device memory is released when the last *Buffer referencing it becomes
// unreachable, or earlier through [Buffer.Release].
package pixel
