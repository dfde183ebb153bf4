// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package outline finds the boundary of a selection for display.
//
// A coverage pixel counts as selected when its high bit is set. It is a
// boundary pixel when it is selected and at least one of its eight
// neighbours is not; pixels beyond the edge repeat the nearest edge pixel.
// The test is one reduction over the neighbours:
//
//	(c &^ (n0 & n1 & ... & n7)) & 0x80 != 0
//
// Trace does this once. Tracer does it in the background for the latest
// viewport and publishes each finished Outline.
package outline
