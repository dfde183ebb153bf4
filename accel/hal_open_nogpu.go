// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

package accel

import "errors"

// OpenHAL is unavailable in nogpu builds.
func OpenHAL(HALConfig) (*HAL, error) {
	return nil, errors.New("accel: built with nogpu")
}
