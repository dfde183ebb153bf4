// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "runtime"

// DefaultDisplayCache is the default byte budget for scaled tile crops.
const DefaultDisplayCache = 64 << 20

// Option configures a Scheduler.
type Option func(*options)

type options struct {
	workers      int
	displayCache int64
}

func defaultOptions() options {
	return options{
		workers:      max(1, min(runtime.GOMAXPROCS(0)/2, 4)),
		displayCache: DefaultDisplayCache,
	}
}

// WithWorkers sets the number of worker goroutines. Values below 1 are
// ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.workers = n
		}
	}
}

// WithDisplayCache sets the byte budget for scaled tile crops. Zero or
// less disables the budget.
func WithDisplayCache(bytes int64) Option {
	return func(o *options) {
		o.displayCache = bytes
	}
}
