// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render keeps a display surface up to date in the background.
//
// A Scheduler owns a pool of worker goroutines, a cache of rendered canvas
// tiles and a display surface. Each Request names the visible canvas
// rectangle, a display scale and a focus point. The scheduler splits the
// rectangle into tile jobs, orders them by distance from the focus point so
// tiles near the pointer appear first, and for every job either reuses the
// cached tile or asks its Source to render one. Finished tiles are scaled
// into the display surface.
//
// A newer request supersedes the current one: its context is cancelled,
// queued jobs are dropped, and results that finish late are discarded.
// Cancellation is observed between tiles, never inside one, so the cache
// only ever holds complete tiles.
//
// Worker states follow Idle -> Computing -> Idle, with Computing ->
// Cancelled -> Idle when a job is superseded, invalidated or shut down.
// Idle workers block on a condition variable; nothing polls.
//
// Example:
//
//	s := render.New(canvas, render.WithWorkers(2))
//	defer s.Close()
//
//	s.Request(render.Request{Rect: view, Focus: pointer, Scale: 0.5})
//	if err := s.WaitIdle(ctx); err != nil {
//	    return err
//	}
//	img := s.Surface()
package render
