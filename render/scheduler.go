// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/gogpu/euclase/internal/cache"
	"github.com/gogpu/euclase/internal/logging"
	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/tile"
)

// ErrClosed is returned by requests made after Close.
var ErrClosed = errors.New("render: scheduler closed")

// Source renders the canvas tile covering rect. It should return
// ctx.Err() promptly once ctx is cancelled.
type Source interface {
	RenderTile(ctx context.Context, rect image.Rectangle) (*pixel.Buffer, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, rect image.Rectangle) (*pixel.Buffer, error)

// RenderTile calls f.
func (f SourceFunc) RenderTile(ctx context.Context, rect image.Rectangle) (*pixel.Buffer, error) {
	return f(ctx, rect)
}

// Request describes the viewport to keep rendered.
type Request struct {
	// Rect is the visible canvas rectangle.
	Rect image.Rectangle

	// Focus is the canvas point whose surrounding tiles render first.
	Focus image.Point

	// Scale is display pixels per canvas pixel. Zero means 1.
	Scale float64

	// Invalidate drops every cached tile before rendering.
	Invalidate bool
}

// Job is one tile of a request.
type Job struct {
	// Rect is the canvas rectangle of the tile.
	Rect image.Rectangle

	// Priority is the squared distance from the request focus to the tile
	// centre. Lower runs first.
	Priority int

	ctx context.Context
	gen uint64
}

// Context returns the cancellation context of the job's request.
func (j Job) Context() context.Context { return j.ctx }

// State is the activity of one worker.
type State int32

const (
	// StateIdle workers wait for jobs.
	StateIdle State = iota

	// StateComputing workers are rendering or painting a tile.
	StateComputing

	// StateCancelled workers abandoned a superseded job and are about to
	// go idle.
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComputing:
		return "computing"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Stats are scheduler counters.
type Stats struct {
	Requests  uint64 // requests started
	Rendered  uint64 // tiles produced by the source and cached
	Reused    uint64 // tiles painted from the cache
	Cancelled uint64 // jobs abandoned because their request ended
	Discarded uint64 // tiles finished for a request that had ended
	Failed    uint64 // source errors other than cancellation

	CachedTiles    int
	DisplayCrops   int
	DisplayHitRate float64
}

type cropKey struct {
	off   image.Point
	scale float64
}

// Scheduler renders tiles of a Source in the background and paints them
// into a display surface.
//
// Scheduler is safe for concurrent use.
type Scheduler struct {
	src     Source
	display *cache.Cache[cropKey, *image.RGBA]
	wg      sync.WaitGroup

	mu      sync.Mutex
	cond    *sync.Cond
	req     Request
	active  bool
	gen     uint64
	ctx     context.Context
	cancel  context.CancelFunc
	jobs    []Job
	running int
	busy    []image.Rectangle // tile each worker is rendering
	states  []State
	closed  bool
	tiles   tile.Store
	surface *image.RGBA
	stats   Stats
}

// New starts a scheduler rendering tiles of src.
func New(src Source, opts ...Option) *Scheduler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Scheduler{
		src: src,
		display: cache.New[cropKey, *image.RGBA](o.displayCache, func(img *image.RGBA) int64 {
			return int64(len(img.Pix))
		}),
		states: make([]State, o.workers),
		busy:   make([]image.Rectangle, o.workers),
	}
	s.cond = sync.NewCond(&s.mu)
	s.wg.Add(o.workers)
	for w := range o.workers {
		go s.worker(w)
	}
	logging.Get().Info("render: scheduler started", "workers", o.workers)
	return s
}

// Request replaces the current request. Work for the previous request is
// cancelled and cached tiles outside req.Rect are evicted.
func (s *Scheduler) Request(req Request) error {
	if req.Scale <= 0 {
		req.Scale = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.stats.Requests++
	if req.Invalidate {
		s.tiles.Clear()
		s.display.Clear()
		req.Invalidate = false
	}
	s.startLocked(req)
	return nil
}

// startLocked cancels the current work and queues the tiles of req.
func (s *Scheduler) startLocked(req Request) {
	s.cancelLocked()
	s.gen++

	evicted := s.tiles.RemoveFunc(func(p *tile.Panel) bool {
		return !p.Bounds().Overlaps(req.Rect)
	})
	s.display.DeleteFunc(func(k cropKey) bool {
		return !tile.Rect(k.off).Overlaps(req.Rect)
	})
	s.resizeSurfaceLocked(req)
	s.req, s.active = req, true

	ctx, cancel := context.WithCancel(context.Background())
	s.ctx, s.cancel = ctx, cancel

	offs := tile.Covering(req.Rect)
	jobs := make([]Job, len(offs))
	for i, off := range offs {
		r := tile.Rect(off)
		c := r.Min.Add(r.Max).Div(2).Sub(req.Focus)
		jobs[i] = Job{Rect: r, Priority: c.X*c.X + c.Y*c.Y, ctx: ctx, gen: s.gen}
	}
	// offs is row-major, so equal distances keep row-major order.
	slices.SortStableFunc(jobs, func(a, b Job) int { return cmp.Compare(a.Priority, b.Priority) })
	s.jobs = jobs

	logging.Get().Debug("render: request",
		"rect", req.Rect, "scale", req.Scale, "tiles", len(jobs), "evicted", evicted)
	s.cond.Broadcast()
}

// cancelLocked cancels the current request and drops its queued jobs.
func (s *Scheduler) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.stats.Cancelled += uint64(len(s.jobs))
	s.jobs = nil
	s.cond.Broadcast()
}

// Cancel abandons the current request. Cached tiles stay valid.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.gen++
	s.active = false
}

// Invalidate drops cached tiles overlapping the canvas rectangle r and
// restarts the current request if it can see r or a tile overlapping r is
// being rendered.
func (s *Scheduler) Invalidate(r image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.tiles.RemoveFunc(func(p *tile.Panel) bool { return p.Bounds().Overlaps(r) })
	s.display.DeleteFunc(func(k cropKey) bool { return tile.Rect(k.off).Overlaps(r) })
	logging.Get().Debug("render: invalidate", "rect", r, "tiles", n)
	if s.active && !s.closed && (r.Overlaps(s.req.Rect) || s.busyLocked(r)) {
		s.startLocked(s.req)
	}
}

// InvalidateAll drops every cached tile and restarts the current request.
func (s *Scheduler) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles.Clear()
	s.display.Clear()
	if s.active && !s.closed {
		s.startLocked(s.req)
	}
}

// busyLocked reports whether a worker is rendering a tile overlapping r.
// Restarting the request discards that tile when it finishes.
func (s *Scheduler) busyLocked(r image.Rectangle) bool {
	for _, b := range s.busy {
		if b.Overlaps(r) {
			return true
		}
	}
	return false
}

func (s *Scheduler) worker(w int) {
	defer s.wg.Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		for !s.closed && len(s.jobs) == 0 {
			s.states[w] = StateIdle
			s.cond.Wait()
		}
		if s.closed {
			s.states[w] = StateIdle
			return
		}
		j := s.jobs[0]
		s.jobs = s.jobs[1:]
		s.running++
		s.states[w] = StateComputing
		s.busy[w] = j.Rect

		s.mu.Unlock()
		s.run(w, j)
		s.mu.Lock()

		s.busy[w] = image.Rectangle{}
		s.running--
		if s.running == 0 && len(s.jobs) == 0 {
			s.cond.Broadcast()
		}
	}
}

// run processes one job. It is called without s.mu held.
func (s *Scheduler) run(w int, j Job) {
	if j.ctx.Err() != nil {
		s.abandon(w)
		return
	}
	off := j.Rect.Min

	s.mu.Lock()
	if p := s.tiles.Find(off); !p.IsNull() {
		if j.gen == s.gen {
			s.paintLocked(off, p.Buf)
			s.stats.Reused++
		}
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	buf, err := s.src.RenderTile(j.ctx, j.Rect)
	if err != nil {
		if j.ctx.Err() != nil {
			s.abandon(w)
			return
		}
		s.mu.Lock()
		s.stats.Failed++
		s.mu.Unlock()
		logging.Get().Warn("render: tile failed", "rect", j.Rect, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if j.gen != s.gen || j.ctx.Err() != nil || !j.Rect.Overlaps(s.req.Rect) {
		s.states[w] = StateCancelled
		s.stats.Discarded++
		return
	}
	s.tiles.Put(off, buf)
	s.display.DeleteFunc(func(k cropKey) bool { return k.off == off })
	s.paintLocked(off, buf)
	s.stats.Rendered++
}

// abandon records a cancelled job.
func (s *Scheduler) abandon(w int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[w] = StateCancelled
	s.stats.Cancelled++
}

// WaitIdle blocks until no job is queued or running, or ctx ends.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.closed && (len(s.jobs) > 0 || s.running > 0) {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.cond.Wait()
	}
	return nil
}

// State returns Computing while any worker computes, Cancelled while any
// worker is leaving a cancelled job, and Idle otherwise.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := StateIdle
	for _, ws := range s.states {
		if ws == StateComputing {
			return StateComputing
		}
		if ws == StateCancelled {
			st = StateCancelled
		}
	}
	return st
}

// Current returns the active request and whether there is one.
func (s *Scheduler) Current() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req, s.active
}

// Pending returns the queued jobs in the order they will run.
func (s *Scheduler) Pending() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.jobs)
}

// CachedTiles returns the offsets of cached tiles in row-major order.
func (s *Scheduler) CachedTiles() []image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tiles.Offsets()
}

// Tile returns the cached tile at the canvas offset off, or nil.
func (s *Scheduler) Tile(off image.Point) *pixel.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.tiles.Find(off); p != nil {
		return p.Buf
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	st := s.stats
	st.CachedTiles = s.tiles.Len()
	s.mu.Unlock()

	ds := s.display.Stats()
	st.DisplayCrops = ds.Len
	st.DisplayHitRate = ds.HitRate
	return st
}

// Close stops the workers. Pending work is cancelled. Close is idempotent.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancelLocked()
	s.mu.Unlock()

	s.wg.Wait()
	logging.Get().Info("render: scheduler closed")
	return nil
}
