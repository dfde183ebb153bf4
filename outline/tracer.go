// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package outline

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"github.com/gogpu/euclase/internal/logging"
	"github.com/gogpu/euclase/pixel"
)

// ErrClosed is returned by requests made after Close.
var ErrClosed = errors.New("outline: tracer closed")

// SelectionSource renders selection coverage for a canvas rectangle as a
// Gray8 buffer of the rectangle's size. A nil buffer means nothing is
// selected there.
type SelectionSource interface {
	RenderSelection(rect image.Rectangle) (*pixel.Buffer, error)
}

// Request is the viewport to outline.
type Request struct {
	// Rect is the visible canvas rectangle.
	Rect image.Rectangle

	// Scale is display pixels per canvas pixel. Zero means 1.
	Scale float64
}

// Tracer outlines the selection in the background. Only the latest request
// matters: requests arriving while a trace runs replace any queued one,
// and a trace finishing after a newer request is dropped.
//
// Tracer is safe for concurrent use.
type Tracer struct {
	src     SelectionSource
	publish func(*Outline)
	done    chan struct{}

	mu      sync.Mutex
	cond    *sync.Cond
	pending *Request
	busy    bool
	gen     uint64
	latest  *Outline
	closed  bool
}

// NewTracer starts a tracer. publish, when not nil, is called from the
// tracer goroutine with every finished outline, including nil when nothing
// is selected.
func NewTracer(src SelectionSource, publish func(*Outline)) *Tracer {
	t := &Tracer{src: src, publish: publish, done: make(chan struct{})}
	t.cond = sync.NewCond(&t.mu)
	go t.loop()
	return t
}

// Request asks for the outline of req.
func (t *Tracer) Request(req Request) error {
	if req.Scale <= 0 {
		req.Scale = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.gen++
	t.pending = &req
	t.cond.Broadcast()
	return nil
}

// Latest returns the most recently published outline.
func (t *Tracer) Latest() *Outline {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

// WaitIdle blocks until no trace is queued or running, or ctx ends.
func (t *Tracer) WaitIdle(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		t.mu.Lock()
		t.cond.Broadcast()
		t.mu.Unlock()
	})
	defer stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	for !t.closed && (t.pending != nil || t.busy) {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.cond.Wait()
	}
	return nil
}

// Close stops the tracer and waits for it to exit.
func (t *Tracer) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.pending = nil
	t.cond.Broadcast()
	t.mu.Unlock()
	<-t.done
	return nil
}

func (t *Tracer) loop() {
	defer close(t.done)
	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		for !t.closed && t.pending == nil {
			t.cond.Wait()
		}
		if t.closed {
			return
		}
		req, gen := *t.pending, t.gen
		t.pending = nil
		t.busy = true
		t.mu.Unlock()

		o, err := t.trace(req)

		t.mu.Lock()
		switch {
		case err != nil:
			logging.Get().Warn("outline: trace failed", "rect", req.Rect, "error", err)
		case gen == t.gen && !t.closed:
			t.latest = o
			if t.publish != nil {
				t.mu.Unlock()
				t.publish(o)
				t.mu.Lock()
			}
		}
		t.busy = false
		t.cond.Broadcast()
	}
}

// trace renders the coverage of req at display scale and outlines it.
func (t *Tracer) trace(req Request) (*Outline, error) {
	if req.Rect.Empty() {
		return nil, nil
	}
	cov, err := t.src.RenderSelection(req.Rect)
	if err != nil || cov == nil {
		return nil, err
	}
	gray, err := cov.ToGray()
	if err != nil {
		return nil, err
	}

	origin := image.Pt(toDisplay(req.Rect.Min.X, req.Scale), toDisplay(req.Rect.Min.Y, req.Scale))
	if req.Scale == 1 {
		return traceGray(gray.Pix, gray.Stride, gray.Rect.Dx(), gray.Rect.Dy(), origin), nil
	}
	size := image.Pt(
		toDisplay(req.Rect.Max.X, req.Scale)-origin.X,
		toDisplay(req.Rect.Max.Y, req.Scale)-origin.Y,
	)
	scaled := image.NewGray(image.Rectangle{Min: origin, Max: origin.Add(size)})
	draw.ApproxBiLinear.Scale(scaled, scaled.Rect, gray, gray.Bounds(), draw.Src, nil)
	return TraceImage(scaled), nil
}

func toDisplay(v int, scale float64) int {
	return int(math.Floor(float64(v) * scale))
}
