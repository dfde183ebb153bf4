package tile

import (
	"image"
	"iter"
	"slices"

	"github.com/gogpu/euclase/pixel"
)

// Store is a sparse collection of panels with unique offsets, kept sorted
// row-major. The zero value is an empty store.
//
// Store is not safe for concurrent mutation.
type Store struct {
	panels []*Panel
	// unsorted is set between Append and SortAfterBulkInsert.
	unsorted bool
}

func (s *Store) search(off image.Point) (int, bool) {
	if s.unsorted {
		s.SortAfterBulkInsert()
	}
	return slices.BinarySearchFunc(s.panels, off, func(p *Panel, t image.Point) int {
		return Compare(p.Offset, t)
	})
}

// Find returns the panel at off, or nil.
func (s *Store) Find(off image.Point) *Panel {
	if i, ok := s.search(off); ok {
		return s.panels[i]
	}
	return nil
}

// InsertOrGet returns the panel at off, creating it with newBuf when absent.
// created reports whether a panel was inserted. When newBuf fails nothing is
// inserted.
func (s *Store) InsertOrGet(off image.Point, newBuf func() (*pixel.Buffer, error)) (p *Panel, created bool, err error) {
	i, ok := s.search(off)
	if ok {
		return s.panels[i], false, nil
	}
	var buf *pixel.Buffer
	if newBuf != nil {
		if buf, err = newBuf(); err != nil {
			return nil, false, err
		}
	}
	p = &Panel{Offset: off, Buf: buf}
	s.panels = slices.Insert(s.panels, i, p)
	return p, true, nil
}

// Put stores buf at off, replacing any existing panel's buffer.
func (s *Store) Put(off image.Point, buf *pixel.Buffer) *Panel {
	i, ok := s.search(off)
	if ok {
		s.panels[i].Buf = buf
		return s.panels[i]
	}
	p := &Panel{Offset: off, Buf: buf}
	s.panels = slices.Insert(s.panels, i, p)
	return p
}

// Remove deletes the panel at off and reports whether it existed.
func (s *Store) Remove(off image.Point) bool {
	i, ok := s.search(off)
	if ok {
		s.panels = slices.Delete(s.panels, i, i+1)
	}
	return ok
}

// RemoveFunc deletes every panel for which del returns true.
func (s *Store) RemoveFunc(del func(*Panel) bool) int {
	n := len(s.panels)
	s.panels = slices.DeleteFunc(s.panels, del)
	return n - len(s.panels)
}

// Append adds a panel without keeping order. The next lookup sorts the
// store; SortAfterBulkInsert does it eagerly.
func (s *Store) Append(p *Panel) {
	s.panels = append(s.panels, p)
	s.unsorted = true
}

// SortAfterBulkInsert restores order after Append. Where several panels
// share an offset the last appended one wins.
func (s *Store) SortAfterBulkInsert() {
	if !s.unsorted {
		return
	}
	slices.SortStableFunc(s.panels, func(a, b *Panel) int { return Compare(a.Offset, b.Offset) })
	out := s.panels[:0]
	for i, p := range s.panels {
		if i+1 < len(s.panels) && s.panels[i+1].Offset == p.Offset {
			continue
		}
		out = append(out, p)
	}
	clear(s.panels[len(out):])
	s.panels = out
	s.unsorted = false
}

// Len returns the number of panels.
func (s *Store) Len() int { return len(s.panels) }

// IsEmpty reports whether the store has no panels.
func (s *Store) IsEmpty() bool { return len(s.panels) == 0 }

// At returns the i-th panel in row-major order.
func (s *Store) At(i int) *Panel { return s.panels[i] }

// All iterates panels in row-major order.
func (s *Store) All() iter.Seq[*Panel] {
	return func(yield func(*Panel) bool) {
		for _, p := range s.panels {
			if !yield(p) {
				return
			}
		}
	}
}

// Range iterates the non-null panels overlapping r in row-major order.
func (s *Store) Range(r image.Rectangle) iter.Seq[*Panel] {
	return func(yield func(*Panel) bool) {
		if r.Empty() {
			return
		}
		// Panels in rows above r.Min.Y - Size cannot reach r.
		start, _ := s.search(image.Pt(r.Min.X-Size, Floor(r.Min.Y)-Size))
		for _, p := range s.panels[start:] {
			if p.Offset.Y >= r.Max.Y {
				return
			}
			if !p.IsNull() && p.Bounds().Overlaps(r) {
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Offsets returns every panel offset in row-major order.
func (s *Store) Offsets() []image.Point {
	out := make([]image.Point, len(s.panels))
	for i, p := range s.panels {
		out[i] = p.Offset
	}
	return out
}

// Bounds returns the union of all non-null panel bounds.
func (s *Store) Bounds() image.Rectangle {
	var r image.Rectangle
	for _, p := range s.panels {
		r = r.Union(p.Bounds())
	}
	return r
}

// Clear removes every panel.
func (s *Store) Clear() {
	s.panels = nil
	s.unsorted = false
}

// Clone returns a store sharing the panel buffers but not the panels, so
// replacing a buffer in one store does not affect the other.
func (s *Store) Clone() *Store {
	out := &Store{panels: make([]*Panel, len(s.panels)), unsorted: s.unsorted}
	for i, p := range s.panels {
		cp := *p
		out.panels[i] = &cp
	}
	return out
}
