package euclase

import (
	"image"
	"math"

	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/tile"
)

// Stroke builds the Gray8 coverage layer of a brush stroke from round
// dabs. Overlapping dabs keep the larger coverage, so a stroke never
// darkens where it crosses itself.
//
// Example:
//
//	s := euclase.NewStroke(8, 0.5)
//	s.Line(10, 10, 200, 120)
//	err := c.PaintToCurrentLayerAlternate(s.Layer(), euclase.PaintOptions{
//	    Color: pixel.RGBA8{R: 255, A: 255}, Opacity: 255,
//	})
type Stroke struct {
	layer    *tile.Layer
	radius   float64
	hardness float64

	// Spacing is the distance between dabs along a line, as a fraction of
	// the radius.
	Spacing float64

	last    [2]float64
	started bool
	err     error
}

// NewStroke returns an empty stroke with the given brush radius and
// hardness. Hardness 1 is a hard disc; 0 falls off linearly from the
// centre.
func NewStroke(radius, hardness float64) *Stroke {
	return &Stroke{
		layer:    tile.NewLayer(pixel.FormatGray8, pixel.Host, nil),
		radius:   max(radius, 0.5),
		hardness: min(max(hardness, 0), 1),
		Spacing:  0.25,
	}
}

// Layer returns the coverage layer, ready for PaintToCurrentLayerAlternate.
func (s *Stroke) Layer() *tile.Layer { return s.layer }

// Bounds returns the canvas rectangle touched by the stroke.
func (s *Stroke) Bounds() image.Rectangle { return s.layer.Bounds(tile.Primary) }

// Err returns the first allocation error met while stamping dabs.
func (s *Stroke) Err() error { return s.err }

// Dab stamps one dab centred at (x, y).
func (s *Stroke) Dab(x, y float64) {
	s.dab(x, y)
	s.last, s.started = [2]float64{x, y}, true
}

// Line stamps dabs from (x0, y0) to (x1, y1).
func (s *Stroke) Line(x0, y0, x1, y1 float64) {
	s.Dab(x0, y0)
	s.LineTo(x1, y1)
}

// LineTo continues the stroke from the last dab to (x, y). Without a
// previous dab it stamps a single dab.
func (s *Stroke) LineTo(x, y float64) {
	if !s.started {
		s.Dab(x, y)
		return
	}
	step := max(s.radius*s.Spacing, 0.5)
	x0, y0 := s.last[0], s.last[1]
	dist := math.Hypot(x-x0, y-y0)
	n := int(math.Ceil(dist / step))
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		s.dab(x0+(x-x0)*t, y0+(y-y0)*t)
	}
	s.last = [2]float64{x, y}
}

func (s *Stroke) dab(cx, cy float64) {
	if s.err != nil {
		return
	}
	r := s.radius
	area := image.Rect(
		int(math.Floor(cx-r)), int(math.Floor(cy-r)),
		int(math.Ceil(cx+r))+1, int(math.Ceil(cy+r))+1,
	)
	inner := r * s.hardness
	for _, off := range tile.Covering(area) {
		p, err := s.layer.Ensure(tile.Primary, off)
		if err != nil {
			s.err = err
			return
		}
		pix := p.Buf.Bytes()
		clip := area.Intersect(tile.Rect(off))
		for y := clip.Min.Y; y < clip.Max.Y; y++ {
			row := pix[(y-off.Y)*tile.Size:]
			dy := float64(y) + 0.5 - cy
			for x := clip.Min.X; x < clip.Max.X; x++ {
				d := math.Hypot(float64(x)+0.5-cx, dy)
				v := dabCoverage(d, inner, r)
				if i := x - off.X; v > row[i] {
					row[i] = v
				}
			}
		}
	}
}

// dabCoverage returns the coverage at distance d from a dab centre: full
// up to inner, falling linearly to zero at outer.
func dabCoverage(d, inner, outer float64) uint8 {
	switch {
	case d >= outer:
		return 0
	case d <= inner:
		return 255
	default:
		return uint8(math.Round(255 * (outer - d) / (outer - inner)))
	}
}
