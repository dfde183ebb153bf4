package composite

import (
	"fmt"
	"image"

	"github.com/gogpu/euclase/blend"
	"github.com/gogpu/euclase/internal/parallel"
	"github.com/gogpu/euclase/pixel"
	"github.com/gogpu/euclase/tile"
)

// ComposePanel mixes alt into dst by the Gray8 mask: 0 keeps dst, 255 takes
// alt, values between interpolate every channel. A nil mask takes alt
// everywhere. All buffers must have the same size; dst and alt the same
// format.
func ComposePanel(dst, alt, mask *pixel.Buffer) error {
	if dst.Format() != alt.Format() {
		return fmt.Errorf("composite: compose %s with %s: %w", alt.Format(), dst.Format(), blend.ErrUnsupportedPair)
	}
	if alt.Bounds() != dst.Bounds() || (mask != nil && mask.Bounds() != dst.Bounds()) {
		return fmt.Errorf("composite: compose size mismatch: %w", pixel.ErrSizeMismatch)
	}
	if mask != nil && mask.Format() != pixel.FormatGray8 {
		return blend.ErrMaskFormat
	}

	dpix, commit, err := dst.HostView()
	if err != nil {
		return err
	}
	apix, err := alt.ReadHost()
	if err != nil {
		return err
	}
	var mpix []byte
	if mask != nil {
		if mpix, err = mask.ReadHost(); err != nil {
			return err
		}
	}
	blend.Mix(dst.Format(), dpix, apix, mpix, dst.Width()*dst.Height())
	return commit()
}

// proposal is what the alternate collection proposes for one tile: the
// full-strength result and the coverage scoping it.
type proposal struct {
	result *pixel.Buffer
	mask   *pixel.Buffer
	// skip is set when the tile is unchanged, either because no alternate
	// panel exists or because the scoping mask is empty.
	skip bool
}

// propose computes the alternate proposal for the tile at layer-space off.
// The result is a new host buffer.
func propose(l *tile.Layer, off image.Point, mask *tile.Layer) (proposal, error) {
	alt := l.Store(tile.Alternate).Find(off)
	if alt.IsNull() || l.AltMode() == tile.AltDisabled {
		return proposal{skip: true}, nil
	}

	var m *pixel.Buffer
	switch {
	case !l.IsEmpty(tile.AlternateSelection):
		sel := l.Store(tile.AlternateSelection).Find(off)
		if sel.IsNull() {
			return proposal{skip: true}, nil
		}
		m = sel.Buf
	case mask != nil && !mask.IsEmpty(tile.Primary):
		var err error
		if m, err = RenderMask(mask, tile.Rect(off).Add(l.Offset)); err != nil {
			return proposal{}, err
		}
		if m == nil {
			return proposal{skip: true}, nil
		}
	}

	var res *pixel.Buffer
	var err error
	if l.AltMode() == tile.AltReplace {
		res, err = alt.Buf.Copy(pixel.Host, nil)
	} else {
		res, err = hostBase(l, off)
	}
	if err != nil {
		return proposal{}, err
	}

	full := res.Bounds()
	switch l.AltMode() {
	case tile.AltNormal:
		err = blend.Buffers(res, full, alt.Buf, image.Point{}, nil, image.Point{}, blend.Op{Mode: blend.ModeNormal, Opacity: 255})
	case tile.AltEraser:
		err = blend.Buffers(res, full, alt.Buf, image.Point{}, nil, image.Point{}, blend.Erase(255))
	}
	if err != nil {
		return proposal{}, err
	}
	return proposal{result: res, mask: m}, nil
}

// hostBase returns a host copy of the primary tile at off, or a
// transparent buffer when there is none.
func hostBase(l *tile.Layer, off image.Point) (*pixel.Buffer, error) {
	if p := l.Store(tile.Primary).Find(off); !p.IsNull() {
		return p.Buf.Copy(pixel.Host, nil)
	}
	return pixel.New(tile.Size, tile.Size, l.Format())
}

// ComposePanels returns the preview of the tile at layer-space off: the
// primary panel with the alternate proposal mixed in by the
// alternate-selection panel, or by mask's coverage when the layer has no
// alternate selection. The result is a new host buffer, or nil when the
// layer has no pixels at off.
func ComposePanels(l *tile.Layer, off image.Point, mask *tile.Layer) (*pixel.Buffer, error) {
	prop, err := propose(l, off, mask)
	if err != nil {
		return nil, err
	}
	if prop.skip {
		if p := l.Store(tile.Primary).Find(off); !p.IsNull() {
			return p.Buf.Copy(pixel.Host, nil)
		}
		return nil, nil
	}
	out, err := hostBase(l, off)
	if err != nil {
		return nil, err
	}
	if err := ComposePanel(out, prop.result, prop.mask); err != nil {
		return nil, err
	}
	return out, nil
}

// FinishAlternatePanels ends an alternate session. When apply is set every
// alternate panel is composed into the primary collection exactly as
// ComposePanels previews it. The alternate and alternate-selection
// collections are cleared and the primary made active whether or not the
// change was applied, and even when applying fails.
func FinishAlternatePanels(l *tile.Layer, apply bool, mask *tile.Layer) error {
	defer l.ClearAlternate()
	if !apply || l.AltMode() == tile.AltDisabled {
		return nil
	}

	type commit struct {
		dst  *tile.Panel
		prop proposal
	}
	var commits []commit
	for ap := range l.Store(tile.Alternate).All() {
		if ap.IsNull() {
			continue
		}
		prop, err := propose(l, ap.Offset, mask)
		if err != nil {
			return err
		}
		if prop.skip {
			continue
		}
		dst, err := l.Ensure(tile.Primary, ap.Offset)
		if err != nil {
			return err
		}
		commits = append(commits, commit{dst: dst, prop: prop})
	}

	return parallel.Default().Run(len(commits), func(i int) error {
		c := commits[i]
		return ComposePanel(c.dst.Buf, c.prop.result, c.prop.mask)
	})
}
