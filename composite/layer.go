package composite

import (
	"image"

	"github.com/gogpu/euclase/blend"
	"github.com/gogpu/euclase/internal/logging"
	"github.com/gogpu/euclase/internal/parallel"
	"github.com/gogpu/euclase/tile"
)

// job is one destination tile and the source panels that touch it, in
// row-major source order.
type job struct {
	dst  *tile.Panel
	srcs []*tile.Panel
}

// RenderToLayer blends every primary panel of src into collection which of
// dst. Destination tiles touched by a source panel are created transparent
// when missing. Tiles are processed in parallel; each tile receives its
// sources in row-major order, so the result does not depend on scheduling.
func RenderToLayer(dst *tile.Layer, which tile.Collection, src *tile.Layer, mask *tile.Layer, op blend.Op) error {
	jobs, err := plan(dst, which, src)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}
	logging.Get().Debug("composite: render to layer",
		"collection", which, "tiles", len(jobs), "mode", op.Mode)

	return parallel.Default().Run(len(jobs), func(i int) error {
		j := jobs[i]
		for _, sp := range j.srcs {
			if err := RenderToSinglePanel(j.dst, dst.Offset, sp, src.Offset, mask, op); err != nil {
				return err
			}
		}
		return nil
	})
}

// plan groups source panels by destination tile and creates the missing
// destination tiles. It runs serially because it mutates dst's store.
func plan(dst *tile.Layer, which tile.Collection, src *tile.Layer) ([]*job, error) {
	byOff := make(map[image.Point]*job)
	var jobs []*job
	for sp := range src.Store(tile.Primary).All() {
		if sp.IsNull() {
			continue
		}
		r := sp.Bounds().Add(src.Offset).Sub(dst.Offset)
		for _, off := range tile.Covering(r) {
			j := byOff[off]
			if j == nil {
				dp, err := dst.Ensure(which, off)
				if err != nil {
					return nil, err
				}
				j = &job{dst: dp}
				byOff[off] = j
				jobs = append(jobs, j)
			}
			j.srcs = append(j.srcs, sp)
		}
	}
	return jobs, nil
}
