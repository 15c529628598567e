// Package sky maintains the double-buffered sky image. Each tick re-marches
// one sixteenth of a low-resolution update buffer and recombines it with the
// previous sky image, reprojected for viewer and wind motion.
package sky

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"cloudsky/internal/core"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Slices is the length of the refresh cycle.
	Slices = 16
	// Scale is the per-axis ratio between sky and update buffers.
	Scale = 4
	// Channels holds RGB and opacity.
	Channels = 4
	// Unwritten is the opacity of update texels that were never marched.
	Unwritten = -1

	blockSide = 4
)

// ErrUnknownBackend is returned for kernel backend names missing from the
// executor registry.
var ErrUnknownBackend = errors.New("sky: unknown kernel backend")

// ResolveBackend looks up a registered executor. An empty name selects the
// parallel backend.
func ResolveBackend(name string) (core.Executor, error) {
	if name == "" {
		name = core.ExecutorParallel
	}
	exec, ok := core.LookupExecutor(name)
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownBackend, name, strings.Join(core.ExecutorNames(), ", "))
	}
	return exec, nil
}

// SliceOf returns the refresh slice owning update texel (x, y).
func SliceOf(x, y int) int {
	return (y%blockSide)*blockSide + x%blockSide
}

// Options configures an Updater.
type Options struct {
	// Quality is the update buffer width. It must be a positive multiple of 8.
	Quality  int
	Shape    *core.Volume
	Detail   *core.Volume
	Executor core.Executor
	Layer    Layer
}

// TickInput is everything one tick reads.
type TickInput struct {
	// Wind is the accumulated wind position in cloud units.
	Wind mgl32.Vec2
	// Viewer is the viewer's horizontal position in cloud units.
	Viewer mgl32.Vec2
	// Shift is the content motion relative to the viewer since the last tick.
	Shift    mgl32.Vec2
	Lighting Lighting
	Density  *core.Grid
	// First marks warm-up ticks; recombination then copies refreshed update
	// texels without filtering across neighbours.
	First bool
}

type frameInputs struct {
	viewer     mgl32.Vec2
	shapeWind  mgl32.Vec2
	detailWind mgl32.Vec2
	sun        mgl32.Vec3
	lighting   Lighting
	density    *core.Grid
}

// Updater owns the update buffer and the two sky buffers.
type Updater struct {
	quality int
	layer   Layer
	exec    core.Executor
	shape   *core.Volume
	detail  *core.Volume

	update  *core.Grid
	buffers [2]*core.Grid
	current int
	frame   int
	visited int
	ticks   int

	updateGeo *geometry
	skyGeo    *geometry
	writes    []uint16
}

// NewUpdater allocates the buffers for opts.Quality. Invalid sizes or missing
// volumes are programming errors and panic.
func NewUpdater(opts Options) *Updater {
	q := opts.Quality
	if q <= 0 || q%8 != 0 {
		panic(fmt.Sprintf("sky: quality %d is not a positive multiple of 8", q))
	}
	if opts.Shape == nil || opts.Detail == nil {
		panic("sky: shape and detail volumes are required")
	}
	exec := opts.Executor
	if exec == nil {
		exec = core.SerialExecutor{}
	}
	layer := opts.Layer
	if layer.Steps <= 0 {
		layer = DefaultLayer()
	}

	update := core.NewGrid(q, q/2, Channels)
	cells := update.Cells()
	for i := Channels - 1; i < len(cells); i += Channels {
		cells[i] = Unwritten
	}
	sw, sh := q*Scale, q/2*Scale
	return &Updater{
		quality:   q,
		layer:     layer,
		exec:      exec,
		shape:     opts.Shape,
		detail:    opts.Detail,
		update:    update,
		buffers:   [2]*core.Grid{core.NewGrid(sw, sh, Channels), core.NewGrid(sw, sh, Channels)},
		visited:   -1,
		updateGeo: newGeometry(q, q/2, layer),
		skyGeo:    newGeometry(sw, sh, layer),
	}
}

// Quality reports the update buffer width.
func (u *Updater) Quality() int { return u.quality }

// Layer reports the cloud slab geometry.
func (u *Updater) Layer() Layer { return u.layer }

// UpdateBuffer exposes the low-resolution buffer. Read-only for callers.
func (u *Updater) UpdateBuffer() *core.Grid { return u.update }

// Current returns the sky buffer holding the latest complete image.
func (u *Updater) Current() *core.Grid { return u.buffers[u.current] }

// CurrentIndex reports which of the two sky buffers is current.
func (u *Updater) CurrentIndex() int { return u.current }

// Buffer returns sky buffer i (0 or 1).
func (u *Updater) Buffer(i int) *core.Grid { return u.buffers[i] }

// Frame reports the slice the next tick will refresh.
func (u *Updater) Frame() int { return u.frame }

// VisitedSlice reports the slice refreshed by the last tick, or -1 before
// the first tick.
func (u *Updater) VisitedSlice() int { return u.visited }

// Warm reports whether every update texel has been marched at least once.
func (u *Updater) Warm() bool { return u.ticks >= Slices }

// TrackWrites enables or disables per-texel write counting and resets the
// counters.
func (u *Updater) TrackWrites(enable bool) {
	if !enable {
		u.writes = nil
		return
	}
	u.writes = make([]uint16, u.update.W*u.update.H)
}

// UpdateTouched returns the per-texel write counts collected since
// TrackWrites(true), indexed y*W+x. Nil when tracking is off.
func (u *Updater) UpdateTouched() []uint16 { return u.writes }

// Tick refreshes one slice, recombines into the inactive sky buffer, flips
// the buffers and advances the frame counter. It returns the new current
// buffer.
func (u *Updater) Tick(in TickInput) *core.Grid {
	if u.frame < 0 || u.frame >= Slices {
		panic(fmt.Sprintf("sky: frame counter %d out of range", u.frame))
	}
	if in.Density == nil {
		panic("sky: tick without a density map")
	}
	slice := u.frame
	fi := u.prepare(in)
	u.recompute(slice, &fi)
	u.recombine(slice, in.Shift, in.First || !u.Warm())

	u.visited = slice
	u.ticks++
	u.frame = (u.frame + 1) % Slices
	return u.buffers[u.current]
}

func (u *Updater) prepare(in TickInput) frameInputs {
	sun := in.Lighting.SunDirection
	if sun.Len() == 0 {
		sun = DefaultLighting().SunDirection
	}
	return frameInputs{
		viewer:     in.Viewer,
		shapeWind:  foldVec(in.Wind, u.layer.ShapePeriod),
		detailWind: foldVec(in.Wind, u.layer.DetailPeriod),
		sun:        sun.Normalize(),
		lighting:   in.Lighting,
		density:    in.Density,
	}
}

// recompute marches every update texel of the slice. Rows are disjoint
// across workers, so the write counters need no locking.
func (u *Updater) recompute(slice int, in *frameInputs) {
	sx, sy := slice%blockSide, slice/blockSide
	w := u.update.W
	u.exec.Rows(u.update.H, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			if y%blockSide != sy {
				continue
			}
			for x := sx; x < w; x += blockSide {
				u.update.SetTexel(x, y, u.march(u.updateGeo.direction(x, y), in))
				if u.writes != nil {
					u.writes[y*w+x]++
				}
			}
		}
	})
}

// recombine writes the inactive buffer and makes it current. Sky texels
// whose update texel was refreshed take the new value; the rest carry the
// previous image forward along the shift.
func (u *Updater) recombine(slice int, shift mgl32.Vec2, nearest bool) {
	next := 1 - u.current
	src, dst := u.buffers[u.current], u.buffers[next]
	if src == dst {
		panic("sky: recombination would overwrite the current buffer")
	}
	still := shift == (mgl32.Vec2{})
	upd := u.update
	u.exec.Rows(dst.H, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			uy := y / Scale
			fy := (float32(y)+0.5)/Scale - 0.5
			for x := 0; x < dst.W; x++ {
				ux := x / Scale
				switch {
				case SliceOf(ux, uy) == slice && nearest:
					dst.SetTexel(x, y, upd.Texel(ux, uy))
				case SliceOf(ux, uy) == slice:
					fx := (float32(x)+0.5)/Scale - 0.5
					dst.SetTexel(x, y, upd.BilinearTexel(fx, fy))
				case still:
					dst.SetTexel(x, y, src.Texel(x, y))
				default:
					rx, ry := u.skyGeo.reproject(x, y, shift, u.layer)
					dst.SetTexel(x, y, src.BilinearTexel(rx, ry))
				}
			}
		}
	})
	u.current = next
}

func foldVec(v mgl32.Vec2, period float32) mgl32.Vec2 {
	p := float64(period)
	return mgl32.Vec2{float32(math.Mod(float64(v[0]), p)), float32(math.Mod(float64(v[1]), p))}
}
