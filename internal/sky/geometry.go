package sky

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sky images are equirectangular over the upper hemisphere: columns span
// azimuth [0, 2π), rows run from the zenith (row 0) down to the horizon.

const minElevation = 0.03

// Layer describes the cloud slab in cloud-space units (one unit is one
// density-map texel).
type Layer struct {
	Base      float32
	Thickness float32
	// ShapePeriod and DetailPeriod are the horizontal tiling lengths of the
	// shape and detail volumes.
	ShapePeriod  float32
	DetailPeriod float32
	Steps        int
}

// DefaultLayer returns the slab used by the simulation.
func DefaultLayer() Layer {
	return Layer{Base: 48, Thickness: 24, ShapePeriod: 96, DetailPeriod: 24, Steps: 16}
}

func (l Layer) mid() float32 { return l.Base + l.Thickness/2 }

// geometry caches per-column and per-row trigonometry for one image size.
type geometry struct {
	w, h   int
	cosAz  []float32
	sinAz  []float32
	elev   []float32
	radius []float32 // horizontal distance to the slab mid plane per row
}

func newGeometry(w, h int, layer Layer) *geometry {
	g := &geometry{
		w: w, h: h,
		cosAz:  make([]float32, w),
		sinAz:  make([]float32, w),
		elev:   make([]float32, h),
		radius: make([]float32, h),
	}
	for x := 0; x < w; x++ {
		az := azimuth(float32(x), w)
		g.cosAz[x] = float32(math.Cos(float64(az)))
		g.sinAz[x] = float32(math.Sin(float64(az)))
	}
	for y := 0; y < h; y++ {
		el := elevation(float32(y), h)
		g.elev[y] = el
		g.radius[y] = layer.mid() / float32(math.Tan(float64(el)))
	}
	return g
}

func azimuth(x float32, w int) float32 {
	return 2 * math.Pi * (x + 0.5) / float32(w)
}

func elevation(y float32, h int) float32 {
	el := math.Pi / 2 * (1 - (y+0.5)/float32(h))
	if el < minElevation {
		el = minElevation
	}
	return el
}

// direction returns the unit view ray for texel (x, y).
func (g *geometry) direction(x, y int) mgl32.Vec3 {
	el := float64(g.elev[y])
	ce := float32(math.Cos(el))
	return mgl32.Vec3{ce * g.cosAz[x], float32(math.Sin(el)), ce * g.sinAz[x]}
}

// reproject returns the fractional source texel that showed the content now
// seen through texel (x, y) after the content moved by shift.
func (g *geometry) reproject(x, y int, shift mgl32.Vec2, layer Layer) (float32, float32) {
	r := g.radius[y]
	px := r*g.cosAz[x] - shift[0]
	pz := r*g.sinAz[x] - shift[1]
	dist := math.Hypot(float64(px), float64(pz))
	az := math.Atan2(float64(pz), float64(px))
	if az < 0 {
		az += 2 * math.Pi
	}
	el := math.Atan2(float64(layer.mid()), dist)
	sx := float32(az/(2*math.Pi))*float32(g.w) - 0.5
	sy := (1-float32(el/(math.Pi/2)))*float32(g.h) - 0.5
	return sx, sy
}
