package density

import (
	"math"

	"cloudsky/internal/core"

	"github.com/ojrac/opensimplex-go"
)

// buildShape renders the tileable target-shape field: the three cloud-type
// patterns mixed by w. Values lie in [0, 1].
func buildShape(size int, seed int64, w Weights, exec core.Executor) *core.Grid {
	cumulus := opensimplex.New(seed)
	stratus := opensimplex.New(seed + 1)
	strato := opensimplex.New(seed + 2)

	g := core.NewGrid(size, size, 1)
	exec.Rows(size, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			v := float64(y) / float64(size)
			for x := 0; x < size; x++ {
				u := float64(x) / float64(size)
				s := float64(w.Cumulus)*cumulusPattern(cumulus, u, v) +
					float64(w.Stratus)*stratusPattern(stratus, u, v) +
					float64(w.Stratocumulus)*stratocumulusPattern(strato, u, v)
				g.SetValue(x, y, clamp01(float32(s)))
			}
		}
	})
	return g
}

// torus samples 4D noise on a torus so the 2D result tiles on [0,1)².
// fu and fv are the feature counts across each axis.
func torus(n opensimplex.Noise, u, v, fu, fv float64) float64 {
	a := 2 * math.Pi * u
	b := 2 * math.Pi * v
	ru := fu / (2 * math.Pi)
	rv := fv / (2 * math.Pi)
	return n.Eval4(ru*math.Cos(a), ru*math.Sin(a), rv*math.Cos(b), rv*math.Sin(b))
}

// Puffy, high-contrast heaps.
func cumulusPattern(n opensimplex.Noise, u, v float64) float64 {
	var sum, norm float64
	amp := 1.0
	for o := 0; o < 4; o++ {
		f := 8 * float64(int(1)<<o)
		sum += amp * torus(n, u, v, f, f)
		norm += amp
		amp *= 0.5
	}
	s := 0.5 + 0.5*sum/norm
	return s * s * (3 - 2*s)
}

// Broad sheets stretched along the x axis.
func stratusPattern(n opensimplex.Noise, u, v float64) float64 {
	s := 0.65*torus(n, u, v, 2, 6) + 0.35*torus(n, u, v, 4, 12)
	return 0.5 + 0.5*s
}

// Ridged, regularly broken rolls.
func stratocumulusPattern(n opensimplex.Noise, u, v float64) float64 {
	var sum, norm float64
	amp := 1.0
	for o := 0; o < 3; o++ {
		f := 5 * float64(int(1)<<o)
		sum += amp * (1 - math.Abs(torus(n, u, v, f, f)))
		norm += amp
		amp *= 0.5
	}
	return sum / norm
}

func smoothstep(edge0, edge1, x float32) float32 {
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}
