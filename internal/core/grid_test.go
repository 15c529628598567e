package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestGridWrapAndValue(t *testing.T) {
	g := NewGrid(4, 3, 1)
	g.SetValue(3, 2, 0.75)
	if got := g.Value(-1, -1); got != 0.75 {
		t.Fatalf("wrapped value = %v, want 0.75", got)
	}
	if x, y := g.Wrap(9, -4); x != 1 || y != 2 {
		t.Fatalf("Wrap(9,-4) = (%d,%d), want (1,2)", x, y)
	}
}

func TestGridBilinearHitsTexelsAndInterpolates(t *testing.T) {
	g := NewGrid(2, 2, 1)
	g.SetValue(0, 0, 0)
	g.SetValue(1, 0, 1)
	g.SetValue(0, 1, 0)
	g.SetValue(1, 1, 1)

	if got := g.Bilinear(1, 0); got != 1 {
		t.Fatalf("Bilinear at texel = %v, want 1", got)
	}
	if got := g.Bilinear(0.5, 0.5); math.Abs(float64(got-0.5)) > 1e-6 {
		t.Fatalf("Bilinear midpoint = %v, want 0.5", got)
	}
	// x wraps from texel 1 back to texel 0.
	if got := g.Bilinear(1.5, 0); math.Abs(float64(got-0.5)) > 1e-6 {
		t.Fatalf("Bilinear across wrap = %v, want 0.5", got)
	}
}

func TestGridBilinearTexelClampsRows(t *testing.T) {
	g := NewGrid(2, 2, 4)
	g.SetTexel(0, 1, mgl32.Vec4{1, 2, 3, 4})
	g.SetTexel(1, 1, mgl32.Vec4{1, 2, 3, 4})

	got := g.BilinearTexel(0, 5)
	if got != (mgl32.Vec4{1, 2, 3, 4}) {
		t.Fatalf("clamped sample = %v", got)
	}
	got = g.BilinearTexel(0, -3)
	if got != (mgl32.Vec4{}) {
		t.Fatalf("clamped top sample = %v", got)
	}
}

func TestGridCopyFromPanicsOnMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mismatched copy")
		}
	}()
	NewGrid(2, 2, 1).CopyFrom(NewGrid(2, 2, 4))
}

func TestVolumeSampleWrapsAndInterpolates(t *testing.T) {
	v := NewVolume(4)
	v.Set(0, 0, 0, mgl32.Vec4{1, 0, 0, 0})
	if got := v.Sample(mgl32.Vec3{0, 0, 0}); got[0] != 1 {
		t.Fatalf("Sample at origin = %v", got)
	}
	if got := v.Sample(mgl32.Vec3{1, 1, 1}); got[0] != 1 {
		t.Fatalf("Sample at one full period = %v", got)
	}
	half := v.Sample(mgl32.Vec3{0.125, 0, 0})
	if math.Abs(float64(half[0]-0.5)) > 1e-6 {
		t.Fatalf("Sample between cells = %v, want 0.5", half[0])
	}
	if got := v.At(-4, 4, 8); got[0] != 1 {
		t.Fatalf("At wraps = %v", got)
	}
}
