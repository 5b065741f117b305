package steps

import (
	"math"
	"testing"
)

func TestProjectLayout2D_StaysInUnitSquare(t *testing.T) {
	centroids := [][]float32{
		{1.0, 0.2, -0.3},
		{-0.5, 0.8, 0.1},
		{0.2, -0.9, 0.4},
		{0.7, 0.7, -0.6},
	}
	got := ProjectLayout2D(centroids)
	if len(got) != 4 {
		t.Fatalf("expected 4 points, got %d", len(got))
	}
	for i, p := range got {
		if p[0] < 0 || p[0] > 1 || p[1] < 0 || p[1] > 1 {
			t.Fatalf("point %d outside [0,1]^2: %v", i, p)
		}
	}
}

func TestProjectLayout2D_SpreadPreservesSeparation(t *testing.T) {
	// Three collinear centroids: the projection should keep their order on
	// the dominant axis and span the full range.
	centroids := [][]float32{
		{-1, 0, 0},
		{0, 0, 0},
		{1, 0, 0},
	}
	got := ProjectLayout2D(centroids)

	xs := []float64{got[0][0], got[1][0], got[2][0]}
	minX, maxX := math.Min(xs[0], math.Min(xs[1], xs[2])), math.Max(xs[0], math.Max(xs[1], xs[2]))
	if minX != 0 || maxX != 1 {
		t.Fatalf("expected x to span [0,1], got min=%v max=%v", minX, maxX)
	}
	if math.Abs(xs[1]-0.5) > 1e-6 {
		t.Fatalf("expected the middle centroid at x=0.5, got %v", xs[1])
	}
}

func TestProjectLayout2D_DegenerateInputs(t *testing.T) {
	if got := ProjectLayout2D(nil); len(got) != 0 {
		t.Fatalf("expected empty output for empty input")
	}

	single := ProjectLayout2D([][]float32{{0.3, 0.4}})
	if single[0] != [2]float64{0.5, 0.5} {
		t.Fatalf("expected a lone centroid centered, got %v", single[0])
	}

	identical := ProjectLayout2D([][]float32{{1, 1}, {1, 1}, {1, 1}})
	for i, p := range identical {
		if p != [2]float64{0.5, 0.5} {
			t.Fatalf("point %d: identical centroids should collapse to the center, got %v", i, p)
		}
	}
}
