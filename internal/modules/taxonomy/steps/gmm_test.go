package steps

import (
	"math"
	"testing"
)

// Two well-separated blobs in 2-D.
func blobVectors() [][]float32 {
	return [][]float32{
		{1.0, 0.1}, {0.95, 0.0}, {1.05, -0.05}, {0.9, 0.12},
		{-1.0, 0.1}, {-0.95, 0.0}, {-1.05, -0.08}, {-0.9, 0.05},
	}
}

func TestFitGMM_SeparatesBlobs(t *testing.T) {
	res, err := FitGMM(blobVectors(), 2, 50, 7)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(res.Centroids) != 2 || len(res.Posteriors) != 8 {
		t.Fatalf("unexpected shape: %d centroids, %d posterior rows", len(res.Centroids), len(res.Posteriors))
	}

	// One centroid should sit near each blob.
	signs := map[bool]bool{}
	for _, c := range res.Centroids {
		signs[c[0] > 0] = true
	}
	if !signs[true] || !signs[false] {
		t.Fatalf("expected one centroid per blob, got %v", res.Centroids)
	}

	// Every point should be confidently assigned to its own blob's component.
	for i, p := range res.Posteriors {
		best := 0
		if p[1] > p[0] {
			best = 1
		}
		sameSide := (blobVectors()[i][0] > 0) == (res.Centroids[best][0] > 0)
		if !sameSide || p[best] < 0.9 {
			t.Fatalf("point %d weakly or wrongly assigned: %v", i, p)
		}
	}
}

func TestFitGMM_PosteriorRowsSumToOne(t *testing.T) {
	res, err := FitGMM(blobVectors(), 3, 30, 1)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	for i, row := range res.Posteriors {
		var sum float64
		for _, p := range row {
			if p < 0 || p > 1 {
				t.Fatalf("row %d: posterior %v out of range", i, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Fatalf("row %d: posteriors sum to %v", i, sum)
		}
	}
}

func TestFitGMM_Deterministic(t *testing.T) {
	a, err := FitGMM(blobVectors(), 2, 50, 42)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	b, err := FitGMM(blobVectors(), 2, 50, 42)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	for i := range a.Posteriors {
		for j := range a.Posteriors[i] {
			if a.Posteriors[i][j] != b.Posteriors[i][j] {
				t.Fatalf("same seed should reproduce the fit exactly")
			}
		}
	}
}

func TestFitGMM_ClampsKToN(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}}
	res, err := FitGMM(vectors, 5, 10, 1)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(res.Centroids) != 2 {
		t.Fatalf("expected k clamped to n=2, got %d centroids", len(res.Centroids))
	}
}

func TestFitGMM_RejectsBadInput(t *testing.T) {
	if _, err := FitGMM(nil, 2, 10, 1); err == nil {
		t.Fatalf("expected an error for empty input")
	}
	if _, err := FitGMM([][]float32{{1, 0}}, 0, 10, 1); err == nil {
		t.Fatalf("expected an error for k=0")
	}
	if _, err := FitGMM([][]float32{{1, 0}, {1}}, 1, 10, 1); err == nil {
		t.Fatalf("expected an error for ragged vectors")
	}
}
