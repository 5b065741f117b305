package steps

import "math"

// ProjectLayout2D places cluster centroids on a [0,1]x[0,1] map via a
// two-component PCA projection. The layout is display-only and never feeds
// similarity or classification; the assignment model stays independently
// testable.
func ProjectLayout2D(centroids [][]float32) [][2]float64 {
	n := len(centroids)
	out := make([][2]float64, n)
	if n == 0 {
		return out
	}
	dim := len(centroids[0])
	if n == 1 || dim == 0 {
		for i := range out {
			out[i] = [2]float64{0.5, 0.5}
		}
		return out
	}

	// Center the data.
	mean := make([]float64, dim)
	for _, c := range centroids {
		for d := 0; d < dim; d++ {
			mean[d] += float64(c[d])
		}
	}
	for d := 0; d < dim; d++ {
		mean[d] /= float64(n)
	}
	centered := make([][]float64, n)
	for i, c := range centroids {
		row := make([]float64, dim)
		for d := 0; d < dim; d++ {
			row[d] = float64(c[d]) - mean[d]
		}
		centered[i] = row
	}

	pc1 := principalComponent(centered, nil)
	pc2 := principalComponent(centered, pc1)

	raw := make([][2]float64, n)
	for i, row := range centered {
		raw[i] = [2]float64{dot(row, pc1), dot(row, pc2)}
	}
	return normalizeUnitSquare(raw)
}

// principalComponent runs power iteration against the implicit covariance
// matrix, using matrix-vector products through the data so the DxD
// covariance is never materialized. A non-nil deflate vector is projected
// out each step to recover the second component.
func principalComponent(centered [][]float64, deflate []float64) []float64 {
	if len(centered) == 0 {
		return nil
	}
	dim := len(centered[0])
	v := make([]float64, dim)
	// Deterministic start keeps fits reproducible.
	for d := 0; d < dim; d++ {
		v[d] = 1.0 / math.Sqrt(float64(dim)+float64(d))
	}
	if deflate != nil {
		projectOut(v, deflate)
	}
	normalize(v)

	const iterations = 60
	next := make([]float64, dim)
	for iter := 0; iter < iterations; iter++ {
		for d := range next {
			next[d] = 0
		}
		for _, row := range centered {
			s := dot(row, v)
			for d := 0; d < dim; d++ {
				next[d] += s * row[d]
			}
		}
		if deflate != nil {
			projectOut(next, deflate)
		}
		if norm(next) < 1e-12 {
			break
		}
		normalize(next)
		copy(v, next)
	}
	return v
}

func normalizeUnitSquare(points [][2]float64) [][2]float64 {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p[0])
		maxX = math.Max(maxX, p[0])
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}
	out := make([][2]float64, len(points))
	for i, p := range points {
		x, y := 0.5, 0.5
		if maxX > minX {
			x = (p[0] - minX) / (maxX - minX)
		}
		if maxY > minY {
			y = (p[1] - minY) / (maxY - minY)
		}
		out[i] = [2]float64{x, y}
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func normalize(v []float64) {
	n := norm(v)
	if n == 0 {
		return
	}
	for i := range v {
		v[i] /= n
	}
}

func projectOut(v, direction []float64) {
	s := dot(v, direction)
	for i := range v {
		v[i] -= s * direction[i]
	}
}
