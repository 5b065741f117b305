package steps

import (
	"fmt"
	"math"
	"math/rand"
)

// Spherical Gaussian mixture fit by expectation-maximization. Small n
// (hundreds to low thousands of documents) and modest k keep the brute
// force E-step affordable.

type GMMResult struct {
	Centroids  [][]float32
	Posteriors [][]float64 // item x cluster
	Weights    []float64
	Variances  []float64
}

func FitGMM(vectors [][]float32, k, maxIter int, seed int64) (*GMMResult, error) {
	n := len(vectors)
	if n == 0 {
		return nil, fmt.Errorf("gmm: no vectors")
	}
	if k <= 0 {
		return nil, fmt.Errorf("gmm: k must be positive, got %d", k)
	}
	if k > n {
		k = n
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("gmm: vector %d has dim %d, expected %d", i, len(v), dim)
		}
	}
	if maxIter <= 0 {
		maxIter = 50
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := kmeansPlusPlusInit(vectors, k, rng)
	weights := make([]float64, k)
	variances := make([]float64, k)
	for j := 0; j < k; j++ {
		weights[j] = 1.0 / float64(k)
		variances[j] = 1.0
	}

	posteriors := make([][]float64, n)
	for i := range posteriors {
		posteriors[i] = make([]float64, k)
	}

	prevLL := math.Inf(-1)
	for iter := 0; iter < maxIter; iter++ {
		// E-step: responsibilities in log space.
		var ll float64
		for i, v := range vectors {
			logProbs := make([]float64, k)
			for j := 0; j < k; j++ {
				d2 := squaredDistance(v, centroids[j])
				logProbs[j] = math.Log(weights[j]) - d2/(2*variances[j]) - float64(dim)/2*math.Log(2*math.Pi*variances[j])
			}
			norm := logSumExp(logProbs)
			ll += norm
			for j := 0; j < k; j++ {
				posteriors[i][j] = math.Exp(logProbs[j] - norm)
			}
		}

		// M-step.
		for j := 0; j < k; j++ {
			var resp float64
			for i := 0; i < n; i++ {
				resp += posteriors[i][j]
			}
			if resp < 1e-10 {
				// Dead component: reseed on the point worst explained.
				centroids[j] = append([]float32(nil), vectors[rng.Intn(n)]...)
				weights[j] = 1.0 / float64(n)
				variances[j] = 1.0
				continue
			}
			weights[j] = resp / float64(n)
			mean := make([]float64, dim)
			for i := 0; i < n; i++ {
				for d := 0; d < dim; d++ {
					mean[d] += posteriors[i][j] * float64(vectors[i][d])
				}
			}
			for d := 0; d < dim; d++ {
				mean[d] /= resp
				centroids[j][d] = float32(mean[d])
			}
			var varSum float64
			for i := 0; i < n; i++ {
				varSum += posteriors[i][j] * squaredDistance(vectors[i], centroids[j])
			}
			variances[j] = varSum / (resp * float64(dim))
			if variances[j] < 1e-6 {
				variances[j] = 1e-6
			}
		}

		if iter > 0 && math.Abs(ll-prevLL) < 1e-6*math.Abs(prevLL)+1e-9 {
			break
		}
		prevLL = ll
	}

	return &GMMResult{
		Centroids:  centroids,
		Posteriors: posteriors,
		Weights:    weights,
		Variances:  variances,
	}, nil
}

func kmeansPlusPlusInit(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	n := len(vectors)
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, append([]float32(nil), vectors[rng.Intn(n)]...))
	dists := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, v := range vectors {
			best := math.Inf(1)
			for _, c := range centroids {
				if d := squaredDistance(v, c); d < best {
					best = d
				}
			}
			dists[i] = best
			total += best
		}
		if total == 0 {
			centroids = append(centroids, append([]float32(nil), vectors[rng.Intn(n)]...))
			continue
		}
		target := rng.Float64() * total
		var acc float64
		pick := n - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, append([]float32(nil), vectors[pick]...))
	}
	return centroids
}

func squaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func logSumExp(xs []float64) float64 {
	max := math.Inf(-1)
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	var sum float64
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return max + math.Log(sum)
}
