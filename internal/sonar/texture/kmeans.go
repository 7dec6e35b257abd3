package texture

import (
	"math"
	"math/rand"
	"time"
)

const (
	kmeansMaxIterations = 200
	kmeansRestarts      = 4
)

// kMeans clusters points (rows of equal-length feature vectors) into k
// groups and returns one label per point in [0, k). Initialization is
// kmeans++ from the supplied PRNG; the best of several restarts by
// within-cluster sum of squares wins. With a fixed PRNG the labelling is
// deterministic.
func kMeans(points [][]float64, k int, rng *rand.Rand) []int {
	n := len(points)
	labels := make([]int, n)
	if n == 0 || k < 1 {
		return labels
	}
	if k > n {
		k = n
	}
	dims := len(points[0])

	bestScore := math.Inf(1)
	best := make([]int, n)

	centers := make([][]float64, k)
	assign := make([]int, n)
	counts := make([]int, k)
	for restart := 0; restart < kmeansRestarts; restart++ {
		seedCenters(centers, points, k, rng)

		for iter := 0; iter < kmeansMaxIterations; iter++ {
			changed := false
			for i, p := range points {
				c := nearestCenter(p, centers)
				if assign[i] != c {
					assign[i] = c
					changed = true
				}
			}
			if !changed && iter > 0 {
				break
			}

			for c := range centers {
				counts[c] = 0
				for d := 0; d < dims; d++ {
					centers[c][d] = 0
				}
			}
			for i, p := range points {
				c := assign[i]
				counts[c]++
				for d, v := range p {
					centers[c][d] += v
				}
			}
			for c := range centers {
				if counts[c] == 0 {
					// Re-seed an emptied cluster on a random point.
					copy(centers[c], points[rng.Intn(n)])
					continue
				}
				for d := range centers[c] {
					centers[c][d] /= float64(counts[c])
				}
			}
		}

		score := 0.0
		for i, p := range points {
			score += sqDist(p, centers[assign[i]])
		}
		if score < bestScore {
			bestScore = score
			copy(best, assign)
		}
	}

	copy(labels, best)
	return labels
}

// seedCenters places k initial centers with kmeans++ weighting: the
// first uniformly, each next proportional to squared distance from the
// nearest chosen center.
func seedCenters(centers [][]float64, points [][]float64, k int, rng *rand.Rand) {
	n := len(points)
	dims := len(points[0])
	for c := range centers {
		if centers[c] == nil {
			centers[c] = make([]float64, dims)
		}
	}

	copy(centers[0], points[rng.Intn(n)])
	d2 := make([]float64, n)
	for c := 1; c < k; c++ {
		total := 0.0
		for i, p := range points {
			d2[i] = sqDist(p, centers[0])
			for j := 1; j < c; j++ {
				if d := sqDist(p, centers[j]); d < d2[i] {
					d2[i] = d
				}
			}
			total += d2[i]
		}
		if total == 0 {
			copy(centers[c], points[rng.Intn(n)])
			continue
		}
		target := rng.Float64() * total
		idx := 0
		for i, w := range d2 {
			target -= w
			if target <= 0 {
				idx = i
				break
			}
		}
		copy(centers[c], points[idx])
	}
}

func nearestCenter(p []float64, centers [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, center := range centers {
		if d := sqDist(p, center); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// newRNG builds the clustering PRNG. A zero seed falls back to the
// clock, which makes labellings permute between runs.
func newRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
