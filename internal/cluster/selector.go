package cluster

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"neurochord/internal/detrand"
	"neurochord/internal/model"
)

const (
	// DefaultMaxK is the largest cluster count the selector tries.
	DefaultMaxK = 8
	// selectorIterations caps each candidate run; candidate partitions only
	// need rough quality, not full convergence.
	selectorIterations = 50
	// silhouetteGate is the score above which the silhouette
	// recommendation is trusted over the elbow.
	silhouetteGate = 0.3
	// minRecommendedK and maxRecommendedK bound the final recommendation.
	minRecommendedK = 2
	maxRecommendedK = 8
)

// RecommendK scores partitions for k = 1..maxK and combines the elbow and
// silhouette heuristics into a single advisory cluster count. Fewer than four
// points short-circuit to the trivial recommendation min(2, n).
func RecommendK(rng *detrand.Source, points [][]float64, maxK int) model.ClusterCountRecommendation {
	n := len(points)
	if maxK < 1 {
		maxK = DefaultMaxK
	}
	if n < 4 {
		k := 2
		if n < 2 {
			k = n
		}
		return model.ClusterCountRecommendation{OptimalK: k}
	}
	if maxK > n {
		maxK = n
	}

	inertias := make([]float64, maxK)
	silhouettes := make([]float64, maxK)
	for k := 1; k <= maxK; k++ {
		clusters := KMeans(rng, points, k, selectorIterations, DefaultTolerance)
		inertias[k-1] = Inertia(points, clusters)
		if k >= 2 {
			silhouettes[k-1] = meanSilhouette(points, clusters)
		}
	}

	elbowK := elbow(inertias)
	silhouetteK, bestScore := bestSilhouette(silhouettes)

	optimal := elbowK
	if bestScore > silhouetteGate {
		optimal = silhouetteK
	}
	if optimal < minRecommendedK {
		optimal = minRecommendedK
	}
	if optimal > maxRecommendedK {
		optimal = maxRecommendedK
	}

	return model.ClusterCountRecommendation{
		OptimalK:    optimal,
		Inertias:    inertias,
		Silhouettes: silhouettes,
	}
}

// elbow picks the k with the largest percentage inertia drop relative to the
// previous k. Percentage rather than absolute drop keeps the heuristic
// scale-free. Index i holds the inertia for k = i+1.
func elbow(inertias []float64) int {
	bestK := 1
	bestDrop := 0.0
	for i := 1; i < len(inertias); i++ {
		if inertias[i-1] <= 0 {
			continue
		}
		drop := (inertias[i-1] - inertias[i]) / inertias[i-1]
		if drop > bestDrop {
			bestDrop = drop
			bestK = i + 1
		}
	}
	return bestK
}

func bestSilhouette(silhouettes []float64) (int, float64) {
	bestK := 2
	bestScore := math.Inf(-1)
	for i := 1; i < len(silhouettes); i++ {
		if silhouettes[i] > bestScore {
			bestScore = silhouettes[i]
			bestK = i + 1
		}
	}
	return bestK, bestScore
}

// meanSilhouette averages the per-point silhouette width: cohesion against
// the own cluster versus separation from the nearest other cluster.
func meanSilhouette(points [][]float64, clusters []model.Cluster) float64 {
	memberOf := make([]int, len(points))
	for c, cluster := range clusters {
		for _, i := range cluster.Members {
			memberOf[i] = c
		}
	}

	var total float64
	for i, p := range points {
		own := clusters[memberOf[i]]
		a := meanDistanceTo(p, i, own.Members, points)

		b := math.Inf(1)
		for c, cluster := range clusters {
			if c == memberOf[i] || len(cluster.Members) == 0 {
				continue
			}
			if d := meanDistanceTo(p, -1, cluster.Members, points); d < b {
				b = d
			}
		}

		denom := math.Max(a, b)
		if denom > 0 && !math.IsInf(b, 1) {
			total += (b - a) / denom
		}
	}
	return total / float64(len(points))
}

func meanDistanceTo(p []float64, exclude int, members []int, points [][]float64) float64 {
	var sum float64
	var count int
	for _, m := range members {
		if m == exclude {
			continue
		}
		sum += floats.Distance(p, points[m], 2)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
