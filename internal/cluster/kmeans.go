// Package cluster partitions embedded neuron points into groups with similar
// dynamics. Seeding follows k-means++ and every random draw goes through the
// run's deterministic source, so a fixed seed reproduces the partition.
package cluster

import (
	"gonum.org/v1/gonum/floats"

	"neurochord/internal/detrand"
	"neurochord/internal/model"
)

const (
	// DefaultMaxIterations bounds Lloyd's iteration for a standalone run.
	DefaultMaxIterations = 100
	// DefaultTolerance is the centroid movement below which the run stops.
	DefaultTolerance = 1e-6
)

// KMeans partitions points into k clusters. k is clamped to the number of
// points; empty input yields no clusters. Every point ends up in exactly one
// cluster and cluster IDs run 0..k-1.
func KMeans(rng *detrand.Source, points [][]float64, k, maxIterations int, tolerance float64) []model.Cluster {
	n := len(points)
	if n == 0 || k < 1 {
		return nil
	}
	if k > n {
		k = n
	}
	if maxIterations < 1 {
		maxIterations = DefaultMaxIterations
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	centroids := seedCentroids(rng, points, k)
	assignments := make([]int, n)

	for iter := 0; iter < maxIterations; iter++ {
		for i, p := range points {
			assignments[i] = nearestCentroid(p, centroids)
		}

		moved := 0.0
		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, len(points[0]))
		}
		for i, p := range points {
			c := assignments[i]
			counts[c]++
			floats.Add(sums[c], p)
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Reseed an emptied cluster to a random data point so no
				// centroid degenerates to NaN.
				next := points[rng.IntN(n)]
				moved = tolerance + 1
				copy(centroids[c], next)
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			if d := floats.Distance(sums[c], centroids[c], 2); d > moved {
				moved = d
			}
			copy(centroids[c], sums[c])
		}
		if moved < tolerance {
			break
		}
	}

	for i, p := range points {
		assignments[i] = nearestCentroid(p, centroids)
	}

	clusters := make([]model.Cluster, k)
	for c := range clusters {
		clusters[c] = model.Cluster{ID: c, Centroid: centroids[c], Members: []int{}}
	}
	for i, c := range assignments {
		clusters[c].Members = append(clusters[c].Members, i)
	}
	return clusters
}

// seedCentroids implements k-means++: the first centroid is uniform, each
// later one is drawn with probability proportional to the squared distance
// to its nearest already-chosen centroid.
func seedCentroids(rng *detrand.Source, points [][]float64, k int) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	first := make([]float64, len(points[0]))
	copy(first, points[rng.IntN(n)])
	centroids = append(centroids, first)

	distances := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d := nearestCentroidDistance(p, centroids)
			distances[i] = d * d
			total += distances[i]
		}

		idx := 0
		if total > 0 {
			// Roulette wheel over the cumulative squared distances.
			target := rng.Next() * total
			cum := 0.0
			for i, d := range distances {
				cum += d
				if cum >= target {
					idx = i
					break
				}
			}
		} else {
			// All points coincide with existing centroids.
			idx = rng.IntN(n)
		}

		next := make([]float64, len(points[idx]))
		copy(next, points[idx])
		centroids = append(centroids, next)
	}
	return centroids
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := floats.Distance(p, centroids[0], 2)
	for c := 1; c < len(centroids); c++ {
		if d := floats.Distance(p, centroids[c], 2); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func nearestCentroidDistance(p []float64, centroids [][]float64) float64 {
	best := floats.Distance(p, centroids[0], 2)
	for c := 1; c < len(centroids); c++ {
		if d := floats.Distance(p, centroids[c], 2); d < best {
			best = d
		}
	}
	return best
}

// Inertia is the sum of squared distances from each point to the centroid of
// its cluster.
func Inertia(points [][]float64, clusters []model.Cluster) float64 {
	var total float64
	for _, cluster := range clusters {
		for _, i := range cluster.Members {
			d := floats.Distance(points[i], cluster.Centroid, 2)
			total += d * d
		}
	}
	return total
}
