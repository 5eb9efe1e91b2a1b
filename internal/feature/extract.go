// Package feature turns raw neuron traces into fixed-length numeric vectors
// suitable for embedding and clustering, and standardizes them so that no
// single feature dominates by scale.
package feature

import (
	"math"

	"neurochord/internal/model"
)

// Dim is the length of every extracted feature vector: nine temporal
// statistics followed by the normalized spatial centroid.
const Dim = 11

// Positions of the individual features inside a vector.
const (
	Mean = iota
	Std
	Max
	Min
	Range
	TrendSlope
	CrossingFreq
	PeakDensity
	CoV
	NormX
	NormY
)

// Extract computes one Dim-length vector per neuron. An empty dataset yields
// an empty slice. Non-finite trace values are skipped during aggregation and
// neurons without usable outline coordinates fall back to a grid position
// derived from their index, so they do not collapse onto a single point.
func Extract(dataset model.Dataset) [][]float64 {
	n := len(dataset.Neurons)
	if n == 0 {
		return nil
	}

	centroids := make([]model.Point, n)
	hasCentroid := make([]bool, n)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, neuron := range dataset.Neurons {
		c, ok := outlineCentroid(neuron.Outline)
		centroids[i], hasCentroid[i] = c, ok
		if ok {
			minX = math.Min(minX, c.X)
			minY = math.Min(minY, c.Y)
			maxX = math.Max(maxX, c.X)
			maxY = math.Max(maxY, c.Y)
		}
	}

	vectors := make([][]float64, n)
	for i, neuron := range dataset.Neurons {
		v := make([]float64, Dim)
		temporal(neuron.Trace, v)
		x, y := spatial(dataset, centroids[i], hasCentroid[i], i, n, minX, minY, maxX, maxY)
		v[NormX], v[NormY] = x, y
		vectors[i] = v
	}
	return vectors
}

func temporal(trace []float64, v []float64) {
	var sum float64
	var count int
	for _, x := range trace {
		if !isFinite(x) {
			continue
		}
		sum += x
		count++
	}
	if count == 0 {
		return
	}
	mean := sum / float64(count)

	var sqSum float64
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, x := range trace {
		if !isFinite(x) {
			continue
		}
		d := x - mean
		sqSum += d * d
		minV = math.Min(minV, x)
		maxV = math.Max(maxV, x)
	}
	std := math.Sqrt(sqSum / float64(count))

	v[Mean] = mean
	v[Std] = std
	v[Max] = maxV
	v[Min] = minV
	v[Range] = maxV - minV
	v[TrendSlope] = trendSlope(trace)
	v[CrossingFreq] = crossingFrequency(trace, mean)
	v[PeakDensity] = peakDensity(trace, mean, std)
	if mean != 0 {
		v[CoV] = std / mean
	}
}

// trendSlope is the ordinary least-squares slope of the trace against frame
// index. Undefined for fewer than two usable frames, in which case it is 0.
func trendSlope(trace []float64) float64 {
	var n, sumX, sumY, sumXY, sumXX float64
	for i, y := range trace {
		if !isFinite(y) {
			continue
		}
		x := float64(i)
		n++
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	if n < 2 {
		return 0
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// crossingFrequency counts sign changes about the mean and scales the count
// to a per-frame frequency estimate (a full oscillation crosses twice).
func crossingFrequency(trace []float64, mean float64) float64 {
	if len(trace) == 0 {
		return 0
	}
	crossings := 0
	havePrev := false
	prevAbove := false
	for _, x := range trace {
		if !isFinite(x) {
			continue
		}
		above := x > mean
		if havePrev && above != prevAbove {
			crossings++
		}
		prevAbove = above
		havePrev = true
	}
	return float64(crossings) / (2 * float64(len(trace)))
}

// peakDensity counts local maxima exceeding mean+std, per frame.
func peakDensity(trace []float64, mean, std float64) float64 {
	if len(trace) == 0 {
		return 0
	}
	threshold := mean + std
	peaks := 0
	for i := 1; i < len(trace)-1; i++ {
		x := trace[i]
		if !isFinite(x) || !isFinite(trace[i-1]) || !isFinite(trace[i+1]) {
			continue
		}
		if x > trace[i-1] && x > trace[i+1] && x > threshold {
			peaks++
		}
	}
	return float64(peaks) / float64(len(trace))
}

func outlineCentroid(outline []model.Point) (model.Point, bool) {
	var sumX, sumY float64
	var count int
	for _, p := range outline {
		if !isFinite(p.X) || !isFinite(p.Y) {
			continue
		}
		sumX += p.X
		sumY += p.Y
		count++
	}
	if count == 0 {
		return model.Point{}, false
	}
	return model.Point{X: sumX / float64(count), Y: sumY / float64(count)}, true
}

// spatial normalizes a neuron's centroid into [0,1]. Explicit frame
// dimensions take precedence over the union bounding box of all centroids.
// Neurons without coordinates are placed on an index grid instead.
func spatial(dataset model.Dataset, c model.Point, ok bool, idx, n int, minX, minY, maxX, maxY float64) (float64, float64) {
	if !ok {
		grid := int(math.Ceil(math.Sqrt(float64(n))))
		return float64(idx%grid) / float64(grid), float64(idx/grid) / float64(grid)
	}
	if dataset.Width > 0 && dataset.Height > 0 {
		return c.X / dataset.Width, c.Y / dataset.Height
	}
	x, y := 0.0, 0.0
	if spanX := maxX - minX; spanX > 0 {
		x = (c.X - minX) / spanX
	}
	if spanY := maxY - minY; spanY > 0 {
		y = (c.Y - minY) / spanY
	}
	return x, y
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
