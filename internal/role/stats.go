// Package role classifies clusters of neurons into the eight symbolic
// instrument categories consumed by the downstream synthesizer. Thresholds
// adapt to the dataset's own median statistics rather than fixed constants,
// which keeps the classification stable across recordings with different
// frame rates or units.
package role

import (
	"math"

	"neurochord/internal/model"
)

const (
	// maxAutocorrLag bounds the lag sweep when estimating oscillation.
	maxAutocorrLag = 50
	// spikeStdFactor: a frame-to-frame increase beyond this many standard
	// deviations of the trace counts as a spike.
	spikeStdFactor = 2.0
	// medianSampleLimit caps how many neurons are examined when estimating
	// population medians.
	medianSampleLimit = 100
)

// PopulationBaseline holds the dataset-relative reference statistics the
// classification rules compare against.
type PopulationBaseline struct {
	MedianOscillationHz float64
	MedianSpikeRate     float64
}

// Baseline estimates population medians from a sample of up to
// medianSampleLimit neurons. Sampling is an even stride over the neuron
// list, so the baseline is deterministic for a given dataset.
func Baseline(dataset model.Dataset) PopulationBaseline {
	n := len(dataset.Neurons)
	if n == 0 {
		return PopulationBaseline{}
	}
	step := 1
	if n > medianSampleLimit {
		step = n / medianSampleLimit
	}

	var freqs, rates []float64
	for i := 0; i < n; i += step {
		trace := dataset.Neurons[i].Trace
		freqs = append(freqs, OscillationHz(trace, dataset.FPS))
		rates = append(rates, SpikeRate(trace, dataset.FPS))
	}
	return PopulationBaseline{
		MedianOscillationHz: median(freqs),
		MedianSpikeRate:     median(rates),
	}
}

// ClusterStats computes the biological signal properties of one cluster from
// the raw traces of its member neurons.
func ClusterStats(cluster model.Cluster, dataset model.Dataset) model.ClusterSignalStats {
	var stats model.ClusterSignalStats
	if len(cluster.Members) == 0 {
		return stats
	}

	var sum, count float64
	for _, m := range cluster.Members {
		for _, x := range dataset.Neurons[m].Trace {
			if !isFinite(x) {
				continue
			}
			sum += x
			count++
		}
	}
	if count > 0 {
		stats.MeanActivity = sum / count
		var sq float64
		for _, m := range cluster.Members {
			for _, x := range dataset.Neurons[m].Trace {
				if !isFinite(x) {
					continue
				}
				d := x - stats.MeanActivity
				sq += d * d
			}
		}
		stats.Variance = sq / count
	}

	var freqSum, rateSum float64
	for _, m := range cluster.Members {
		trace := dataset.Neurons[m].Trace
		freqSum += OscillationHz(trace, dataset.FPS)
		rateSum += SpikeRate(trace, dataset.FPS)
	}
	members := float64(len(cluster.Members))
	stats.OscillationHz = freqSum / members
	stats.SpikeRate = rateSum / members
	stats.Synchronization = synchronization(cluster, dataset)
	return stats
}

// OscillationHz estimates the dominant oscillation frequency by sweeping
// autocorrelation lags 2..min(len/2, maxAutocorrLag) and converting the lag
// with the highest raw lag product into Hz.
func OscillationHz(trace []float64, fps float64) float64 {
	maxLag := len(trace) / 2
	if maxLag > maxAutocorrLag {
		maxLag = maxAutocorrLag
	}
	if maxLag < 2 || fps <= 0 {
		return 0
	}

	bestLag := 0
	bestCorr := math.Inf(-1)
	for lag := 2; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(trace); i++ {
			a, b := trace[i], trace[i+lag]
			if !isFinite(a) || !isFinite(b) {
				continue
			}
			corr += a * b
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 {
		return 0
	}
	return fps / float64(bestLag)
}

// SpikeRate counts frame-to-frame increases exceeding spikeStdFactor times
// the trace's own standard deviation, reported per second.
func SpikeRate(trace []float64, fps float64) float64 {
	if len(trace) < 2 || fps <= 0 {
		return 0
	}
	_, std := meanStd(trace)
	threshold := spikeStdFactor * std

	spikes := 0
	for i := 1; i < len(trace); i++ {
		if !isFinite(trace[i]) || !isFinite(trace[i-1]) {
			continue
		}
		if trace[i]-trace[i-1] > threshold {
			spikes++
		}
	}
	duration := float64(len(trace)) / fps
	return float64(spikes) / duration
}

// synchronization is the mean pairwise zero-lag Pearson correlation between
// the traces of a cluster's members. Pairs with a flat trace contribute
// nothing.
func synchronization(cluster model.Cluster, dataset model.Dataset) float64 {
	members := cluster.Members
	if len(members) < 2 {
		return 0
	}

	var total float64
	var pairs int
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			a := dataset.Neurons[members[i]].Trace
			b := dataset.Neurons[members[j]].Trace
			total += pearson(a, b)
			pairs++
		}
	}
	return total / float64(pairs)
}

func pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	meanA, stdA := meanStd(a[:n])
	meanB, stdB := meanStd(b[:n])
	if stdA == 0 || stdB == 0 {
		return 0
	}
	var dot float64
	var count int
	for i := 0; i < n; i++ {
		if !isFinite(a[i]) || !isFinite(b[i]) {
			continue
		}
		dot += (a[i] - meanA) * (b[i] - meanB)
		count++
	}
	if count == 0 {
		return 0
	}
	return dot / (float64(count) * stdA * stdB)
}

func meanStd(trace []float64) (float64, float64) {
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
		return 0, 0
	}
	mean := sum / float64(count)
	var sq float64
	for _, x := range trace {
		if !isFinite(x) {
			continue
		}
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(count))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
