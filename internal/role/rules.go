package role

import (
	"math"

	"neurochord/internal/model"
	"neurochord/internal/pca"
)

// Empirical multipliers applied to the population medians.
const (
	lowFreqFactor       = 0.7
	highFreqFactor      = 1.5
	sustainedRateFactor = 0.8
	highRateFactor      = 1.5
)

// Absolute gates on activity, variability and synchronization. Traces are
// normalized into [0,1] upstream, so these are fractions of full scale.
const (
	lowSyncThreshold  = 0.35
	highSyncThreshold = 0.5
	lowCoVThreshold   = 0.4
	highCoVThreshold  = 0.6
	highActivity      = 0.6
	notableActivity   = 0.25
	someActivity      = 0.2
	modestActivity    = 0.15
	secondaryAxisSpan = 1.5
)

// signal bundles everything a rule predicate may look at.
type signal struct {
	stats    model.ClusterSignalStats
	baseline PopulationBaseline
	cov      float64
	// secondaryAxis is the magnitude of the cluster centroid on the second
	// embedding component, 0 when fewer than two components exist.
	secondaryAxis float64
}

func (s signal) lowFreq() bool {
	return s.stats.OscillationHz < lowFreqFactor*s.baseline.MedianOscillationHz
}

func (s signal) highFreq() bool {
	return s.stats.OscillationHz > highFreqFactor*s.baseline.MedianOscillationHz &&
		s.stats.OscillationHz > 0
}

func (s signal) midFreq() bool {
	return !s.lowFreq() && !s.highFreq()
}

func (s signal) sustained() bool {
	return s.stats.SpikeRate <= sustainedRateFactor*s.baseline.MedianSpikeRate
}

func (s signal) highSpikeRate() bool {
	return s.stats.SpikeRate > highRateFactor*s.baseline.MedianSpikeRate &&
		s.stats.SpikeRate > 0
}

func (s signal) moderateSpikeRate() bool {
	return s.stats.SpikeRate > sustainedRateFactor*s.baseline.MedianSpikeRate &&
		s.stats.SpikeRate > 0
}

// rule pairs a predicate with the role it assigns. Rules are evaluated in
// order and the first match wins; several predicates can hold for the same
// cluster, so the order is part of the contract.
type rule struct {
	role  model.Role
	match func(signal) bool
}

var rules = []rule{
	{model.RolePercussion, func(s signal) bool {
		return s.highSpikeRate() && s.stats.Synchronization < lowSyncThreshold
	}},
	{model.RoleBass, func(s signal) bool {
		return s.lowFreq() && (s.cov < lowCoVThreshold || s.stats.MeanActivity > highActivity)
	}},
	{model.RoleLead, func(s signal) bool {
		return s.highFreq() && s.cov > highCoVThreshold && s.stats.MeanActivity > notableActivity
	}},
	{model.RoleSustain, func(s signal) bool {
		return s.highFreq() && s.sustained() && s.stats.MeanActivity > modestActivity
	}},
	{model.RoleEnsemble, func(s signal) bool {
		return s.midFreq() && s.sustained() &&
			(s.stats.Synchronization > highSyncThreshold || s.stats.MeanActivity > someActivity)
	}},
	{model.RoleTimbral, func(s signal) bool {
		return s.secondaryAxis > secondaryAxisSpan && s.stats.MeanActivity > modestActivity
	}},
	{model.RolePluck, func(s signal) bool {
		return s.moderateSpikeRate() && s.midFreq()
	}},
	{model.RoleNeutral, func(signal) bool { return true }},
}

// Assign classifies one cluster. The same cluster, dataset and embedding
// always produce the same label.
func Assign(cluster model.Cluster, dataset model.Dataset, embedding pca.Result, baseline PopulationBaseline) (model.Role, model.ClusterSignalStats) {
	stats := ClusterStats(cluster, dataset)

	sig := signal{stats: stats, baseline: baseline}
	if stats.MeanActivity != 0 {
		sig.cov = math.Sqrt(stats.Variance) / stats.MeanActivity
	}
	if len(embedding.Components) > 1 && len(cluster.Centroid) > 1 {
		sig.secondaryAxis = math.Abs(cluster.Centroid[1])
	}

	for _, r := range rules {
		if r.match(sig) {
			return r.role, stats
		}
	}
	return model.RoleNeutral, stats
}
