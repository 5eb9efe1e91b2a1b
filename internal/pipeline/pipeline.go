// Package pipeline wires the analysis stages together: feature extraction,
// standardization, embedding, clustering, cluster count selection and role
// assignment. One invocation owns everything it produces; the only shared
// piece of state, the random source, is created fresh per run from the
// dataset's identity seed.
package pipeline

import (
	"neurochord/internal/cluster"
	"neurochord/internal/detrand"
	"neurochord/internal/feature"
	"neurochord/internal/model"
	"neurochord/internal/pca"
	"neurochord/internal/role"
)

const (
	// DefaultComponents is the embedding dimensionality used when the
	// caller does not request one.
	DefaultComponents = 3
)

// Options control one analysis run.
type Options struct {
	// Clusters forces a cluster count. Zero selects the count
	// automatically and attaches the recommendation to the result.
	Clusters int
	// MaxK bounds automatic selection; defaults to cluster.DefaultMaxK.
	MaxK int
	// Components is the embedding dimensionality; defaults to
	// DefaultComponents and is clamped to the feature dimension.
	Components int
	// Seed overrides the dataset identity seed when non-nil.
	Seed *uint32
}

// Result is the full output of one run.
type Result struct {
	Seed           uint32
	Features       [][]float64
	Embedding      pca.Result
	Clusters       []model.Cluster
	Roles          []model.Role
	Stats          []model.ClusterSignalStats
	Recommendation *model.ClusterCountRecommendation
}

// Run executes the whole pipeline on a dataset. An empty dataset produces an
// empty Result and no error; reruns with identical input and seed are
// bit-identical.
func Run(dataset model.Dataset, opts Options) Result {
	seed := detrand.DatasetSeed(dataset.Name, len(dataset.Neurons), dataset.FrameCount())
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	result := Result{Seed: seed}

	if len(dataset.Neurons) == 0 {
		return result
	}

	rng := detrand.New(seed)

	result.Features = feature.Extract(dataset)
	standardized := feature.Standardize(result.Features)

	components := opts.Components
	if components <= 0 {
		components = DefaultComponents
	}
	result.Embedding = pca.Transform(rng, standardized, components)

	k := opts.Clusters
	if k <= 0 {
		maxK := opts.MaxK
		if maxK <= 0 {
			maxK = cluster.DefaultMaxK
		}
		rec := cluster.RecommendK(rng, result.Embedding.Transformed, maxK)
		result.Recommendation = &rec
		k = rec.OptimalK
	}

	result.Clusters = cluster.KMeans(rng, result.Embedding.Transformed, k,
		cluster.DefaultMaxIterations, cluster.DefaultTolerance)

	baseline := role.Baseline(dataset)
	result.Roles = make([]model.Role, len(result.Clusters))
	result.Stats = make([]model.ClusterSignalStats, len(result.Clusters))
	for i, c := range result.Clusters {
		result.Roles[i], result.Stats[i] = role.Assign(c, dataset, result.Embedding, baseline)
	}
	return result
}

// Records converts a run into the persisted cluster projections.
func (r Result) Records() []model.ClusterRecord {
	records := make([]model.ClusterRecord, len(r.Clusters))
	for i, c := range r.Clusters {
		records[i] = model.ClusterRecord{Cluster: c, Role: r.Roles[i], Stats: r.Stats[i]}
	}
	return records
}
