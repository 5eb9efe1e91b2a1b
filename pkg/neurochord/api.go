// Package neurochord is the public entry point: load a recording, analyze
// it into clusters with synthesizer roles, persist the run and inspect or
// export earlier runs.
package neurochord

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"neurochord/internal/dataextract"
	"neurochord/internal/model"
	"neurochord/internal/pipeline"
	"neurochord/internal/stats"
	"neurochord/internal/storage"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultExportsDir   = "exports"
	defaultDBPath       = "neurochord.db"
)

// Options configure a client.
type Options struct {
	// StoreKind picks the persistence backend: "memory" (default) or
	// "sqlite".
	StoreKind string
	// DBPath is the sqlite file, when that backend is selected.
	DBPath string
	// ArtifactsDir receives per-run artifact directories.
	ArtifactsDir string
	// ExportsDir is the default target for Export.
	ExportsDir string
}

// Client owns the store and artifact locations for a sequence of analyses.
type Client struct {
	store        storage.Store
	storeReady   bool
	artifactsDir string
	exportsDir   string
}

// AnalyzeRequest describes one analysis.
type AnalyzeRequest struct {
	// Dataset is the recording to analyze. Ignored when ManifestPath is
	// set.
	Dataset model.Dataset
	// ManifestPath loads the dataset from a YAML manifest instead.
	ManifestPath string
	// Clusters forces the cluster count; zero selects automatically.
	Clusters int
	// MaxK bounds automatic selection.
	MaxK int
	// Components is the embedding dimensionality.
	Components int
	// Seed overrides the dataset identity seed when non-nil.
	Seed *uint32
}

// ClusterSummary is one cluster in an AnalysisSummary.
type ClusterSummary struct {
	ID              int
	Role            model.Role
	Size            int
	MeanActivity    float64
	OscillationHz   float64
	SpikeRate       float64
	Synchronization float64
}

// AnalysisSummary reports one completed run.
type AnalysisSummary struct {
	RunID          string
	Dataset        string
	Seed           uint32
	Clusters       []ClusterSummary
	Recommendation *model.ClusterCountRecommendation
	ArtifactsDir   string
}

// RunsRequest lists stored runs.
type RunsRequest struct {
	Limit int
}

// RunItem is one stored run in a listing.
type RunItem struct {
	RunID        string
	Dataset      string
	NeuronCount  int
	FrameCount   int
	Seed         uint32
	ClusterCount int
	AutoSelected bool
	CreatedAtUTC string
}

// ExportRequest copies a run's artifacts out of the artifacts tree.
type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

// ExportSummary reports where an export landed.
type ExportSummary struct {
	RunID     string
	Directory string
}

// RoleInfo describes one entry of the fixed role vocabulary.
type RoleInfo struct {
	Role        model.Role
	Description string
}

// New builds a client. The zero Options value selects the in-memory store
// and default directories.
func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

// Close releases the store.
func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Analyze runs the full pipeline on a dataset, persists the resulting
// record and writes the run artifacts.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (AnalysisSummary, error) {
	dataset := req.Dataset
	if req.ManifestPath != "" {
		loaded, err := dataextract.LoadDataset(req.ManifestPath)
		if err != nil {
			return AnalysisSummary{}, err
		}
		dataset = loaded
	}
	if dataset.Name == "" {
		return AnalysisSummary{}, errors.New("dataset name is required")
	}

	result := pipeline.Run(dataset, pipeline.Options{
		Clusters:   req.Clusters,
		MaxK:       req.MaxK,
		Components: req.Components,
		Seed:       req.Seed,
	})

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%d", dataset.Name, result.Seed, now.Unix())

	record := model.AnalysisRecord{
		RunID:        runID,
		Dataset:      dataset.Name,
		NeuronCount:  len(dataset.Neurons),
		FrameCount:   dataset.FrameCount(),
		FPS:          dataset.FPS,
		Seed:         result.Seed,
		Components:   len(result.Embedding.Components),
		Clusters:     result.Records(),
		CreatedAtUTC: now.Format(time.RFC3339),
	}
	var rec *model.ClusterCountRecommendation
	if result.Recommendation != nil {
		recCopy := *result.Recommendation
		rec = &recCopy
		record.Recommendation = rec
	}

	if err := c.ensureStore(ctx); err != nil {
		return AnalysisSummary{}, err
	}
	if err := c.store.SaveAnalysis(ctx, record); err != nil {
		return AnalysisSummary{}, fmt.Errorf("save analysis: %w", err)
	}

	runDir, err := c.writeArtifacts(dataset, record, result)
	if err != nil {
		return AnalysisSummary{}, err
	}

	summary := AnalysisSummary{
		RunID:          runID,
		Dataset:        dataset.Name,
		Seed:           result.Seed,
		Recommendation: rec,
		ArtifactsDir:   runDir,
	}
	for i, cluster := range result.Clusters {
		summary.Clusters = append(summary.Clusters, ClusterSummary{
			ID:              cluster.ID,
			Role:            result.Roles[i],
			Size:            len(cluster.Members),
			MeanActivity:    result.Stats[i].MeanActivity,
			OscillationHz:   result.Stats[i].OscillationHz,
			SpikeRate:       result.Stats[i].SpikeRate,
			Synchronization: result.Stats[i].Synchronization,
		})
	}
	return summary, nil
}

// Runs lists stored analyses, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	records, err := c.store.ListAnalyses(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]RunItem, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		record := records[i]
		items = append(items, RunItem{
			RunID:        record.RunID,
			Dataset:      record.Dataset,
			NeuronCount:  record.NeuronCount,
			FrameCount:   record.FrameCount,
			Seed:         record.Seed,
			ClusterCount: len(record.Clusters),
			AutoSelected: record.Recommendation != nil,
			CreatedAtUTC: record.CreatedAtUTC,
		})
	}
	if req.Limit > 0 && len(items) > req.Limit {
		items = items[:req.Limit]
	}
	return items, nil
}

// Export copies a run's artifacts (by id, or the most recent run when
// Latest is set) into the export directory.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("run id or latest is required")
	}
	runID := req.RunID
	if runID == "" {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no indexed runs to export")
		}
		runID = entries[0].RunID
	}

	outDir := req.OutDir
	if outDir == "" {
		outDir = c.exportsDir
	}
	dst, err := stats.ExportRunArtifacts(c.artifactsDir, runID, outDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(dst)}, nil
}

// Roles returns the fixed vocabulary with synth-facing descriptions, in
// rule-priority order.
func Roles() []RoleInfo {
	return []RoleInfo{
		{model.RolePercussion, "sparse independent spikes; map to drums or rhythmic hits"},
		{model.RoleBass, "slow and steady or strongly active; map to a bass foundation"},
		{model.RoleLead, "fast and highly variable; map to a prominent lead voice"},
		{model.RoleSustain, "fast but smooth; map to sustained melodic lines"},
		{model.RoleEnsemble, "mid-tempo synchronized groups; map to chordal pads"},
		{model.RoleTimbral, "outliers on the secondary embedding axis; map to coloristic textures"},
		{model.RolePluck, "moderate spiking at mid tempo; map to plucked attacks"},
		{model.RoleNeutral, "no dominant character; map to a general-purpose patch"},
	}
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.storeReady {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.storeReady = true
	return nil
}

func (c *Client) writeArtifacts(dataset model.Dataset, record model.AnalysisRecord, result pipeline.Result) (string, error) {
	artifacts := stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:        record.RunID,
			Dataset:      record.Dataset,
			NeuronCount:  record.NeuronCount,
			FrameCount:   record.FrameCount,
			FPS:          record.FPS,
			Seed:         record.Seed,
			Components:   record.Components,
			RequestedK:   len(result.Clusters),
			AutoSelected: record.Recommendation != nil,
		},
	}
	for i, cluster := range result.Clusters {
		artifacts.Clusters = append(artifacts.Clusters, stats.ClusterArtifact{
			ID:              cluster.ID,
			Role:            string(result.Roles[i]),
			Size:            len(cluster.Members),
			Centroid:        cluster.Centroid,
			MeanActivity:    result.Stats[i].MeanActivity,
			OscillationHz:   result.Stats[i].OscillationHz,
			SpikeRate:       result.Stats[i].SpikeRate,
			Synchronization: result.Stats[i].Synchronization,
		})
		for _, member := range cluster.Members {
			artifacts.Assignments = append(artifacts.Assignments, stats.Assignment{
				Neuron:  member,
				Cluster: cluster.ID,
				Role:    string(result.Roles[i]),
			})
		}
	}
	if record.Recommendation != nil {
		artifacts.Recommendation = &stats.Recommendation{
			OptimalK:    record.Recommendation.OptimalK,
			Inertias:    record.Recommendation.Inertias,
			Silhouettes: record.Recommendation.Silhouettes,
		}
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, artifacts)
	if err != nil {
		return "", fmt.Errorf("write artifacts: %w", err)
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:        record.RunID,
		Dataset:      record.Dataset,
		NeuronCount:  record.NeuronCount,
		FrameCount:   record.FrameCount,
		Seed:         record.Seed,
		ClusterCount: len(record.Clusters),
		AutoSelected: record.Recommendation != nil,
		FPS:          record.FPS,
		CreatedAtUTC: record.CreatedAtUTC,
	}); err != nil {
		return "", fmt.Errorf("update run index: %w", err)
	}
	return runDir, nil
}
