// Package stats writes the on-disk artifacts of an analysis run: the run
// configuration, the cluster/role listing, the cluster count recommendation
// and a per-neuron assignment table the synthesizer tooling can consume
// directly. It also maintains a JSON index across runs.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

const runIndexFile = "run_index.json"

// RunConfig records how an analysis was invoked.
type RunConfig struct {
	RunID        string  `json:"run_id"`
	Dataset      string  `json:"dataset"`
	NeuronCount  int     `json:"neuron_count"`
	FrameCount   int     `json:"frame_count"`
	FPS          float64 `json:"fps"`
	Seed         uint32  `json:"seed"`
	Components   int     `json:"components"`
	RequestedK   int     `json:"requested_k"`
	AutoSelected bool    `json:"auto_selected"`
}

// ClusterArtifact is one cluster's entry in clusters.json.
type ClusterArtifact struct {
	ID              int       `json:"id"`
	Role            string    `json:"role"`
	Size            int       `json:"size"`
	Centroid        []float64 `json:"centroid"`
	MeanActivity    float64   `json:"mean_activity"`
	OscillationHz   float64   `json:"oscillation_hz"`
	SpikeRate       float64   `json:"spike_rate"`
	Synchronization float64   `json:"synchronization"`
}

// Assignment is one row of assignments.csv.
type Assignment struct {
	Neuron  int
	Cluster int
	Role    string
}

// Recommendation mirrors the selector output for recommendation.json.
type Recommendation struct {
	OptimalK    int       `json:"optimal_k"`
	Inertias    []float64 `json:"inertias"`
	Silhouettes []float64 `json:"silhouettes"`
}

// RunArtifacts is everything written for one run.
type RunArtifacts struct {
	Config         RunConfig
	Clusters       []ClusterArtifact
	Assignments    []Assignment
	Recommendation *Recommendation
}

// RunIndexEntry is one line of the cross-run index.
type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Dataset      string  `json:"dataset"`
	NeuronCount  int     `json:"neuron_count"`
	FrameCount   int     `json:"frame_count"`
	Seed         uint32  `json:"seed"`
	ClusterCount int     `json:"cluster_count"`
	AutoSelected bool    `json:"auto_selected"`
	FPS          float64 `json:"fps"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// WriteRunArtifacts creates the run directory under baseDir and writes all
// artifact files into it, returning the directory path.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "clusters.json"), artifacts.Clusters); err != nil {
		return "", err
	}
	if artifacts.Recommendation != nil {
		if err := writeJSON(filepath.Join(runDir, "recommendation.json"), artifacts.Recommendation); err != nil {
			return "", err
		}
	}
	if err := writeAssignmentsCSV(filepath.Join(runDir, "assignments.csv"), artifacts.Assignments); err != nil {
		return "", err
	}

	return runDir, nil
}

// AppendRunIndex inserts or updates the run's entry in baseDir's index.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the indexed runs, newest first. Entries with equal
// timestamps keep later-appended ones first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run's artifact files into outDir/<runID>.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{"config.json", "clusters.json", "assignments.csv"} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	recPath := filepath.Join(src, "recommendation.json")
	if _, err := os.Stat(recPath); err == nil {
		if err := copyFile(recPath, filepath.Join(dst, "recommendation.json")); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}
	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func writeAssignmentsCSV(path string, assignments []Assignment) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"neuron", "cluster", "role"}); err != nil {
		return err
	}
	for _, a := range assignments {
		row := []string{strconv.Itoa(a.Neuron), strconv.Itoa(a.Cluster), a.Role}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush assignments csv: %w", err)
	}
	return file.Sync()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
