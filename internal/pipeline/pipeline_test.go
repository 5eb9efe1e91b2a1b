package pipeline

import (
	"math"
	"reflect"
	"sort"
	"testing"

	"neurochord/internal/model"
)

func syntheticDataset(name string, neurons, frames int) model.Dataset {
	dataset := model.Dataset{Name: name, FPS: 30}
	for i := 0; i < neurons; i++ {
		trace := make([]float64, frames)
		for f := range trace {
			phase := 2 * math.Pi * float64(f) / float64(frames)
			// Two behavioral groups: slow large oscillators and fast
			// low-amplitude ones.
			if i%2 == 0 {
				trace[f] = 0.5 + 0.4*math.Sin(3*phase)
			} else {
				trace[f] = 0.2 + 0.1*math.Sin(20*phase+float64(i))
			}
		}
		dataset.Neurons = append(dataset.Neurons, model.Neuron{Trace: trace})
	}
	return dataset
}

func TestRunEmptyDataset(t *testing.T) {
	result := Run(model.Dataset{Name: "empty"}, Options{})
	if len(result.Features) != 0 {
		t.Fatalf("expected no features, got %d", len(result.Features))
	}
	if len(result.Embedding.Transformed) != 0 {
		t.Fatalf("expected empty embedding, got %d points", len(result.Embedding.Transformed))
	}
	if len(result.Clusters) != 0 {
		t.Fatalf("expected no clusters, got %d", len(result.Clusters))
	}
}

func TestRunPartitionInvariant(t *testing.T) {
	dataset := syntheticDataset("partition", 24, 150)
	result := Run(dataset, Options{Clusters: 4})

	var members []int
	for _, c := range result.Clusters {
		members = append(members, c.Members...)
	}
	if len(members) != 24 {
		t.Fatalf("partition covers %d neurons, want 24", len(members))
	}
	sort.Ints(members)
	for i, m := range members {
		if m != i {
			t.Fatalf("neuron %d missing or duplicated in partition", i)
		}
	}
}

func TestRunDeterministicWithoutExplicitSeed(t *testing.T) {
	dataset := syntheticDataset("determinism", 16, 120)
	a := Run(dataset, Options{})
	b := Run(dataset, Options{})
	if a.Seed != b.Seed {
		t.Fatalf("derived seeds differ: %d vs %d", a.Seed, b.Seed)
	}
	if !reflect.DeepEqual(a.Clusters, b.Clusters) {
		t.Fatal("cluster partitions differ between identical runs")
	}
	if !reflect.DeepEqual(a.Embedding.Transformed, b.Embedding.Transformed) {
		t.Fatal("embeddings differ between identical runs")
	}
	if !reflect.DeepEqual(a.Roles, b.Roles) {
		t.Fatal("role assignments differ between identical runs")
	}
}

func TestRunSeedOverrideChangesDerivation(t *testing.T) {
	dataset := syntheticDataset("override", 12, 100)
	seed := uint32(12345)
	result := Run(dataset, Options{Seed: &seed})
	if result.Seed != seed {
		t.Fatalf("seed = %d, want override %d", result.Seed, seed)
	}
}

func TestRunAutoSelectionAttachesRecommendation(t *testing.T) {
	dataset := syntheticDataset("auto", 20, 150)
	result := Run(dataset, Options{})
	if result.Recommendation == nil {
		t.Fatal("auto run must attach a recommendation")
	}
	rec := result.Recommendation
	if rec.OptimalK < 2 || rec.OptimalK > 8 {
		t.Fatalf("recommended k = %d, want within [2,8]", rec.OptimalK)
	}
	if len(result.Clusters) != rec.OptimalK {
		t.Fatalf("run produced %d clusters but recommended %d", len(result.Clusters), rec.OptimalK)
	}

	forced := Run(dataset, Options{Clusters: 3})
	if forced.Recommendation != nil {
		t.Fatal("forced-k run must not attach a recommendation")
	}
	if len(forced.Clusters) != 3 {
		t.Fatalf("forced run produced %d clusters, want 3", len(forced.Clusters))
	}
}

func TestRunAssignsOneRolePerCluster(t *testing.T) {
	dataset := syntheticDataset("roles", 18, 150)
	result := Run(dataset, Options{Clusters: 3})
	if len(result.Roles) != len(result.Clusters) {
		t.Fatalf("%d roles for %d clusters", len(result.Roles), len(result.Clusters))
	}
	known := map[model.Role]bool{}
	for _, r := range model.Roles() {
		known[r] = true
	}
	for i, r := range result.Roles {
		if !known[r] {
			t.Fatalf("cluster %d got unknown role %q", i, r)
		}
	}
}

func TestRecordsMatchClusters(t *testing.T) {
	dataset := syntheticDataset("records", 10, 100)
	result := Run(dataset, Options{Clusters: 2})
	records := result.Records()
	if len(records) != len(result.Clusters) {
		t.Fatalf("%d records for %d clusters", len(records), len(result.Clusters))
	}
	for i, rec := range records {
		if rec.ID != result.Clusters[i].ID {
			t.Fatalf("record %d id mismatch", i)
		}
		if rec.Role != result.Roles[i] {
			t.Fatalf("record %d role mismatch", i)
		}
	}
}

func TestRunTinyDataset(t *testing.T) {
	// Fewer than four neurons short-circuits k selection but must still
	// produce a complete partition.
	dataset := syntheticDataset("tiny", 2, 80)
	result := Run(dataset, Options{})
	total := 0
	for _, c := range result.Clusters {
		total += len(c.Members)
	}
	if total != 2 {
		t.Fatalf("partition covers %d neurons, want 2", total)
	}
}
