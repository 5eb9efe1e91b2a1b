package role

import (
	"math"
	"testing"

	"neurochord/internal/detrand"
	"neurochord/internal/model"
	"neurochord/internal/pca"
)

func sineTrace(frames int, cycles float64, amplitude float64) []float64 {
	trace := make([]float64, frames)
	for i := range trace {
		trace[i] = 0.5 + amplitude*math.Sin(2*math.Pi*cycles*float64(i)/float64(frames))
	}
	return trace
}

func spikeTrace(frames, period, offset int) []float64 {
	trace := make([]float64, frames)
	for i := offset; i < frames; i += period {
		trace[i] = 1
	}
	return trace
}

func allMembers(n int) []int {
	members := make([]int, n)
	for i := range members {
		members[i] = i
	}
	return members
}

func TestOscillationHzEdgeCases(t *testing.T) {
	if hz := OscillationHz([]float64{0.1, 0.2, 0.3}, 30); hz != 0 {
		t.Fatalf("short trace hz = %v, want 0", hz)
	}
	if hz := OscillationHz(sineTrace(200, 5, 0.4), 0); hz != 0 {
		t.Fatalf("zero fps hz = %v, want 0", hz)
	}
	if hz := OscillationHz(sineTrace(200, 5, 0.4), 30); hz <= 0 {
		t.Fatalf("sine hz = %v, want > 0", hz)
	}
}

func TestOscillationHzDeterministic(t *testing.T) {
	trace := sineTrace(300, 7, 0.3)
	a := OscillationHz(trace, 15)
	b := OscillationHz(trace, 15)
	if a != b {
		t.Fatalf("oscillation estimate not stable: %v vs %v", a, b)
	}
}

func TestSpikeRate(t *testing.T) {
	if r := SpikeRate(make([]float64, 100), 30); r != 0 {
		t.Fatalf("flat trace spike rate = %v, want 0", r)
	}
	if r := SpikeRate(spikeTrace(100, 10, 5), 30); r <= 0 {
		t.Fatalf("spiky trace rate = %v, want > 0", r)
	}
	smooth := sineTrace(200, 2, 0.4)
	if r := SpikeRate(smooth, 30); r != 0 {
		t.Fatalf("slow sine spike rate = %v, want 0", r)
	}
}

func TestSynchronizationOfIdenticalOscillators(t *testing.T) {
	dataset := model.Dataset{FPS: 30, Neurons: []model.Neuron{
		{Trace: sineTrace(200, 5, 0.4)},
		{Trace: sineTrace(200, 5, 0.2)},
		{Trace: sineTrace(200, 5, 0.1)},
	}}
	cluster := model.Cluster{Members: allMembers(3)}
	stats := ClusterStats(cluster, dataset)
	if stats.Synchronization < 0.99 {
		t.Fatalf("in-phase sines sync = %v, want ~1", stats.Synchronization)
	}
}

func TestClusterStatsSingleMemberHasZeroSync(t *testing.T) {
	dataset := model.Dataset{FPS: 30, Neurons: []model.Neuron{{Trace: sineTrace(100, 3, 0.4)}}}
	stats := ClusterStats(model.Cluster{Members: []int{0}}, dataset)
	if stats.Synchronization != 0 {
		t.Fatalf("single member sync = %v, want 0", stats.Synchronization)
	}
	if stats.MeanActivity == 0 {
		t.Fatal("mean activity should be non-zero for a sine trace")
	}
}

func TestBaselineDeterministic(t *testing.T) {
	neurons := make([]model.Neuron, 250)
	for i := range neurons {
		neurons[i] = model.Neuron{Trace: sineTrace(120, float64(1+i%7), 0.3)}
	}
	dataset := model.Dataset{FPS: 20, Neurons: neurons}
	a := Baseline(dataset)
	b := Baseline(dataset)
	if a != b {
		t.Fatalf("baseline not deterministic: %+v vs %+v", a, b)
	}
	if a.MedianOscillationHz <= 0 {
		t.Fatalf("median oscillation = %v, want > 0", a.MedianOscillationHz)
	}
}

func TestRuleOrderFirstMatchWins(t *testing.T) {
	// A signal that satisfies both the percussion rule and the ensemble rule
	// must classify as percussion, which sits earlier in the cascade.
	sig := signal{
		stats: model.ClusterSignalStats{
			SpikeRate:       2,
			Synchronization: 0.1,
			MeanActivity:    0.5,
		},
		baseline: PopulationBaseline{MedianOscillationHz: 1, MedianSpikeRate: 0.5},
	}
	sig.stats.OscillationHz = 1 // mid frequency

	if !sig.highSpikeRate() || !sig.midFreq() {
		t.Fatal("test signal does not overlap the intended rules")
	}
	for _, r := range rules {
		if r.match(sig) {
			if r.role != model.RolePercussion {
				t.Fatalf("first matching rule = %s, want %s", r.role, model.RolePercussion)
			}
			break
		}
	}
}

func TestRulesEndInFallback(t *testing.T) {
	last := rules[len(rules)-1]
	if last.role != model.RoleNeutral {
		t.Fatalf("last rule = %s, want fallback %s", last.role, model.RoleNeutral)
	}
	if !last.match(signal{}) {
		t.Fatal("fallback rule must match any signal")
	}
}

func TestAssignIsStable(t *testing.T) {
	dataset := model.Dataset{Name: "stability", FPS: 30, Neurons: []model.Neuron{
		{Trace: sineTrace(200, 4, 0.3)},
		{Trace: sineTrace(200, 4, 0.2)},
	}}
	baseline := Baseline(dataset)
	cluster := model.Cluster{ID: 0, Centroid: []float64{0.1, 0.2}, Members: allMembers(2)}
	embedding := pca.Transform(detrand.New(1), [][]float64{{1, 2}, {3, 4}}, 2)

	first, _ := Assign(cluster, dataset, embedding, baseline)
	for i := 0; i < 5; i++ {
		again, _ := Assign(cluster, dataset, embedding, baseline)
		if again != first {
			t.Fatalf("assignment changed between calls: %s then %s", first, again)
		}
	}
}

func TestAssignSineEnsembleScenario(t *testing.T) {
	// Ten sine neurons of identical frequency and phase but different
	// amplitude: no spikes, full synchronization. Amplitude alone must not
	// force a spike-heavy classification.
	neurons := make([]model.Neuron, 10)
	for i := range neurons {
		neurons[i] = model.Neuron{Trace: sineTrace(200, 5, 0.05+0.04*float64(i))}
	}
	dataset := model.Dataset{Name: "sines", FPS: 30, Neurons: neurons}
	baseline := Baseline(dataset)
	cluster := model.Cluster{ID: 0, Centroid: []float64{0, 0}, Members: allMembers(10)}

	label, stats := Assign(cluster, dataset, pca.Result{}, baseline)
	if stats.SpikeRate != 0 {
		t.Fatalf("sine cluster spike rate = %v, want 0", stats.SpikeRate)
	}
	if label != model.RoleEnsemble && label != model.RoleBass {
		t.Fatalf("sine cluster role = %s, want %s or %s", label, model.RoleEnsemble, model.RoleBass)
	}
}

func TestAssignPercussionScenario(t *testing.T) {
	// Half the population fires sparse, mutually offset spikes; the other
	// half oscillates smoothly. The spiking cluster should read as
	// percussion: spike rate far above the population median, low pairwise
	// synchronization.
	neurons := make([]model.Neuron, 10)
	for i := 0; i < 5; i++ {
		neurons[i] = model.Neuron{Trace: spikeTrace(200, 17, i*3)}
	}
	for i := 5; i < 10; i++ {
		neurons[i] = model.Neuron{Trace: sineTrace(200, 3, 0.3)}
	}
	dataset := model.Dataset{Name: "mixed", FPS: 30, Neurons: neurons}
	baseline := Baseline(dataset)

	cluster := model.Cluster{ID: 0, Centroid: []float64{0, 0}, Members: []int{0, 1, 2, 3, 4}}
	label, stats := Assign(cluster, dataset, pca.Result{}, baseline)
	if stats.SpikeRate <= baseline.MedianSpikeRate {
		t.Fatalf("spiking cluster rate %v should exceed the median %v", stats.SpikeRate, baseline.MedianSpikeRate)
	}
	if label != model.RolePercussion {
		t.Fatalf("spiking cluster role = %s, want %s", label, model.RolePercussion)
	}
}
