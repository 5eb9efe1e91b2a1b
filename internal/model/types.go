package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Point is a pixel coordinate inside the imaging frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Neuron is one segmented cell: its fluorescence trace, one value per frame,
// and the optional pixel outline of its region of interest.
type Neuron struct {
	Trace   []float64 `json:"trace"`
	Outline []Point   `json:"outline,omitempty"`
}

// Dataset is one loaded recording. All traces share the same frame count.
// Width and Height, when positive, give the imaging frame dimensions used to
// normalize spatial coordinates; otherwise the union bounding box is used.
type Dataset struct {
	Name    string   `json:"name"`
	FPS     float64  `json:"fps"`
	Width   float64  `json:"width,omitempty"`
	Height  float64  `json:"height,omitempty"`
	Neurons []Neuron `json:"neurons"`
}

// FrameCount returns the trace length shared by the dataset's neurons,
// or 0 for an empty dataset.
func (d Dataset) FrameCount() int {
	if len(d.Neurons) == 0 {
		return 0
	}
	return len(d.Neurons[0].Trace)
}

// Cluster is one group of neurons with similar dynamics. IDs are stable
// within a single clustering run only.
type Cluster struct {
	ID       int       `json:"id"`
	Centroid []float64 `json:"centroid"`
	Members  []int     `json:"members"`
}

// ClusterCountRecommendation is the advisory output of automatic cluster
// count selection. Inertias[i] and Silhouettes[i] correspond to k = i+1.
type ClusterCountRecommendation struct {
	OptimalK    int       `json:"optimal_k"`
	Inertias    []float64 `json:"inertias"`
	Silhouettes []float64 `json:"silhouettes"`
}

// Role is the symbolic instrument category a cluster maps to in the
// downstream synthesizer.
type Role string

const (
	// RolePercussion marks spike-dominated, weakly synchronized activity.
	RolePercussion Role = "percussion"
	// RoleBass marks slow, steady or strongly active foundations.
	RoleBass Role = "bass"
	// RoleLead marks fast, highly variable, clearly active dynamics.
	RoleLead Role = "lead"
	// RoleSustain marks fast but smooth, low-spike activity.
	RoleSustain Role = "sustain"
	// RoleEnsemble marks mid-frequency, synchronized group activity.
	RoleEnsemble Role = "ensemble"
	// RoleTimbral marks clusters far out on the secondary embedding axis.
	RoleTimbral Role = "timbral"
	// RolePluck marks moderate spiking at mid frequency.
	RolePluck Role = "pluck"
	// RoleNeutral is the fallback when no other rule fires.
	RoleNeutral Role = "neutral"
)

// Roles lists the full vocabulary in rule-priority order.
func Roles() []Role {
	return []Role{
		RolePercussion, RoleBass, RoleLead, RoleSustain,
		RoleEnsemble, RoleTimbral, RolePluck, RoleNeutral,
	}
}

// ClusterSignalStats are the biological signal properties computed from the
// raw traces of a cluster's member neurons.
type ClusterSignalStats struct {
	MeanActivity    float64 `json:"mean_activity"`
	Variance        float64 `json:"variance"`
	OscillationHz   float64 `json:"oscillation_hz"`
	SpikeRate       float64 `json:"spike_rate"`
	Synchronization float64 `json:"synchronization"`
}

// ClusterRecord is the persisted projection of one cluster: its partition
// data plus the derived role and signal statistics.
type ClusterRecord struct {
	Cluster
	Role  Role               `json:"role"`
	Stats ClusterSignalStats `json:"stats"`
}

// AnalysisRecord is one stored pipeline run.
type AnalysisRecord struct {
	VersionedRecord
	RunID          string                      `json:"run_id"`
	Dataset        string                      `json:"dataset"`
	NeuronCount    int                         `json:"neuron_count"`
	FrameCount     int                         `json:"frame_count"`
	FPS            float64                     `json:"fps"`
	Seed           uint32                      `json:"seed"`
	Components     int                         `json:"components"`
	Clusters       []ClusterRecord             `json:"clusters"`
	Recommendation *ClusterCountRecommendation `json:"recommendation,omitempty"`
	CreatedAtUTC   string                      `json:"created_at_utc"`
}
