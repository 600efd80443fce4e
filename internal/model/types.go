package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// BiasCheckpoint is a snapshot of one restraint's windowed histogram state
// after a window update. The potential itself owns no persisted state;
// checkpoints are written by an observer the driver wires up, so restart
// tooling can rebuild the window history elsewhere.
type BiasCheckpoint struct {
	VersionedRecord
	RunID               string      `json:"run_id"`
	Restraint           string      `json:"restraint"`
	WindowIndex         int         `json:"window_index"`
	SimulationTime      float64     `json:"simulation_time"`
	WorkingDistribution []float64   `json:"working_distribution"`
	Windows             [][]float64 `json:"windows"`
	SampleFill          int         `json:"sample_fill"`
}
