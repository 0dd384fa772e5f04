package types

import "clinicsim/internal/runner"

type RunRequest struct {
	Goal      string            `json:"goal,omitempty"`
	Base      *runner.Scenario  `json:"base,omitempty"`
	Scenarios []runner.Scenario `json:"scenarios,omitempty"`
	Samples   int               `json:"samples,omitempty"`
	Seed      uint64            `json:"seed,omitempty"`
}

type ExportRequest struct {
	Scenario runner.Scenario `json:"scenario"`
}

type Event struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"ts,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

type SimulationPlan struct {
	PlanID   string    `json:"plan_id"`
	Goal     string    `json:"goal,omitempty"`
	Variants []Variant `json:"variants"`
}

type Variant struct {
	VariantID string          `json:"variant_id"`
	Scenario  runner.Scenario `json:"scenario"`
}

type SimulationResult struct {
	VariantID string         `json:"variant_id"`
	Summary   runner.Summary `json:"summary"`
	Error     string         `json:"error,omitempty"`
}

type Analysis struct {
	Winner         string   `json:"winner,omitempty"`
	Recommendation string   `json:"recommendation"`
	Overloaded     []string `json:"overloaded,omitempty"`
}

type Progress struct {
	VariantID string `json:"variant_id"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
}

type MetricsSnapshot struct {
	PlannerMs             int64   `json:"planner_ms"`
	SimulationMs          int64   `json:"simulation_ms"`
	ReplicationsPerSecond float64 `json:"replications_per_second"`
	RunsCompleted         int64   `json:"runs_completed"`
}
