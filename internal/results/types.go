package results

import "time"

// #region run
// Run is one invocation of a batch command.
type Run struct {
	RunID      string
	Kind       string // "segment-batch" | "replay-batch" | "ap-replay-batch" | ...
	Args       map[string]any
	StartedAt  time.Time
	FinishedAt *time.Time
}

// #endregion run

// #region outcome
// Outcome is the result of processing one demo within a run.
type Outcome struct {
	ID            string
	RunID         string
	Demo          string
	Failed        bool
	FailureReason string
	OutputPath    string
	Stats         map[string]any
	CreatedAt     time.Time
}

// RunStats counts a run's outcomes.
type RunStats struct {
	Total  int
	Failed int
}

// #endregion outcome
