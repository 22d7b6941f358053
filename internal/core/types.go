package core

import (
	"context"

	"etfpulse/internal/types"
)

// State names one position in the pipeline state machine. Transitions are
// strictly forward; a run ends in Done or Failed and nowhere else.
type State string

const (
	StateIdle              State = "Idle"
	StateFetchPrimary      State = "FetchPrimary"
	StateValidatePrimary   State = "ValidatePrimary"
	StateFetchSecondary    State = "FetchSecondary"
	StateValidateSecondary State = "ValidateSecondary"
	StateFetchTimestamp    State = "FetchTimestamp"
	StateValidateTimestamp State = "ValidateTimestamp"
	StateTransform         State = "Transform"
	StatePersist           State = "Persist"
	StateFilter            State = "Filter"
	StateAnalyze           State = "Analyze"
	StateDone              State = "Done"
	StateFailed            State = "Failed"
)

// Workflow selects which path the orchestrator drives.
type Workflow string

const (
	// WorkflowHistorical appends today's fetch to the cumulative dataset
	// and compares it against an earlier day of the same source.
	WorkflowHistorical Workflow = "historical"
	// WorkflowCompare fetches two different listings, snapshots both and
	// compares them against each other.
	WorkflowCompare Workflow = "compare"
)

// Result is the product of a run that reached Done. Provenance lists where
// the run's data came from, for notification footers and nothing else.
type Result struct {
	Workflow   Workflow
	RunDate    string
	Summary    string
	Provenance []types.Provenance
}

// Journal records runs, attempts and fetch provenance for auditing. The
// sqlite implementation lives in store/sqlite; tests substitute their own.
type Journal interface {
	BeginRun(ctx context.Context, workflow string) (int64, error)
	RecordAttempt(ctx context.Context, runID int64, stage string, attempt int, outcome, reason string) error
	RecordFetch(ctx context.Context, runID int64, stage, source, url string) error
	FinishRun(ctx context.Context, runID int64, state, reason string) error
}
