// Package state tracks pipeline run history in SQLite: one row per run and
// one row per executed stage, with row counts and timings.
package state

import "time"

// RunStatus is the lifecycle status of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// StageStatus is the outcome of a single stage within a run.
type StageStatus string

const (
	StageStatusSuccess StageStatus = "success"
	StageStatusFailed  StageStatus = "failed"
	StageStatusSkipped StageStatus = "skipped"
)

// Run is one end-to-end pipeline execution.
type Run struct {
	ID          string
	Environment string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// StageRun is the recorded outcome of one stage within a run.
type StageRun struct {
	ID          string
	RunID       string
	Stage       string
	Status      StageStatus
	RowsIn      int
	RowsOut     int
	RowsDropped int
	ExecutionMS int64
	Detail      string
}

// Store persists run history. Implementations are best-effort collaborators:
// the pipeline logs store failures but never fails a run on them.
type Store interface {
	CreateRun(env string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetRun(id string) (*Run, error)
	GetLatestRun(env string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
	RecordStage(sr *StageRun) error
	ListStageRuns(runID string) ([]*StageRun, error)
	Close() error
}
