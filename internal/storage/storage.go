package storage

import (
	"context"
	"time"
)

// Storage defines the interface for persisting processing run history
type Storage interface {
	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// Status operations
	GetStats(ctx context.Context) (*Stats, error)

	// Database operations
	Close() error
}

// RunStatus is the lifecycle state of a run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run operations
const (
	OperationReformat = "reformat"
	OperationRewrite  = "rewrite"
)

// Run records one reformat or rewrite request
type Run struct {
	ID              string
	Operation       string
	Status          RunStatus
	Mode            string // Empty while running
	Provider        string
	Model           string
	Instruction     string // Rewrite only
	InputChars      int
	OutputChars     int
	ChunksProcessed int
	TotalChunks     int
	Error           *string // Nullable
	StartedAt       time.Time
	FinishedAt      *time.Time // Nullable
}

// Duration returns how long the run took, or zero while it is running
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunFilter narrows ListRuns results
type RunFilter struct {
	Operation string    // Empty matches all
	Status    RunStatus // Empty matches all
	Limit     int       // Zero means DefaultListLimit
}

// DefaultListLimit bounds ListRuns when no limit is given
const DefaultListLimit = 20

// Stats summarizes the run history
type Stats struct {
	TotalRuns       int
	Running         int
	Succeeded       int
	Failed          int
	ChunksProcessed int
	DatabaseSizeMB  float64
	LastRunAt       time.Time
}
