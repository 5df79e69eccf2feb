package history

import "time"

// Run status values persisted in the journal.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one pipeline invocation against a target tree.
type Run struct {
	ID           string
	TargetDir    string
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       string
	Directories  int
	Extracted    int
	Skipped      int
	Failed       int
	Synced       bool
	CleanedPaths int
	Error        string
}

// Finished reports whether the run has a recorded end time.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// RunSummary carries the final counters written when a run ends.
type RunSummary struct {
	Directories  int
	Extracted    int
	Skipped      int
	Failed       int
	Synced       bool
	CleanedPaths int
	Status       string
	Error        string
}

// Extraction is one archive attempt recorded under a run.
type Extraction struct {
	ID          int64
	RunID       string
	ArchivePath string
	Outcome     string
	NewPaths    int
	Duration    time.Duration
	Error       string
	CreatedAt   time.Time
}
