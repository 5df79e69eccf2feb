package workflow

import "time"

// Summary aggregates the counters of one pipeline run.
type Summary struct {
	RunID     string
	TargetDir string
	StartedAt time.Time
	Duration  time.Duration

	// Directories is the number of directories the extraction walk visited.
	Directories int
	// Candidates is the number of archives the detector selected.
	Candidates int
	Extracted  int
	Skipped    int
	Failed     int

	Synced bool

	CleanedPaths   int
	MarkersRemoved int
	CleanupErrors  int

	// Err is the error that aborted the run, nil for runs that made it to
	// the end. Per-archive extraction failures are counted in Failed and do
	// not set Err.
	Err error
}

// ExitCode maps the run outcome to a process exit status. Non-zero covers an
// aborted run (lock held, preflight failure, sync failure, cancellation) and
// completed runs with extraction failures. Cleanup errors alone do not make
// the run non-zero; they are reported per path and retried next pass.
func (s Summary) ExitCode() int {
	if s.Err != nil || s.Failed > 0 {
		return 1
	}
	return 0
}

// Clean reports whether the run finished without any failure at all,
// including cleanup errors.
func (s Summary) Clean() bool {
	return s.Err == nil && s.Failed == 0 && s.CleanupErrors == 0
}
