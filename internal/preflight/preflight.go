package preflight

import (
	"context"

	"unpakr/internal/config"
	"unpakr/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Target tree (always checked; the lock file is created there).
	results = append(results, CheckDirectoryAccess("Target directory", cfg.Paths.TargetDir))

	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = "found"
		} else if status.Optional {
			result.Passed = true
		}
		results = append(results, result)
	}

	return results
}

// CheckSystemDeps evaluates the external binaries the configured steps need.
// Both the watch daemon and the CLI status command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	var requirements []deps.Requirement
	if cfg.Unpack.Enabled {
		for _, binary := range cfg.UnpackBinaries() {
			requirements = append(requirements, deps.Requirement{
				Name:        binary,
				Command:     binary,
				Description: "Required for archive extraction",
			})
		}
	}
	if cfg.Sync.Enabled {
		requirements = append(requirements, deps.Requirement{
			Name:        cfg.SyncBinary(),
			Command:     cfg.SyncBinary(),
			Description: "Required for remote sync",
		})
	}
	return deps.CheckBinaries(requirements)
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
