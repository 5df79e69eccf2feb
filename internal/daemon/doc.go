// Package daemon implements watch mode: a single long-lived process that
// re-runs the pipeline whenever the target tree changes. Filesystem events
// are debounced by a settle window so a run starts only after downloads stop
// arriving; a periodic ticker catches anything events missed. One watch
// instance per host is enforced with an advisory file lock, and every
// triggered run is still guarded by the per-target lock file.
package daemon
