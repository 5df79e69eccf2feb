// Package workflow runs the unpakr pipeline against one target tree: acquire
// the per-target lock, walk the tree extracting archive groups, optionally
// sync the tree to a remote, and optionally remove extracted content that a
// completion marker records. Steps run strictly in sequence; a run is the
// unit the lock, the journal, and notifications all key on.
package workflow
