// Package history journals pipeline runs in a local SQLite database.
//
// Each run gets a row with its final counters; every archive attempt is
// journaled beneath it. The journal backs the status command and nothing
// else: the filesystem's completion markers remain the only state the
// pipeline consults when deciding what to extract.
package history
