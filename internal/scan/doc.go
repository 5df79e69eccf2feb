// Package scan discovers work: it walks the target tree and detects primary
// archive volumes inside each directory.
//
// The walker is deliberately sequential and lazy; the detector is
// non-recursive and driven once per visited directory. Neither consults
// completion markers; skipping already-extracted archives is the extraction
// layer's job.
package scan
