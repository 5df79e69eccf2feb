// Package services defines shared utilities consumed by the pipeline steps and
// external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, directories, and archive paths for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (fatal vs per-archive) consistent across the pipeline.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// stays uniform.
package services
