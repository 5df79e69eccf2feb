// Package extract runs individual archive extractions: gate on the completion
// marker, snapshot the directory, invoke the unpack tool, and persist the list
// of newly introduced paths as the marker body.
//
// Extraction failures are local. A failed archive is reported in its Result
// and stays marker-less so the next run retries it; it never aborts the
// enclosing walk. Only context cancellation propagates as an error.
package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"unpakr/internal/logging"
	"unpakr/internal/marker"
	"unpakr/internal/scan"
	"unpakr/internal/services"
	"unpakr/internal/services/unpack"
)

// Outcome classifies the result of a single extraction attempt.
type Outcome string

const (
	// OutcomeExtracted means the archive was unpacked and its marker written.
	OutcomeExtracted Outcome = "extracted"
	// OutcomeSkipped means a completion marker already gated the archive.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the attempt failed; the archive stays retryable.
	OutcomeFailed Outcome = "failed"
)

// Result describes one extraction attempt.
type Result struct {
	Candidate scan.Candidate
	Outcome   Outcome
	// NewPaths lists the relative paths introduced by a successful extraction,
	// sorted; it mirrors the marker body.
	NewPaths []string
	// Stderr carries the unpack tool's captured error stream on failure.
	Stderr []byte
	// Err is the failure recorded for OutcomeFailed results.
	Err      error
	Duration time.Duration
}

// Extractor orchestrates single-archive extractions.
type Extractor struct {
	client  unpack.Client
	markers *marker.Store
	logger  *slog.Logger
}

// NewExtractor wires an extractor from its collaborators.
func NewExtractor(client unpack.Client, markers *marker.Store, logger *slog.Logger) *Extractor {
	return &Extractor{
		client:  client,
		markers: markers,
		logger:  logging.NewComponentLogger(logger, "extract"),
	}
}

// Extract processes one candidate. The returned error is non-nil only when
// ctx is done; every other failure is carried inside the Result so the caller
// can continue with the remaining candidates.
func (e *Extractor) Extract(ctx context.Context, candidate scan.Candidate) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	log := logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldArchive, candidate.Path),
	)
	result := Result{Candidate: candidate}
	started := time.Now()

	gated, err := e.markers.Exists(candidate.Dir, candidate.Base)
	if err != nil {
		return e.fail(log, result, started, nil, err), nil
	}
	if gated {
		log.Debug("marker present, skipping")
		result.Outcome = OutcomeSkipped
		result.Duration = time.Since(started)
		return result, nil
	}

	before, err := TakeSnapshot(candidate.Dir)
	if err != nil {
		return e.fail(log, result, started, nil, err), nil
	}

	log.Info("extracting archive")
	stderr, err := e.client.Extract(ctx, candidate.Ext, candidate.Path, candidate.Dir)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		wrapped := services.Wrap(services.ErrExternalTool, "extract", "unpack", candidate.Path, err)
		return e.fail(log, result, started, stderr, wrapped), nil
	}

	after, err := TakeSnapshot(candidate.Dir)
	if err != nil {
		return e.fail(log, result, started, nil, err), nil
	}
	added := Diff(before, after)

	if err := e.markers.Write(candidate.Dir, candidate.Base, added); err != nil {
		return e.fail(log, result, started, nil, err), nil
	}

	result.Outcome = OutcomeExtracted
	result.NewPaths = added
	result.Duration = time.Since(started)
	log.Info("extraction complete",
		logging.Int("new_paths", len(added)),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

func (e *Extractor) fail(log *slog.Logger, result Result, started time.Time, stderr []byte, err error) Result {
	result.Outcome = OutcomeFailed
	result.Stderr = stderr
	result.Err = err
	result.Duration = time.Since(started)

	attrs := []logging.Attr{logging.Error(err)}
	if detail := strings.TrimSpace(string(stderr)); detail != "" {
		attrs = append(attrs, logging.String("tool_stderr", detail))
	}
	log.Error("extraction failed", logging.Args(attrs...)...)
	return result
}
