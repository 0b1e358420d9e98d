// Package report aggregates per-pass outcomes into the run summary that
// is handed to the logging subsystem and drives the process exit status.
// The reconciler only defines the summary's shape; formatting and
// transport belong to whatever consumes the log stream.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campusops/sisync/pkg/entities"
	"github.com/campusops/sisync/pkg/errors"
)

// Status is the overall outcome of a run or a pass.
type Status string

// Run and pass outcomes.
const (
	// StatusSuccess means every pass completed without failures.
	StatusSuccess Status = "success"
	// StatusPartial means the run completed but some records failed.
	StatusPartial Status = "partial"
	// StatusFailed means a pass was aborted or the run did not complete.
	StatusFailed Status = "failed"
	// StatusSkipped marks a pass that never ran because a dependency's
	// pass failed fatally.
	StatusSkipped Status = "skipped"
)

// Exit codes surfaced to the external scheduler.
const (
	ExitSuccess = 0
	ExitFailed  = 1
	ExitPartial = 2
)

// Counts tallies one pass's record outcomes.
type Counts struct {
	Created     int
	Updated     int
	Unchanged   int
	Removed     int
	Deactivated int
	Failed      int
	Skipped     int
}

// Total returns the number of records the pass considered.
func (c Counts) Total() int {
	return c.Created + c.Updated + c.Unchanged + c.Removed + c.Deactivated + c.Failed + c.Skipped
}

// RecordError identifies one failed record with enough context to locate
// and fix the source record.
type RecordError struct {
	Entity    entities.Type
	Key       string
	Operation string // load, map, create, update, delete
	Kind      string // error kind from the taxonomy
	Message   string
}

// Pass is the outcome of syncing one entity type.
type Pass struct {
	Entity   entities.Type
	Status   Status
	Counts   Counts
	Errors   []RecordError
	Fatal    string // reason a pass aborted, empty otherwise
	Duration time.Duration
}

// Failed reports whether the pass aborted before completing.
func (p *Pass) Failed() bool {
	return p.Status == StatusFailed || p.Status == StatusSkipped
}

// Run is one reconciliation run's summary.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Passes     []*Pass
	// Aborted carries the fatal error that stopped the run before all
	// passes were attempted, if any.
	Aborted string
}

// NewRun starts a run summary with a fresh run ID.
func NewRun() *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Add appends a pass outcome.
func (r *Run) Add(pass *Pass) {
	r.Passes = append(r.Passes, pass)
}

// Finish stamps the run's end time and returns it for chaining.
func (r *Run) Finish() *Run {
	r.FinishedAt = time.Now()
	return r
}

// Status derives the overall run outcome: failed if the run aborted or
// any pass did, partial if any record failed, success otherwise.
func (r *Run) Status() Status {
	if r.Aborted != "" {
		return StatusFailed
	}
	status := StatusSuccess
	for _, pass := range r.Passes {
		if pass.Failed() {
			return StatusFailed
		}
		if pass.Counts.Failed > 0 || len(pass.Errors) > 0 {
			status = StatusPartial
		}
	}
	return status
}

// ExitCode maps the run status onto the process exit status the external
// scheduler reacts to.
func (r *Run) ExitCode() int {
	switch r.Status() {
	case StatusSuccess:
		return ExitSuccess
	case StatusPartial:
		return ExitPartial
	default:
		return ExitFailed
	}
}

// RecordErrors returns every per-record error across all passes.
func (r *Run) RecordErrors() []RecordError {
	var out []RecordError
	for _, pass := range r.Passes {
		out = append(out, pass.Errors...)
	}
	return out
}

// Log emits the structured run summary: one line per pass, one line per
// record error, and a closing line with the overall status.
func (r *Run) Log(logger *zerolog.Logger) {
	for _, pass := range r.Passes {
		event := logger.Info()
		if pass.Failed() {
			event = logger.Error()
		} else if pass.Counts.Failed > 0 {
			event = logger.Warn()
		}
		event.
			Str("run_id", r.ID).
			Str("entity", string(pass.Entity)).
			Str("status", string(pass.Status)).
			Int("created", pass.Counts.Created).
			Int("updated", pass.Counts.Updated).
			Int("unchanged", pass.Counts.Unchanged).
			Int("removed", pass.Counts.Removed).
			Int("deactivated", pass.Counts.Deactivated).
			Int("failed", pass.Counts.Failed).
			Int("skipped", pass.Counts.Skipped).
			Dur("duration", pass.Duration)
		if pass.Fatal != "" {
			event = event.Str("reason", pass.Fatal)
		}
		event.Msg("Pass summary")

		for _, recErr := range pass.Errors {
			logger.Warn().
				Str("run_id", r.ID).
				Str("entity", string(recErr.Entity)).
				Str("key", recErr.Key).
				Str("operation", recErr.Operation).
				Str("kind", recErr.Kind).
				Str("error", recErr.Message).
				Msg("Record failed")
		}
	}

	event := logger.Info()
	if r.Status() == StatusFailed {
		event = logger.Error()
	}
	if r.Aborted != "" {
		event = event.Str("reason", r.Aborted)
	}
	event.
		Str("run_id", r.ID).
		Str("status", string(r.Status())).
		Int("passes", len(r.Passes)).
		Dur("duration", r.FinishedAt.Sub(r.StartedAt)).
		Msg("Run summary")
}

// Kind names an error's place in the taxonomy for the run summary.
func Kind(err error) string {
	switch {
	case errors.IsMalformedInput(err):
		return "malformed_input"
	case errors.IsInvalidRecord(err):
		return "field_validation"
	case errors.IsUnresolvedReference(err):
		return "unresolved_reference"
	case errors.IsPermanent(err):
		return "remote_permanent"
	case errors.IsTransient(err):
		return "remote_transient"
	case errors.IsConfiguration(err):
		return "configuration"
	default:
		return "unknown"
	}
}
