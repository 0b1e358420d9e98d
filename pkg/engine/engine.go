// Package engine reconciles mapped entities against the remote system of
// record. Each entity type is one pass: bulk-read the existing records,
// classify creates, updates, and removals, and apply them concurrently
// with retries on transient failures. A failed record never stops the
// pass; it is reported and the pass continues.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/campusops/sisync/pkg/entities"
	"github.com/campusops/sisync/pkg/errors"
	"github.com/campusops/sisync/pkg/extract"
	"github.com/campusops/sisync/pkg/logging"
	"github.com/campusops/sisync/pkg/remote"
	"github.com/campusops/sisync/pkg/report"
)

// Engine applies one pass's operations against a remote store.
type Engine struct {
	store remote.Store
	opts  *Options
}

// New creates an Engine over the given store.
func New(store remote.Store, opts ...Option) *Engine {
	return &Engine{
		store: store,
		opts:  Defaults().Apply(opts...),
	}
}

// SyncPass reconciles one entity type's mapped entities against the
// remote resource. A List failure aborts the pass (nothing to diff
// against); individual write failures are collected and the pass
// completes with partial status.
func (e *Engine) SyncPass(ctx context.Context, desc *extract.Descriptor, locals []entities.Entity) *report.Pass {
	start := time.Now()
	pass := &report.Pass{Entity: desc.Entity}
	log := logging.Ctx(ctx).With().Str("entity", string(desc.Entity)).Logger()

	existing, err := e.store.List(ctx, desc.Resource, desc.KeyField())
	if err != nil {
		pass.Status = report.StatusFailed
		pass.Fatal = err.Error()
		pass.Duration = time.Since(start)
		log.Error().Err(err).Msg("Listing existing records failed; pass aborted")
		return pass
	}

	diff := e.Classify(locals, existing, e.opts.PolicyFor(desc))
	pass.Counts.Unchanged = diff.Unchanged
	log.Debug().
		Int("existing", len(existing)).
		Int("creates", len(diff.Creates)).
		Int("updates", len(diff.Updates)).
		Int("removals", len(diff.Removals)).
		Int("unchanged", diff.Unchanged).
		Msg("Pass classified")

	e.applyAll(ctx, desc, diff, pass)

	pass.Status = report.StatusSuccess
	if pass.Counts.Failed > 0 {
		pass.Status = report.StatusPartial
	}
	pass.Duration = time.Since(start)
	return pass
}

// applyAll applies the diff's changes with bounded concurrency. Changes
// are independent records on one resource, so ordering within the pass
// does not matter; only the pass order across entity types does.
func (e *Engine) applyAll(ctx context.Context, desc *extract.Descriptor, diff *Diff, pass *report.Pass) {
	var mu sync.Mutex
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(e.opts.Concurrency)

	run := func(change Change) {
		group.Go(func() error {
			err := e.applyWithRetry(ctx, desc, change)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				pass.Counts.Failed++
				pass.Errors = append(pass.Errors, report.RecordError{
					Entity:    desc.Entity,
					Key:       change.Key,
					Operation: string(change.Operation),
					Kind:      report.Kind(err),
					Message:   err.Error(),
				})
				return nil
			}
			switch change.Operation {
			case OpCreate:
				pass.Counts.Created++
			case OpUpdate:
				pass.Counts.Updated++
			case OpDelete:
				pass.Counts.Removed++
			case OpDeactivate:
				pass.Counts.Deactivated++
			}
			return nil
		})
	}

	for _, change := range diff.Creates {
		run(change)
	}
	for _, change := range diff.Updates {
		run(change)
	}
	for _, change := range diff.Removals {
		run(change)
	}
	group.Wait() //nolint:errcheck // workers never return errors; failures are collected per record
}

// applyWithRetry performs one remote write, retrying transient failures
// with exponential backoff. Permanent rejections fail immediately.
func (e *Engine) applyWithRetry(ctx context.Context, desc *extract.Descriptor, change Change) error {
	operation := func() (struct{}, error) {
		err := e.apply(ctx, desc, change)
		if err == nil {
			return struct{}{}, nil
		}
		if errors.IsTransient(err) {
			logging.Ctx(ctx).Warn().
				Str("entity", string(desc.Entity)).
				Str("key", change.Key).
				Str("operation", string(change.Operation)).
				Err(err).
				Msg("Transient failure; retrying")
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.opts.RetryInterval

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(e.opts.MaxTries))
	return err
}

// apply performs one remote write.
func (e *Engine) apply(ctx context.Context, desc *extract.Descriptor, change Change) error {
	var err error
	switch change.Operation {
	case OpCreate:
		err = e.store.Create(ctx, desc.Resource, change.Fields)
	case OpUpdate, OpDeactivate:
		err = e.store.Update(ctx, desc.Resource, change.Remote, change.Fields)
	case OpDelete:
		err = e.store.Delete(ctx, desc.Resource, change.Remote)
	}
	if err == nil {
		logging.Ctx(ctx).Debug().
			Str("entity", string(desc.Entity)).
			Str("key", change.Key).
			Str("operation", string(change.Operation)).
			Msg("Record written")
	}
	return err
}
