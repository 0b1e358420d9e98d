package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/campusops/sisync/pkg/entities"
	"github.com/campusops/sisync/pkg/extract"
	"github.com/campusops/sisync/pkg/graph"
	"github.com/campusops/sisync/pkg/logging"
	"github.com/campusops/sisync/pkg/mapper"
	"github.com/campusops/sisync/pkg/remote"
	"github.com/campusops/sisync/pkg/report"
)

// Runner drives a full reconciliation run: every entity type in
// dependency order, each one loaded, mapped, and synced, with lookup
// tables accumulated for later passes' foreign keys.
type Runner struct {
	engine      *Engine
	loader      *extract.Loader
	mapper      *mapper.Mapper
	descriptors map[entities.Type]*extract.Descriptor
	graph       *graph.Graph
	dataDir     string
}

// NewRunner creates a Runner reading extract files from dataDir and
// syncing against store.
func NewRunner(store remote.Store, dataDir string, opts ...Option) *Runner {
	descriptors := extract.Descriptors()

	types := make([]entities.Type, 0, len(descriptors))
	deps := make(map[entities.Type][]entities.Type, len(descriptors))
	for t, desc := range descriptors {
		types = append(types, t)
		deps[t] = desc.DependsOn()
	}

	return &Runner{
		engine:      New(store, opts...),
		loader:      extract.NewLoader(),
		mapper:      mapper.New(),
		descriptors: descriptors,
		graph:       graph.New(types, deps),
		dataDir:     dataDir,
	}
}

// Run executes a full reconciliation run. A pass whose extract cannot be
// loaded fails fatally, and every pass that transitively depends on it is
// skipped: its foreign keys could not resolve against an absent lookup
// table. Other passes proceed. Context cancellation stops the run between
// passes and marks it aborted.
func (r *Runner) Run(ctx context.Context) *report.Run {
	return r.run(ctx, false)
}

// Validate performs the load and map stages of every pass without
// touching the remote: same ordering, same lookup accumulation, same
// per-record reporting, no writes and no reads of the remote store.
func (r *Runner) Validate(ctx context.Context) *report.Run {
	return r.run(ctx, true)
}

func (r *Runner) run(ctx context.Context, localOnly bool) *report.Run {
	run := report.NewRun()
	ctx = logging.WithRunID(ctx, run.ID)
	log := logging.Ctx(ctx)

	order, err := r.graph.Order()
	if err != nil {
		run.Aborted = err.Error()
		return run.Finish()
	}

	lookup := entities.NewLookup()
	skipped := make(map[entities.Type]string)

	for _, typ := range order {
		if err := ctx.Err(); err != nil {
			run.Aborted = err.Error()
			break
		}

		if reason, skip := skipped[typ]; skip {
			log.Warn().Str("entity", string(typ)).Str("reason", reason).Msg("Pass skipped")
			run.Add(&report.Pass{Entity: typ, Status: report.StatusSkipped, Fatal: reason})
			continue
		}

		desc := r.descriptors[typ]
		pass, mapped, loadFailed := r.pass(ctx, desc, lookup, localOnly)
		run.Add(pass)

		if loadFailed {
			// Nothing mapped, so dependents' foreign keys cannot resolve.
			reason := fmt.Sprintf("depends on %s, which failed: %s", typ, pass.Fatal)
			for _, dependent := range r.graph.Dependents(typ) {
				if _, already := skipped[dependent]; !already {
					skipped[dependent] = reason
				}
			}
			continue
		}

		lookup.AddAll(mapped)
	}

	return run.Finish()
}

// pass loads, maps, and (unless localOnly) syncs one entity type. The
// mapped entities are returned for the lookup even when some records
// failed: a partially synced pass still resolves the records it mapped.
// loadFailed reports that the extract itself could not be loaded, which
// is the only failure that forces dependents to skip.
func (r *Runner) pass(ctx context.Context, desc *extract.Descriptor, lookup *entities.Lookup, localOnly bool) (*report.Pass, []entities.Entity, bool) {
	start := time.Now()
	path := filepath.Join(r.dataDir, desc.File)

	loaded, err := r.loader.LoadFile(path, desc)
	if err != nil {
		return &report.Pass{
			Entity:   desc.Entity,
			Status:   report.StatusFailed,
			Fatal:    err.Error(),
			Duration: time.Since(start),
		}, nil, true
	}

	result := r.mapper.Map(desc, loaded.Records, lookup)

	var pass *report.Pass
	if localOnly {
		pass = &report.Pass{Entity: desc.Entity, Status: report.StatusSuccess}
		pass.Counts.Unchanged = len(result.Entities)
	} else {
		pass = r.engine.SyncPass(ctx, desc, result.Entities)
		if pass.Status == report.StatusFailed {
			// List failed before any write. The mapped entities still feed
			// the lookup so dependents can resolve their references.
			return pass, result.Entities, false
		}
	}

	for _, skip := range loaded.Skipped {
		pass.Counts.Skipped++
		pass.Errors = append(pass.Errors, report.RecordError{
			Entity:    desc.Entity,
			Key:       skip.Key,
			Operation: "load",
			Kind:      report.Kind(skip.Err),
			Message:   skip.Err.Error(),
		})
	}
	for _, excluded := range result.Excluded {
		pass.Counts.Skipped++
		pass.Errors = append(pass.Errors, report.RecordError{
			Entity:    desc.Entity,
			Key:       excluded.Key,
			Operation: "map",
			Kind:      report.Kind(excluded.Err),
			Message:   excluded.Err.Error(),
		})
	}
	if pass.Status == report.StatusSuccess && len(pass.Errors) > 0 {
		pass.Status = report.StatusPartial
	}
	pass.Duration = time.Since(start)

	return pass, result.Entities, false
}
