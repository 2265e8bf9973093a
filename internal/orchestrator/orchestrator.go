// Package orchestrator sequences the per-project pipeline at startup: path
// sanitization, optional source update, documentation build, and output
// directory resolution. Its product is the immutable route table the HTTP
// server serves from.
//
// Failure isolation is the central invariant: one project's update or build
// failure never prevents any other project from being processed and never
// aborts startup. Only route collisions are fatal, because an ambiguous route
// table cannot be served.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/dochost/internal/builder"
	"git.home.luguber.info/inful/dochost/internal/config"
	"git.home.luguber.info/inful/dochost/internal/events"
	"git.home.luguber.info/inful/dochost/internal/history"
	"git.home.luguber.info/inful/dochost/internal/logfields"
	"git.home.luguber.info/inful/dochost/internal/metrics"
	"git.home.luguber.info/inful/dochost/internal/project"
	"git.home.luguber.info/inful/dochost/internal/sanitize"
)

// Updater refreshes one project's source tree.
type Updater interface {
	Update(ctx context.Context, dir, repoURL, branch string) error
}

// DocBuilder runs one project's documentation build.
type DocBuilder interface {
	Build(ctx context.Context, e *project.Entry) error
}

// Orchestrator owns the startup pipeline and periodic refresh passes.
type Orchestrator struct {
	cfg       *config.Config
	updater   Updater
	builder   DocBuilder
	recorder  metrics.Recorder
	hist      *history.Store
	publisher events.Publisher
	board     *StatusBoard

	entries []*project.Entry
}

// New wires an Orchestrator with the mandatory collaborators. Metrics,
// history and event publishing default to no-ops.
func New(cfg *config.Config, updater Updater, docBuilder DocBuilder) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		updater:   updater,
		builder:   docBuilder,
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
		board:     NewStatusBoard(),
	}
}

// WithRecorder injects a metrics recorder.
func (o *Orchestrator) WithRecorder(r metrics.Recorder) *Orchestrator {
	if r != nil {
		o.recorder = r
	}
	return o
}

// WithHistory injects the outcome history store.
func (o *Orchestrator) WithHistory(h *history.Store) *Orchestrator {
	o.hist = h
	return o
}

// WithPublisher injects the build event publisher.
func (o *Orchestrator) WithPublisher(p events.Publisher) *Orchestrator {
	if p != nil {
		o.publisher = p
	}
	return o
}

// Board exposes the per-route status board for the HTTP server.
func (o *Orchestrator) Board() *StatusBoard { return o.board }

// Entries returns the entries built by the last Run, read-only after startup.
func (o *Orchestrator) Entries() []*project.Entry { return o.entries }

// BuildEntries derives one project entry per config, sanitizing routes and
// resolving source and output directories. A malformed individual path is
// logged and excluded; a route collision between two configured paths is a
// fatal configuration error since the route table would be ambiguous.
func BuildEntries(cfg *config.Config) ([]*project.Entry, project.RouteTable, error) {
	entries := make([]*project.Entry, 0, len(cfg.Projects))
	table := make(project.RouteTable, len(cfg.Projects))
	owner := make(map[string]string, len(cfg.Projects))

	for _, pc := range cfg.Projects {
		route, err := sanitize.Sanitize(pc.Path)
		if err != nil {
			slog.Error("Excluding project with unusable path", logfields.Path(pc.Path), logfields.Error(err))
			continue
		}
		sourceDir, err := sanitize.ResolveUnder(cfg.LibsPath, pc.Path)
		if err != nil {
			slog.Error("Excluding project escaping the library directory", logfields.Path(pc.Path), logfields.Error(err))
			continue
		}
		if prev, taken := owner[route]; taken {
			return nil, nil, &config.Error{
				Field: "projects",
				Msg:   "public path collision: " + prev + " and " + pc.Path + " both sanitize to /" + route,
			}
		}

		docsDir, err := project.OutputDir(sourceDir, pc.BuildSystem, pc.DocOutput)
		if err != nil {
			// Validation guarantees variants and doc_output; reaching this
			// means the config was constructed programmatically and wrongly.
			return nil, nil, &config.Error{Field: "projects", Msg: err.Error()}
		}

		owner[route] = pc.Path
		entry := &project.Entry{Config: pc, SourceDir: sourceDir, Route: route, DocsDir: docsDir}
		entries = append(entries, entry)
		table[route] = docsDir
	}
	return entries, table, nil
}

// Run executes the full orchestration pass and returns the route table.
// updateOnStart selects whether sources are refreshed before building.
func (o *Orchestrator) Run(ctx context.Context, updateOnStart bool) (project.RouteTable, error) {
	start := time.Now()
	runID := uuid.NewString()

	entries, table, err := BuildEntries(o.cfg)
	if err != nil {
		return nil, err
	}
	o.entries = entries

	slog.Info("Starting orchestration",
		logfields.RunID(runID),
		slog.Int("projects", len(entries)),
		slog.Bool("update", updateOnStart),
		slog.Int("concurrency", o.cfg.Concurrency))

	o.processAll(ctx, runID, entries, updateOnStart)

	o.recorder.ObserveOrchestrationDuration(time.Since(start))
	slog.Info("Orchestration finished", logfields.RunID(runID), logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return table, nil
}

// Refresh re-runs update+build for the entries built at startup. The route
// table is untouched; only artifact content and statuses change.
func (o *Orchestrator) Refresh(ctx context.Context) {
	if len(o.entries) == 0 {
		return
	}
	runID := uuid.NewString()
	slog.Info("Starting periodic refresh", logfields.RunID(runID), slog.Int("projects", len(o.entries)))
	o.processAll(ctx, runID, o.entries, true)
}

// processAll fans the per-entry pipeline out across at most cfg.Concurrency
// workers. Entries share no mutable state and write to disjoint directories,
// so ordering between projects is irrelevant.
func (o *Orchestrator) processAll(ctx context.Context, runID string, entries []*project.Entry, update bool) {
	if o.cfg.Concurrency <= 1 {
		for _, e := range entries {
			o.processEntry(ctx, runID, e, update)
		}
		return
	}

	sem := make(chan struct{}, o.cfg.Concurrency)
	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		sem <- struct{}{}
		go func(e *project.Entry) {
			defer wg.Done()
			defer func() { <-sem }()
			o.processEntry(ctx, runID, e, update)
		}(e)
	}
	wg.Wait()
}

// processEntry runs update then build for one entry. Every failure is scoped
// to this entry: logged, recorded, and reflected in the status board while the
// route stays registered so the server can surface the degradation instead of
// hiding the project.
func (o *Orchestrator) processEntry(ctx context.Context, runID string, e *project.Entry, update bool) {
	status := project.StatusOK
	detail := ""

	if update {
		if err := o.runUpdate(ctx, runID, e); err != nil {
			slog.Error("Update failed, serving last built documentation",
				logfields.Route(e.Route), logfields.URL(e.Config.Repo), logfields.Error(err))
			status = project.StatusUpdateFailed
			detail = err.Error()
		}
	}

	if err := o.runBuild(ctx, runID, e); err != nil {
		var be *builder.BuildError
		if errors.As(err, &be) && be.Output != "" {
			slog.Error("Build failed", logfields.Route(e.Route), logfields.Error(err), slog.String("output", be.Output))
		} else {
			slog.Error("Build failed", logfields.Route(e.Route), logfields.Error(err))
		}
		status = project.StatusBuildFailed
		detail = err.Error()
	}

	o.board.Set(e.Route, status, detail)
	o.publisher.Publish(events.BuildEvent{
		RunID:   runID,
		Project: e.Config.Path,
		Route:   e.Route,
		Status:  string(status),
		Detail:  detail,
		At:      time.Now(),
	})
}

func (o *Orchestrator) runUpdate(ctx context.Context, runID string, e *project.Entry) error {
	if e.Config.Repo == "" {
		o.recorder.IncUpdateOutcome(metrics.OutcomeSkipped)
		return nil
	}
	start := time.Now()
	err := o.updater.Update(ctx, e.SourceDir, e.Config.Repo, e.Config.Branch)
	o.recordOutcome(ctx, runID, e.Route, history.OpUpdate, time.Since(start), err)
	o.recorder.ObserveUpdateDuration(e.Route, time.Since(start), err == nil)
	if err == nil {
		o.recorder.IncUpdateOutcome(metrics.OutcomeSuccess)
	} else {
		o.recorder.IncUpdateOutcome(metrics.OutcomeFailed)
	}
	return err
}

func (o *Orchestrator) runBuild(ctx context.Context, runID string, e *project.Entry) error {
	start := time.Now()
	err := o.builder.Build(ctx, e)
	o.recordOutcome(ctx, runID, e.Route, history.OpBuild, time.Since(start), err)
	o.recorder.ObserveBuildDuration(e.Route, time.Since(start), err == nil)
	if err == nil {
		o.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	} else {
		o.recorder.IncBuildOutcome(metrics.OutcomeFailed)
	}
	return err
}

func (o *Orchestrator) recordOutcome(ctx context.Context, runID, route, op string, d time.Duration, opErr error) {
	if o.hist == nil {
		return
	}
	rec := history.Record{RunID: runID, Project: route, Op: op, Success: opErr == nil, Duration: d}
	if opErr != nil {
		rec.Detail = opErr.Error()
	}
	if err := o.hist.Append(ctx, rec); err != nil {
		slog.Warn("Failed to record outcome", logfields.Route(route), logfields.Error(err))
	}
}
