package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-evalreports/internal/batch"
	"github.com/mind-engage/mindengage-evalreports/internal/observability"
)

// Resource names, as the portal calls them.
const (
	ResourceGroups      = "groups"
	ResourceSchedules   = "schedules"
	ResourceUsers       = "users"
	ResourceEvaluations = "evaluations"
	ResourceTemplates   = "rubricTemplates"
	ResourcePanelists   = "panelists"
	ResourceScores      = "evaluationScores"
	ResourceCriteria    = "rubricCriteria"
)

// LoadError reports a whole top-level category that could not be fetched.
type LoadError struct {
	Category string
	Err      error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Category, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Loader pulls a full Dataset out of a Source.
type Loader struct {
	Source  Source
	Metrics *observability.Metrics
	Logger  *slog.Logger

	// Concurrency caps in-flight keyed fetches per batch; zero is unbounded.
	Concurrency int
	// FetchTimeout bounds each keyed fetch; zero leaves it to ctx.
	FetchTimeout time.Duration
}

func NewLoader(src Source, m *observability.Metrics, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{Source: src, Metrics: m, Logger: logger}
}

// Load fetches the five top-level collections, failing as a whole if any one
// fails, then the per-schedule, per-evaluation and per-template batches,
// where individual failures only drop that id.
func (l *Loader) Load(ctx context.Context) (Dataset, error) {
	var ds Dataset

	g, gctx := errgroup.WithContext(ctx)
	g.Go(topLevel(gctx, l, ResourceGroups, l.Source.Groups, &ds.Groups))
	g.Go(topLevel(gctx, l, ResourceSchedules, l.Source.Schedules, &ds.Schedules))
	g.Go(topLevel(gctx, l, ResourceUsers, l.Source.Users, &ds.Users))
	g.Go(topLevel(gctx, l, ResourceEvaluations, l.Source.Evaluations, &ds.Evaluations))
	g.Go(topLevel(gctx, l, ResourceTemplates, l.Source.RubricTemplates, &ds.Templates))
	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}

	scheduleIDs := make([]string, 0, len(ds.Schedules))
	for _, s := range ds.Schedules {
		scheduleIDs = append(scheduleIDs, s.ID)
	}
	evaluationIDs := make([]string, 0, len(ds.Evaluations))
	for _, e := range ds.Evaluations {
		evaluationIDs = append(evaluationIDs, e.ID)
	}
	templateIDs := make([]string, 0, len(ds.Templates))
	for _, t := range ds.Templates {
		templateIDs = append(templateIDs, t.ID)
	}

	var b errgroup.Group
	b.Go(func() error {
		ds.Panelists = batch.FetchAll(ctx, scheduleIDs, l.Source.Panelists, l.batchOpts(ResourcePanelists)...)
		return nil
	})
	b.Go(func() error {
		ds.Scores = batch.FetchAll(ctx, evaluationIDs, l.Source.Scores, l.batchOpts(ResourceScores)...)
		return nil
	})
	b.Go(func() error {
		ds.Criteria = batch.FetchAll(ctx, templateIDs, l.Source.Criteria, l.batchOpts(ResourceCriteria)...)
		return nil
	})
	_ = b.Wait()

	l.Logger.Debug("dataset loaded",
		"groups", len(ds.Groups), "schedules", len(ds.Schedules), "users", len(ds.Users),
		"evaluations", len(ds.Evaluations), "templates", len(ds.Templates),
		"rosters", len(ds.Panelists), "score_lists", len(ds.Scores), "criteria_lists", len(ds.Criteria))
	return ds, nil
}

func topLevel[T any](ctx context.Context, l *Loader, category string, fetch func(context.Context) ([]T, error), dst *[]T) func() error {
	return func() error {
		list, err := fetch(ctx)
		l.Metrics.FetchSettled(category, err)
		if err != nil {
			return &LoadError{Category: category, Err: err}
		}
		*dst = list
		return nil
	}
}

func (l *Loader) batchOpts(resource string) []batch.Option {
	opts := []batch.Option{
		batch.WithObserver(func(id string, err error) {
			l.Metrics.FetchSettled(resource, err)
			if err != nil {
				l.Logger.Debug("sub-fetch dropped", "resource", resource, "id", id, "error", err)
			}
		}),
	}
	if l.Concurrency > 0 {
		opts = append(opts, batch.WithLimit(l.Concurrency))
	}
	if l.FetchTimeout > 0 {
		opts = append(opts, batch.WithTimeout(l.FetchTimeout))
	}
	return opts
}
