package evaluation

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrNotLoaded is returned by Report before the first successful Refresh.
var ErrNotLoaded = errors.New("report data not loaded")

type Clock func() time.Time

// Snapshot is one complete, immutable load.
type Snapshot struct {
	ID               string
	LoadedAt         time.Time
	Dataset          Dataset
	ActiveTemplateID string
	Rows             []EvalRow // resolved under the active template
}

// Report is a filtered view over a snapshot.
type Report struct {
	SnapshotID       string             `json:"snapshotId"`
	LoadedAt         time.Time          `json:"loadedAt"`
	TemplateID       string             `json:"templateId,omitempty"`
	Filter           FilterState        `json:"filter"`
	Rows             []EvalRow          `json:"rows"`
	ByProgram        []ProgramSummary   `json:"byProgram"`
	ByEvaluator      []EvaluatorSummary `json:"byEvaluator"`
	TotalEvaluations int                `json:"totalEvaluations"`
}

// Service owns the current snapshot. Refresh is the only writer and replaces
// the snapshot whole, so readers never observe a partial merge.
type Service struct {
	Loader   *Loader
	Location *time.Location
	Now      Clock
	Logger   *slog.Logger

	// TemplateID pins the template for every report unless a request overrides it.
	TemplateID string

	current atomic.Pointer[Snapshot]
	loading sync.Mutex
}

func NewService(loader *Loader, loc *time.Location, now Clock, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Loader: loader, Location: loc, Now: now, Logger: logger}
}

// Refresh reloads everything from the source. On failure the previous
// snapshot stays in place and the error is returned.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	s.loading.Lock()
	defer s.loading.Unlock()

	start := s.Now()
	ds, err := s.Loader.Load(ctx)
	if err != nil {
		s.Loader.Metrics.LoadFinished(s.Now().Sub(start), 0, err)
		s.Logger.Error("report refresh failed", "error", err)
		return nil, err
	}

	loadedAt := s.Now()
	active := EffectiveTemplateID(ds.Templates, s.TemplateID)
	snap := &Snapshot{
		ID:               uuid.NewString(),
		LoadedAt:         loadedAt,
		Dataset:          ds,
		ActiveTemplateID: active,
		Rows:             Resolve(ds, ResolveOptions{TemplateID: active}),
	}
	s.current.Store(snap)
	s.Loader.Metrics.LoadFinished(loadedAt.Sub(start), len(snap.Rows), nil)
	s.Logger.Info("report refreshed", "snapshot", snap.ID, "rows", len(snap.Rows), "template", active)
	return snap, nil
}

// Snapshot returns the current snapshot, or nil before the first load.
func (s *Service) Snapshot() *Snapshot { return s.current.Load() }

// Report filters and summarizes the current snapshot. A non-empty
// templateID re-resolves weighted averages against that template.
func (s *Service) Report(fs FilterState, templateID string) (Report, error) {
	snap := s.current.Load()
	if snap == nil {
		return Report{}, ErrNotLoaded
	}
	return BuildReport(snap, fs, templateID, s.Location), nil
}

// BuildReport is the pure part of Report.
func BuildReport(snap *Snapshot, fs FilterState, templateID string, loc *time.Location) Report {
	rows, tid := snap.Rows, snap.ActiveTemplateID
	if templateID != "" && templateID != snap.ActiveTemplateID {
		rows, tid = Resolve(snap.Dataset, ResolveOptions{TemplateID: templateID}), templateID
	}
	filtered := Filter(rows, fs, loc)
	return Report{
		SnapshotID:       snap.ID,
		LoadedAt:         snap.LoadedAt,
		TemplateID:       tid,
		Filter:           fs,
		Rows:             filtered,
		ByProgram:        SummarizeByProgram(filtered),
		ByEvaluator:      SummarizeByEvaluator(filtered),
		TotalEvaluations: len(rows),
	}
}

// FilterOptions lists the distinct program and term values for filter pickers.
type FilterOptions struct {
	Programs  []string         `json:"programs"`
	Terms     []string         `json:"terms"`
	Templates []RubricTemplate `json:"templates"`
}

func (s *Service) FilterOptions() (FilterOptions, error) {
	snap := s.current.Load()
	if snap == nil {
		return FilterOptions{}, ErrNotLoaded
	}
	programs, terms := map[string]struct{}{}, map[string]struct{}{}
	for _, r := range snap.Rows {
		programs[r.Program] = struct{}{}
		terms[r.Term] = struct{}{}
	}
	return FilterOptions{
		Programs:  sortedKeys(programs),
		Terms:     sortedKeys(terms),
		Templates: snap.Dataset.Templates,
	}, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
