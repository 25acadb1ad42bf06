// Package app provides the performance engine facade that hosts embed.
//
// The engine composes the catalog, ledger, tracker, scoring engine and
// reporting aggregator behind one instance with explicit construction; there
// are no package-level singletons. A single reader/writer lock serializes
// mutations against reads, so every reader observes a state that existed at
// one point in time and a snapshot can never see half of a toggle.
//
// The engine performs no authorization. The host must ensure that only
// admin or supervisor sessions reach CreateKPI and ToggleAssignment, and
// that a lecturer session records progress only for its own id.
package app

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/mweemba/staffkpi/internal/directory"
	"github.com/mweemba/staffkpi/internal/domain/catalog"
	"github.com/mweemba/staffkpi/internal/domain/dedupe"
	"github.com/mweemba/staffkpi/internal/domain/ledger"
	"github.com/mweemba/staffkpi/internal/domain/model"
	"github.com/mweemba/staffkpi/internal/domain/reporting"
	"github.com/mweemba/staffkpi/internal/domain/scoring"
	"github.com/mweemba/staffkpi/internal/domain/tracker"
	"github.com/mweemba/staffkpi/internal/domain/workplan"
	"github.com/mweemba/staffkpi/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithCommitCacheSize bounds the snapshot commit idempotency cache.
func WithCommitCacheSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.commitCacheSize = size
		}
	}
}

// WithHistoryLimit bounds each lecturer's snapshot history to the n most
// recent entries. Zero keeps history unbounded.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.historyLimit = n
	}
}

// WithKPIIDGenerator replaces the catalog id generator, e.g. for tests.
func WithKPIIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.kpiIDGen = gen
	}
}

// WithWorkplanIDGenerator replaces the workplan id generator.
func WithWorkplanIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.workplanIDGen = gen
	}
}

// Engine is the KPI scoring and aggregation engine.
type Engine struct {
	mu sync.RWMutex

	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	tracker   *tracker.Tracker
	scoring   *scoring.Engine
	reports   *reporting.Aggregator
	workplans *workplan.Registry
	directory *directory.Directory

	commitCacheSize int
	historyLimit    int
	kpiIDGen        func() string
	workplanIDGen   func() string

	log logger.Logger
}

// New constructs an engine over the given lecturer directory.
func New(dir *directory.Directory, opts ...Option) *Engine {
	e := &Engine{
		directory: dir,
		log:       logger.Get().Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	var catalogOpts []catalog.Option
	if e.kpiIDGen != nil {
		catalogOpts = append(catalogOpts, catalog.WithIDGenerator(e.kpiIDGen))
	}
	var workplanOpts []workplan.Option
	if e.workplanIDGen != nil {
		workplanOpts = append(workplanOpts, workplan.WithIDGenerator(e.workplanIDGen))
	}
	scoringOpts := []scoring.Option{scoring.WithHistoryLimit(e.historyLimit)}
	if e.commitCacheSize > 0 {
		scoringOpts = append(scoringOpts, scoring.WithCommitCache(dedupe.New(dedupe.WithMaxSize(e.commitCacheSize))))
	}

	e.catalog = catalog.New(catalogOpts...)
	e.ledger = ledger.New()
	e.tracker = tracker.New()
	e.scoring = scoring.New(e.catalog, e.ledger, e.tracker, e.directory, scoringOpts...)
	e.reports = reporting.New(e.catalog, e.ledger, e.tracker, e.scoring, e.directory)
	e.workplans = workplan.NewRegistry(workplanOpts...)
	return e
}

// CreateKPI validates the definition and stores a new KPI with a fresh id
// and an empty assignment set.
func (e *Engine) CreateKPI(ctx context.Context, def catalog.Definition) (model.KPI, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	k, err := e.catalog.Create(ctx, def)
	if err != nil {
		return model.KPI{}, err
	}
	e.log.Debug(ctx, "kpi created",
		logger.String("kpiID", k.ID),
		logger.String("category", string(k.Category)),
		logger.Int("weight", k.Weight),
	)
	return k, nil
}

// UpdateKPI applies a partial update. Recorded progress is not rewritten;
// completion ratios derive from the new target going forward.
func (e *Engine) UpdateKPI(ctx context.Context, id string, patch catalog.Patch) (model.KPI, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog.Update(ctx, id, patch)
}

// DeleteKPI removes a KPI and cascades to its assignments and progress
// records, leaving no dangling references.
func (e *Engine) DeleteKPI(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.catalog.Delete(ctx, id); err != nil {
		return err
	}
	assigned := e.ledger.RemoveKPI(ctx, id)
	e.tracker.RemoveKPI(ctx, id, assigned)
	e.log.Debug(ctx, "kpi deleted",
		logger.String("kpiID", id),
		logger.Int("assignmentsRemoved", len(assigned)),
	)
	return nil
}

// ListKPIs returns KPIs matching the filter, stable by creation order unless
// a sort key is given.
func (e *Engine) ListKPIs(ctx context.Context, f catalog.Filter) []model.KPI {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.List(ctx, f)
}

// GetKPI returns one KPI by id.
func (e *Engine) GetKPI(ctx context.Context, id string) (model.KPI, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog.Get(ctx, id)
}

// ToggleAssignment flips the (kpi, lecturer) pair: assigning creates a
// default progress record, unassigning removes it. Reports the new state.
func (e *Engine) ToggleAssignment(ctx context.Context, kpiID, lecturerID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.catalog.Has(ctx, kpiID) {
		return false, fmt.Errorf("kpi %q: %w", kpiID, model.ErrNotFound)
	}
	if !e.directory.Has(ctx, lecturerID) {
		return false, fmt.Errorf("lecturer %q: %w", lecturerID, model.ErrNotFound)
	}
	assigned := e.ledger.Toggle(ctx, kpiID, lecturerID)
	if assigned {
		e.tracker.Ensure(ctx, kpiID, lecturerID)
	} else {
		e.tracker.Remove(ctx, kpiID, lecturerID)
	}
	return assigned, nil
}

// AssignmentsForLecturer returns the KPI ids assigned to the lecturer.
func (e *Engine) AssignmentsForLecturer(ctx context.Context, lecturerID string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.directory.Has(ctx, lecturerID) {
		return nil, fmt.Errorf("lecturer %q: %w", lecturerID, model.ErrNotFound)
	}
	return e.ledger.ForLecturer(ctx, lecturerID), nil
}

// AssignmentsForKPI returns the lecturer ids the KPI is assigned to.
func (e *Engine) AssignmentsForKPI(ctx context.Context, kpiID string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.catalog.Has(ctx, kpiID) {
		return nil, fmt.Errorf("kpi %q: %w", kpiID, model.ErrNotFound)
	}
	return e.ledger.ForKPI(ctx, kpiID), nil
}

// RecordProgress overwrites the current value for an assigned pair.
func (e *Engine) RecordProgress(ctx context.Context, kpiID, lecturerID string, value float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Record(ctx, kpiID, lecturerID, value)
}

// Progress returns the current progress record for an assigned pair.
func (e *Engine) Progress(ctx context.Context, kpiID, lecturerID string) (model.ProgressRecord, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tracker.Get(ctx, kpiID, lecturerID)
}

// StatusOf derives the progress status for an assigned pair.
func (e *Engine) StatusOf(ctx context.Context, kpiID, lecturerID string) (model.ProgressStatus, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	k, err := e.catalog.Get(ctx, kpiID)
	if err != nil {
		return "", err
	}
	return e.tracker.Status(ctx, kpiID, lecturerID, k.TargetValue)
}

// Overall computes the lecturer's current weighted overall score.
func (e *Engine) Overall(ctx context.Context, lecturerID string) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.directory.Has(ctx, lecturerID) {
		return 0, fmt.Errorf("lecturer %q: %w", lecturerID, model.ErrNotFound)
	}
	return e.scoring.Overall(ctx, lecturerID)
}

// CategoryBreakdown computes the lecturer's unclamped per-category scores.
func (e *Engine) CategoryBreakdown(ctx context.Context, lecturerID string) (map[model.Category]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.directory.Has(ctx, lecturerID) {
		return nil, fmt.Errorf("lecturer %q: %w", lecturerID, model.ErrNotFound)
	}
	return e.scoring.Breakdown(ctx, lecturerID)
}

// DepartmentAverage computes the mean overall score of the department's
// active, scoreable lecturers.
func (e *Engine) DepartmentAverage(ctx context.Context, dept string) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scoring.DepartmentAverage(ctx, dept)
}

// CommitSnapshot appends an immutable score snapshot to the lecturer's
// history. Repeated commits for the same timestamp append only once.
func (e *Engine) CommitSnapshot(ctx context.Context, lecturerID string, ts time.Time) (model.ScoreSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.directory.Has(ctx, lecturerID) {
		return model.ScoreSnapshot{}, fmt.Errorf("lecturer %q: %w", lecturerID, model.ErrNotFound)
	}
	snap, err := e.scoring.CommitSnapshot(ctx, lecturerID, ts)
	if err != nil {
		return model.ScoreSnapshot{}, err
	}
	e.log.Debug(ctx, "snapshot committed",
		logger.String("lecturerID", lecturerID),
		logger.Int("overall", snap.Overall),
	)
	return snap, nil
}

// Trend yields the lecturer's snapshots within [from, to], ascending.
func (e *Engine) Trend(ctx context.Context, lecturerID string, from, to time.Time) (iter.Seq[model.ScoreSnapshot], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.directory.Has(ctx, lecturerID) {
		return nil, fmt.Errorf("lecturer %q: %w", lecturerID, model.ErrNotFound)
	}
	return e.reports.Trend(ctx, lecturerID, from, to), nil
}

// TopPerformers returns the n best-scoring active lecturers, optionally
// scoped to one department.
func (e *Engine) TopPerformers(ctx context.Context, n int, scope string) ([]reporting.Performer, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reports.TopPerformers(ctx, n, scope)
}

// ComplianceByDepartment returns per-department completion percentages.
func (e *Engine) ComplianceByDepartment(ctx context.Context) (map[string]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reports.ComplianceByDepartment(ctx)
}

// DashboardSummary returns the dashboard headline figures.
func (e *Engine) DashboardSummary(ctx context.Context) (reporting.Summary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reports.DashboardSummary(ctx)
}

// SubmitWorkplan stores a new pending workplan for a known lecturer.
func (e *Engine) SubmitWorkplan(ctx context.Context, sub workplan.Submission, at time.Time) (workplan.Workplan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.directory.Has(ctx, sub.LecturerID) {
		return workplan.Workplan{}, fmt.Errorf("lecturer %q: %w", sub.LecturerID, model.ErrNotFound)
	}
	return e.workplans.Submit(ctx, sub, at)
}

// ReviewWorkplan records an approve/return decision on a pending workplan.
func (e *Engine) ReviewWorkplan(ctx context.Context, id string, approved bool, feedback string) (workplan.Workplan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workplans.Review(ctx, id, approved, feedback)
}

// WorkplansForLecturer returns the lecturer's workplans, newest first.
func (e *Engine) WorkplansForLecturer(ctx context.Context, lecturerID string) ([]workplan.Workplan, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.directory.Has(ctx, lecturerID) {
		return nil, fmt.Errorf("lecturer %q: %w", lecturerID, model.ErrNotFound)
	}
	return e.workplans.ForLecturer(ctx, lecturerID), nil
}

// Directory exposes the read-only lecturer reference data.
func (e *Engine) Directory() *directory.Directory {
	return e.directory
}
