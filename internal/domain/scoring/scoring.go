// Package scoring computes weighted lecturer scores and maintains the
// committed score history.
//
// The overall score normalizes by the sum of assigned weights, never by an
// assumed 100, and clamps each KPI's progress at 100% so one over-performing
// KPI cannot mask deficits elsewhere. Category breakdowns are deliberately
// unclamped: over-achievement stays visible there.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mweemba/staffkpi/internal/directory"
	"github.com/mweemba/staffkpi/internal/domain/catalog"
	"github.com/mweemba/staffkpi/internal/domain/dedupe"
	"github.com/mweemba/staffkpi/internal/domain/ledger"
	"github.com/mweemba/staffkpi/internal/domain/model"
	"github.com/mweemba/staffkpi/internal/domain/tracker"
	"github.com/mweemba/staffkpi/pkg/metrics"
)

// maxContribution caps a single KPI's progress share of the overall score.
const maxContribution = 100.0

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCommitCache replaces the commit idempotency cache.
func WithCommitCache(cache dedupe.Deduper) Option {
	return func(e *Engine) {
		if cache != nil {
			e.commits = cache
		}
	}
}

// WithHistoryLimit bounds each lecturer's snapshot history to the n most
// recent entries. Zero or negative keeps history unbounded.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.historyLimit = n
	}
}

// Engine reduces assignments and progress into scores.
// Not safe for concurrent use; the engine facade serializes access.
type Engine struct {
	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	tracker   *tracker.Tracker
	directory *directory.Directory

	histories    map[string][]model.ScoreSnapshot
	commits      dedupe.Deduper
	historyLimit int
}

// New constructs a scoring engine over the given component state.
func New(cat *catalog.Catalog, led *ledger.Ledger, trk *tracker.Tracker, dir *directory.Directory, opts ...Option) *Engine {
	e := &Engine{
		catalog:   cat,
		ledger:    led,
		tracker:   trk,
		directory: dir,
		histories: make(map[string][]model.ScoreSnapshot),
		commits:   dedupe.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Overall computes the lecturer's weight-normalized, 100%-capped score,
// rounded to the nearest integer. A lecturer with zero assigned weight is
// unscoreable and yields ErrInsufficientData, never a default of zero.
func (e *Engine) Overall(ctx context.Context, lecturerID string) (int, error) {
	start := time.Now()
	defer func() {
		metrics.RecordScoringDuration(float64(time.Since(start).Microseconds()) / 1e3)
	}()

	var weighted, weightSum float64
	for _, kpiID := range e.ledger.ForLecturer(ctx, lecturerID) {
		k, err := e.catalog.Get(ctx, kpiID)
		if err != nil {
			return 0, err
		}
		value, err := e.tracker.Value(ctx, kpiID, lecturerID)
		if err != nil {
			return 0, err
		}
		progress := value / k.TargetValue * 100
		weighted += math.Min(progress, maxContribution) * float64(k.Weight)
		weightSum += float64(k.Weight)
	}
	if weightSum == 0 {
		metrics.RecordErrorByComponent("scoring", "insufficient_data")
		return 0, fmt.Errorf("lecturer %q has no assigned weight: %w", lecturerID, model.ErrInsufficientData)
	}
	return int(math.Round(weighted / weightSum)), nil
}

// Breakdown computes the weighted sub-score per category, using the overall
// formula scoped to each category's KPI subset. Progress is not clamped here.
func (e *Engine) Breakdown(ctx context.Context, lecturerID string) (map[model.Category]float64, error) {
	type sums struct{ weighted, weight float64 }
	perCategory := make(map[model.Category]*sums)
	for _, kpiID := range e.ledger.ForLecturer(ctx, lecturerID) {
		k, err := e.catalog.Get(ctx, kpiID)
		if err != nil {
			return nil, err
		}
		value, err := e.tracker.Value(ctx, kpiID, lecturerID)
		if err != nil {
			return nil, err
		}
		s := perCategory[k.Category]
		if s == nil {
			s = &sums{}
			perCategory[k.Category] = s
		}
		s.weighted += value / k.TargetValue * 100 * float64(k.Weight)
		s.weight += float64(k.Weight)
	}
	if len(perCategory) == 0 {
		metrics.RecordErrorByComponent("scoring", "insufficient_data")
		return nil, fmt.Errorf("lecturer %q has no assigned weight: %w", lecturerID, model.ErrInsufficientData)
	}
	out := make(map[model.Category]float64, len(perCategory))
	for c, s := range perCategory {
		out[c] = s.weighted / s.weight
	}
	return out, nil
}

// DepartmentAverage returns the arithmetic mean of overall scores across the
// department's active lecturers. Unscoreable lecturers are excluded from both
// numerator and denominator; a department with none yields
// ErrInsufficientData.
func (e *Engine) DepartmentAverage(ctx context.Context, dept string) (float64, error) {
	var sum float64
	var scored int
	for _, l := range e.directory.ByDepartment(ctx, dept) {
		if l.Status != model.LecturerActive {
			continue
		}
		overall, err := e.Overall(ctx, l.ID)
		if err != nil {
			if errors.Is(err, model.ErrInsufficientData) {
				continue
			}
			return 0, err
		}
		sum += float64(overall)
		scored++
	}
	if scored == 0 {
		return 0, fmt.Errorf("department %q has no scoreable lecturers: %w", dept, model.ErrInsufficientData)
	}
	return sum / float64(scored), nil
}

// CommitSnapshot computes the lecturer's score and appends an immutable
// snapshot to their history. Repeated commits for the same (lecturer,
// timestamp) append only one entry and return the committed snapshot.
// An unscoreable lecturer fails without creating a snapshot.
func (e *Engine) CommitSnapshot(ctx context.Context, lecturerID string, ts time.Time) (model.ScoreSnapshot, error) {
	overall, err := e.Overall(ctx, lecturerID)
	if err != nil {
		return model.ScoreSnapshot{}, err
	}
	breakdown, err := e.Breakdown(ctx, lecturerID)
	if err != nil {
		return model.ScoreSnapshot{}, err
	}

	key := lecturerID + "@" + ts.UTC().Format(time.RFC3339Nano)
	if e.commits.SeenAndRecord(ctx, key) {
		metrics.RecordSnapshotDeduplicated()
		if existing, ok := e.snapshotAt(lecturerID, ts); ok {
			return existing, nil
		}
		// Key aged out of the cache but the history entry is gone too;
		// fall through and commit again.
		e.commits.Forget(ctx, key)
		e.commits.SeenAndRecord(ctx, key)
	}

	snap := model.ScoreSnapshot{
		LecturerID: lecturerID,
		Overall:    overall,
		Breakdown:  breakdown,
		Timestamp:  ts,
	}
	history := append(e.histories[lecturerID], snap)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})
	if e.historyLimit > 0 && len(history) > e.historyLimit {
		history = history[len(history)-e.historyLimit:]
	}
	e.histories[lecturerID] = history
	metrics.RecordSnapshotCommitted()
	metrics.UpdateHistoryEntries(e.historySize())
	return snap, nil
}

// History returns a copy of the lecturer's snapshot history, ordered by
// timestamp ascending.
func (e *Engine) History(ctx context.Context, lecturerID string) []model.ScoreSnapshot {
	history := e.histories[lecturerID]
	if len(history) == 0 {
		return nil
	}
	out := make([]model.ScoreSnapshot, len(history))
	for i, snap := range history {
		out[i] = snap
		out[i].Breakdown = snap.CloneBreakdown()
	}
	return out
}

// Latest returns the most recent committed snapshot for the lecturer.
func (e *Engine) Latest(ctx context.Context, lecturerID string) (model.ScoreSnapshot, bool) {
	history := e.histories[lecturerID]
	if len(history) == 0 {
		return model.ScoreSnapshot{}, false
	}
	snap := history[len(history)-1]
	snap.Breakdown = snap.CloneBreakdown()
	return snap, true
}

func (e *Engine) snapshotAt(lecturerID string, ts time.Time) (model.ScoreSnapshot, bool) {
	for _, snap := range e.histories[lecturerID] {
		if snap.Timestamp.Equal(ts) {
			snap.Breakdown = snap.CloneBreakdown()
			return snap, true
		}
	}
	return model.ScoreSnapshot{}, false
}

func (e *Engine) historySize() int {
	total := 0
	for _, history := range e.histories {
		total += len(history)
	}
	return total
}
