// Package reporting shapes engine outputs for external rendering.
//
// Every operation here is a pure read over the current state plus committed
// score history: no cursor state is retained between calls, so each call is
// restartable.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/mweemba/staffkpi/internal/adapters/ranking"
	"github.com/mweemba/staffkpi/internal/directory"
	"github.com/mweemba/staffkpi/internal/domain/catalog"
	"github.com/mweemba/staffkpi/internal/domain/ledger"
	"github.com/mweemba/staffkpi/internal/domain/model"
	"github.com/mweemba/staffkpi/internal/domain/scoring"
	"github.com/mweemba/staffkpi/internal/domain/tracker"
	"github.com/mweemba/staffkpi/pkg/metrics"
)

// Performer is one row of the top-performer report.
type Performer struct {
	Rank       int     `json:"rank"`
	LecturerID string  `json:"lecturerId"`
	Name       string  `json:"name"`
	Department string  `json:"department"`
	Score      float64 `json:"score"`
}

// Summary carries the dashboard headline figures.
type Summary struct {
	TotalLecturers       int                          `json:"totalLecturers"`
	LecturersByStatus    map[model.LecturerStatus]int `json:"lecturersByStatus"`
	TotalKPIs            int                          `json:"totalKpis"`
	KPIsByCategory       map[model.Category]int       `json:"kpisByCategory"`
	AverageScore         float64                      `json:"averageScore"`
	CompletedEvaluations int                          `json:"completedEvaluations"`
	PendingEvaluations   int                          `json:"pendingEvaluations"`
}

// Aggregator builds report views from scoring outputs and history.
// Not safe for concurrent use; the engine facade serializes access.
type Aggregator struct {
	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	tracker   *tracker.Tracker
	scoring   *scoring.Engine
	directory *directory.Directory
}

// New constructs an aggregator over the given component state.
func New(cat *catalog.Catalog, led *ledger.Ledger, trk *tracker.Tracker, sc *scoring.Engine, dir *directory.Directory) *Aggregator {
	return &Aggregator{
		catalog:   cat,
		ledger:    led,
		tracker:   trk,
		scoring:   sc,
		directory: dir,
	}
}

// Trend yields the lecturer's committed snapshots with timestamps in
// [from, to], ordered ascending. The sequence is lazy and restartable; it
// iterates a point-in-time copy of the history.
func (a *Aggregator) Trend(ctx context.Context, lecturerID string, from, to time.Time) iter.Seq[model.ScoreSnapshot] {
	history := a.scoring.History(ctx, lecturerID)
	return func(yield func(model.ScoreSnapshot) bool) {
		for _, snap := range history {
			if snap.Timestamp.Before(from) || snap.Timestamp.After(to) {
				continue
			}
			if !yield(snap) {
				return
			}
		}
	}
}

// TopPerformers returns the n active lecturers with the highest current
// overall score, ties broken by lecturer id ascending. An empty scope ranks
// the whole faculty; otherwise only the named department. Lecturers without
// a computable score are left out rather than ranked as zero.
func (a *Aggregator) TopPerformers(ctx context.Context, n int, scope string) ([]Performer, error) {
	start := time.Now()
	defer func() {
		metrics.RecordReportQueryDuration("top_performers", float64(time.Since(start).Microseconds())/1e3)
	}()

	if n <= 0 {
		metrics.RecordErrorByComponent("reporting", "validation")
		return nil, fmt.Errorf("top performers limit %d must be positive: %w", n, model.ErrValidation)
	}

	candidates := a.directory.All(ctx)
	if scope != "" {
		candidates = a.directory.ByDepartment(ctx, scope)
	}

	index := ranking.NewIndex()
	for _, l := range candidates {
		if l.Status != model.LecturerActive {
			continue
		}
		overall, err := a.scoring.Overall(ctx, l.ID)
		if err != nil {
			if errors.Is(err, model.ErrInsufficientData) {
				continue
			}
			return nil, err
		}
		index.Update(ctx, l.ID, float64(overall))
	}

	entries := index.TopN(ctx, n)
	out := make([]Performer, 0, len(entries))
	for _, entry := range entries {
		l, err := a.directory.Get(ctx, entry.LecturerID)
		if err != nil {
			return nil, err
		}
		out = append(out, Performer{
			Rank:       entry.Rank,
			LecturerID: entry.LecturerID,
			Name:       l.Name,
			Department: l.Department,
			Score:      entry.Score,
		})
	}
	return out, nil
}

// ComplianceByDepartment returns, per department, the percentage of assigned
// KPIs whose latest progress status is completed, rounded to one decimal.
// Departments without any assignments are omitted; absence of data is not
// reported as zero compliance.
func (a *Aggregator) ComplianceByDepartment(ctx context.Context) (map[string]float64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordReportQueryDuration("compliance", float64(time.Since(start).Microseconds())/1e3)
	}()

	out := make(map[string]float64)
	for _, dept := range a.directory.Departments(ctx) {
		var total, completed int
		for _, l := range a.directory.ByDepartment(ctx, dept) {
			for _, kpiID := range a.ledger.ForLecturer(ctx, l.ID) {
				k, err := a.catalog.Get(ctx, kpiID)
				if err != nil {
					return nil, err
				}
				status, err := a.tracker.Status(ctx, kpiID, l.ID, k.TargetValue)
				if err != nil {
					return nil, err
				}
				total++
				if status == model.StatusCompleted {
					completed++
				}
			}
		}
		if total == 0 {
			continue
		}
		out[dept] = math.Round(float64(completed)/float64(total)*1000) / 10
	}
	return out, nil
}

// DashboardSummary aggregates the headline counts shown on the dashboard.
func (a *Aggregator) DashboardSummary(ctx context.Context) (Summary, error) {
	start := time.Now()
	defer func() {
		metrics.RecordReportQueryDuration("dashboard", float64(time.Since(start).Microseconds())/1e3)
	}()

	s := Summary{
		LecturersByStatus: make(map[model.LecturerStatus]int),
		KPIsByCategory:    make(map[model.Category]int),
	}
	for _, k := range a.catalog.List(ctx, catalog.Filter{}) {
		s.TotalKPIs++
		s.KPIsByCategory[k.Category]++
	}

	var scoreSum float64
	var scored int
	for _, l := range a.directory.All(ctx) {
		s.TotalLecturers++
		s.LecturersByStatus[l.Status]++

		if _, ok := a.scoring.Latest(ctx, l.ID); ok {
			s.CompletedEvaluations++
		} else if l.Status == model.LecturerActive {
			s.PendingEvaluations++
		}

		if l.Status != model.LecturerActive {
			continue
		}
		overall, err := a.scoring.Overall(ctx, l.ID)
		if err != nil {
			if errors.Is(err, model.ErrInsufficientData) {
				continue
			}
			return Summary{}, err
		}
		scoreSum += float64(overall)
		scored++
	}
	if scored > 0 {
		s.AverageScore = math.Round(scoreSum/float64(scored)*10) / 10
	}
	return s, nil
}
