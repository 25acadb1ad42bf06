// Package tracker keeps per-(kpi, lecturer) progress state.
//
// A record exists exactly when the pair is assigned: the engine calls Ensure
// on assignment and Remove on unassignment. Recording is last-write-wins;
// history lives only in score snapshots.
package tracker

import (
	"context"
	"fmt"

	"github.com/mweemba/staffkpi/internal/domain/model"
	"github.com/mweemba/staffkpi/pkg/metrics"
)

type pairKey struct {
	kpiID      string
	lecturerID string
}

// Tracker is the in-memory progress store.
// Not safe for concurrent use; the engine serializes access.
type Tracker struct {
	records map[pairKey]float64
}

// New constructs an empty tracker.
func New() *Tracker {
	return &Tracker{records: make(map[pairKey]float64)}
}

// Ensure creates a default record (current value 0) for a newly assigned pair.
func (t *Tracker) Ensure(ctx context.Context, kpiID, lecturerID string) {
	key := pairKey{kpiID, lecturerID}
	if _, ok := t.records[key]; !ok {
		t.records[key] = 0
	}
}

// Remove drops the record for an unassigned pair.
func (t *Tracker) Remove(ctx context.Context, kpiID, lecturerID string) {
	delete(t.records, pairKey{kpiID, lecturerID})
}

// RemoveKPI drops every record referencing the KPI. Used on KPI deletion.
func (t *Tracker) RemoveKPI(ctx context.Context, kpiID string, lecturerIDs []string) {
	for _, lecturerID := range lecturerIDs {
		delete(t.records, pairKey{kpiID, lecturerID})
	}
}

// Record overwrites the current value for an assigned pair.
func (t *Tracker) Record(ctx context.Context, kpiID, lecturerID string, value float64) error {
	key := pairKey{kpiID, lecturerID}
	if _, ok := t.records[key]; !ok {
		metrics.RecordErrorByComponent("tracker", "not_assigned")
		return fmt.Errorf("kpi %q, lecturer %q: %w", kpiID, lecturerID, model.ErrNotAssigned)
	}
	if value < 0 {
		metrics.RecordErrorByComponent("tracker", "validation")
		return fmt.Errorf("progress value %v must not be negative: %w", value, model.ErrValidation)
	}
	t.records[key] = value
	metrics.RecordProgressUpdate()
	return nil
}

// Value returns the current value for an assigned pair.
func (t *Tracker) Value(ctx context.Context, kpiID, lecturerID string) (float64, error) {
	v, ok := t.records[pairKey{kpiID, lecturerID}]
	if !ok {
		return 0, fmt.Errorf("kpi %q, lecturer %q: %w", kpiID, lecturerID, model.ErrNotAssigned)
	}
	return v, nil
}

// Get returns the full progress record for an assigned pair.
func (t *Tracker) Get(ctx context.Context, kpiID, lecturerID string) (model.ProgressRecord, error) {
	v, err := t.Value(ctx, kpiID, lecturerID)
	if err != nil {
		return model.ProgressRecord{}, err
	}
	return model.ProgressRecord{KPIID: kpiID, LecturerID: lecturerID, CurrentValue: v}, nil
}

// StatusFor derives the progress status of a value against a target.
// The target is positive by catalog invariant.
func StatusFor(currentValue, targetValue float64) model.ProgressStatus {
	ratio := currentValue / targetValue
	switch {
	case ratio >= 1:
		return model.StatusCompleted
	case currentValue == 0:
		return model.StatusNotStarted
	default:
		return model.StatusInProgress
	}
}

// Status derives the progress status for an assigned pair.
func (t *Tracker) Status(ctx context.Context, kpiID, lecturerID string, targetValue float64) (model.ProgressStatus, error) {
	v, err := t.Value(ctx, kpiID, lecturerID)
	if err != nil {
		return "", err
	}
	return StatusFor(v, targetValue), nil
}
