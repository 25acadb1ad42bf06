// Package ledger keeps the many-to-many relation between KPIs and lecturers.
//
// The relation has set semantics: a (kpi, lecturer) pair is either present or
// absent, never duplicated. Two ownership-indexed maps are kept in sync so
// that the projection by KPI and the projection by lecturer always agree.
package ledger

import (
	"context"

	"github.com/mweemba/staffkpi/pkg/metrics"
)

// Ledger is the in-memory assignment relation.
// Not safe for concurrent use; the engine serializes access.
type Ledger struct {
	byKPI      map[string][]string // kpiID -> lecturerIDs in insertion order
	byLecturer map[string][]string // lecturerID -> kpiIDs in insertion order
	count      int
}

// New constructs an empty ledger.
func New() *Ledger {
	return &Ledger{
		byKPI:      make(map[string][]string),
		byLecturer: make(map[string][]string),
	}
}

// Toggle flips the assignment state of the pair and reports the new state:
// true if the pair is now assigned, false if it was removed. Calling it
// twice returns the pair to its original state.
func (l *Ledger) Toggle(ctx context.Context, kpiID, lecturerID string) bool {
	if l.Assigned(ctx, kpiID, lecturerID) {
		l.byKPI[kpiID] = remove(l.byKPI[kpiID], lecturerID)
		l.byLecturer[lecturerID] = remove(l.byLecturer[lecturerID], kpiID)
		l.count--
		metrics.RecordAssignmentToggled()
		metrics.UpdateAssignmentsTotal(l.count)
		return false
	}
	l.byKPI[kpiID] = append(l.byKPI[kpiID], lecturerID)
	l.byLecturer[lecturerID] = append(l.byLecturer[lecturerID], kpiID)
	l.count++
	metrics.RecordAssignmentToggled()
	metrics.UpdateAssignmentsTotal(l.count)
	return true
}

// Assigned reports whether the pair is present.
func (l *Ledger) Assigned(ctx context.Context, kpiID, lecturerID string) bool {
	for _, id := range l.byKPI[kpiID] {
		if id == lecturerID {
			return true
		}
	}
	return false
}

// ForLecturer returns the KPI ids assigned to the lecturer, insertion-ordered.
func (l *Ledger) ForLecturer(ctx context.Context, lecturerID string) []string {
	return clone(l.byLecturer[lecturerID])
}

// ForKPI returns the lecturer ids the KPI is assigned to, insertion-ordered.
func (l *Ledger) ForKPI(ctx context.Context, kpiID string) []string {
	return clone(l.byKPI[kpiID])
}

// RemoveKPI drops every pair referencing the KPI and returns the lecturer
// ids that were assigned to it. Used when a KPI is deleted.
func (l *Ledger) RemoveKPI(ctx context.Context, kpiID string) []string {
	assigned := l.byKPI[kpiID]
	for _, lecturerID := range assigned {
		l.byLecturer[lecturerID] = remove(l.byLecturer[lecturerID], kpiID)
		l.count--
	}
	delete(l.byKPI, kpiID)
	metrics.UpdateAssignmentsTotal(l.count)
	return assigned
}

// Count returns the number of assignment pairs.
func (l *Ledger) Count(ctx context.Context) int {
	return l.count
}

func remove(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func clone(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
