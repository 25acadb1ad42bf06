// Package workplan keeps semester workplan submissions.
//
// Lecturers submit one plan per academic year and semester; a reviewer
// either approves it or returns it with feedback. The registry stores
// records only; it does not gate who may review.
package workplan

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mweemba/staffkpi/internal/domain/model"
	"github.com/mweemba/staffkpi/pkg/metrics"
)

// Semester of an academic year.
type Semester string

// Known semesters.
const (
	SemesterFirst  Semester = "first"
	SemesterSecond Semester = "second"
)

// Status of a submitted workplan.
type Status string

// Workplan statuses.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusReturned Status = "returned"
)

// academicYearPattern matches years like "2024/2025".
var academicYearPattern = regexp.MustCompile(`^\d{4}/\d{4}$`)

// Submission carries the caller-supplied fields of a new workplan.
type Submission struct {
	LecturerID               string
	AcademicYear             string // "2024/2025"
	Semester                 Semester
	TeachingActivities       string
	ResearchActivities       string
	ServiceActivities        string
	AdministrativeActivities string
	ProfessionalDevelopment  string
	Objectives               string
	ExpectedOutcomes         string
}

// Workplan is a stored submission plus review state.
type Workplan struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submittedAt"`
	Status      Status    `json:"status"`
	Feedback    string    `json:"feedback"`
	Submission
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithIDGenerator replaces the id generator, e.g. for deterministic tests.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// Registry is the in-memory workplan store.
// Not safe for concurrent use; the engine serializes access.
type Registry struct {
	byID       map[string]Workplan
	byLecturer map[string][]string // workplan ids in submission order
	newID      func() string
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byID:       make(map[string]Workplan),
		byLecturer: make(map[string][]string),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit validates and stores a new pending workplan.
func (r *Registry) Submit(ctx context.Context, sub Submission, at time.Time) (Workplan, error) {
	if err := validateSubmission(sub); err != nil {
		metrics.RecordErrorByComponent("workplan", "validation")
		return Workplan{}, err
	}
	w := Workplan{
		ID:          r.newID(),
		SubmittedAt: at,
		Status:      StatusPending,
		Submission:  sub,
	}
	r.byID[w.ID] = w
	r.byLecturer[sub.LecturerID] = append(r.byLecturer[sub.LecturerID], w.ID)
	metrics.RecordWorkplanSubmitted()
	return w, nil
}

// Review records a reviewer decision on a pending workplan.
// Returning a plan requires feedback so the lecturer knows what to fix.
func (r *Registry) Review(ctx context.Context, id string, approved bool, feedback string) (Workplan, error) {
	w, ok := r.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("workplan", "not_found")
		return Workplan{}, fmt.Errorf("workplan %q: %w", id, model.ErrNotFound)
	}
	if w.Status != StatusPending {
		metrics.RecordErrorByComponent("workplan", "validation")
		return Workplan{}, fmt.Errorf("workplan %q already reviewed as %s: %w", id, w.Status, model.ErrValidation)
	}
	if approved {
		w.Status = StatusApproved
	} else {
		if strings.TrimSpace(feedback) == "" {
			metrics.RecordErrorByComponent("workplan", "validation")
			return Workplan{}, fmt.Errorf("returning a workplan requires feedback: %w", model.ErrValidation)
		}
		w.Status = StatusReturned
	}
	w.Feedback = feedback
	r.byID[id] = w
	return w, nil
}

// Get returns the workplan with the given id.
func (r *Registry) Get(ctx context.Context, id string) (Workplan, error) {
	w, ok := r.byID[id]
	if !ok {
		return Workplan{}, fmt.Errorf("workplan %q: %w", id, model.ErrNotFound)
	}
	return w, nil
}

// ForLecturer returns the lecturer's workplans, newest first.
func (r *Registry) ForLecturer(ctx context.Context, lecturerID string) []Workplan {
	ids := r.byLecturer[lecturerID]
	out := make([]Workplan, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

func validateSubmission(sub Submission) error {
	if strings.TrimSpace(sub.LecturerID) == "" {
		return fmt.Errorf("lecturer id must not be empty: %w", model.ErrValidation)
	}
	if !academicYearPattern.MatchString(sub.AcademicYear) {
		return fmt.Errorf("academic year %q must look like 2024/2025: %w", sub.AcademicYear, model.ErrValidation)
	}
	if sub.Semester != SemesterFirst && sub.Semester != SemesterSecond {
		return fmt.Errorf("unknown semester %q: %w", sub.Semester, model.ErrValidation)
	}
	if strings.TrimSpace(sub.Objectives) == "" {
		return fmt.Errorf("objectives must not be empty: %w", model.ErrValidation)
	}
	return nil
}
