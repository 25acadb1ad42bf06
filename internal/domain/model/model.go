// Package model contains domain models passed between layers.
package model

import "time"

// Category classifies a KPI within a lecturer's duties.
type Category string

// Allowed KPI categories.
const (
	CategoryTeaching       Category = "teaching"
	CategoryResearch       Category = "research"
	CategoryService        Category = "service"
	CategoryAdministration Category = "administration"
)

// Valid reports whether the category is one of the allowed values.
func (c Category) Valid() bool {
	switch c {
	case CategoryTeaching, CategoryResearch, CategoryService, CategoryAdministration:
		return true
	}
	return false
}

// Unit is the measurement unit of a KPI target.
type Unit string

// Allowed KPI units.
const (
	UnitPercentage Unit = "percentage"
	UnitPapers     Unit = "papers"
	UnitStudents   Unit = "students"
	UnitCourses    Unit = "courses"
	UnitHours      Unit = "hours"
	UnitProjects   Unit = "projects"
)

// Valid reports whether the unit is one of the allowed values.
func (u Unit) Valid() bool {
	switch u {
	case UnitPercentage, UnitPapers, UnitStudents, UnitCourses, UnitHours, UnitProjects:
		return true
	}
	return false
}

// KPI is a weighted, targeted metric assignable to lecturers.
// Weight is the percentage contribution within a lecturer's KPI set;
// the scoring engine normalizes by the sum of assigned weights, so the
// weights of one lecturer's set are not required to add up to 100.
type KPI struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Weight      int      `json:"weight"` // 1..100
	Category    Category `json:"category"`
	TargetValue float64  `json:"targetValue"` // always > 0
	Unit        Unit     `json:"unit"`
}

// LecturerStatus is the employment state of a lecturer.
type LecturerStatus string

// Allowed lecturer statuses.
const (
	LecturerActive   LecturerStatus = "active"
	LecturerOnLeave  LecturerStatus = "on_leave"
	LecturerInactive LecturerStatus = "inactive"
)

// Lecturer is read-only reference data owned by the directory collaborator.
type Lecturer struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Department string         `json:"department"`
	Position   string         `json:"position"`
	Status     LecturerStatus `json:"status"`
	JoinDate   time.Time      `json:"joinDate"`
}

// ProgressStatus is the derived completion state of one assigned KPI.
type ProgressStatus string

// Derived progress statuses.
const (
	StatusNotStarted ProgressStatus = "not_started"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
)

// ProgressRecord holds the current measured value of a lecturer against
// one assigned KPI. CompletionRatio and status derive from the KPI target
// at read time; a target change does not rewrite recorded values.
type ProgressRecord struct {
	KPIID        string  `json:"kpiId"`
	LecturerID   string  `json:"lecturerId"`
	CurrentValue float64 `json:"currentValue"`
}

// ScoreSnapshot is an immutable, timestamped computed score appended to a
// lecturer's history at commit time. Never mutated after creation.
type ScoreSnapshot struct {
	LecturerID string               `json:"lecturerId"`
	Overall    int                  `json:"overall"`
	Breakdown  map[Category]float64 `json:"breakdown"`
	Timestamp  time.Time            `json:"timestamp"`
}

// CloneBreakdown returns a defensive copy of the per-category breakdown.
func (s ScoreSnapshot) CloneBreakdown() map[Category]float64 {
	out := make(map[Category]float64, len(s.Breakdown))
	for c, v := range s.Breakdown {
		out[c] = v
	}
	return out
}
