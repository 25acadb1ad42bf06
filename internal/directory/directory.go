// Package directory holds lecturer reference data and the session contract.
//
// Lecturers are owned by an external staff directory; the engine treats them
// as read-only reference data. The session side carries the current user for
// caller-side authorization gating only; the engine itself enforces nothing.
package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mweemba/staffkpi/internal/domain/model"
	"github.com/mweemba/staffkpi/pkg/metrics"
)

// Role of the current user, used by callers to gate admin operations.
type Role string

// Known roles.
const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleLecturer   Role = "lecturer"
)

// User identifies the caller on whose behalf an operation runs.
type User struct {
	ID   string
	Role Role
	Name string
}

// Session exposes the current user. Implemented by the host application;
// StaticSession serves demos and tests.
type Session interface {
	CurrentUser(ctx context.Context) User
}

// StaticSession is a Session returning a fixed user.
type StaticSession struct {
	User User
}

// CurrentUser implements Session.
func (s StaticSession) CurrentUser(ctx context.Context) User {
	return s.User
}

// Directory is the in-memory lecturer reference store.
type Directory struct {
	byID  map[string]model.Lecturer
	order []string // ids in registration order
}

// New constructs a directory preloaded with the given lecturers.
// Invalid entries are rejected as a whole; partial loads are not applied.
func New(lecturers ...model.Lecturer) (*Directory, error) {
	d := &Directory{byID: make(map[string]model.Lecturer, len(lecturers))}
	for _, l := range lecturers {
		if err := d.add(l); err != nil {
			return nil, err
		}
	}
	metrics.UpdateLecturersTotal(len(d.byID))
	return d, nil
}

func (d *Directory) add(l model.Lecturer) error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("lecturer id must not be empty: %w", model.ErrValidation)
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("lecturer %q: name must not be empty: %w", l.ID, model.ErrValidation)
	}
	if _, ok := d.byID[l.ID]; ok {
		return fmt.Errorf("lecturer %q registered twice: %w", l.ID, model.ErrValidation)
	}
	switch l.Status {
	case model.LecturerActive, model.LecturerOnLeave, model.LecturerInactive:
	default:
		return fmt.Errorf("lecturer %q: unknown status %q: %w", l.ID, l.Status, model.ErrValidation)
	}
	d.byID[l.ID] = l
	d.order = append(d.order, l.ID)
	return nil
}

// Get returns the lecturer with the given id.
func (d *Directory) Get(ctx context.Context, id string) (model.Lecturer, error) {
	l, ok := d.byID[id]
	if !ok {
		return model.Lecturer{}, fmt.Errorf("lecturer %q: %w", id, model.ErrNotFound)
	}
	return l, nil
}

// Has reports whether the lecturer id exists.
func (d *Directory) Has(ctx context.Context, id string) bool {
	_, ok := d.byID[id]
	return ok
}

// All returns every lecturer in registration order.
func (d *Directory) All(ctx context.Context) []model.Lecturer {
	out := make([]model.Lecturer, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	return out
}

// ByDepartment returns the lecturers of one department in registration order.
func (d *Directory) ByDepartment(ctx context.Context, dept string) []model.Lecturer {
	var out []model.Lecturer
	for _, id := range d.order {
		if l := d.byID[id]; l.Department == dept {
			out = append(out, l)
		}
	}
	return out
}

// Departments returns the distinct department names, sorted.
func (d *Directory) Departments(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, id := range d.order {
		dept := d.byID[id].Department
		if _, ok := seen[dept]; ok {
			continue
		}
		seen[dept] = struct{}{}
		out = append(out, dept)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of registered lecturers.
func (d *Directory) Count(ctx context.Context) int {
	return len(d.byID)
}
