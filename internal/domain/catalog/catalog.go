// Package catalog holds KPI definitions and their mutation operations.
//
// The catalog validates before it mutates: a failed create or update leaves
// the stored state untouched. Listing is stable by creation order unless a
// sort key is given.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mweemba/staffkpi/internal/domain/model"
	"github.com/mweemba/staffkpi/pkg/metrics"
)

// Weight bounds for a KPI, inclusive.
const (
	minWeight = 1
	maxWeight = 100
)

// Definition carries the caller-supplied fields of a new KPI.
type Definition struct {
	Title       string
	Description string
	Weight      int
	Category    model.Category
	TargetValue float64
	Unit        model.Unit
}

// Patch carries optional field updates for an existing KPI.
// Nil fields are left unchanged; set fields are validated like a create.
type Patch struct {
	Title       *string
	Description *string
	Weight      *int
	Category    *model.Category
	TargetValue *float64
	Unit        *model.Unit
}

// Filter narrows and orders a listing. Zero value lists everything in
// creation order.
type Filter struct {
	Category model.Category // empty = all categories
	Search   string         // case-insensitive substring on title/description
	SortBy   string         // "", "title", "weight", "category"
}

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithIDGenerator replaces the id generator, e.g. for deterministic tests.
func WithIDGenerator(gen func() string) Option {
	return func(c *Catalog) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// Catalog is the in-memory KPI definition store.
// Not safe for concurrent use; the engine serializes access.
type Catalog struct {
	byID  map[string]model.KPI
	order []string // ids in creation order
	newID func() string
}

// New constructs an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		byID:  make(map[string]model.KPI),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create validates def and stores a new KPI with a freshly generated id.
func (c *Catalog) Create(ctx context.Context, def Definition) (model.KPI, error) {
	if err := validateDefinition(def); err != nil {
		metrics.RecordErrorByComponent("catalog", "validation")
		return model.KPI{}, err
	}
	k := model.KPI{
		ID:          c.newID(),
		Title:       def.Title,
		Description: def.Description,
		Weight:      def.Weight,
		Category:    def.Category,
		TargetValue: def.TargetValue,
		Unit:        def.Unit,
	}
	c.byID[k.ID] = k
	c.order = append(c.order, k.ID)
	metrics.RecordKPICreated()
	metrics.UpdateCatalogSize(len(c.byID))
	return k, nil
}

// Update applies patch to the KPI with the given id.
// Existing progress records are not recomputed here; completion ratios
// derive lazily from the new target going forward.
func (c *Catalog) Update(ctx context.Context, id string, patch Patch) (model.KPI, error) {
	k, ok := c.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("catalog", "not_found")
		return model.KPI{}, fmt.Errorf("kpi %q: %w", id, model.ErrNotFound)
	}
	next := k
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Weight != nil {
		next.Weight = *patch.Weight
	}
	if patch.Category != nil {
		next.Category = *patch.Category
	}
	if patch.TargetValue != nil {
		next.TargetValue = *patch.TargetValue
	}
	if patch.Unit != nil {
		next.Unit = *patch.Unit
	}
	if err := validateDefinition(Definition{
		Title:       next.Title,
		Description: next.Description,
		Weight:      next.Weight,
		Category:    next.Category,
		TargetValue: next.TargetValue,
		Unit:        next.Unit,
	}); err != nil {
		metrics.RecordErrorByComponent("catalog", "validation")
		return model.KPI{}, err
	}
	c.byID[id] = next
	metrics.RecordKPIUpdated()
	return next, nil
}

// Delete removes the KPI with the given id. The engine cascades removal to
// the ledger and tracker.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if _, ok := c.byID[id]; !ok {
		metrics.RecordErrorByComponent("catalog", "not_found")
		return fmt.Errorf("kpi %q: %w", id, model.ErrNotFound)
	}
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	metrics.RecordKPIDeleted()
	metrics.UpdateCatalogSize(len(c.byID))
	return nil
}

// Get returns the KPI with the given id.
func (c *Catalog) Get(ctx context.Context, id string) (model.KPI, error) {
	k, ok := c.byID[id]
	if !ok {
		return model.KPI{}, fmt.Errorf("kpi %q: %w", id, model.ErrNotFound)
	}
	return k, nil
}

// Has reports whether the KPI id exists.
func (c *Catalog) Has(ctx context.Context, id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Count returns the number of stored KPIs.
func (c *Catalog) Count(ctx context.Context) int {
	return len(c.byID)
}

// List returns KPIs matching the filter.
func (c *Catalog) List(ctx context.Context, f Filter) []model.KPI {
	out := make([]model.KPI, 0, len(c.order))
	needle := strings.ToLower(f.Search)
	for _, id := range c.order {
		k := c.byID[id]
		if f.Category != "" && k.Category != f.Category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(k.Title), needle) &&
			!strings.Contains(strings.ToLower(k.Description), needle) {
			continue
		}
		out = append(out, k)
	}
	switch f.SortBy {
	case "title":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	case "weight":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	case "category":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	}
	return out
}

func validateDefinition(def Definition) error {
	if strings.TrimSpace(def.Title) == "" {
		return fmt.Errorf("title must not be empty: %w", model.ErrValidation)
	}
	if def.Weight < minWeight || def.Weight > maxWeight {
		return fmt.Errorf("weight %d out of range [%d,%d]: %w", def.Weight, minWeight, maxWeight, model.ErrValidation)
	}
	if def.TargetValue <= 0 {
		return fmt.Errorf("target value %v must be positive: %w", def.TargetValue, model.ErrValidation)
	}
	if !def.Category.Valid() {
		return fmt.Errorf("unknown category %q: %w", def.Category, model.ErrValidation)
	}
	if !def.Unit.Valid() {
		return fmt.Errorf("unknown unit %q: %w", def.Unit, model.ErrValidation)
	}
	return nil
}
