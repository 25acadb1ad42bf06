package model

import "errors"

// Sentinel kinds for engine errors. All are local, recoverable conditions
// returned to the caller; none are fatal to the engine's state. Callers
// match them with errors.Is.
var (
	// ErrValidation marks malformed input: weight or target out of range,
	// a negative progress value, a non-positive ranking limit.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown KPI or lecturer id.
	ErrNotFound = errors.New("not found")

	// ErrNotAssigned marks progress recorded against a pair that is not
	// in the assignment ledger.
	ErrNotAssigned = errors.New("kpi not assigned to lecturer")

	// ErrInsufficientData marks a score requested for a lecturer with zero
	// assigned weight. The engine never substitutes a default score.
	ErrInsufficientData = errors.New("insufficient data to score")
)
