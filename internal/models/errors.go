package models

import "errors"

// Error kinds shared by every layer. Wrap them with fmt.Errorf("...: %w") and
// match with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvariantViolation = errors.New("ledger invariant violated")
)
