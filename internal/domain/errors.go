package domain

import "errors"

var (
	// ErrValidation marks input that fails domain validation rules.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a mutation rejected by an existing row or state.
	ErrConflict = errors.New("conflict")
)
