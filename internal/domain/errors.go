package domain

import "errors"

// Integrity errors reject a whole snapshot at the validation boundary.
// Handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyID      = errors.New("empty id")
	ErrDuplicateID  = errors.New("duplicate id")
	ErrDanglingEdge = errors.New("edge references missing node")
)
