package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrConflict means a guarded write found the row in another state.
	ErrConflict = errors.New("booking state changed")
)
