package scores

import "errors"

var (
	ErrNotFound = errors.New("score not found")
	// ErrDuplicateScore means a concurrent insert for the same pair could not be reconciled.
	ErrDuplicateScore = errors.New("duplicate score for resume and job offer")
	// ErrMissingReference means the resume or job offer disappeared before the score was written.
	ErrMissingReference = errors.New("resume or job offer no longer exists")
)
