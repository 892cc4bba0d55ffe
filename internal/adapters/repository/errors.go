package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrNotFound reports that no record carries the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrTimeout reports that a store query exceeded its allotted time.
	// Queries perform no writes, so callers may safely retry.
	ErrTimeout = errors.New("store query timed out")

	// ErrMissingStyleTags rejects training references without style tags;
	// such a reference could never be matched.
	ErrMissingStyleTags = errors.New("training reference has no style tags")

	// ErrInvalidRating rejects ratings outside the 1-5 range.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrDuplicateName rejects personas whose name is already taken.
	ErrDuplicateName = errors.New("name already in use")
)
