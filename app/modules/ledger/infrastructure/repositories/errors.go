package ledgerdb

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyCheckedIn indicates the player already holds a check-in for the date.
	ErrAlreadyCheckedIn = errors.New("already checked in")
)
