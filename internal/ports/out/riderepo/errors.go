package riderepo

import "errors"

var (
	// ErrNotFound indicates the requested ride does not exist.
	ErrNotFound = errors.New("ride not found")

	// ErrMemberNotFound indicates no membership row exists for the (ride, user) pair.
	ErrMemberNotFound = errors.New("ride member not found")

	// ErrMemberExists indicates the (ride, user) membership row already exists.
	ErrMemberExists = errors.New("ride member already exists")

	// ErrRideFull indicates the capacity condition rejected a member insert.
	ErrRideFull = errors.New("ride full")
)
