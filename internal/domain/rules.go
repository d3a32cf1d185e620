package domain

import "errors"

var (
	// ErrRideFull indicates the ride already carries capacity members.
	ErrRideFull = errors.New("ride full")
	// ErrAlreadyJoined indicates the candidate is already a member.
	ErrAlreadyJoined = errors.New("already joined")
)

// CanJoin decides whether userID may join a ride with the given current
// members and capacity. Capacity counts joined members, not the driver.
//
// Capacity is checked before prior membership: a full ride reports ErrRideFull
// even to a caller who is already on it. That ordering is an observable policy
// the API relies on.
func CanJoin(members []RideMember, capacity int, userID UserID) error {
	if len(members) >= capacity {
		return ErrRideFull
	}
	for _, m := range members {
		if m.UserID == userID {
			return ErrAlreadyJoined
		}
	}
	return nil
}
