package domain

import "regexp"

// UserID is the caller-chosen identifier carried in the X-User-Id header.
// There is no separate account system: the id doubles as the login.
type UserID string

// RideID is the storage-assigned ride identifier.
type RideID int64

var userIDPattern = regexp.MustCompile(`^[a-z0-9-]{1,32}$`)

// ParseUserID validates the ascii-lowercase id format (1-32 chars of [a-z0-9-]).
func ParseUserID(s string) (UserID, bool) {
	if !userIDPattern.MatchString(s) {
		return "", false
	}
	return UserID(s), true
}
