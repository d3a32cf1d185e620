package domain

// User is a campus member identified by their chosen id.
type User struct {
	ID UserID
	// DisplayName is optional; the id doubles as the display name when unset.
	DisplayName string
}

// Name returns the display name, falling back to the id.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return string(u.ID)
}
