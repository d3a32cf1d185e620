package rides

import (
	"time"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
)

// CreateRideInput is the raw ride-creation payload. Fields arrive as strings
// and are checked by ValidateCreateRide before anything touches storage.
type CreateRideInput struct {
	Mode        string
	Destination string
	FromSpot    string
	DepartsAt   string
	Capacity    int
	// MinParticipants is required for taxi rides; nil means absent.
	MinParticipants *int
	// Note is optional; nil means absent (stored as the empty string).
	Note *string
}

// ListFilter narrows GET /rides. Zero values mean "no filter".
type ListFilter struct {
	Destination string
	FromSpot    string
	// Date is a YYYY-MM-DD UTC day; matching rides depart within that day.
	Date string
}

// Role selects which of the caller's rides listMine returns.
type Role string

const (
	RoleDriver Role = "driver"
	RoleMember Role = "member"
	RoleAll    Role = "all"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleDriver, RoleMember, RoleAll:
		return Role(s), true
	case "":
		return RoleAll, true
	}
	return "", false
}

// UserRef identifies a user in ride projections.
type UserRef struct {
	ID   domain.UserID
	Name string
}

// Summary is the list-item projection of a ride.
type Summary struct {
	ID              domain.RideID
	Driver          UserRef
	Mode            domain.RideMode
	Destination     domain.Location
	FromSpot        domain.Location
	DepartsAt       time.Time
	Capacity        int
	MinParticipants int
	Note            string
	MembersCount    int
	// Joined is true only when the viewer is known and is a member.
	Joined bool
}

// Created is the projection returned from a successful create.
type Created struct {
	ID              domain.RideID
	Driver          UserRef
	Mode            domain.RideMode
	Destination     domain.Location
	FromSpot        domain.Location
	DepartsAt       time.Time
	Capacity        int
	MinParticipants int
	Note            string
	CreatedAt       time.Time
}

// MemberDetail is a roster entry, visible to the driver only.
type MemberDetail struct {
	ID       domain.UserID
	Name     string
	Verified bool
	// LocationCheck is the member's latest self-reported proximity check,
	// nil when none was submitted.
	LocationCheck *domain.LocationCheck
}

// Detail is the full ride projection. Members is populated only for the
// driver; other viewers get an empty roster (visibility is decided here, not
// in storage).
type Detail struct {
	Summary
	CreatedAt time.Time
	// Verified reports whether the driver confirmed the viewer's meet-up.
	Verified bool
	Members  []MemberDetail
	// SelfLocationCheck is the viewer's own latest check, nil when absent.
	SelfLocationCheck *domain.LocationCheck
}
