package domain

import "time"

type RideMode string

const (
	ModeCar  RideMode = "car"
	ModeTaxi RideMode = "taxi"
)

func ParseRideMode(s string) (RideMode, bool) {
	switch RideMode(s) {
	case ModeCar, ModeTaxi:
		return RideMode(s), true
	}
	return "", false
}

// Ride is a posted car or shared-taxi trip between campus and a station.
// Rides are immutable after creation; only the driver may delete one.
type Ride struct {
	ID          RideID
	DriverID    UserID
	Mode        RideMode
	Destination Location
	FromSpot    Location
	DepartsAt   time.Time
	Capacity    int
	// MinParticipants applies to taxi rides only (fare splitting needs the
	// headcount); zero for car rides.
	MinParticipants int
	Note            string
	CreatedAt       time.Time
}

// LocationCheck is a member's self-reported, IP-based proximity verdict for
// the meeting point. Matched is nil when the external check was indeterminate.
type LocationCheck struct {
	IP        string
	Matched   *bool
	CheckedAt time.Time
}

// RideMember is one user's membership in a ride. VerifiedAt is set only by
// the driver confirming an in-person meet-up.
type RideMember struct {
	RideID        RideID
	UserID        UserID
	JoinedAt      time.Time
	VerifiedAt    *time.Time
	LocationCheck *LocationCheck
}
