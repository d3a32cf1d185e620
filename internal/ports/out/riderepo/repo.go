package riderepo

import (
	"context"
	"time"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
)

// Ride is the persistence shape used by the ride repository.
type Ride struct {
	ID          domain.RideID
	DriverID    domain.UserID
	Mode        domain.RideMode
	Destination domain.Location
	FromSpot    domain.Location
	DepartsAt   time.Time
	Capacity    int
	// MinParticipants is zero for car rides.
	MinParticipants int
	Note            string
	CreatedAt       time.Time
}

// LocationCheck mirrors a member's latest self-reported proximity check.
// A new submission overwrites the previous one.
type LocationCheck struct {
	IP        string
	Matched   *bool
	CheckedAt time.Time
}

// Member is one (ride, user) membership row.
type Member struct {
	RideID   domain.RideID
	UserID   domain.UserID
	JoinedAt time.Time
	// VerifiedAt is set when the driver confirms the in-person meet-up.
	VerifiedAt    *time.Time
	LocationCheck *LocationCheck
}

type RideWithMembers struct {
	Ride
	Members []Member
}

// Filter narrows ride listings. Nil fields are ignored.
type Filter struct {
	Destination *domain.Location
	FromSpot    *domain.Location
	// DepartsFrom is inclusive, DepartsUntil exclusive.
	DepartsFrom  *time.Time
	DepartsUntil *time.Time
}

// Repository provides access to persisted rides and their members.
//
// List methods return rides ordered by DepartsAt ascending (ties by ID) to
// keep behavior deterministic.
//
// AddMember must be atomic with respect to capacity: the insert succeeds only
// if the current member count is below the ride's capacity and no
// (ride, user) row exists yet. Concurrent joins against the last seat must
// not both succeed; the losing call gets ErrRideFull or ErrMemberExists.
type Repository interface {
	// Create persists a new ride and returns it with the assigned id.
	Create(ctx context.Context, r Ride) (Ride, error)

	GetByID(ctx context.Context, id domain.RideID) (Ride, error)
	GetWithMembers(ctx context.Context, id domain.RideID) (RideWithMembers, error)

	List(ctx context.Context, f Filter) ([]Ride, error)
	ListWithMembers(ctx context.Context, f Filter) ([]RideWithMembers, error)

	// Delete removes the ride and, by cascade, its membership rows.
	Delete(ctx context.Context, id domain.RideID) error

	AddMember(ctx context.Context, rideID domain.RideID, userID domain.UserID, joinedAt time.Time) error
	GetMember(ctx context.Context, rideID domain.RideID, userID domain.UserID) (Member, error)
	RemoveMember(ctx context.Context, rideID domain.RideID, userID domain.UserID) error

	SetMemberVerified(ctx context.Context, rideID domain.RideID, userID domain.UserID, at time.Time) error
	SetMemberLocationCheck(ctx context.Context, rideID domain.RideID, userID domain.UserID, check LocationCheck) error
}
