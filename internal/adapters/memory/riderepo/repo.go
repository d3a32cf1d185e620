package riderepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/riderepo"
)

// Repo is an in-memory implementation of riderepo.Repository.
// It is safe for concurrent use; AddMember holds the write lock across the
// capacity check and the insert, which gives the atomicity the port requires.
type Repo struct {
	mu      sync.RWMutex
	nextID  domain.RideID
	byID    map[domain.RideID]riderepo.Ride
	members map[domain.RideID][]riderepo.Member
}

func NewRepo() *Repo {
	return &Repo{
		nextID:  1,
		byID:    make(map[domain.RideID]riderepo.Ride),
		members: make(map[domain.RideID][]riderepo.Member),
	}
}

func (r *Repo) Create(ctx context.Context, ride riderepo.Ride) (riderepo.Ride, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	ride.ID = r.nextID
	r.nextID++
	r.byID[ride.ID] = ride
	r.members[ride.ID] = nil
	return ride, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.RideID) (riderepo.Ride, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	ride, ok := r.byID[id]
	if !ok {
		return riderepo.Ride{}, riderepo.ErrNotFound
	}
	return ride, nil
}

func (r *Repo) GetWithMembers(ctx context.Context, id domain.RideID) (riderepo.RideWithMembers, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	ride, ok := r.byID[id]
	if !ok {
		return riderepo.RideWithMembers{}, riderepo.ErrNotFound
	}
	return riderepo.RideWithMembers{Ride: ride, Members: cloneMembers(r.members[id])}, nil
}

func (r *Repo) List(ctx context.Context, f riderepo.Filter) ([]riderepo.Ride, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]riderepo.Ride, 0)
	for _, ride := range r.byID {
		if matches(ride, f) {
			out = append(out, ride)
		}
	}
	sortRides(out)
	return out, nil
}

func (r *Repo) ListWithMembers(ctx context.Context, f riderepo.Filter) ([]riderepo.RideWithMembers, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]riderepo.RideWithMembers, 0)
	for id, ride := range r.byID {
		if matches(ride, f) {
			out = append(out, riderepo.RideWithMembers{Ride: ride, Members: cloneMembers(r.members[id])})
		}
	}
	sort.Slice(out, func(i, j int) bool { return rideLess(out[i].Ride, out[j].Ride) })
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.RideID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return riderepo.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.members, id)
	return nil
}

func (r *Repo) AddMember(ctx context.Context, rideID domain.RideID, userID domain.UserID, joinedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.byID[rideID]
	if !ok {
		return riderepo.ErrNotFound
	}
	ms := r.members[rideID]
	if len(ms) >= ride.Capacity {
		return riderepo.ErrRideFull
	}
	for _, m := range ms {
		if m.UserID == userID {
			return riderepo.ErrMemberExists
		}
	}
	r.members[rideID] = append(ms, riderepo.Member{
		RideID:   rideID,
		UserID:   userID,
		JoinedAt: joinedAt,
	})
	return nil
}

func (r *Repo) GetMember(ctx context.Context, rideID domain.RideID, userID domain.UserID) (riderepo.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members[rideID] {
		if m.UserID == userID {
			return cloneMember(m), nil
		}
	}
	return riderepo.Member{}, riderepo.ErrMemberNotFound
}

func (r *Repo) RemoveMember(ctx context.Context, rideID domain.RideID, userID domain.UserID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	ms := r.members[rideID]
	for i, m := range ms {
		if m.UserID == userID {
			r.members[rideID] = append(ms[:i:i], ms[i+1:]...)
			return nil
		}
	}
	return riderepo.ErrMemberNotFound
}

func (r *Repo) SetMemberVerified(ctx context.Context, rideID domain.RideID, userID domain.UserID, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	ms := r.members[rideID]
	for i := range ms {
		if ms[i].UserID == userID {
			v := at
			ms[i].VerifiedAt = &v
			return nil
		}
	}
	return riderepo.ErrMemberNotFound
}

func (r *Repo) SetMemberLocationCheck(ctx context.Context, rideID domain.RideID, userID domain.UserID, check riderepo.LocationCheck) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	ms := r.members[rideID]
	for i := range ms {
		if ms[i].UserID == userID {
			c := check
			if check.Matched != nil {
				v := *check.Matched
				c.Matched = &v
			}
			ms[i].LocationCheck = &c
			return nil
		}
	}
	return riderepo.ErrMemberNotFound
}

func matches(r riderepo.Ride, f riderepo.Filter) bool {
	if f.Destination != nil && r.Destination != *f.Destination {
		return false
	}
	if f.FromSpot != nil && r.FromSpot != *f.FromSpot {
		return false
	}
	if f.DepartsFrom != nil && r.DepartsAt.Before(*f.DepartsFrom) {
		return false
	}
	if f.DepartsUntil != nil && !r.DepartsAt.Before(*f.DepartsUntil) {
		return false
	}
	return true
}

func rideLess(a, b riderepo.Ride) bool {
	if !a.DepartsAt.Equal(b.DepartsAt) {
		return a.DepartsAt.Before(b.DepartsAt)
	}
	return a.ID < b.ID
}

func sortRides(rs []riderepo.Ride) {
	sort.Slice(rs, func(i, j int) bool { return rideLess(rs[i], rs[j]) })
}

func cloneMembers(ms []riderepo.Member) []riderepo.Member {
	out := make([]riderepo.Member, 0, len(ms))
	for _, m := range ms {
		out = append(out, cloneMember(m))
	}
	return out
}

func cloneMember(m riderepo.Member) riderepo.Member {
	cp := m
	if m.VerifiedAt != nil {
		v := *m.VerifiedAt
		cp.VerifiedAt = &v
	}
	if m.LocationCheck != nil {
		c := *m.LocationCheck
		if m.LocationCheck.Matched != nil {
			b := *m.LocationCheck.Matched
			c.Matched = &b
		}
		cp.LocationCheck = &c
	}
	return cp
}
