package rides

import (
	"context"
	"errors"
	"time"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	clockport "github.com/sfc-mobility/campus-rides-api/internal/ports/out/clock"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/locverify"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/riderepo"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/userrepo"
)

// Service implements the ride use cases over the persistence gateway and the
// pure domain rules. It holds no state between calls.
type Service struct {
	rides    riderepo.Repository
	users    userrepo.Repository
	verifier locverify.Verifier
	clk      clockport.Clock
}

func NewService(ridesRepo riderepo.Repository, usersRepo userrepo.Repository, verifier locverify.Verifier, clk clockport.Clock) *Service {
	return &Service{
		rides:    ridesRepo,
		users:    usersRepo,
		verifier: verifier,
		clk:      clk,
	}
}

// List returns all rides matching the filter, with membership counts. The
// viewer may be nil (anonymous); Joined is then always false.
func (s *Service) List(ctx context.Context, viewer *domain.UserID, f ListFilter) ([]Summary, error) {
	filter, appErr := repoFilter(f)
	if appErr != nil {
		return nil, appErr
	}

	items, err := s.rides.ListWithMembers(ctx, filter)
	if err != nil {
		return nil, err
	}

	names := newNameCache(s.users)
	out := make([]Summary, 0, len(items))
	for _, r := range items {
		sum, err := s.toSummary(ctx, names, r, viewer)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// Create validates the payload and persists a new ride owned by the driver.
func (s *Service) Create(ctx context.Context, driverID domain.UserID, in CreateRideInput) (Created, error) {
	driver, err := s.users.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return Created{}, &Error{Status: 400, Code: "user_not_found"}
		}
		return Created{}, err
	}

	if errs := ValidateCreateRide(in); len(errs) > 0 {
		return Created{}, validationError(errs)
	}

	mode, _ := domain.ParseRideMode(in.Mode)
	dest, _ := domain.ParseLocation(in.Destination)
	from, _ := domain.ParseLocation(in.FromSpot)
	departsAt, _ := parseDepartsAt(in.DepartsAt)

	minParticipants := 0
	if mode == domain.ModeTaxi && in.MinParticipants != nil {
		minParticipants = *in.MinParticipants
	}
	note := ""
	if in.Note != nil {
		note = *in.Note
	}

	ride, err := s.rides.Create(ctx, riderepo.Ride{
		DriverID:        driver.ID,
		Mode:            mode,
		Destination:     dest,
		FromSpot:        from,
		DepartsAt:       departsAt,
		Capacity:        in.Capacity,
		MinParticipants: minParticipants,
		Note:            note,
		CreatedAt:       s.clk.Now(),
	})
	if err != nil {
		return Created{}, err
	}

	return Created{
		ID:              ride.ID,
		Driver:          UserRef{ID: driver.ID, Name: userName(driver)},
		Mode:            ride.Mode,
		Destination:     ride.Destination,
		FromSpot:        ride.FromSpot,
		DepartsAt:       ride.DepartsAt,
		Capacity:        ride.Capacity,
		MinParticipants: ride.MinParticipants,
		Note:            ride.Note,
		CreatedAt:       ride.CreatedAt,
	}, nil
}

// Detail returns the full ride projection. The member roster is exposed only
// to the driver; storage always returns it and the projection decides here.
func (s *Service) Detail(ctx context.Context, viewer *domain.UserID, id domain.RideID) (Detail, error) {
	r, err := s.rides.GetWithMembers(ctx, id)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return Detail{}, &Error{Status: 400, Code: "not_found"}
		}
		return Detail{}, err
	}

	names := newNameCache(s.users)
	sum, err := s.toSummary(ctx, names, r, viewer)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{
		Summary:   sum,
		CreatedAt: r.CreatedAt,
		Members:   []MemberDetail{},
	}

	if viewer != nil {
		for _, m := range r.Members {
			if m.UserID != *viewer {
				continue
			}
			d.Verified = m.VerifiedAt != nil
			d.SelfLocationCheck = toDomainCheck(m.LocationCheck)
		}
	}

	if viewer != nil && *viewer == r.DriverID {
		for _, m := range r.Members {
			u, err := names.get(ctx, m.UserID)
			if err != nil {
				return Detail{}, err
			}
			d.Members = append(d.Members, MemberDetail{
				ID:            m.UserID,
				Name:          userName(u),
				Verified:      m.VerifiedAt != nil,
				LocationCheck: toDomainCheck(m.LocationCheck),
			})
		}
	}

	return d, nil
}

// Join adds the caller to the ride, subject to the domain join rules. The
// repository re-checks capacity and uniqueness atomically; a lost race is
// surfaced with the same codes as the upfront check.
func (s *Service) Join(ctx context.Context, userID domain.UserID, id domain.RideID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return &Error{Status: 400, Code: "user_not_found"}
		}
		return err
	}
	r, err := s.rides.GetWithMembers(ctx, id)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return &Error{Status: 400, Code: "not_found"}
		}
		return err
	}

	if err := domain.CanJoin(toDomainMembers(r.Members), r.Capacity, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrRideFull):
			return &Error{Status: 400, Code: "full"}
		case errors.Is(err, domain.ErrAlreadyJoined):
			return &Error{Status: 400, Code: "already_joined"}
		}
		return err
	}

	if err := s.rides.AddMember(ctx, id, userID, s.clk.Now()); err != nil {
		switch {
		case errors.Is(err, riderepo.ErrRideFull):
			return &Error{Status: 400, Code: "full"}
		case errors.Is(err, riderepo.ErrMemberExists):
			return &Error{Status: 400, Code: "already_joined"}
		case errors.Is(err, riderepo.ErrNotFound):
			return &Error{Status: 400, Code: "not_found"}
		}
		return err
	}
	return nil
}

// Leave removes the caller's membership row. Leaving a ride you are not on is
// reported as not_joined, not silently ignored.
func (s *Service) Leave(ctx context.Context, userID domain.UserID, id domain.RideID) error {
	if err := s.rides.RemoveMember(ctx, id, userID); err != nil {
		if errors.Is(err, riderepo.ErrMemberNotFound) {
			return &Error{Status: 400, Code: "not_joined"}
		}
		return err
	}
	return nil
}

// Remove deletes the ride. Only the driver may do this; members go with the
// ride by referential cascade.
func (s *Service) Remove(ctx context.Context, callerID domain.UserID, id domain.RideID) error {
	r, err := s.rides.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return &Error{Status: 400, Code: "not_found"}
		}
		return err
	}
	if r.DriverID != callerID {
		return &Error{Status: 400, Code: "forbidden"}
	}
	return s.rides.Delete(ctx, id)
}

// ListMine filters the full ride set by the caller's role in each ride.
func (s *Service) ListMine(ctx context.Context, userID domain.UserID, role Role) ([]Summary, error) {
	items, err := s.rides.ListWithMembers(ctx, riderepo.Filter{})
	if err != nil {
		return nil, err
	}

	names := newNameCache(s.users)
	out := make([]Summary, 0)
	for _, r := range items {
		isDriver := r.DriverID == userID
		isMember := hasMember(r.Members, userID)

		keep := false
		switch role {
		case RoleDriver:
			keep = isDriver
		case RoleMember:
			keep = isMember
		default:
			keep = isDriver || isMember
		}
		if !keep {
			continue
		}

		sum, err := s.toSummary(ctx, names, r, &userID)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// SubmitLocationCheck runs the external proximity check against the ride's
// departure point and stores the verdict on the caller's membership row. A
// verifier failure aborts the use case as an internal error.
func (s *Service) SubmitLocationCheck(ctx context.Context, userID domain.UserID, id domain.RideID, callerIP string) (domain.LocationCheck, error) {
	r, err := s.rides.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return domain.LocationCheck{}, &Error{Status: 400, Code: "not_found"}
		}
		return domain.LocationCheck{}, err
	}
	if _, err := s.rides.GetMember(ctx, id, userID); err != nil {
		if errors.Is(err, riderepo.ErrMemberNotFound) {
			return domain.LocationCheck{}, &Error{Status: 400, Code: "not_joined"}
		}
		return domain.LocationCheck{}, err
	}

	// Members gather at the departure point, so that is what gets checked.
	verdict, err := s.verifier.Verify(ctx, callerIP, r.FromSpot)
	if err != nil {
		return domain.LocationCheck{}, err
	}

	check := riderepo.LocationCheck{
		IP:        callerIP,
		Matched:   verdict.Matched,
		CheckedAt: s.clk.Now(),
	}
	if err := s.rides.SetMemberLocationCheck(ctx, id, userID, check); err != nil {
		if errors.Is(err, riderepo.ErrMemberNotFound) {
			return domain.LocationCheck{}, &Error{Status: 400, Code: "not_joined"}
		}
		return domain.LocationCheck{}, err
	}
	return domain.LocationCheck{IP: check.IP, Matched: check.Matched, CheckedAt: check.CheckedAt}, nil
}

// VerifyMember records the driver's confirmation that memberID physically met
// up. Re-verifying is harmless.
func (s *Service) VerifyMember(ctx context.Context, callerID domain.UserID, id domain.RideID, memberID domain.UserID) error {
	r, err := s.rides.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return &Error{Status: 400, Code: "not_found"}
		}
		return err
	}
	if r.DriverID != callerID {
		return &Error{Status: 400, Code: "forbidden"}
	}
	if err := s.rides.SetMemberVerified(ctx, id, memberID, s.clk.Now()); err != nil {
		if errors.Is(err, riderepo.ErrMemberNotFound) {
			return &Error{Status: 400, Code: "not_joined"}
		}
		return err
	}
	return nil
}

func (s *Service) toSummary(ctx context.Context, names *nameCache, r riderepo.RideWithMembers, viewer *domain.UserID) (Summary, error) {
	driver, err := names.get(ctx, r.DriverID)
	if err != nil {
		return Summary{}, err
	}
	joined := false
	if viewer != nil {
		joined = hasMember(r.Members, *viewer)
	}
	return Summary{
		ID:              r.ID,
		Driver:          UserRef{ID: r.DriverID, Name: userName(driver)},
		Mode:            r.Mode,
		Destination:     r.Destination,
		FromSpot:        r.FromSpot,
		DepartsAt:       r.DepartsAt,
		Capacity:        r.Capacity,
		MinParticipants: r.MinParticipants,
		Note:            r.Note,
		MembersCount:    len(r.Members),
		Joined:          joined,
	}, nil
}

func repoFilter(f ListFilter) (riderepo.Filter, *Error) {
	var out riderepo.Filter
	if f.Destination != "" {
		loc, ok := domain.ParseLocation(f.Destination)
		if !ok {
			return out, &Error{Status: 400, Code: "invalid_location", Details: map[string]string{"destination": "invalid_location"}}
		}
		out.Destination = &loc
	}
	if f.FromSpot != "" {
		loc, ok := domain.ParseLocation(f.FromSpot)
		if !ok {
			return out, &Error{Status: 400, Code: "invalid_location", Details: map[string]string{"fromSpot": "invalid_location"}}
		}
		out.FromSpot = &loc
	}
	if f.Date != "" {
		day, err := time.Parse("2006-01-02", f.Date)
		if err != nil {
			return out, &Error{Status: 400, Code: "invalid_datetime", Details: map[string]string{"date": "invalid_datetime"}}
		}
		start := day.UTC()
		end := start.Add(24 * time.Hour)
		out.DepartsFrom = &start
		out.DepartsUntil = &end
	}
	return out, nil
}

func hasMember(members []riderepo.Member, userID domain.UserID) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func toDomainMembers(members []riderepo.Member) []domain.RideMember {
	out := make([]domain.RideMember, 0, len(members))
	for _, m := range members {
		out = append(out, domain.RideMember{
			RideID:   m.RideID,
			UserID:   m.UserID,
			JoinedAt: m.JoinedAt,
		})
	}
	return out
}

func toDomainCheck(c *riderepo.LocationCheck) *domain.LocationCheck {
	if c == nil {
		return nil
	}
	var matched *bool
	if c.Matched != nil {
		v := *c.Matched
		matched = &v
	}
	return &domain.LocationCheck{IP: c.IP, Matched: matched, CheckedAt: c.CheckedAt}
}

func userName(u userrepo.User) string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return string(u.ID)
}

// nameCache avoids refetching the same user while projecting one request's
// worth of rides. It is request-scoped, never shared.
type nameCache struct {
	users userrepo.Repository
	seen  map[domain.UserID]userrepo.User
}

func newNameCache(users userrepo.Repository) *nameCache {
	return &nameCache{users: users, seen: make(map[domain.UserID]userrepo.User)}
}

func (c *nameCache) get(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	if u, ok := c.seen[id]; ok {
		return u, nil
	}
	u, err := c.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			// Driver rows can outlive user cleanup in dev databases; fall
			// back to the bare id rather than failing the whole listing.
			u = userrepo.User{ID: id}
			c.seen[id] = u
			return u, nil
		}
		return userrepo.User{}, err
	}
	c.seen[id] = u
	return u, nil
}
