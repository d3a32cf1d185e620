// Package contracttest holds behavioral test suites that every repository
// implementation (memory and postgres) must pass.
package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	riderepoport "github.com/sfc-mobility/campus-rides-api/internal/ports/out/riderepo"
	userrepoport "github.com/sfc-mobility/campus-rides-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

type UserRepoFactory func(t *testing.T) (userrepoport.Repository, CleanupFunc)
type RideRepoFactory func(t *testing.T) (riderepoport.Repository, CleanupFunc)

// newUserID returns a fresh id in the shape the API accepts.
func newUserID() domain.UserID {
	return domain.UserID("u-" + uuid.NewString()[:8])
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	id := newUserID()

	if _, err := repo.GetByID(ctx, id); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("GetByID before insert: err=%v, want ErrNotFound", err)
	}

	name := "Aoi"
	if err := repo.Upsert(ctx, userrepoport.User{
		ID:          id,
		DisplayName: &name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ID != id || got.DisplayName == nil || *got.DisplayName != "Aoi" {
		t.Fatalf("unexpected user: %+v", got)
	}

	// Upsert again clears the name and keeps CreatedAt.
	later := now.Add(time.Hour)
	if err := repo.Upsert(ctx, userrepoport.User{
		ID:        id,
		CreatedAt: later,
		UpdatedAt: later,
	}); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	got, err = repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.DisplayName != nil {
		t.Fatalf("DisplayName = %q, want cleared", *got.DisplayName)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v, want preserved %v", got.CreatedAt, now)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}
}

// RunRideRepo exercises rides and membership together; memberships reference
// users, so the suite seeds through both repositories.
func RunRideRepo(t *testing.T, newUserRepo UserRepoFactory, newRideRepo RideRepoFactory) {
	t.Helper()
	ctx := context.Background()

	users, uCleanup := newUserRepo(t)
	if uCleanup != nil {
		t.Cleanup(uCleanup)
	}
	rides, rCleanup := newRideRepo(t)
	if rCleanup != nil {
		t.Cleanup(rCleanup)
	}

	now := time.Unix(2000, 0).UTC()
	seedUser := func(t *testing.T) domain.UserID {
		t.Helper()
		id := newUserID()
		if err := users.Upsert(ctx, userrepoport.User{ID: id, CreatedAt: now, UpdatedAt: now}); err != nil {
			t.Fatalf("seed user: %v", err)
		}
		return id
	}

	driver := seedUser(t)
	departs := now.Add(2 * time.Hour)

	created, err := rides.Create(ctx, riderepoport.Ride{
		DriverID:    driver,
		Mode:        domain.ModeCar,
		Destination: domain.SpotGParking,
		FromSpot:    domain.StationShonandai,
		DepartsAt:   departs,
		Capacity:    2,
		Note:        "meet at the ticket gate",
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("Create did not assign an id")
	}

	got, err := rides.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.DriverID != driver || got.Destination != domain.SpotGParking || !got.DepartsAt.Equal(departs) {
		t.Fatalf("unexpected ride: %+v", got)
	}
	if _, err := rides.GetByID(ctx, created.ID+999); !errors.Is(err, riderepoport.ErrNotFound) {
		t.Fatalf("GetByID missing: err=%v, want ErrNotFound", err)
	}

	// Listing: ordered by departure, filters apply.
	later, err := rides.Create(ctx, riderepoport.Ride{
		DriverID:    driver,
		Mode:        domain.ModeCar,
		Destination: domain.StationTsujido,
		FromSpot:    domain.SpotMainCross,
		DepartsAt:   departs.Add(time.Hour),
		Capacity:    3,
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	all, err := rides.List(ctx, riderepoport.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != created.ID || all[1].ID != later.ID {
		t.Fatalf("unexpected list order: %#v", all)
	}
	dest := domain.StationTsujido
	filtered, err := rides.List(ctx, riderepoport.Filter{Destination: &dest})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != later.ID {
		t.Fatalf("unexpected filtered list: %#v", filtered)
	}
	from := departs.Add(30 * time.Minute)
	until := departs.Add(90 * time.Minute)
	windowed, err := rides.List(ctx, riderepoport.Filter{DepartsFrom: &from, DepartsUntil: &until})
	if err != nil {
		t.Fatalf("List windowed: %v", err)
	}
	if len(windowed) != 1 || windowed[0].ID != later.ID {
		t.Fatalf("unexpected windowed list: %#v", windowed)
	}

	// Membership: capacity and duplicate rules enforced at insert.
	riderA := seedUser(t)
	riderB := seedUser(t)
	riderC := seedUser(t)
	if err := rides.AddMember(ctx, created.ID, riderA, now); err != nil {
		t.Fatalf("AddMember a: %v", err)
	}
	if err := rides.AddMember(ctx, created.ID, riderA, now); !errors.Is(err, riderepoport.ErrMemberExists) {
		t.Fatalf("AddMember duplicate: err=%v, want ErrMemberExists", err)
	}
	if err := rides.AddMember(ctx, created.ID, riderB, now); err != nil {
		t.Fatalf("AddMember b: %v", err)
	}
	if err := rides.AddMember(ctx, created.ID, riderC, now); !errors.Is(err, riderepoport.ErrRideFull) {
		t.Fatalf("AddMember over capacity: err=%v, want ErrRideFull", err)
	}
	if err := rides.AddMember(ctx, created.ID+999, riderC, now); !errors.Is(err, riderepoport.ErrNotFound) {
		t.Fatalf("AddMember missing ride: err=%v, want ErrNotFound", err)
	}

	withMembers, err := rides.GetWithMembers(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetWithMembers: %v", err)
	}
	if len(withMembers.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(withMembers.Members))
	}

	// Verification and location checks land on the membership row.
	verifiedAt := now.Add(time.Minute)
	if err := rides.SetMemberVerified(ctx, created.ID, riderA, verifiedAt); err != nil {
		t.Fatalf("SetMemberVerified: %v", err)
	}
	if err := rides.SetMemberVerified(ctx, created.ID, riderC, verifiedAt); !errors.Is(err, riderepoport.ErrMemberNotFound) {
		t.Fatalf("SetMemberVerified non-member: err=%v, want ErrMemberNotFound", err)
	}
	matched := true
	if err := rides.SetMemberLocationCheck(ctx, created.ID, riderA, riderepoport.LocationCheck{
		IP:        "203.0.113.7",
		Matched:   &matched,
		CheckedAt: now.Add(2 * time.Minute),
	}); err != nil {
		t.Fatalf("SetMemberLocationCheck: %v", err)
	}
	m, err := rides.GetMember(ctx, created.ID, riderA)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if m.VerifiedAt == nil || !m.VerifiedAt.Equal(verifiedAt) {
		t.Fatalf("VerifiedAt = %v, want %v", m.VerifiedAt, verifiedAt)
	}
	if m.LocationCheck == nil || m.LocationCheck.IP != "203.0.113.7" || m.LocationCheck.Matched == nil || !*m.LocationCheck.Matched {
		t.Fatalf("unexpected location check: %+v", m.LocationCheck)
	}

	// Leaving frees the seat.
	if err := rides.RemoveMember(ctx, created.ID, riderB); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if err := rides.RemoveMember(ctx, created.ID, riderB); !errors.Is(err, riderepoport.ErrMemberNotFound) {
		t.Fatalf("RemoveMember again: err=%v, want ErrMemberNotFound", err)
	}
	if err := rides.AddMember(ctx, created.ID, riderC, now); err != nil {
		t.Fatalf("AddMember after leave: %v", err)
	}

	// Delete cascades membership.
	if err := rides.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := rides.Delete(ctx, created.ID); !errors.Is(err, riderepoport.ErrNotFound) {
		t.Fatalf("Delete again: err=%v, want ErrNotFound", err)
	}
	if _, err := rides.GetMember(ctx, created.ID, riderA); !errors.Is(err, riderepoport.ErrMemberNotFound) {
		t.Fatalf("GetMember after delete: err=%v, want ErrMemberNotFound", err)
	}
}
