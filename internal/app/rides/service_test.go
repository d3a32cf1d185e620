package rides_test

import (
	"context"
	"errors"
	"testing"
	"time"

	memriderepo "github.com/sfc-mobility/campus-rides-api/internal/adapters/memory/riderepo"
	memuserrepo "github.com/sfc-mobility/campus-rides-api/internal/adapters/memory/userrepo"
	"github.com/sfc-mobility/campus-rides-api/internal/app/rides"
	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/locverify"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/userrepo"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// fakeVerifier records the last check and replays a canned verdict.
type fakeVerifier struct {
	verdict  locverify.Verdict
	err      error
	lastIP   string
	lastLoc  domain.Location
	numCalls int
}

func (v *fakeVerifier) Verify(_ context.Context, ip string, loc domain.Location) (locverify.Verdict, error) {
	v.numCalls++
	v.lastIP = ip
	v.lastLoc = loc
	return v.verdict, v.err
}

var testNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *rides.Service
	users    *memuserrepo.Repo
	rides    *memriderepo.Repo
	verifier *fakeVerifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    memuserrepo.NewRepo(),
		rides:    memriderepo.NewRepo(),
		verifier: &fakeVerifier{},
	}
	f.svc = rides.NewService(f.rides, f.users, f.verifier, fixedClock{t: testNow})
	return f
}

func (f *fixture) provision(t *testing.T, id domain.UserID, name string) {
	t.Helper()
	u := userrepo.User{ID: id, CreatedAt: testNow, UpdatedAt: testNow}
	if name != "" {
		u.DisplayName = &name
	}
	if err := f.users.Upsert(context.Background(), u); err != nil {
		t.Fatalf("provision %s: %v", id, err)
	}
}

func (f *fixture) createRide(t *testing.T, driver domain.UserID, in rides.CreateRideInput) rides.Created {
	t.Helper()
	created, err := f.svc.Create(context.Background(), driver, in)
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return created
}

func carInput(capacity int) rides.CreateRideInput {
	return rides.CreateRideInput{
		Mode:        "car",
		Destination: "g_parking",
		FromSpot:    "shonandai",
		DepartsAt:   "2025-06-01T09:30:00Z",
		Capacity:    capacity,
	}
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var ae *rides.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected app error, got %v", err)
	}
	return ae.Code
}

func TestCreate_UnknownDriver(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "ghost", carInput(2))
	if got := appCode(t, err); got != "user_not_found" {
		t.Fatalf("code=%q", got)
	}
}

func TestCreate_DefaultsAndProjection(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provision(t, "driver-1", "Daiki")

	created := f.createRide(t, "driver-1", carInput(2))
	if created.ID == 0 {
		t.Fatal("no id assigned")
	}
	if created.Driver.ID != "driver-1" || created.Driver.Name != "Daiki" {
		t.Fatalf("driver=%+v", created.Driver)
	}
	if created.Note != "" {
		t.Fatalf("note=%q, want defaulted empty", created.Note)
	}
	if !created.CreatedAt.Equal(testNow) {
		t.Fatalf("createdAt=%v", created.CreatedAt)
	}
	// Route property: exactly one endpoint is a station.
	if created.Destination.IsStation() == created.FromSpot.IsStation() {
		t.Fatalf("route %s -> %s is not station-campus", created.FromSpot, created.Destination)
	}
}

func TestCreate_TaxiKeepsMinParticipants(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provision(t, "driver-1", "")

	in := carInput(4)
	in.Mode = "taxi"
	min := 2
	in.MinParticipants = &min
	created := f.createRide(t, "driver-1", in)
	if created.Mode != domain.ModeTaxi || created.MinParticipants != 2 {
		t.Fatalf("created=%+v", created)
	}
}

func TestJoin_LifecycleAndCodes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provision(t, "driver-1", "")
	f.provision(t, "rider-1", "")
	f.provision(t, "rider-2", "")
	f.provision(t, "rider-3", "")
	created := f.createRide(t, "driver-1", carInput(2))
	ctx := context.Background()

	if err := f.svc.Join(ctx, "rider-1", created.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	// Membership count increased by exactly one.
	sums, err := f.svc.List(ctx, nil, rides.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sums) != 1 || sums[0].MembersCount != 1 {
		t.Fatalf("summaries=%+v", sums)
	}

	if got := appCode(t, f.svc.Join(ctx, "rider-1", created.ID)); got != "already_joined" {
		t.Fatalf("second join code=%q", got)
	}
	if err := f.svc.Join(ctx, "rider-2", created.ID); err != nil {
		t.Fatalf("join rider-2: %v", err)
	}
	if got := appCode(t, f.svc.Join(ctx, "rider-3", created.ID)); got != "full" {
		t.Fatalf("over-capacity join code=%q", got)
	}
	// Full wins over prior membership.
	if got := appCode(t, f.svc.Join(ctx, "rider-1", created.ID)); got != "full" {
		t.Fatalf("member join on full ride code=%q", got)
	}

	if got := appCode(t, f.svc.Join(ctx, "ghost", created.ID)); got != "user_not_found" {
		t.Fatalf("unknown user code=%q", got)
	}
	if got := appCode(t, f.svc.Join(ctx, "rider-3", created.ID+99)); got != "not_found" {
		t.Fatalf("missing ride code=%q", got)
	}
}

func TestLeave(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provision(t, "driver-1", "")
	f.provision(t, "rider-1", "")
	created := f.createRide(t, "driver-1", carInput(2))
	ctx := context.Background()

	if got := appCode(t, f.svc.Leave(ctx, "rider-1", created.ID)); got != "not_joined" {
		t.Fatalf("leave before join code=%q", got)
	}
	if err := f.svc.Join(ctx, "rider-1", created.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.svc.Leave(ctx, "rider-1", created.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got := appCode(t, f.svc.Leave(ctx, "rider-1", created.ID)); got != "not_joined" {
		t.Fatalf("repeated leave code=%q", got)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provision(t, "driver-1", "")
	f.provision(t, "rider-1", "")
	created := f.createRide(t, "driver-1", carInput(2))
	ctx := context.Background()

	if got := appCode(t, f.svc.Remove(ctx, "rider-1", created.ID)); got != "forbidden" {
		t.Fatalf("non-driver remove code=%q", got)
	}
	if err := f.svc.Remove(ctx, "driver-1", created.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := f.svc.Detail(ctx, nil, created.ID); appCode(t, err) != "not_found" {
		t.Fatalf("detail after remove: %v", err)
	}
	if got := appCode(t, f.svc.Remove(ctx, "driver-1", created.ID)); got != "not_found" {
		t.Fatalf("repeated remove code=%q", got)
	}
}

func TestDetail_Visibility(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provision(t, "driver-1", "Daiki")
	f.provision(t, "rider-1", "Rio")
	created := f.createRide(t, "driver-1", carInput(2))
	ctx := context.Background()
	if err := f.svc.Join(ctx, "rider-1", created.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := f.svc.VerifyMember(ctx, "driver-1", created.ID, "rider-1"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// Anonymous viewer: no roster, not joined.
	d, err := f.svc.Detail(ctx, nil, created.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(d.Members) != 0 || d.Joined || d.Verified {
		t.Fatalf("anonymous detail=%+v", d)
	}

	// Member viewer: still no roster, but own verified flag set.
	viewer := domain.UserID("rider-1")
	d, err = f.svc.Detail(ctx, &viewer, created.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(d.Members) != 0 {
		t.Fatalf("member sees roster: %+v", d.Members)
	}
	if !d.Joined || !d.Verified {
		t.Fatalf("member detail=%+v", d)
	}

	// Driver viewer: full roster with names and verification state.
	viewer = "driver-1"
	d, err = f.svc.Detail(ctx, &viewer, created.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(d.Members) != 1 || d.Members[0].ID != "rider-1" || d.Members[0].Name != "Rio" || !d.Members[0].Verified {
		t.Fatalf("driver roster=%+v", d.Members)
	}
}

func TestListMine(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provision(t, "driver-1", "")
	f.provision(t, "rider-1", "")
	first := f.createRide(t, "driver-1", carInput(3))
	second := f.createRide(t, "rider-1", rides.CreateRideInput{
		Mode:        "car",
		Destination: "tsujido",
		FromSpot:    "main_cross",
		DepartsAt:   "2025-06-01T18:00:00Z",
		Capacity:    3,
	})
	ctx := context.Background()
	if err := f.svc.Join(ctx, "rider-1", first.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	ids := func(role rides.Role) []domain.RideID {
		out, err := f.svc.ListMine(ctx, "rider-1", role)
		if err != nil {
			t.Fatalf("listMine %s: %v", role, err)
		}
		got := make([]domain.RideID, 0, len(out))
		for _, s := range out {
			got = append(got, s.ID)
		}
		return got
	}

	if got := ids(rides.RoleDriver); len(got) != 1 || got[0] != second.ID {
		t.Fatalf("driver rides=%v", got)
	}
	if got := ids(rides.RoleMember); len(got) != 1 || got[0] != first.ID {
		t.Fatalf("member rides=%v", got)
	}
	if got := ids(rides.RoleAll); len(got) != 2 {
		t.Fatalf("all rides=%v", got)
	}
}

func TestSubmitLocationCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	matched := false
	f.verifier.verdict = locverify.Verdict{Matched: &matched}
	f.provision(t, "driver-1", "")
	f.provision(t, "rider-1", "")
	created := f.createRide(t, "driver-1", carInput(2))
	ctx := context.Background()

	if got := appCode(t, errOf(f.svc.SubmitLocationCheck(ctx, "rider-1", created.ID, "203.0.113.7"))); got != "not_joined" {
		t.Fatalf("non-member code=%q", got)
	}
	if f.verifier.numCalls != 0 {
		t.Fatal("verifier called for non-member")
	}

	if err := f.svc.Join(ctx, "rider-1", created.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	check, err := f.svc.SubmitLocationCheck(ctx, "rider-1", created.ID, "203.0.113.7")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if check.IP != "203.0.113.7" || check.Matched == nil || *check.Matched {
		t.Fatalf("check=%+v", check)
	}
	if !check.CheckedAt.Equal(testNow) {
		t.Fatalf("checkedAt=%v", check.CheckedAt)
	}
	// The departure spot is the meeting point that gets verified.
	if f.verifier.lastLoc != domain.StationShonandai || f.verifier.lastIP != "203.0.113.7" {
		t.Fatalf("verifier saw %s %s", f.verifier.lastLoc, f.verifier.lastIP)
	}

	// A fresh submission overwrites the stored verdict.
	f.verifier.verdict = locverify.Verdict{}
	check, err = f.svc.SubmitLocationCheck(ctx, "rider-1", created.ID, "203.0.113.8")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if check.IP != "203.0.113.8" || check.Matched != nil {
		t.Fatalf("resubmitted check=%+v", check)
	}

	viewer := domain.UserID("rider-1")
	d, err := f.svc.Detail(ctx, &viewer, created.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if d.SelfLocationCheck == nil || d.SelfLocationCheck.IP != "203.0.113.8" {
		t.Fatalf("selfLocationCheck=%+v", d.SelfLocationCheck)
	}
}

func TestSubmitLocationCheck_VerifierFailurePropagates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.verifier.err = errors.New("upstream down")
	f.provision(t, "driver-1", "")
	f.provision(t, "rider-1", "")
	created := f.createRide(t, "driver-1", carInput(2))
	ctx := context.Background()
	if err := f.svc.Join(ctx, "rider-1", created.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	_, err := f.svc.SubmitLocationCheck(ctx, "rider-1", created.ID, "203.0.113.7")
	var ae *rides.Error
	if err == nil || errors.As(err, &ae) {
		t.Fatalf("want raw internal error, got %v", err)
	}
}

func TestVerifyMember(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provision(t, "driver-1", "")
	f.provision(t, "rider-1", "")
	created := f.createRide(t, "driver-1", carInput(2))
	ctx := context.Background()
	if err := f.svc.Join(ctx, "rider-1", created.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if got := appCode(t, f.svc.VerifyMember(ctx, "rider-1", created.ID, "rider-1")); got != "forbidden" {
		t.Fatalf("non-driver verify code=%q", got)
	}
	if got := appCode(t, f.svc.VerifyMember(ctx, "driver-1", created.ID, "driver-1")); got != "not_joined" {
		t.Fatalf("verify non-member code=%q", got)
	}
	if err := f.svc.VerifyMember(ctx, "driver-1", created.ID, "rider-1"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	// Idempotent.
	if err := f.svc.VerifyMember(ctx, "driver-1", created.ID, "rider-1"); err != nil {
		t.Fatalf("re-verify: %v", err)
	}
}

func TestList_NameFallsBackToID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provision(t, "driver-1", "")
	f.createRide(t, "driver-1", carInput(2))

	sums, err := f.svc.List(context.Background(), nil, rides.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sums) != 1 || sums[0].Driver.Name != "driver-1" {
		t.Fatalf("summaries=%+v", sums)
	}
}

func TestList_Filters(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provision(t, "driver-1", "")
	f.createRide(t, "driver-1", carInput(2))
	f.createRide(t, "driver-1", rides.CreateRideInput{
		Mode:        "car",
		Destination: "tsujido",
		FromSpot:    "main_cross",
		DepartsAt:   "2025-06-02T09:00:00Z",
		Capacity:    3,
	})
	ctx := context.Background()

	sums, err := f.svc.List(ctx, nil, rides.ListFilter{Destination: "tsujido"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sums) != 1 || sums[0].Destination != domain.StationTsujido {
		t.Fatalf("filtered=%+v", sums)
	}

	sums, err = f.svc.List(ctx, nil, rides.ListFilter{Date: "2025-06-01"})
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(sums) != 1 || sums[0].Destination != domain.SpotGParking {
		t.Fatalf("date filtered=%+v", sums)
	}

	if _, err := f.svc.List(ctx, nil, rides.ListFilter{Destination: "mars"}); appCode(t, err) != "invalid_location" {
		t.Fatalf("bad destination: %v", err)
	}
	if _, err := f.svc.List(ctx, nil, rides.ListFilter{Date: "yesterday"}); appCode(t, err) != "invalid_datetime" {
		t.Fatalf("bad date: %v", err)
	}
}

// errOf drops the value of a (T, error) return so it can feed appCode.
func errOf[T any](_ T, err error) error { return err }
