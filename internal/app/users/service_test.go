package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	memuserrepo "github.com/sfc-mobility/campus-rides-api/internal/adapters/memory/userrepo"
	"github.com/sfc-mobility/campus-rides-api/internal/app/users"
	"github.com/sfc-mobility/campus-rides-api/internal/domain"
)

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newService() (*users.Service, *memuserrepo.Repo) {
	repo := memuserrepo.NewRepo()
	clk := &stepClock{t: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	return users.NewService(repo, clk), repo
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var ae *users.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected app error, got %v", err)
	}
	return ae.Code
}

func TestGet_Unknown(t *testing.T) {
	t.Parallel()
	svc, _ := newService()

	_, err := svc.Get(context.Background(), "ghost")
	if got := appCode(t, err); got != "not_found" {
		t.Fatalf("code=%q", got)
	}
}

func TestUpsert_RejectsMalformedID(t *testing.T) {
	t.Parallel()
	svc, _ := newService()
	ctx := context.Background()

	for _, id := range []string{"", "UPPER", "has space", "way-too-long-for-an-identifier-slug-x"} {
		_, err := svc.Upsert(ctx, domain.UserID(id), users.UpsertMeInput{})
		if got := appCode(t, err); got != "invalid_id" {
			t.Fatalf("id %q: code=%q", id, got)
		}
	}
}

func TestUpsert_NameLifecycle(t *testing.T) {
	t.Parallel()
	svc, repo := newService()
	ctx := context.Background()

	// First login with an empty body creates a nameless profile.
	u, err := svc.Upsert(ctx, "s21000aa", users.UpsertMeInput{})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.ID != "s21000aa" || u.DisplayName != "" {
		t.Fatalf("user=%+v", u)
	}
	stored, err := repo.GetByID(ctx, "s21000aa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	created := stored.CreatedAt

	u, err = svc.Upsert(ctx, "s21000aa", users.UpsertMeInput{Name: users.Some("Alice S")})
	if err != nil {
		t.Fatalf("set name: %v", err)
	}
	if u.DisplayName != "Alice S" {
		t.Fatalf("displayName=%q", u.DisplayName)
	}

	// Omitting the field keeps the current name.
	u, err = svc.Upsert(ctx, "s21000aa", users.UpsertMeInput{})
	if err != nil {
		t.Fatalf("keep name: %v", err)
	}
	if u.DisplayName != "Alice S" {
		t.Fatalf("displayName=%q after omit", u.DisplayName)
	}

	// Whitespace trims to empty and clears, same as explicit null.
	u, err = svc.Upsert(ctx, "s21000aa", users.UpsertMeInput{Name: users.Some("   ")})
	if err != nil {
		t.Fatalf("blank name: %v", err)
	}
	if u.DisplayName != "" {
		t.Fatalf("displayName=%q after blank", u.DisplayName)
	}

	u, err = svc.Upsert(ctx, "s21000aa", users.UpsertMeInput{Name: users.Some("Alice S")})
	if err != nil || u.DisplayName != "Alice S" {
		t.Fatalf("reset name: %+v %v", u, err)
	}
	u, err = svc.Upsert(ctx, "s21000aa", users.UpsertMeInput{Name: users.Null[string]()})
	if err != nil {
		t.Fatalf("null name: %v", err)
	}
	if u.DisplayName != "" {
		t.Fatalf("displayName=%q after null", u.DisplayName)
	}

	stored, err = repo.GetByID(ctx, "s21000aa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.CreatedAt.Equal(created) {
		t.Fatalf("createdAt changed: %v -> %v", created, stored.CreatedAt)
	}
	if !stored.UpdatedAt.After(created) {
		t.Fatalf("updatedAt not advanced: %v", stored.UpdatedAt)
	}
}
