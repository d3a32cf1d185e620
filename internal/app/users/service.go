package users

import (
	"context"
	"errors"
	"strings"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	clockport "github.com/sfc-mobility/campus-rides-api/internal/ports/out/clock"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/userrepo"
)

type Service struct {
	repo userrepo.Repository
	clk  clockport.Clock
}

func NewService(repo userrepo.Repository, clk clockport.Clock) *Service {
	return &Service{repo: repo, clk: clk}
}

// Get returns the caller's profile.
func (s *Service) Get(ctx context.Context, id domain.UserID) (domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, &Error{Status: 400, Code: "not_found"}
		}
		return domain.User{}, err
	}
	return toDomain(u), nil
}

// Upsert creates the caller's user row on first login and applies the
// display-name change when one is specified.
func (s *Service) Upsert(ctx context.Context, id domain.UserID, in UpsertMeInput) (domain.User, error) {
	if _, ok := domain.ParseUserID(string(id)); !ok {
		return domain.User{}, &Error{Status: 400, Code: "invalid_id"}
	}

	now := s.clk.Now()
	u := userrepo.User{ID: id, CreatedAt: now, UpdatedAt: now}
	if existing, err := s.repo.GetByID(ctx, id); err == nil {
		u = existing
		u.UpdatedAt = now
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return domain.User{}, err
	}

	if in.Name.IsSpecified() {
		if in.Name.IsNull() {
			u.DisplayName = nil
		} else {
			name := strings.TrimSpace(in.Name.Value())
			if name == "" {
				u.DisplayName = nil
			} else {
				u.DisplayName = &name
			}
		}
	}

	if err := s.repo.Upsert(ctx, u); err != nil {
		return domain.User{}, err
	}
	return toDomain(u), nil
}

func toDomain(u userrepo.User) domain.User {
	out := domain.User{ID: u.ID}
	if u.DisplayName != nil {
		out.DisplayName = *u.DisplayName
	}
	return out
}
