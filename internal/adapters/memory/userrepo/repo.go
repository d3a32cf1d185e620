package userrepo

import (
	"context"
	"sync"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/userrepo"
)

// Repo is an in-memory implementation of userrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.UserID]userrepo.User
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.UserID]userrepo.User)}
}

func (r *Repo) Upsert(ctx context.Context, u userrepo.User) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
	}
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return cloneUser(u), nil
}

func cloneUser(u userrepo.User) userrepo.User {
	cp := u
	if u.DisplayName != nil {
		v := *u.DisplayName
		cp.DisplayName = &v
	}
	return cp
}
