package userrepo

import (
	"context"
	"time"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
)

// User is the persistence shape used by the user repository.
// It is not an HTTP DTO.
type User struct {
	ID domain.UserID
	// DisplayName is optional; nil means unset (the id is shown instead).
	DisplayName *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted users.
type Repository interface {
	// Upsert creates the user on first login or updates the display name of
	// an existing row. The id is immutable.
	Upsert(ctx context.Context, u User) error

	GetByID(ctx context.Context, id domain.UserID) (User, error)
}
