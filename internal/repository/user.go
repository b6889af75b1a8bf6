package repository

import (
	"context"
	"errors"

	"targetboard/internal/domain"
)

// ErrDuplicateUsername is returned by Create when the username is taken.
var ErrDuplicateUsername = errors.New("username already exists")

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// UpdateTarget writes the target column and returns the updated row in the
	// same round trip.
	UpdateTarget(ctx context.Context, id, target string) (*domain.User, error)
}
