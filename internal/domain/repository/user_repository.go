package repository

import (
	"context"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
// Create returns ErrDuplicate when the email is already registered; lookups
// return ErrNotFound when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	DeleteAll(ctx context.Context) error
}
