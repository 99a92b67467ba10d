package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-travel-booking/internal/domain/entity"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicatePhone    = errors.New("duplicate phone number")
)

// UserRepository defines the persistence port for user records.
// Lookups return ErrNotFound when nothing matches. Create and Apply return
// ErrDuplicateUsername, ErrDuplicateEmail or ErrDuplicatePhone when a unique
// constraint is violated; the store is the authority on uniqueness.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	// GetByResetToken matches the stored token whether or not it has expired.
	GetByResetToken(ctx context.Context, token string) (*entity.User, error)
	// Apply persists the mutations on the record with the given id atomically.
	Apply(ctx context.Context, id string, muts ...entity.Mutation) error
}
