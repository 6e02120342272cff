package repositories

import (
	"context"

	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

// UserReader defines read operations for users
type UserReader interface {
	// FindUserByID retrieves a user by ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByUsername retrieves a user by username.
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// UserWriter defines write operations for users
type UserWriter interface {
	// CreateUser persists a new user.
	CreateUser(ctx context.Context, user domain.User) error
}

// UserRepositoryFacade combines all user repository interfaces
type UserRepositoryFacade interface {
	UserReader
	UserWriter
}
