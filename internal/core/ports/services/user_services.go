package services

import (
	"context"

	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/dto"
)

// UserSvcFacade exposes user management for maker/checker/trader actors.
type UserSvcFacade interface {
	// CreateUser registers a new user with a bcrypt-hashed password.
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// AuthSvcFacade exposes authentication.
type AuthSvcFacade interface {
	// Login verifies credentials and returns a signed JWT.
	Login(ctx context.Context, username, password string) (*dto.LoginResponse, error)
}
