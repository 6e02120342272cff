package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tokencustody/token_custody_app/internal/apperrors"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/dto"
	"github.com/tokencustody/token_custody_app/internal/platform/config"
)

// ErrInvalidCredentials is returned when username/password verification fails.
// Lookup misses and password mismatches produce the same error so the response
// never reveals which part was wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// authService verifies credentials and issues JWTs.
type authService struct {
	BaseService
	userRepo portsrepo.UserRepositoryFacade
	cfg      *config.Config
}

// NewAuthService creates a new auth service.
func NewAuthService(userRepo portsrepo.UserRepositoryFacade, cfg *config.Config) portssvc.AuthSvcFacade {
	return &authService{userRepo: userRepo, cfg: cfg}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

// Login verifies credentials and returns a signed JWT.
func (s *authService) Login(ctx context.Context, username, password string) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.cfg.JWTExpiryDuration)
	claims := jwt.RegisteredClaims{
		Subject:   user.UserID,
		Issuer:    s.cfg.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to sign token", err)
	}

	s.LogInfo(ctx, "user logged in", "user_id", user.UserID)
	return &dto.LoginResponse{
		UserID:      user.UserID,
		AccessToken: signed,
		ExpiresAt:   expiresAt,
	}, nil
}
