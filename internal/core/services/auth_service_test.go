package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/core/services"
	"github.com/tokencustody/token_custody_app/internal/platform/config"
)

type AuthServiceTestSuite struct {
	suite.Suite
	mockUserRepo *MockUserRepository
	cfg          *config.Config
	service      portssvc.AuthSvcFacade
	ctx          context.Context
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.mockUserRepo = new(MockUserRepository)
	s.cfg = &config.Config{
		JWTSecret:         "test-secret",
		JWTIssuer:         "token-custody-app",
		JWTExpiryDuration: time.Hour,
	}
	s.service = services.NewAuthService(s.mockUserRepo, s.cfg)
	s.ctx = context.Background()
}

func (s *AuthServiceTestSuite) storedUser(password string) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.Require().NoError(err)
	return &domain.User{
		UserID:       "user-1",
		Username:     "alice",
		Name:         "Alice",
		PasswordHash: string(hash),
	}
}

func (s *AuthServiceTestSuite) TestLogin_Success() {
	s.mockUserRepo.On("FindUserByUsername", s.ctx, "alice").Return(s.storedUser("s3cret"), nil)

	resp, err := s.service.Login(s.ctx, "alice", "s3cret")

	s.Require().NoError(err)
	s.Equal("user-1", resp.UserID)
	s.NotEmpty(resp.AccessToken)
	s.WithinDuration(time.Now().Add(time.Hour), resp.ExpiresAt, 5*time.Second)

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(resp.AccessToken, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	})
	s.Require().NoError(err)
	s.True(token.Valid)
	s.Equal("user-1", claims.Subject)
	s.Equal("token-custody-app", claims.Issuer)
}

func (s *AuthServiceTestSuite) TestLogin_WrongPassword() {
	s.mockUserRepo.On("FindUserByUsername", s.ctx, "alice").Return(s.storedUser("s3cret"), nil)

	_, err := s.service.Login(s.ctx, "alice", "wrong")

	s.Require().ErrorIs(err, services.ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLogin_UnknownUsername() {
	s.mockUserRepo.On("FindUserByUsername", s.ctx, "ghost").Return(nil, apperrors.ErrNotFound)

	_, err := s.service.Login(s.ctx, "ghost", "whatever")

	s.Require().ErrorIs(err, services.ErrInvalidCredentials)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
