package app

import (
	"context"
	"strings"
	"time"

	"course-authoring-service/internal/auth"
	"course-authoring-service/internal/logger"
)

// AuthService exchanges credentials for access tokens.
type AuthService struct {
	users  UserDirectory
	issuer *auth.TokenIssuer
	log    *logger.Logger
}

func NewAuthService(users UserDirectory, issuer *auth.TokenIssuer, log *logger.Logger) *AuthService {
	return &AuthService{users: users, issuer: issuer, log: log.With("service", "AuthService")}
}

// Authenticate returns a signed token and its lifetime.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (string, time.Duration, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", 0, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		s.log.Warn("login rejected", "user_id", user.ID)
		return "", 0, err
	}
	token, err := s.issuer.Issue(user)
	if err != nil {
		return "", 0, err
	}
	return token, s.issuer.TTL(), nil
}

// Verify resolves a bearer token to its principal.
func (s *AuthService) Verify(token string) (auth.Principal, error) {
	return s.issuer.Verify(token)
}
