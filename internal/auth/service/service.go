package service

import (
	"context"
	"errors"

	"maintops_backend/internal/auth/password"
	"maintops_backend/internal/auth/repository"
	"maintops_backend/internal/auth/token"
	"maintops_backend/internal/config"

	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	repo *repository.Repository
	cfg  *config.Config
}

func New(repo *repository.Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// SignIn verifies the credentials and returns a signed access token plus the
// authenticated user.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (string, repository.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", repository.User{}, ErrInvalidCredentials
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return "", repository.User{}, ErrInvalidCredentials
	}

	accessToken, err := token.SignAccess(user.ID, user.Role, user.FullName, s.cfg.AccessTokenTTL, s.cfg.JWTSecret)
	if err != nil {
		return "", repository.User{}, err
	}

	return accessToken, user, nil
}

func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]repository.User, error) {
	return s.repo.ListUsers(ctx)
}
