package auth

import (
	"context"
	"errors"

	"listkeeper/internal/apperr"
	"listkeeper/internal/model"
	"listkeeper/internal/repository"
	"listkeeper/internal/util"
)

type Service struct {
	users     repository.UserStore
	jwtSecret string
}

func NewService(users repository.UserStore, jwtSecret string) *Service {
	return &Service{
		users:     users,
		jwtSecret: jwtSecret,
	}
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" {
		return nil, apperr.Validationf("username is required")
	}
	if len(password) < 8 {
		return nil, apperr.Validationf("password must be at least 8 characters")
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.users.Create(ctx, username, hash)
}

// Login checks credentials and returns a session JWT. Wrong username and
// wrong password read the same to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.Validationf("invalid username or password")
		}
		return "", err
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		return "", apperr.Validationf("invalid username or password")
	}

	return util.GenerateLoginJWT(u.ID, s.jwtSecret)
}
