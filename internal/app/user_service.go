package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/awnumar/memguard"

	"github.com/nielle003/patient-record/internal/auth"
	"github.com/nielle003/patient-record/internal/storage"
)

// UserService registers accounts and checks logins. Passwords are stored as
// argon2id hashes; rows imported from older backups may still hold plaintext
// and are rehashed in place the first time they log in successfully.
type UserService struct {
	users  storage.UserRepository
	logger *slog.Logger
}

func NewUserService(users storage.UserRepository, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, logger: logger}
}

func (s *UserService) Register(ctx context.Context, username string, password []byte) (int64, error) {
	defer memguard.WipeBytes(password)

	username = strings.TrimSpace(username)
	if username == "" {
		return 0, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(password) < 4 {
		return 0, fmt.Errorf("%w: password must be at least 4 characters", ErrValidation)
	}

	hash, err := auth.HashPassword(password, auth.DefaultParams())
	if err != nil {
		return 0, fmt.Errorf("register user: %w", err)
	}

	id, err := s.users.Create(ctx, &storage.User{Username: username, Password: hash})
	if err != nil {
		return 0, fmt.Errorf("register user: %w", err)
	}
	return id, nil
}

// Login verifies the credentials. A stored plaintext password (legacy rows)
// is compared in constant time and upgraded to a hash on success.
func (s *UserService) Login(ctx context.Context, username string, password []byte) error {
	defer memguard.WipeBytes(password)

	username = strings.TrimSpace(username)
	if username == "" || len(password) == 0 {
		return fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrAuthFailed
	}
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if auth.IsHashed(user.Password) {
		ok, err := auth.VerifyPassword(user.Password, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if !ok {
			return ErrAuthFailed
		}
		return nil
	}

	if !auth.LegacyEqual(user.Password, password) {
		return ErrAuthFailed
	}

	// Legacy plaintext row: rehash now that we hold the password anyway.
	hash, err := auth.HashPassword(password, auth.DefaultParams())
	if err != nil {
		return fmt.Errorf("login: upgrade password hash: %w", err)
	}
	if _, err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Warn("could not upgrade legacy password hash", "user_id", user.ID, "error", err)
	} else {
		s.logger.Info("upgraded legacy password to argon2id", "user_id", user.ID)
	}
	return nil
}

func (s *UserService) List(ctx context.Context) ([]storage.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	// Never hand hashes (or legacy plaintext) to callers.
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}
