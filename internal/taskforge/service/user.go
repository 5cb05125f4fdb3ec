package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/brumalio/taskforge/internal/taskforge/domain"
	"github.com/brumalio/taskforge/internal/taskforge/store"
	"github.com/brumalio/taskforge/pkg/cryptox"
	"github.com/brumalio/taskforge/pkg/slogx"
)

var (
	// ErrInvalidCredentials is returned for every authentication failure.
	// Unknown username and wrong password are deliberately indistinguishable
	// to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrUserExists is returned when registration hits a uniqueness
	// constraint on username or email. Terminal; never retried.
	ErrUserExists = errors.New("user_exists")
)

type UserService struct {
	Store store.Store
}

// Register creates a new user with a freshly hashed password. The email is
// normalized to lowercase before storage.
func (s *UserService) Register(
	ctx context.Context,
	username, email, password string,
) (domain.User, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	id, err := s.Store.Users().CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			slogx.FromContext(ctx).Info("registration conflict",
				slog.String("username", username))
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, err
	}

	u.ID = id
	return u, nil
}

// Authenticate validates a username/password pair. The username lookup is
// case-sensitive. On a lookup miss a dummy hash comparison still runs so the
// miss path costs about the same as a wrong password.
func (s *UserService) Authenticate(
	ctx context.Context,
	username, password string,
) (domain.User, error) {
	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.DummyVerify(password)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if !cryptox.VerifyPassword(password, u.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}

	return u, nil
}

// GetUserByID fetches a user by id. Used by the authn middleware to confirm
// the token subject still exists and is active.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, id)
}
