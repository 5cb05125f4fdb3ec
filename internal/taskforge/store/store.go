package store

import (
	"context"
	"errors"

	"github.com/brumalio/taskforge/internal/taskforge/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep the two concerns separate and make
// the service layer trivially testable against an in-memory database.
type Store interface {
	Users() Users
	Tasks() Tasks

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Prefer this over
	// Tx for multi-step operations (e.g. the task update read-modify-write).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByUsername is used during login. Lookup is case-sensitive;
	// usernames are stored exactly as registered.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user and returns its generated id. A duplicate
	// username or email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	// UpdatePasswordHash sets the password_hash. Not exposed over HTTP yet,
	// but the schema supports hash rotation.
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error

	// SetUserActive toggles the account flag. Deactivated accounts fail
	// authentication and their outstanding tokens stop working.
	SetUserActive(ctx context.Context, userID int64, active bool) error
}

type Tasks interface {
	// CreateTask inserts a new task and returns its generated id. A duplicate
	// (title, user_id) pair yields ErrAlreadyExists.
	CreateTask(ctx context.Context, t domain.Task) (int64, error)

	// GetTaskByIDAndOwner returns the task only when it belongs to owner.
	// A task owned by someone else is ErrNotFound, same as a missing one.
	GetTaskByIDAndOwner(ctx context.Context, id, owner int64) (domain.Task, error)

	// ListTasksByOwner returns the owner's tasks ordered by priority descending.
	ListTasksByOwner(ctx context.Context, owner int64) ([]domain.Task, error)

	// UpdateTask writes all mutable fields of t, scoped to (t.ID, t.UserID),
	// and bumps updated_at. ErrNotFound if the row is not the caller's.
	// A duplicate (title, user_id) pair yields ErrAlreadyExists.
	UpdateTask(ctx context.Context, t domain.Task) error

	// DeleteTask removes the task scoped to (id, owner). ErrNotFound if the
	// row is missing or owned by someone else.
	DeleteTask(ctx context.Context, id, owner int64) error
}
