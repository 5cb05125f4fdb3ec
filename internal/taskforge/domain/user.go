package domain

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string // stored lowercased
	PasswordHash string // bcrypt encoded
	IsActive     bool
	CreatedAt    time.Time
}

// Identity is the authenticated caller as established by the authn
// middleware. Handlers must only ever receive it from the request context,
// never construct it from client input.
type Identity struct {
	UserID   int64
	Username string
}
