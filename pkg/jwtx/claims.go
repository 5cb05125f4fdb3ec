package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brumalio/taskforge/pkg/idx"
)

// DefaultAccessTokenTTL is the lifetime of an access token. There is no
// refresh mechanism; clients re-authenticate once it lapses.
const DefaultAccessTokenTTL = 20 * time.Minute

// Claims are the access-token claims. The subject is the username; UID
// carries the numeric user id so handlers can resolve the account without a
// username lookup. Keep changes additive to preserve compatibility.
type Claims struct {
	jwt.RegisteredClaims

	// UID is the numeric id of the authenticated user.
	UID int64 `json:"uid,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for a freshly
// authenticated user.
func NewAccessClaims(username string, userID int64, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.New().String(),
		},
		UID: userID,
	}
}

// ValidateIdentity ensures both identity claims are present. Signature and
// time checks alone don't guarantee a token carries who it is for.
func (c *Claims) ValidateIdentity() error {
	if c.Subject == "" || c.UID == 0 {
		return ErrInvalidClaim
	}
	return nil
}
