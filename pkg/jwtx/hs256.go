// Package jwtx signs and verifies the HS256 bearer tokens this service
// issues. The signing secret is symmetric and process-wide; it is injected
// at construction and never read from ambient state.
package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrAlgMismatch  = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")

	errShortSecret = errors.New("jwtx: signing secret must be at least 32 bytes")
)

// MinSecretLen guards against weak HMAC secrets (HS256 keys should be at
// least as long as the hash output).
const MinSecretLen = 32

// Signer is anything that can sign Claims into a compact token.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// Verifier validates a token and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256Signer signs tokens with HMAC-SHA256 over a shared secret.
type HS256Signer struct {
	secret []byte
}

func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinSecretLen {
		return nil, errShortSecret
	}
	return &HS256Signer{secret: secret}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

func (s *HS256Signer) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// HS256Verifier verifies tokens against the same shared secret. The
// algorithm is pinned: tokens signed with "none" or any non-HMAC method are
// rejected before signature checking, closing algorithm-confusion attacks.
type HS256Verifier struct {
	secret []byte
}

func NewVerifierHS256(secret []byte) (*HS256Verifier, error) {
	if len(secret) < MinSecretLen {
		return nil, errShortSecret
	}
	return &HS256Verifier{secret: secret}, nil
}

func (v *HS256Verifier) Verify(raw string) (Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, v.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Claims{}, ErrInvalidClaim
	}

	if err := claims.ValidateIdentity(); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

func (v *HS256Verifier) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrAlgMismatch
	}
	return v.secret, nil
}

// mapParseError folds the jwt library's error tree into our sentinels so
// callers can switch on errors.Is without importing the library.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, ErrAlgMismatch), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrAlgMismatch
	default:
		return ErrInvalidClaim
	}
}
