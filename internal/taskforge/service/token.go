package service

import (
	"errors"
	"time"

	"github.com/brumalio/taskforge/internal/taskforge/domain"
	"github.com/brumalio/taskforge/pkg/jwtx"
)

// ErrInvalidToken is the single failure every token defect collapses into:
// bad signature, wrong algorithm, expired, not yet valid, missing identity
// claims, malformed structure. Callers must not learn which check failed.
var ErrInvalidToken = errors.New("invalid_token")

// TokenService issues and verifies the stateless bearer tokens. The HS256
// secret lives inside the signer/verifier, injected once at startup.
type TokenService struct {
	Signer    jwtx.Signer
	Verifier  jwtx.Verifier
	AccessTTL time.Duration
}

// Issue mints a signed access token for an authenticated user. Claims:
// subject=username, uid=user id, iat/nbf=now, exp=now+TTL.
func (s *TokenService) Issue(u domain.User) (string, error) {
	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}
	return s.Signer.Sign(jwtx.NewAccessClaims(u.Username, u.ID, ttl, time.Now().UTC()))
}

// Verify checks the token and returns its claims, or ErrInvalidToken.
func (s *TokenService) Verify(raw string) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}
