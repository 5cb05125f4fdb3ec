package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/brumalio/taskforge/internal/taskforge/domain"
	"github.com/brumalio/taskforge/internal/taskforge/service"
	"github.com/brumalio/taskforge/internal/taskforge/store"
	"github.com/brumalio/taskforge/pkg/httpx"
	"github.com/brumalio/taskforge/pkg/slogx"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// identityFromContext returns the authenticated caller. It only succeeds on
// requests that passed through AuthnMiddleware.
func identityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(domain.Identity)
	return id, ok
}

// AuthnMiddleware is the gate every task endpoint sits behind. It extracts
// the bearer token, verifies it, then re-resolves the subject against the
// live user store rather than trusting the claims alone; a token stays
// worthless once its account is deactivated or gone. Every failure mode
// answers with the same generic 401.
func AuthnMiddleware(tokens *service.TokenService, users *service.UserService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				httpx.WriteBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := tokens.Verify(raw)
			if err != nil {
				log.Warn("token verification failed")
				httpx.WriteBearerError(w, "invalid token")
				return
			}

			u, err := users.GetUserByID(ctx, claims.UID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					log.Warn("token subject no longer exists", "uid", claims.UID)
					httpx.WriteBearerError(w, "invalid token")
					return
				}
				log.Error("user lookup failed during authn", "err", err)
				httpx.ErrServerError.WriteError(w)
				return
			}
			if !u.IsActive {
				log.Warn("token subject is inactive", "uid", claims.UID)
				httpx.WriteBearerError(w, "invalid token")
				return
			}

			identity := domain.Identity{UserID: u.ID, Username: u.Username}
			ctx = context.WithValue(ctx, ctxKeyIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityKeyExtractor groups rate-limited requests by authenticated user.
func identityKeyExtractor(r *http.Request) string {
	if id, ok := identityFromContext(r.Context()); ok {
		return strconv.FormatInt(id.UserID, 10)
	}
	return ""
}

func rateLimitByUser(config httpx.RateLimitConfig) httpx.Middleware {
	return httpx.RateLimit(config, identityKeyExtractor)
}
