package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brumalio/taskforge/internal/taskforge/service"
	"github.com/brumalio/taskforge/pkg/httpx"
	"github.com/brumalio/taskforge/pkg/slogx"
)

// LoginHandler serves POST /auth/login.
type LoginHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Authenticate and obtain a bearer token
//	@Description	Validates a username/password pair and returns a short-lived access token. The response for a wrong password is identical to the response for an unknown username.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	tokenResponse
//	@Failure		401		{object}	httpx.Error	"Invalid credentials"
//	@Header			200		{string}	Cache-Control	"no-store"
//	@Router			/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.UserService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.ErrUnauthorized.WriteError(w)
			return
		}
		log.Error("authentication failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	token, err := h.TokenService.Issue(user)
	if err != nil {
		log.Error("token issuance failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
