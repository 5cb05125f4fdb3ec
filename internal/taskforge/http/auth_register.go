package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brumalio/taskforge/internal/taskforge/service"
	"github.com/brumalio/taskforge/pkg/httpx"
	"github.com/brumalio/taskforge/pkg/slogx"
)

// RegisterHandler serves POST /auth/register.
type RegisterHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Register a new user
//	@Description	Creates a user account. Usernames are 3-20 characters of letters, digits and underscores; passwords are 8-72 characters. The email is stored lowercased.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		registerRequest	true	"Registration payload"
//	@Success		201		{object}	statusResponse
//	@Failure		400		{object}	httpx.Error	"Validation failure or registration conflict"
//	@Router			/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}
	if err := req.validate(); err != nil {
		err.WriteError(w)
		return
	}

	if _, err := h.UserService.Register(ctx, req.Username, req.Email, req.Password); err != nil {
		if errors.Is(err, service.ErrUserExists) {
			// Deliberately vague: don't confirm which of username/email is taken.
			httpx.NewError(http.StatusBadRequest, httpx.ErrorCodeInvalidRequest,
				"registration failed").WriteError(w)
			return
		}
		log.Error("registration failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, statusResponse{Status: "user created successfully"})
}
