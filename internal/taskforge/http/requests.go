package http

import (
	"net/mail"
	"regexp"
	"time"

	"github.com/brumalio/taskforge/internal/taskforge/domain"
	"github.com/brumalio/taskforge/internal/taskforge/service"
	"github.com/brumalio/taskforge/pkg/httpx"
)

// Validation bounds. Password limits match bcrypt's 72-byte input cap;
// everything else mirrors the database schema.
const (
	minUsernameLen    = 3
	maxUsernameLen    = 20
	minPasswordLen    = 8
	maxPasswordLen    = 72
	minTitleLen       = 1
	maxTitleLen       = 128
	minDescriptionLen = 3
	maxDescriptionLen = 512
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type registerRequest struct {
	Username string `json:"username" example:"brumalio_dev"`
	Email    string `json:"email" example:"johndoe@example.com"`
	Password string `json:"password" example:"MySecurePassword123"`
}

func (r *registerRequest) validate() *httpx.Error {
	if len(r.Username) < minUsernameLen || len(r.Username) > maxUsernameLen {
		return httpx.NewError(400, httpx.ErrorCodeInvalidRequest,
			"username must be 3-20 characters")
	}
	if !usernamePattern.MatchString(r.Username) {
		return httpx.NewError(400, httpx.ErrorCodeInvalidRequest,
			"username may only contain letters, digits and underscores")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return httpx.NewError(400, httpx.ErrorCodeInvalidRequest,
			"email is not a valid address")
	}
	if len(r.Password) < minPasswordLen || len(r.Password) > maxPasswordLen {
		return httpx.NewError(400, httpx.ErrorCodeInvalidRequest,
			"password must be 8-72 characters")
	}
	return nil
}

type loginRequest struct {
	Username string `json:"username" example:"brumalio_dev"`
	Password string `json:"password" example:"MySecurePassword123"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type createTaskRequest struct {
	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	CognitiveLoad  *int    `json:"cognitive_load,omitempty"`
	Priority       *int    `json:"priority,omitempty"`
	State          *int    `json:"state,omitempty"`
	IsFragmentable *bool   `json:"is_fragmentable,omitempty"`
}

func (r *createTaskRequest) validate() *httpx.Error {
	if err := validateTitle(r.Title); err != nil {
		return err
	}
	if err := validateDescription(r.Description); err != nil {
		return err
	}
	return validateEnums(r.CognitiveLoad, r.Priority, r.State)
}

// toInput applies the creation defaults: low load, low priority, pending.
func (r *createTaskRequest) toInput() service.CreateTaskInput {
	in := service.CreateTaskInput{
		Title:         r.Title,
		CognitiveLoad: domain.CognitiveLoadLow,
		Priority:      domain.PriorityLow,
		State:         domain.StatePending,
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	if r.CognitiveLoad != nil {
		in.CognitiveLoad = domain.CognitiveLoad(*r.CognitiveLoad)
	}
	if r.Priority != nil {
		in.Priority = domain.Priority(*r.Priority)
	}
	if r.State != nil {
		in.State = domain.State(*r.State)
	}
	if r.IsFragmentable != nil {
		in.IsFragmentable = *r.IsFragmentable
	}
	return in
}

type updateTaskRequest struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	CognitiveLoad  *int    `json:"cognitive_load,omitempty"`
	Priority       *int    `json:"priority,omitempty"`
	State          *int    `json:"state,omitempty"`
	IsFragmentable *bool   `json:"is_fragmentable,omitempty"`
}

func (r *updateTaskRequest) validate() *httpx.Error {
	if r.Title != nil {
		if err := validateTitle(*r.Title); err != nil {
			return err
		}
	}
	if err := validateDescription(r.Description); err != nil {
		return err
	}
	return validateEnums(r.CognitiveLoad, r.Priority, r.State)
}

func (r *updateTaskRequest) toPatch() domain.TaskPatch {
	patch := domain.TaskPatch{
		Title:          r.Title,
		Description:    r.Description,
		IsFragmentable: r.IsFragmentable,
	}
	if r.CognitiveLoad != nil {
		cl := domain.CognitiveLoad(*r.CognitiveLoad)
		patch.CognitiveLoad = &cl
	}
	if r.Priority != nil {
		p := domain.Priority(*r.Priority)
		patch.Priority = &p
	}
	if r.State != nil {
		st := domain.State(*r.State)
		patch.State = &st
	}
	return patch
}

func validateTitle(title string) *httpx.Error {
	if len(title) < minTitleLen || len(title) > maxTitleLen {
		return httpx.NewError(400, httpx.ErrorCodeInvalidRequest,
			"title must be 1-128 characters")
	}
	return nil
}

func validateDescription(desc *string) *httpx.Error {
	if desc == nil {
		return nil
	}
	if len(*desc) < minDescriptionLen || len(*desc) > maxDescriptionLen {
		return httpx.NewError(400, httpx.ErrorCodeInvalidRequest,
			"description must be 3-512 characters")
	}
	return nil
}

func validateEnums(load, priority, state *int) *httpx.Error {
	if load != nil && !domain.CognitiveLoad(*load).Valid() {
		return httpx.NewError(400, httpx.ErrorCodeInvalidRequest,
			"cognitive_load must be 1 (low), 2 (medium) or 3 (high)")
	}
	if priority != nil && !domain.Priority(*priority).Valid() {
		return httpx.NewError(400, httpx.ErrorCodeInvalidRequest,
			"priority must be 1 (low), 2 (medium) or 3 (high)")
	}
	if state != nil && !domain.State(*state).Valid() {
		return httpx.NewError(400, httpx.ErrorCodeInvalidRequest,
			"state must be 1 (pending), 2 (active), 3 (completed) or 4 (paused)")
	}
	return nil
}

type taskResponse struct {
	TaskID         int64     `json:"task_id"`
	Title          string    `json:"title"`
	Description    *string   `json:"description"`
	CognitiveLoad  int       `json:"cognitive_load"`
	Priority       int       `json:"priority"`
	State          int       `json:"state"`
	IsFragmentable bool      `json:"is_fragmentable"`
	UserID         int64     `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newTaskResponse(t domain.Task) taskResponse {
	resp := taskResponse{
		TaskID:         t.ID,
		Title:          t.Title,
		CognitiveLoad:  int(t.CognitiveLoad),
		Priority:       int(t.Priority),
		State:          int(t.State),
		IsFragmentable: t.IsFragmentable,
		UserID:         t.UserID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.Description != "" {
		resp.Description = &t.Description
	}
	return resp
}

func newTaskListResponse(tasks []domain.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}
	return out
}
