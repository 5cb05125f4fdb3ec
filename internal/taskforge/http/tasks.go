package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/brumalio/taskforge/internal/taskforge/domain"
	"github.com/brumalio/taskforge/internal/taskforge/service"
	"github.com/brumalio/taskforge/pkg/httpx"
	"github.com/brumalio/taskforge/pkg/slogx"
)

// TasksHandler serves the owner-scoped task CRUD endpoints. Every method
// requires an identity placed in the context by AuthnMiddleware; the
// ownership policy in TaskService guarantees a caller can never observe
// another user's tasks, not even their existence.
type TasksHandler struct {
	TaskService *service.TaskService
}

// callerIdentity pulls the identity out of the context. A missing identity
// means the route was wired without AuthnMiddleware, which is a bug; answer
// 401 rather than proceed unauthenticated.
func callerIdentity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		httpx.WriteBearerError(w, "missing bearer token")
	}
	return identity, ok
}

// taskID parses the {id} path segment. Non-numeric ids can't name a task,
// so they get the same 404 a missing task would.
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.ErrNotFound.WriteError(w)
		return 0, false
	}
	return id, true
}

// HandleCreate godoc
//
//	@Summary		Create a task
//	@Description	Creates a task owned by the authenticated user. Any owner a client supplies is ignored. Defaults: cognitive_load=1, priority=1, state=1, is_fragmentable=false.
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		createTaskRequest	true	"Task payload"
//	@Success		201		{object}	taskResponse
//	@Failure		400		{object}	httpx.Error	"Validation failure or duplicate title"
//	@Failure		401		{object}	httpx.Error
//	@Router			/tasks [post].
func (h *TasksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}
	if err := req.validate(); err != nil {
		err.WriteError(w)
		return
	}

	task, err := h.TaskService.Create(ctx, identity, req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrDuplicateTitle) {
			httpx.NewError(http.StatusBadRequest, httpx.ErrorCodeInvalidRequest,
				"a task with this title already exists").WriteError(w)
			return
		}
		log.Error("task creation failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, newTaskResponse(task))
}

// HandleList godoc
//
//	@Summary		List tasks
//	@Description	Returns the authenticated user's tasks ordered by priority descending.
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		taskResponse
//	@Failure		401	{object}	httpx.Error
//	@Router			/tasks [get].
func (h *TasksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	tasks, err := h.TaskService.List(ctx, identity)
	if err != nil {
		log.Error("task listing failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newTaskListResponse(tasks))
}

// HandleGet godoc
//
//	@Summary		Get a task
//	@Description	Returns a single task. A task owned by another user answers 404, identical to a nonexistent one.
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Task id"
//	@Success		200	{object}	taskResponse
//	@Failure		401	{object}	httpx.Error
//	@Failure		404	{object}	httpx.Error
//	@Router			/tasks/{id} [get].
func (h *TasksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.TaskService.Get(ctx, identity, id)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			httpx.ErrNotFound.WriteError(w)
			return
		}
		log.Error("task fetch failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newTaskResponse(task))
}

// HandleUpdate godoc
//
//	@Summary		Update a task
//	@Description	Applies a partial update to the authenticated user's task. Omitted fields are left unchanged. State transitions are not validated.
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Task id"
//	@Param			body	body		updateTaskRequest	true	"Fields to update"
//	@Success		200		{object}	taskResponse
//	@Failure		400		{object}	httpx.Error
//	@Failure		401		{object}	httpx.Error
//	@Failure		404		{object}	httpx.Error
//	@Failure		409		{object}	httpx.Error	"Duplicate title for this user"
//	@Router			/tasks/{id} [patch].
func (h *TasksHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}
	if err := req.validate(); err != nil {
		err.WriteError(w)
		return
	}

	task, err := h.TaskService.Update(ctx, identity, id, req.toPatch())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			httpx.ErrNotFound.WriteError(w)
		case errors.Is(err, service.ErrDuplicateTitle):
			httpx.ErrConflict.WriteError(w)
		default:
			log.Error("task update failed", "err", err)
			httpx.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newTaskResponse(task))
}

// HandleDelete godoc
//
//	@Summary		Delete a task
//	@Description	Deletes the authenticated user's task. A task owned by another user answers 404.
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Task id"
//	@Success		204
//	@Failure		401	{object}	httpx.Error
//	@Failure		404	{object}	httpx.Error
//	@Router			/tasks/{id} [delete].
func (h *TasksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.TaskService.Delete(ctx, identity, id); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			httpx.ErrNotFound.WriteError(w)
			return
		}
		log.Error("task deletion failed", "err", err)
		httpx.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
