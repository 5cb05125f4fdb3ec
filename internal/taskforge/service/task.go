package service

import (
	"context"
	"errors"

	"github.com/brumalio/taskforge/internal/taskforge/domain"
	"github.com/brumalio/taskforge/internal/taskforge/store"
)

var (
	// ErrTaskNotFound covers both a genuinely missing task and a task owned
	// by another user. The two must stay indistinguishable to the caller.
	ErrTaskNotFound = errors.New("task_not_found")

	// ErrDuplicateTitle is returned when a (title, owner) pair already exists.
	ErrDuplicateTitle = errors.New("duplicate_title")
)

// TaskService applies the ownership policy to every task operation: a task
// is visible and mutable only by its owner, and the owner of a new task is
// always the authenticated caller.
type TaskService struct {
	Store store.Store
}

// CreateTaskInput carries the validated fields for a new task. There is no
// owner field on purpose; the owner comes from the identity.
type CreateTaskInput struct {
	Title          string
	Description    string
	CognitiveLoad  domain.CognitiveLoad
	Priority       domain.Priority
	State          domain.State
	IsFragmentable bool
}

// Create inserts a task owned by the caller. Whatever owner a client might
// have supplied upstream never reaches this point.
func (s *TaskService) Create(
	ctx context.Context,
	identity domain.Identity,
	in CreateTaskInput,
) (domain.Task, error) {
	t := domain.Task{
		Title:          in.Title,
		Description:    in.Description,
		CognitiveLoad:  in.CognitiveLoad,
		Priority:       in.Priority,
		State:          in.State,
		IsFragmentable: in.IsFragmentable,
		UserID:         identity.UserID,
	}

	id, err := s.Store.Tasks().CreateTask(ctx, t)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Task{}, ErrDuplicateTitle
		}
		return domain.Task{}, err
	}

	return s.Store.Tasks().GetTaskByIDAndOwner(ctx, id, identity.UserID)
}

// List returns the caller's tasks ordered by priority descending.
func (s *TaskService) List(ctx context.Context, identity domain.Identity) ([]domain.Task, error) {
	return s.Store.Tasks().ListTasksByOwner(ctx, identity.UserID)
}

// Get returns the task only if the caller owns it.
func (s *TaskService) Get(
	ctx context.Context,
	identity domain.Identity,
	taskID int64,
) (domain.Task, error) {
	t, err := s.Store.Tasks().GetTaskByIDAndOwner(ctx, taskID, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Task{}, ErrTaskNotFound
		}
		return domain.Task{}, err
	}
	return t, nil
}

// Update applies a partial update to the caller's task as a transactional
// read-modify-write. Unset patch fields keep their current values;
// concurrent updates are last-writer-wins at the field level. State
// transitions are not validated, any enum value is accepted.
func (s *TaskService) Update(
	ctx context.Context,
	identity domain.Identity,
	taskID int64,
	patch domain.TaskPatch,
) (domain.Task, error) {
	var updated domain.Task

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		t, err := tx.Tasks().GetTaskByIDAndOwner(ctx, taskID, identity.UserID)
		if err != nil {
			return err
		}

		applyPatch(&t, patch)

		if err := tx.Tasks().UpdateTask(ctx, t); err != nil {
			return err
		}

		updated, err = tx.Tasks().GetTaskByIDAndOwner(ctx, taskID, identity.UserID)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return domain.Task{}, ErrTaskNotFound
		case errors.Is(err, store.ErrAlreadyExists):
			return domain.Task{}, ErrDuplicateTitle
		}
		return domain.Task{}, err
	}

	return updated, nil
}

// Delete removes the caller's task. A foreign task id yields ErrTaskNotFound,
// never a forbidden-style answer.
func (s *TaskService) Delete(ctx context.Context, identity domain.Identity, taskID int64) error {
	err := s.Store.Tasks().DeleteTask(ctx, taskID, identity.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

func applyPatch(t *domain.Task, patch domain.TaskPatch) {
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.CognitiveLoad != nil {
		t.CognitiveLoad = *patch.CognitiveLoad
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.State != nil {
		t.State = *patch.State
	}
	if patch.IsFragmentable != nil {
		t.IsFragmentable = *patch.IsFragmentable
	}
}
