package domain

import "time"

// CognitiveLoad grades how much focus a task demands.
type CognitiveLoad int

const (
	CognitiveLoadLow    CognitiveLoad = 1
	CognitiveLoadMedium CognitiveLoad = 2
	CognitiveLoadHigh   CognitiveLoad = 3
)

func (c CognitiveLoad) Valid() bool {
	return c >= CognitiveLoadLow && c <= CognitiveLoadHigh
}

type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// State is the workflow state of a task. Transitions are not validated;
// the owner may set any value on update.
type State int

const (
	StatePending   State = 1
	StateActive    State = 2
	StateCompleted State = 3
	StatePaused    State = 4
)

func (s State) Valid() bool {
	return s >= StatePending && s <= StatePaused
}

type Task struct {
	ID             int64
	Title          string
	Description    string // optional, empty when unset
	CognitiveLoad  CognitiveLoad
	Priority       Priority
	State          State
	IsFragmentable bool
	UserID         int64 // owner, immutable after creation
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title          *string
	Description    *string
	CognitiveLoad  *CognitiveLoad
	Priority       *Priority
	State          *State
	IsFragmentable *bool
}
