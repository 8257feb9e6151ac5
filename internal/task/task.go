// Package task defines the unit-of-work record managed by the engine and
// its lifecycle state machine. Records are created on submission, mutated
// only by the dispatcher (or an explicit cancel), and move to a terminal
// store exactly once.
package task

import (
	"time"
)

// State represents the lifecycle state of a task.
type State string

const (
	// StatePending indicates the task is waiting to be dispatched.
	StatePending State = "pending"

	// StateRunning indicates the task's handler is executing.
	StateRunning State = "running"

	// StateCompleted indicates the task finished successfully.
	StateCompleted State = "completed"

	// StateFailed indicates the task failed and exhausted all retries.
	StateFailed State = "failed"

	// StateCancelled indicates the task was cancelled before or during
	// execution. Cancellation wins over any concurrent outcome.
	StateCancelled State = "cancelled"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true if this state is final: no further transitions
// occur out of a terminal state.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// DefaultMaxRetries is applied when a submission does not set its own budget.
const DefaultMaxRetries = 2

// Task is the engine-owned record for one unit of work. Callers never hold
// a Task directly; they receive Status snapshots from the engine.
//
// Dependencies is immutable after creation. RetryCount never exceeds
// MaxRetries. Seq is a monotonic sequence assigned at submission (and
// refreshed on retry) used to break priority ties FIFO.
type Task struct {
	ID           string
	Kind         string
	Priority     int
	Dependencies []string

	State      State
	RetryCount int
	MaxRetries int

	SubmittedAt time.Time
	Seq         uint64
	StartedAt   *time.Time
	FinishedAt  *time.Time

	Result any
	Err    string

	// CancelRequested records that a cancel signal was observed. Once set,
	// the task finalizes as cancelled at the next dispatcher checkpoint and
	// no retry occurs.
	CancelRequested bool
}

// Status is the caller-visible projection of a task. All fields are copies;
// mutating a Status has no effect on the engine's record.
type Status struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	State      State   `json:"state"`
	Priority   int     `json:"priority"`
	RetryCount int     `json:"retry_count"`
	Progress   float64 `json:"progress"`
	Result     any     `json:"result,omitempty"`
	Err        string  `json:"error,omitempty"`
}

// Info is the read-only view handed to handlers when a task is dispatched.
// Attempt is zero on the first invocation and equals RetryCount on retries.
type Info struct {
	ID       string
	Kind     string
	Priority int
	Attempt  int
}

// Snapshot returns the caller-visible projection of the task. Progress is a
// coarse state-derived fraction: 0 while pending, 0.5 while running, 1 once
// terminal. Handlers do not report finer-grained progress.
func (t *Task) Snapshot() Status {
	var progress float64
	switch {
	case t.State.IsTerminal():
		progress = 1
	case t.State == StateRunning:
		progress = 0.5
	}
	return Status{
		ID:         t.ID,
		Kind:       t.Kind,
		State:      t.State,
		Priority:   t.Priority,
		RetryCount: t.RetryCount,
		Progress:   progress,
		Result:     t.Result,
		Err:        t.Err,
	}
}

// Info returns the handler-facing view of the task.
func (t *Task) Info() Info {
	return Info{
		ID:       t.ID,
		Kind:     t.Kind,
		Priority: t.Priority,
		Attempt:  t.RetryCount,
	}
}
