package event

import "time"

// Event is the interface implemented by all bus events.
type Event interface {
	// EventType returns the type string used for subscription matching.
	EventType() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type strings.
const (
	TypeTaskSubmitted     = "task.submitted"
	TypeTaskStarted       = "task.started"
	TypeTaskRetrying      = "task.retrying"
	TypeTaskCompleted     = "task.completed"
	TypeTaskFailed        = "task.failed"
	TypeTaskCancelled     = "task.cancelled"
	TypeQueueDepthChanged = "queue.depth_changed"
)

// base carries the timestamp shared by all event types.
type base struct {
	At time.Time
}

func (b base) Timestamp() time.Time { return b.At }

func now() base { return base{At: time.Now()} }

// TaskSubmitted is published when a task enters the engine.
type TaskSubmitted struct {
	base
	TaskID   string
	Kind     string
	Priority int
}

func (TaskSubmitted) EventType() string { return TypeTaskSubmitted }

// NewTaskSubmitted creates a TaskSubmitted event.
func NewTaskSubmitted(taskID, kind string, priority int) TaskSubmitted {
	return TaskSubmitted{base: now(), TaskID: taskID, Kind: kind, Priority: priority}
}

// TaskStarted is published when the dispatcher hands a task to its handler.
// Attempt is zero for the first invocation.
type TaskStarted struct {
	base
	TaskID  string
	Attempt int
}

func (TaskStarted) EventType() string { return TypeTaskStarted }

// NewTaskStarted creates a TaskStarted event.
func NewTaskStarted(taskID string, attempt int) TaskStarted {
	return TaskStarted{base: now(), TaskID: taskID, Attempt: attempt}
}

// TaskRetrying is published when a failed task is re-queued with budget
// remaining. Attempt is the retry count after the increment.
type TaskRetrying struct {
	base
	TaskID  string
	Attempt int
	Reason  string
}

func (TaskRetrying) EventType() string { return TypeTaskRetrying }

// NewTaskRetrying creates a TaskRetrying event.
func NewTaskRetrying(taskID string, attempt int, reason string) TaskRetrying {
	return TaskRetrying{base: now(), TaskID: taskID, Attempt: attempt, Reason: reason}
}

// TaskCompleted is published when a task reaches the completed state.
type TaskCompleted struct {
	base
	TaskID string
}

func (TaskCompleted) EventType() string { return TypeTaskCompleted }

// NewTaskCompleted creates a TaskCompleted event.
func NewTaskCompleted(taskID string) TaskCompleted {
	return TaskCompleted{base: now(), TaskID: taskID}
}

// TaskFailed is published when a task exhausts its retry budget.
type TaskFailed struct {
	base
	TaskID string
	Reason string
}

func (TaskFailed) EventType() string { return TypeTaskFailed }

// NewTaskFailed creates a TaskFailed event.
func NewTaskFailed(taskID, reason string) TaskFailed {
	return TaskFailed{base: now(), TaskID: taskID, Reason: reason}
}

// TaskCancelled is published when a task finalizes as cancelled.
type TaskCancelled struct {
	base
	TaskID string
}

func (TaskCancelled) EventType() string { return TypeTaskCancelled }

// NewTaskCancelled creates a TaskCancelled event.
func NewTaskCancelled(taskID string) TaskCancelled {
	return TaskCancelled{base: now(), TaskID: taskID}
}

// QueueDepthChanged is published after any operation that changes the
// engine's state counts.
type QueueDepthChanged struct {
	base
	Pending int
	Running int
	Parked  int
}

func (QueueDepthChanged) EventType() string { return TypeQueueDepthChanged }

// NewQueueDepthChanged creates a QueueDepthChanged event.
func NewQueueDepthChanged(pending, running, parked int) QueueDepthChanged {
	return QueueDepthChanged{base: now(), Pending: pending, Running: running, Parked: parked}
}
