// Package engine implements the task orchestration engine: submission,
// priority- and dependency-aware dispatch, bounded retry, and cooperative
// cancellation of in-process work.
//
// An Engine owns its task records for their entire lifetime. Callers
// interact only through Submit, Status, Cancel and RegisterHandler; all
// record mutation happens under the engine's own lock, with a single
// dispatcher goroutine driving state transitions.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/taskwell/taskwell/internal/errors"
	"github.com/taskwell/taskwell/internal/event"
	"github.com/taskwell/taskwell/internal/logging"
	"github.com/taskwell/taskwell/internal/queue"
	"github.com/taskwell/taskwell/internal/task"
)

// Handler executes one task attempt. The context is cancelled when the task
// is cancelled or the engine stops; handlers are expected to observe it at
// safe points. A non-nil error triggers the retry policy. Panics are
// recovered and treated as execution errors.
type Handler func(ctx context.Context, info task.Info) (any, error)

// Engine schedules and executes submitted tasks. All exported methods are
// safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	log               *logging.Logger
	bus               *event.Bus
	defaultMaxRetries int

	handlers map[string]Handler
	active   map[string]*task.Task
	terminal map[string]*task.Task

	ready   *queue.Ready
	deps    *queue.DependencyIndex
	waiters *queue.Waiters
	cancels map[string]context.CancelFunc

	seq  uint64
	wake chan struct{}

	started        bool
	stopped        bool
	cancelRun      context.CancelFunc
	dispatcherDone chan struct{}

	drainWaiters []chan struct{}
}

// New creates an Engine. It does not dispatch until Start is called;
// submissions made before Start are queued.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:               logging.Nop(),
		bus:               event.NewBus(),
		defaultMaxRetries: task.DefaultMaxRetries,
		handlers:          make(map[string]Handler),
		active:            make(map[string]*task.Task),
		terminal:          make(map[string]*task.Task),
		ready:             queue.NewReady(),
		deps:              queue.NewDependencyIndex(),
		waiters:           queue.NewWaiters(),
		cancels:           make(map[string]context.CancelFunc),
		wake:              make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithComponent("engine")
	return e
}

// Bus returns the engine's event bus for lifecycle subscriptions.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// RegisterHandler associates a kind string with a handler. This is the sole
// integration point with domain-specific work; the engine never inspects
// what the handler does.
func (e *Engine) RegisterHandler(kind string, h Handler) error {
	if kind == "" {
		return apperrors.NewValidationError("kind must not be empty").WithField("kind")
	}
	if h == nil {
		return apperrors.NewValidationError("handler must not be nil").WithField("handler")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.handlers[kind]; ok {
		return apperrors.Wrapf(apperrors.ErrDuplicateKind, "register %q", kind)
	}
	e.handlers[kind] = h
	return nil
}

// Submit enqueues a new pending task and returns its ID. It fails
// synchronously when the kind has no registered handler or the engine has
// been stopped; execution failures never propagate back to the submitter.
func (e *Engine) Submit(kind string, opts ...SubmitOption) (string, error) {
	sub := submission{maxRetries: -1}
	for _, opt := range opts {
		opt(&sub)
	}
	if sub.maxRetries < 0 && sub.maxRetriesSet {
		return "", apperrors.NewValidationError("max retries must not be negative").
			WithField("max_retries").WithValue(sub.maxRetries)
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return "", apperrors.Wrap(apperrors.ErrEngineStopped, "submit")
	}
	if _, ok := e.handlers[kind]; !ok {
		e.mu.Unlock()
		return "", apperrors.Wrapf(apperrors.ErrUnknownKind, "submit kind %q", kind)
	}

	id := sub.id
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := e.active[id]; ok {
		e.mu.Unlock()
		return "", apperrors.Wrapf(apperrors.ErrDuplicateID, "submit %q", id)
	}
	if _, ok := e.terminal[id]; ok {
		e.mu.Unlock()
		return "", apperrors.Wrapf(apperrors.ErrDuplicateID, "submit %q", id)
	}

	maxRetries := e.defaultMaxRetries
	if sub.maxRetriesSet {
		maxRetries = sub.maxRetries
	}

	deps := make([]string, len(sub.dependencies))
	copy(deps, sub.dependencies)

	e.seq++
	t := &task.Task{
		ID:           id,
		Kind:         kind,
		Priority:     sub.priority,
		Dependencies: deps,
		State:        task.StatePending,
		MaxRetries:   maxRetries,
		SubmittedAt:  time.Now(),
		Seq:          e.seq,
	}
	e.active[id] = t

	if missing := e.deps.Missing(deps); len(missing) == 0 {
		e.ready.Push(queue.Item{ID: id, Priority: t.Priority, Seq: t.Seq})
		e.signalWake()
	} else {
		e.waiters.Park(id, missing)
	}

	evts := []event.Event{
		event.NewTaskSubmitted(id, kind, t.Priority),
		e.depthEventLocked(),
	}
	e.mu.Unlock()

	e.log.Debug("task submitted", "task_id", id, "kind", kind, "priority", t.Priority)
	e.publish(evts)
	return id, nil
}

// Status returns the caller-visible projection of a task, looking in both
// the active and terminal stores.
func (e *Engine) Status(id string) (task.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.active[id]; ok {
		return t.Snapshot(), nil
	}
	if t, ok := e.terminal[id]; ok {
		return t.Snapshot(), nil
	}
	return task.Status{}, apperrors.NewNotFoundError("task", id)
}

// Cancel requests cancellation of a task. It returns false when the task is
// already terminal and an error when the ID is unknown. A pending task
// finalizes immediately without its handler ever running; a running task
// has its context cancelled and finalizes as cancelled once the dispatcher
// observes the handler return — cancellation is cooperative and never
// preempts handler code.
func (e *Engine) Cancel(id string) (bool, error) {
	e.mu.Lock()

	t, ok := e.active[id]
	if !ok {
		_, terminal := e.terminal[id]
		e.mu.Unlock()
		if terminal {
			return false, nil
		}
		return false, apperrors.NewNotFoundError("task", id)
	}

	t.CancelRequested = true

	var evts []event.Event
	if t.State == task.StatePending {
		evts = e.finalizeLocked(t, task.StateCancelled)
	} else if c := e.cancels[id]; c != nil {
		c()
	}
	e.mu.Unlock()

	e.log.Info("task cancel requested", "task_id", id)
	e.publish(evts)
	return true, nil
}

// Start launches the dispatcher goroutine. The provided context bounds the
// engine's lifetime; cancelling it is equivalent to Stop.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return apperrors.New("engine already started")
	}
	if e.stopped {
		return apperrors.Wrap(apperrors.ErrEngineStopped, "start")
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancelRun = cancel
	e.started = true
	e.dispatcherDone = make(chan struct{})

	go e.dispatch(ctx)
	e.signalWake()

	e.log.Info("engine started")
	return nil
}

// Stop halts dispatch and rejects further submissions. It cancels the
// contexts of running handlers and returns once the dispatcher goroutine
// has exited; handlers already in flight finalize their tasks on their own
// goroutines as they return. Stop is idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	wasStarted := e.started
	if e.cancelRun != nil {
		e.cancelRun()
	}
	done := e.dispatcherDone
	e.mu.Unlock()

	if wasStarted {
		<-done
	}
	e.log.Info("engine stopped")
}

// Drain blocks until the engine has no active tasks or the context expires.
func (e *Engine) Drain(ctx context.Context) error {
	e.mu.Lock()
	if len(e.active) == 0 {
		e.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	e.drainWaiters = append(e.drainWaiters, ch)
	e.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), "drain")
	}
}

// Stats is a snapshot of the engine's state counts. Pending includes tasks
// parked on unmet dependencies; Parked counts those separately as well.
type Stats struct {
	Pending   int `json:"pending"`
	Parked    int `json:"parked"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	Total     int `json:"total"`
}

// Stats returns a snapshot of current state counts.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{Parked: e.waiters.Len()}
	for _, t := range e.active {
		switch t.State {
		case task.StatePending:
			s.Pending++
		case task.StateRunning:
			s.Running++
		}
	}
	for _, t := range e.terminal {
		switch t.State {
		case task.StateCompleted:
			s.Completed++
		case task.StateFailed:
			s.Failed++
		case task.StateCancelled:
			s.Cancelled++
		}
	}
	s.Total = len(e.active) + len(e.terminal)
	return s
}

// signalWake nudges the dispatcher without blocking. Must be called while
// e.mu is held.
func (e *Engine) signalWake() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// depthEventLocked builds a QueueDepthChanged event from current counts.
// Must be called while e.mu is held.
func (e *Engine) depthEventLocked() event.Event {
	var pending, running int
	for _, t := range e.active {
		switch t.State {
		case task.StatePending:
			pending++
		case task.StateRunning:
			running++
		}
	}
	return event.NewQueueDepthChanged(pending, running, e.waiters.Len())
}

// publish delivers events outside the engine lock.
func (e *Engine) publish(evts []event.Event) {
	for _, ev := range evts {
		e.bus.Publish(ev)
	}
}
