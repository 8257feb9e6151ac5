package shutdown

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Class is the coarse-grained urgency tier a background task registers
// under. The coordinator drains classes in order, most urgent first. It is
// unrelated to the numeric priority the ready queue uses for dispatch.
type Class int

const (
	ClassCritical Class = iota
	ClassHigh
	ClassNormal
	ClassLow
)

// classOrder is the drain order, highest urgency first.
var classOrder = [...]Class{ClassCritical, ClassHigh, ClassNormal, ClassLow}

func (c Class) String() string {
	switch c {
	case ClassCritical:
		return "critical"
	case ClassHigh:
		return "high"
	case ClassNormal:
		return "normal"
	case ClassLow:
		return "low"
	default:
		return "unknown"
	}
}

// Outcome records how a registered task ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeFailed
	OutcomeCancelled
)

// Handle represents one background task registered with the coordinator.
// The owning goroutine watches Context for cancellation and reports its
// ending through Complete or Fail; the first report wins and later ones
// are ignored.
type Handle struct {
	id          string
	name        string
	component   string
	description string
	class       Class
	createdAt   time.Time

	ctx    context.Context
	cancel context.CancelFunc

	finishOnce sync.Once
	done       chan struct{}
	err        error

	coord *Coordinator
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string { return h.id }

// Name returns the human-readable task name.
func (h *Handle) Name() string { return h.name }

// Component returns the owning component name.
func (h *Handle) Component() string { return h.component }

// Description returns the task description.
func (h *Handle) Description() string { return h.description }

// Class returns the task's shutdown priority class.
func (h *Handle) Class() Class { return h.class }

// CreatedAt returns when the task was registered.
func (h *Handle) CreatedAt() time.Time { return h.createdAt }

// Context is cancelled when the coordinator wants the task to stop.
func (h *Handle) Context() context.Context { return h.ctx }

// Done is closed once the task has reported an ending.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Complete reports that the task finished its work.
func (h *Handle) Complete() {
	h.finish(OutcomeCompleted, nil)
}

// Fail reports that the task ended with an error. An error that wraps
// context.Canceled counts as an acknowledged cancellation rather than a
// failure.
func (h *Handle) Fail(err error) {
	if errors.Is(err, context.Canceled) {
		h.finish(OutcomeCancelled, err)
		return
	}
	h.finish(OutcomeFailed, err)
}

// finish records the ending exactly once. The err write happens inside the
// once guard so a losing concurrent caller cannot race the winner's
// noteFinished read of h.err.
func (h *Handle) finish(outcome Outcome, err error) {
	h.finishOnce.Do(func() {
		h.err = err
		h.cancel()
		close(h.done)
		h.coord.noteFinished(h, outcome)
	})
}
