package engine

import (
	"github.com/taskwell/taskwell/internal/event"
	"github.com/taskwell/taskwell/internal/logging"
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default discards all output.
func WithLogger(log *logging.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithBus sets the event bus the engine publishes lifecycle events on.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) {
		if bus != nil {
			e.bus = bus
		}
	}
}

// WithDefaultMaxRetries sets the retry budget applied to submissions that
// do not specify their own.
func WithDefaultMaxRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.defaultMaxRetries = n
		}
	}
}

// submission collects per-task options passed to Submit.
type submission struct {
	id            string
	priority      int
	dependencies  []string
	maxRetries    int
	maxRetriesSet bool
}

// SubmitOption configures a single submission.
type SubmitOption func(*submission)

// WithID sets an explicit task ID instead of a generated one.
func WithID(id string) SubmitOption {
	return func(s *submission) { s.id = id }
}

// WithPriority sets the task's priority; higher values dispatch first.
func WithPriority(p int) SubmitOption {
	return func(s *submission) { s.priority = p }
}

// WithDependencies sets the task IDs that must complete successfully before
// this task may run.
func WithDependencies(ids ...string) SubmitOption {
	return func(s *submission) { s.dependencies = ids }
}

// WithMaxRetries sets the task's retry budget.
func WithMaxRetries(n int) SubmitOption {
	return func(s *submission) {
		s.maxRetries = n
		s.maxRetriesSet = true
	}
}
