// Package shutdown drains long-lived background tasks in priority-tiered
// order with hard deadlines. Tasks register under a priority class and
// receive a handle carrying a cancellable context; on shutdown each class
// gets a bounded drain window from most to least urgent, after which any
// survivors are force-cancelled and, past a short grace period, abandoned.
// Shutdown therefore always returns within force_after plus the grace
// period, even when a task ignores cancellation entirely.
package shutdown

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	apperrors "github.com/taskwell/taskwell/internal/errors"
	"github.com/taskwell/taskwell/internal/logging"
)

// DefaultGracePeriod bounds the wait for cancellation acknowledgment after
// force-cancel.
const DefaultGracePeriod = 500 * time.Millisecond

// Coordinator tracks registered background tasks per priority class and
// drains them on Shutdown.
type Coordinator struct {
	mu           sync.Mutex
	log          *logging.Logger
	gracePeriod  time.Duration
	active       map[Class]map[string]*Handle
	completed    int
	failed       int
	cancelled    int
	shuttingDown bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(log *logging.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithGracePeriod overrides the post-force-cancel acknowledgment window.
func WithGracePeriod(d time.Duration) Option {
	return func(c *Coordinator) { c.gracePeriod = d }
}

// New creates a Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		log:         logging.Nop(),
		gracePeriod: DefaultGracePeriod,
		active:      make(map[Class]map[string]*Handle, len(classOrder)),
	}
	for _, class := range classOrder {
		c.active[class] = make(map[string]*Handle)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithComponent("shutdown")
	return c
}

// CreateTask registers a background task under the given class and returns
// its handle. Registration is rejected once shutdown has begun.
func (c *Coordinator) CreateTask(name string, class Class, component, description string) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shuttingDown {
		return nil, apperrors.Wrapf(apperrors.ErrShutdownStarted, "create task %q", name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		id:          uuid.NewString(),
		name:        name,
		component:   component,
		description: description,
		class:       class,
		createdAt:   time.Now(),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		coord:       c,
	}
	c.active[class][h.id] = h

	c.log.Debug("background task registered",
		"task", name, "class", class.String(), "component", component)
	return h, nil
}

// noteFinished removes a handle from the active set and tallies its outcome.
func (c *Coordinator) noteFinished(h *Handle, outcome Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.active[h.class], h.id)
	switch outcome {
	case OutcomeCompleted:
		c.completed++
	case OutcomeFailed:
		c.failed++
		c.log.Warn("background task failed",
			"task", h.name, "class", h.class.String(), "error", h.err)
	case OutcomeCancelled:
		c.cancelled++
	}
}

// Shutdown drains all registered tasks. Each class, from most to least
// urgent, gets up to timeout to finish on its own, clipped to the time left
// of the forceAfter budget; a class that overruns is left running while
// lower classes get whatever window remains. Once all classes have been
// attempted the coordinator waits out the remainder of forceAfter,
// cancels every survivor's context, waits the grace period for
// acknowledgment and abandons whatever is left. Calling Shutdown more than
// once is harmless; later calls return current stats without draining
// again.
func (c *Coordinator) Shutdown(ctx context.Context, timeout, forceAfter time.Duration) Stats {
	c.mu.Lock()
	already := c.shuttingDown
	c.shuttingDown = true
	c.mu.Unlock()
	if already {
		return c.Stats()
	}

	start := time.Now()
	c.log.Info("shutdown started", "timeout", timeout, "force_after", forceAfter)

	for _, class := range classOrder {
		handles := c.classHandles(class)
		if len(handles) == 0 {
			continue
		}
		// Each class gets at most the per-class window, clipped to what is
		// left of the forceAfter budget: the sum of class waits must never
		// push the return past forceAfter + grace, even when every class is
		// stuck.
		window := timeout
		if remaining := forceAfter - time.Since(start); remaining < window {
			window = remaining
		}
		if window <= 0 {
			c.log.Warn("force deadline reached before class drained",
				"class", class.String(), "remaining", len(handles))
			continue
		}
		c.log.Info("draining class", "class", class.String(), "tasks", len(handles))
		if waitAll(ctx, handles, window) {
			continue
		}
		// Overrunning tasks keep running for now; they are only
		// force-cancelled after every class has had its window.
		c.log.Warn("class drain timed out",
			"class", class.String(), "remaining", len(c.classHandles(class)))
	}

	if remainder := forceAfter - time.Since(start); remainder > 0 && len(c.allHandles()) > 0 {
		t := time.NewTimer(remainder)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}

	if stubborn := c.allHandles(); len(stubborn) > 0 {
		c.log.Warn("force-cancelling remaining tasks", "count", len(stubborn))
		for _, h := range stubborn {
			h.cancel()
		}
		waitAll(ctx, stubborn, c.gracePeriod)
	}

	for _, h := range c.allHandles() {
		c.log.Error("abandoning task that ignored cancellation",
			"task", h.name, "class", h.class.String(), "component", h.component)
		h.finish(OutcomeCancelled, nil)
	}

	stats := c.Stats()
	c.log.Info("shutdown complete",
		"elapsed", time.Since(start),
		"completed", stats.Completed, "failed", stats.Failed, "cancelled", stats.Cancelled)
	return stats
}

// waitAll waits up to timeout for every handle to finish. It returns true
// when all finished within the window.
func waitAll(ctx context.Context, handles []*Handle, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	var timedOut atomic.Bool
	var wg conc.WaitGroup
	for _, h := range handles {
		wg.Go(func() {
			t := time.NewTimer(time.Until(deadline))
			defer t.Stop()
			select {
			case <-h.Done():
			case <-t.C:
				timedOut.Store(true)
			case <-ctx.Done():
				timedOut.Store(true)
			}
		})
	}
	wg.Wait()
	return !timedOut.Load()
}

func (c *Coordinator) classHandles(class Class) []*Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	handles := make([]*Handle, 0, len(c.active[class]))
	for _, h := range c.active[class] {
		handles = append(handles, h)
	}
	return handles
}

func (c *Coordinator) allHandles() []*Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	var handles []*Handle
	for _, class := range classOrder {
		for _, h := range c.active[class] {
			handles = append(handles, h)
		}
	}
	return handles
}

// Stats is a snapshot of coordinator state: active task counts keyed by
// class name plus tallies of finished outcomes.
type Stats struct {
	Active    map[string]int `json:"active"`
	Completed int            `json:"completed"`
	Failed    int            `json:"failed"`
	Cancelled int            `json:"cancelled"`
}

// Stats returns a snapshot of per-class active counts and outcome tallies.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Active:    make(map[string]int, len(classOrder)),
		Completed: c.completed,
		Failed:    c.failed,
		Cancelled: c.cancelled,
	}
	for _, class := range classOrder {
		if n := len(c.active[class]); n > 0 {
			s.Active[class.String()] = n
		}
	}
	return s
}
