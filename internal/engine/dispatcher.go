package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/taskwell/taskwell/internal/event"
	"github.com/taskwell/taskwell/internal/queue"
	"github.com/taskwell/taskwell/internal/task"
)

// dispatch is the engine's single scheduling loop. It sleeps until woken by
// a submission, retry, completion or cancellation, then drains everything
// currently dispatchable. Handlers run on their own goroutines so one slow
// task never stalls dispatch of other ready tasks.
func (e *Engine) dispatch(ctx context.Context) {
	defer close(e.dispatcherDone)

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.wake:
		}
		e.dispatchReady(ctx)
	}
}

// dispatchReady pops ready tasks until the queue is exhausted, launching
// each one's handler concurrently.
func (e *Engine) dispatchReady(ctx context.Context) {
	for {
		e.mu.Lock()
		item, ok := e.ready.Pop()
		if !ok {
			e.mu.Unlock()
			return
		}

		t := e.active[item.ID]
		if t == nil || t.State != task.StatePending || t.Seq != item.Seq {
			// Stale entry: the task finalized or was re-queued under a new
			// sequence after this entry was pushed.
			e.mu.Unlock()
			continue
		}

		if t.CancelRequested {
			evts := e.finalizeLocked(t, task.StateCancelled)
			e.mu.Unlock()
			e.publish(evts)
			continue
		}

		if !e.deps.Ready(t.Dependencies) {
			// Park until the missing dependencies complete. The task keeps
			// its original sequence, so blocking does not cost it its FIFO
			// position within its priority band.
			e.waiters.Park(t.ID, e.deps.Missing(t.Dependencies))
			e.mu.Unlock()
			continue
		}

		h := e.handlers[t.Kind]
		now := time.Now()
		t.State = task.StateRunning
		t.StartedAt = &now

		tctx, cancel := context.WithCancel(ctx)
		e.cancels[t.ID] = cancel
		info := t.Info()
		started := event.NewTaskStarted(t.ID, t.RetryCount)
		e.mu.Unlock()

		e.log.Debug("task dispatched", "task_id", info.ID, "kind", info.Kind, "attempt", info.Attempt)
		e.bus.Publish(started)

		go e.execute(tctx, info, h)
	}
}

// execute runs one handler attempt, converting panics into execution
// errors, and routes the outcome.
func (e *Engine) execute(ctx context.Context, info task.Info, h Handler) {
	var result any
	var err error
	if rec := panics.Try(func() {
		result, err = h(ctx, info)
	}); rec != nil {
		err = fmt.Errorf("handler panic: %w", rec.AsError())
	}
	e.finish(info.ID, result, err)
}

// finish applies the outcome of a handler attempt: completion, cancellation,
// retry, or terminal failure.
func (e *Engine) finish(id string, result any, err error) {
	e.mu.Lock()
	t := e.active[id]
	if t == nil || t.State != task.StateRunning {
		e.mu.Unlock()
		return
	}
	if c := e.cancels[id]; c != nil {
		c()
		delete(e.cancels, id)
	}

	var evts []event.Event
	switch {
	case t.CancelRequested:
		// Cancellation wins over any concurrent outcome; no retry occurs
		// once it is recorded.
		evts = e.finalizeLocked(t, task.StateCancelled)

	case err == nil:
		t.Result = result
		evts = e.finalizeLocked(t, task.StateCompleted)

	case e.stopped && errors.Is(err, context.Canceled):
		// The engine is stopping and the handler bailed on its context.
		t.Err = err.Error()
		evts = e.finalizeLocked(t, task.StateCancelled)

	case t.RetryCount < t.MaxRetries && !e.stopped:
		t.RetryCount++
		t.Err = err.Error()
		t.State = task.StatePending
		t.StartedAt = nil
		e.seq++
		t.Seq = e.seq
		t.SubmittedAt = time.Now()
		e.ready.Push(queue.Item{ID: t.ID, Priority: t.Priority, Seq: t.Seq})
		e.signalWake()
		evts = append(evts,
			event.NewTaskRetrying(t.ID, t.RetryCount, t.Err),
			e.depthEventLocked(),
		)
		e.log.Warn("task attempt failed, retrying",
			"task_id", t.ID, "attempt", t.RetryCount, "max_retries", t.MaxRetries, "error", t.Err)

	default:
		t.Err = err.Error()
		evts = e.finalizeLocked(t, task.StateFailed)
		e.log.Error("task failed permanently",
			"task_id", t.ID, "retries", t.RetryCount, "error", t.Err)
	}
	e.mu.Unlock()

	e.publish(evts)
}

// finalizeLocked moves a task into the terminal store exactly once and, on
// completion, releases any tasks that were parked on it. Must be called
// while e.mu is held; returns the events to publish after unlocking.
func (e *Engine) finalizeLocked(t *task.Task, state task.State) []event.Event {
	now := time.Now()
	t.State = state
	t.FinishedAt = &now

	delete(e.active, t.ID)
	e.terminal[t.ID] = t
	e.waiters.Remove(t.ID)
	if c := e.cancels[t.ID]; c != nil {
		c()
		delete(e.cancels, t.ID)
	}

	var evts []event.Event
	switch state {
	case task.StateCompleted:
		e.deps.Add(t.ID)
		for _, rid := range e.waiters.Satisfy(t.ID) {
			rt := e.active[rid]
			if rt == nil || rt.State != task.StatePending {
				continue
			}
			// Re-insert with the original sequence: dependency blocking does
			// not reorder a task behind later submissions.
			e.ready.Push(queue.Item{ID: rt.ID, Priority: rt.Priority, Seq: rt.Seq})
		}
		e.signalWake()
		evts = append(evts, event.NewTaskCompleted(t.ID))
	case task.StateFailed:
		evts = append(evts, event.NewTaskFailed(t.ID, t.Err))
	case task.StateCancelled:
		evts = append(evts, event.NewTaskCancelled(t.ID))
	}
	evts = append(evts, e.depthEventLocked())

	if len(e.active) == 0 {
		for _, ch := range e.drainWaiters {
			close(ch)
		}
		e.drainWaiters = nil
	}
	return evts
}
