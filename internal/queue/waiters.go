package queue

// Waiters parks dependency-blocked tasks until their prerequisites
// complete. Instead of re-queueing blocked tasks with a fresh timestamp and
// re-checking on a timer, the dispatcher parks them here and Satisfy returns
// the tasks to re-insert the moment their last missing dependency lands.
// Parked tasks keep their original sequence number, so dependency blocking
// does not push a task behind later submissions of equal priority.
type Waiters struct {
	// byDep maps a missing dependency ID to the set of task IDs waiting on it.
	byDep map[string]map[string]struct{}
	// missing maps a parked task ID to its set of unmet dependency IDs.
	missing map[string]map[string]struct{}
}

// NewWaiters returns an empty waiter table.
func NewWaiters() *Waiters {
	return &Waiters{
		byDep:   make(map[string]map[string]struct{}),
		missing: make(map[string]map[string]struct{}),
	}
}

// Park registers taskID as blocked on the given unmet dependency IDs.
// Parking an already-parked task merges the missing sets.
func (w *Waiters) Park(taskID string, unmet []string) {
	if len(unmet) == 0 {
		return
	}
	set, ok := w.missing[taskID]
	if !ok {
		set = make(map[string]struct{}, len(unmet))
		w.missing[taskID] = set
	}
	for _, dep := range unmet {
		set[dep] = struct{}{}
		deps, ok := w.byDep[dep]
		if !ok {
			deps = make(map[string]struct{})
			w.byDep[dep] = deps
		}
		deps[taskID] = struct{}{}
	}
}

// Satisfy records that depID completed and returns the task IDs whose last
// missing dependency was depID. Returned tasks are removed from the table.
func (w *Waiters) Satisfy(depID string) []string {
	waiting, ok := w.byDep[depID]
	if !ok {
		return nil
	}
	delete(w.byDep, depID)

	var released []string
	for taskID := range waiting {
		set := w.missing[taskID]
		delete(set, depID)
		if len(set) == 0 {
			delete(w.missing, taskID)
			released = append(released, taskID)
		}
	}
	return released
}

// Remove drops a parked task, for example when it is cancelled while
// blocked. It is a no-op for unknown task IDs.
func (w *Waiters) Remove(taskID string) {
	set, ok := w.missing[taskID]
	if !ok {
		return
	}
	for dep := range set {
		delete(w.byDep[dep], taskID)
		if len(w.byDep[dep]) == 0 {
			delete(w.byDep, dep)
		}
	}
	delete(w.missing, taskID)
}

// Parked reports whether taskID is currently blocked.
func (w *Waiters) Parked(taskID string) bool {
	_, ok := w.missing[taskID]
	return ok
}

// Len returns the number of parked tasks.
func (w *Waiters) Len() int {
	return len(w.missing)
}
