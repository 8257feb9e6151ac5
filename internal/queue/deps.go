package queue

// DependencyIndex tracks task IDs that have reached the completed state.
// The index only ever grows: once a task completes it stays completed, so
// a dependency observed as satisfied can never become unsatisfied again.
type DependencyIndex struct {
	completed map[string]struct{}
}

// NewDependencyIndex returns an empty index.
func NewDependencyIndex() *DependencyIndex {
	return &DependencyIndex{completed: make(map[string]struct{})}
}

// Add records that the given task ID completed successfully.
func (d *DependencyIndex) Add(id string) {
	d.completed[id] = struct{}{}
}

// Has reports whether the given task ID has completed.
func (d *DependencyIndex) Has(id string) bool {
	_, ok := d.completed[id]
	return ok
}

// Ready reports whether every ID in deps has completed.
func (d *DependencyIndex) Ready(deps []string) bool {
	for _, id := range deps {
		if !d.Has(id) {
			return false
		}
	}
	return true
}

// Missing returns the subset of deps that have not completed yet.
func (d *DependencyIndex) Missing(deps []string) []string {
	var missing []string
	for _, id := range deps {
		if !d.Has(id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// Len returns the number of completed IDs in the index.
func (d *DependencyIndex) Len() int {
	return len(d.completed)
}
