package task

import (
	"testing"
	"time"
)

func TestStateIsTerminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StatePending, false},
		{StateRunning, false},
		{StateCompleted, true},
		{StateFailed, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	if StatePending.String() != "pending" {
		t.Errorf("StatePending.String() = %q, want %q", StatePending.String(), "pending")
	}
	if StateCancelled.String() != "cancelled" {
		t.Errorf("StateCancelled.String() = %q, want %q", StateCancelled.String(), "cancelled")
	}
}

func TestSnapshotCopiesFields(t *testing.T) {
	tk := &Task{
		ID:          "t-1",
		Kind:        "memory",
		Priority:    7,
		State:       StateCompleted,
		RetryCount:  1,
		MaxRetries:  3,
		SubmittedAt: time.Now(),
		Result:      "ok",
		Err:         "",
	}

	s := tk.Snapshot()
	if s.ID != "t-1" || s.Kind != "memory" || s.Priority != 7 {
		t.Errorf("Snapshot() identity fields = %+v", s)
	}
	if s.State != StateCompleted || s.RetryCount != 1 || s.Result != "ok" {
		t.Errorf("Snapshot() outcome fields = %+v", s)
	}

	// Mutating the snapshot must not touch the record.
	s.State = StateFailed
	if tk.State != StateCompleted {
		t.Error("mutating a Status changed the underlying Task")
	}
}

func TestSnapshotProgress(t *testing.T) {
	tests := []struct {
		state State
		want  float64
	}{
		{StatePending, 0},
		{StateRunning, 0.5},
		{StateCompleted, 1},
		{StateFailed, 1},
		{StateCancelled, 1},
	}
	for _, tt := range tests {
		tk := &Task{ID: "t", State: tt.state}
		if got := tk.Snapshot().Progress; got != tt.want {
			t.Errorf("Progress for %s = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestInfoReportsAttempt(t *testing.T) {
	tk := &Task{ID: "t-2", Kind: "symbolic", Priority: 1, RetryCount: 2}

	info := tk.Info()
	if info.Attempt != 2 {
		t.Errorf("Info().Attempt = %d, want 2", info.Attempt)
	}
	if info.ID != "t-2" || info.Kind != "symbolic" {
		t.Errorf("Info() identity = %+v", info)
	}
}
