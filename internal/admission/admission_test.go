package admission

import (
	"context"
	"errors"
	"testing"

	"weav/internal/domain"
)

// countingJobs backs the controller with a fixed active count. The embedded
// interface leaves the unused repository methods unimplemented.
type countingJobs struct {
	domain.JobRepository
	active int
	err    error
}

func (c *countingJobs) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	return c.active, c.err
}

func TestAdmitBelowLimit(t *testing.T) {
	ctrl := NewController(&countingJobs{active: 3}, 4)
	if err := ctrl.Admit(context.Background(), "user-1"); err != nil {
		t.Fatalf("Admit: %v", err)
	}
}

func TestAdmitAtLimitDenied(t *testing.T) {
	ctrl := NewController(&countingJobs{active: 4}, 4)
	err := ctrl.Admit(context.Background(), "user-1")
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("err = %v, want LimitError", err)
	}
	if limitErr.Reason != ReasonMaxConcurrentJobs {
		t.Errorf("reason = %q, want %q", limitErr.Reason, ReasonMaxConcurrentJobs)
	}
	if limitErr.Limit != 4 {
		t.Errorf("limit = %d, want 4", limitErr.Limit)
	}
}

func TestAdmitAfterJobReachesTerminalState(t *testing.T) {
	jobs := &countingJobs{active: 4}
	ctrl := NewController(jobs, 4)
	if err := ctrl.Admit(context.Background(), "user-1"); err == nil {
		t.Fatal("expected denial at the limit")
	}
	// One active job finishing frees a slot.
	jobs.active = 3
	if err := ctrl.Admit(context.Background(), "user-1"); err != nil {
		t.Fatalf("Admit after slot freed: %v", err)
	}
}

func TestAdmitDefaultLimit(t *testing.T) {
	ctrl := NewController(&countingJobs{active: DefaultMaxConcurrentJobs}, 0)
	if ctrl.Limit() != DefaultMaxConcurrentJobs {
		t.Fatalf("Limit() = %d, want default", ctrl.Limit())
	}
	if err := ctrl.Admit(context.Background(), "user-1"); err == nil {
		t.Fatal("expected denial at the default limit")
	}
}

func TestAdmitCountFailure(t *testing.T) {
	ctrl := NewController(&countingJobs{err: errors.New("db down")}, 4)
	err := ctrl.Admit(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected error")
	}
	var limitErr *LimitError
	if errors.As(err, &limitErr) {
		t.Fatal("infrastructure failure must not read as a limit denial")
	}
}
