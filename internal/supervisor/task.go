package supervisor

import (
	"context"
	"sync"
	"time"
)

// Unit is a unit of work run by the supervisor. It must return once ctx is
// cancelled.
type Unit func(ctx context.Context) error

// State is the completion state of a task.
type State int

const (
	StatePending State = iota
	StateDone
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Task is the handle of a spawned unit.
type Task struct {
	id      uint64
	name    string
	named   bool
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}

	mu          sync.Mutex
	state       State
	err         error
	exempt      bool
	exemptDepth int
}

func (t *Task) Name() string { return t.name }

// Done is closed once the task reached a terminal state and left the tracked set.
func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the failure of a failed task.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the task finished or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel requests cooperative cancellation.
func (t *Task) Cancel() { t.cancel() }

// SetExempt toggles whether shutdown awaits the task instead of cancelling it.
func (t *Task) SetExempt(exempt bool) {
	t.mu.Lock()
	t.exempt = exempt
	t.mu.Unlock()
}

// Exempt reports whether shutdown currently skips cancelling the task.
func (t *Task) Exempt() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exempt || t.exemptDepth > 0
}

func (t *Task) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Task) enterExempt() {
	t.mu.Lock()
	t.exemptDepth++
	t.mu.Unlock()
}

func (t *Task) leaveExempt() {
	t.mu.Lock()
	t.exemptDepth--
	t.mu.Unlock()
}

type taskKey struct{}

// FromContext returns the task running with ctx, if any.
func FromContext(ctx context.Context) *Task {
	if ctx == nil {
		return nil
	}
	t, _ := ctx.Value(taskKey{}).(*Task)
	return t
}

// Exempt runs fn while marking the calling task exempt from shutdown
// cancellation. Outside a supervised task fn simply runs.
func Exempt(ctx context.Context, fn func(context.Context) error) error {
	if t := FromContext(ctx); t != nil {
		t.enterExempt()
		defer t.leaveExempt()
	}
	return fn(ctx)
}

// TaskInfo is a point-in-time view of a tracked task.
type TaskInfo struct {
	Name    string
	State   string
	Exempt  bool
	Started time.Time
}
