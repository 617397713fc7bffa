package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"framebridge/internal/logging"
)

// ErrorHandler receives uncaught task failures.
type ErrorHandler func(task string, err error)

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithErrorHandler replaces the default handler, which logs failures.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(s *Supervisor) {
		if handler != nil {
			s.onError = handler
		}
	}
}

// SpawnOption configures a single spawn.
type SpawnOption func(*spawnOptions)

type spawnOptions struct {
	exempt bool
}

// WithExempt spawns the task exempt from shutdown cancellation.
func WithExempt() SpawnOption {
	return func(o *spawnOptions) { o.exempt = true }
}

type successor struct {
	unit Unit
	opts []SpawnOption
}

type namedSlot struct {
	running *Task
	next    *successor
}

// Supervisor tracks every running task.
type Supervisor struct {
	logger  *slog.Logger
	onError ErrorHandler

	mu      sync.Mutex
	nextID  uint64
	tasks   map[uint64]*Task
	named   map[string]*namedSlot
	closing bool
}

// New constructs a supervisor.
func New(logger *slog.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		logger: logging.NewComponentLogger(logger, "supervisor"),
		tasks:  make(map[uint64]*Task),
		named:  make(map[string]*namedSlot),
	}
	s.onError = s.logFailure
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn starts unit on its own goroutine and returns immediately.
func (s *Supervisor) Spawn(name string, unit Unit, opts ...SpawnOption) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(name, unit, false, opts)
}

// SpawnNamed runs at most one unit per name. While one is running the newest
// unit is kept as its successor, replacing any older successor, and started
// when the running one finishes. It returns the task when started immediately
// and nil when queued.
func (s *Supervisor) SpawnNamed(name string, unit Unit, opts ...SpawnOption) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.named[name]
	if slot == nil || slot.running == nil {
		task := s.startLocked(name, unit, true, opts)
		s.named[name] = &namedSlot{running: task}
		return task
	}
	if s.closing {
		s.logger.Debug("successor discarded during shutdown", logging.String(logging.FieldTask, name))
		return nil
	}
	if slot.next != nil {
		s.logger.Debug("queued successor replaced", logging.String(logging.FieldTask, name))
	}
	slot.next = &successor{unit: unit, opts: opts}
	return nil
}

// Len returns the number of tracked tasks.
func (s *Supervisor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Snapshot lists tracked tasks in start order.
func (s *Supervisor) Snapshot() []TaskInfo {
	tasks := s.tracked()
	infos := make([]TaskInfo, 0, len(tasks))
	for _, t := range tasks {
		infos = append(infos, TaskInfo{
			Name:    t.name,
			State:   t.State().String(),
			Exempt:  t.Exempt(),
			Started: t.started,
		})
	}
	return infos
}

// Shutdown cancels every non-exempt task and waits up to timeout for all
// tracked tasks. Tasks still running after the timeout are logged and the
// cycle repeats until nothing is tracked, so it only returns once every task
// has ended. The returned names are the stragglers reported along the way.
func (s *Supervisor) Shutdown(timeout time.Duration) []string {
	s.mu.Lock()
	s.closing = true
	for name, slot := range s.named {
		if slot.next != nil {
			s.logger.Debug("successor discarded during shutdown", logging.String(logging.FieldTask, name))
			slot.next = nil
		}
	}
	s.mu.Unlock()

	var stragglers []string
	for {
		tasks := s.tracked()
		if len(tasks) == 0 {
			return stragglers
		}
		for _, t := range tasks {
			if !t.finished() && !t.Exempt() {
				t.cancel()
			}
		}
		runtime.Gosched()

		remaining := waitAll(tasks, timeout)
		if len(remaining) == 0 {
			continue
		}
		names := make([]string, 0, len(remaining))
		for _, t := range remaining {
			names = append(names, t.name)
		}
		logging.WarnWithContext(s.logger, "tasks did not stop before shutdown timeout", "shutdown_timeout",
			logging.Strings("tasks", names),
			logging.Duration("timeout", timeout),
			logging.String(logging.FieldErrorHint, "check the named tasks honour context cancellation"),
			logging.String(logging.FieldImpact, "shutdown keeps waiting for the listed tasks"),
		)
		stragglers = append(stragglers, names...)
	}
}

func (s *Supervisor) startLocked(name string, unit Unit, named bool, opts []SpawnOption) *Task {
	options := spawnOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.nextID++
	task := &Task{
		id:      s.nextID,
		name:    name,
		named:   named,
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
		exempt:  options.exempt,
	}
	s.tasks[task.id] = task

	ctx = context.WithValue(ctx, taskKey{}, task)
	ctx = logging.WithTask(ctx, name)
	go s.run(ctx, task, unit)
	return task
}

func (s *Supervisor) run(ctx context.Context, task *Task, unit Unit) {
	err := invoke(ctx, unit)

	state := StateDone
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		state = StateCancelled
	default:
		state = StateFailed
	}

	task.mu.Lock()
	task.state = state
	if state == StateFailed {
		task.err = err
	}
	task.mu.Unlock()
	task.cancel()

	if state == StateFailed {
		s.onError(task.name, err)
	}

	s.mu.Lock()
	delete(s.tasks, task.id)
	if task.named {
		s.advanceLocked(task)
	}
	s.mu.Unlock()

	close(task.done)
}

func (s *Supervisor) advanceLocked(task *Task) {
	slot := s.named[task.name]
	if slot == nil || slot.running != task {
		return
	}
	next := slot.next
	slot.next = nil
	if next == nil || s.closing {
		delete(s.named, task.name)
		return
	}
	slot.running = s.startLocked(task.name, next.unit, true, next.opts)
}

func (s *Supervisor) tracked() []*Task {
	s.mu.Lock()
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].id < tasks[j].id })
	return tasks
}

func (s *Supervisor) logFailure(task string, err error) {
	logging.ErrorWithContext(s.logger, "task failed", "task_failed",
		logging.String(logging.FieldTask, task),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "inspect the task error; the supervisor keeps running"),
	)
}

func invoke(ctx context.Context, unit Unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return unit(ctx)
}

func waitAll(tasks []*Task, timeout time.Duration) []*Task {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for i, t := range tasks {
		select {
		case <-t.done:
		case <-timer.C:
			var remaining []*Task
			for _, rest := range tasks[i:] {
				if !rest.finished() {
					remaining = append(remaining, rest)
				}
			}
			return remaining
		}
	}
	return nil
}
