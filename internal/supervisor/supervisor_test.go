package supervisor_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"framebridge/internal/logging"
	"framebridge/internal/supervisor"
)

func waitDone(t *testing.T, task *supervisor.Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("task %s did not finish", task.Name())
	}
}

func TestSpawnTracksUntilCompletion(t *testing.T) {
	sup := supervisor.New(logging.NewNop())
	release := make(chan struct{})
	task := sup.Spawn("worker", func(ctx context.Context) error {
		<-release
		return nil
	})
	if sup.Len() != 1 {
		t.Fatalf("expected one tracked task, got %d", sup.Len())
	}
	infos := sup.Snapshot()
	if len(infos) != 1 || infos[0].Name != "worker" || infos[0].State != "pending" {
		t.Fatalf("unexpected snapshot %+v", infos)
	}
	close(release)
	waitDone(t, task)
	if task.State() != supervisor.StateDone {
		t.Fatalf("expected done, got %s", task.State())
	}
	if sup.Len() != 0 {
		t.Fatalf("expected task removed, got %d", sup.Len())
	}
}

func TestFailuresReachErrorHandlerButCancellationDoesNot(t *testing.T) {
	var mu sync.Mutex
	reported := map[string]error{}
	sup := supervisor.New(logging.NewNop(), supervisor.WithErrorHandler(func(task string, err error) {
		mu.Lock()
		reported[task] = err
		mu.Unlock()
	}))

	boom := errors.New("boom")
	failing := sup.Spawn("failing", func(context.Context) error { return boom })
	panicking := sup.Spawn("panicking", func(context.Context) error { panic("kaput") })
	cancelled := sup.Spawn("cancelled", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancelled.Cancel()

	waitDone(t, failing)
	waitDone(t, panicking)
	waitDone(t, cancelled)

	mu.Lock()
	defer mu.Unlock()
	if !errors.Is(reported["failing"], boom) {
		t.Fatalf("expected boom reported, got %v", reported["failing"])
	}
	if err := reported["panicking"]; err == nil || !strings.Contains(err.Error(), "kaput") {
		t.Fatalf("expected recovered panic reported, got %v", err)
	}
	if _, ok := reported["cancelled"]; ok {
		t.Fatal("cancellation must not reach the error handler")
	}
	if cancelled.State() != supervisor.StateCancelled {
		t.Fatalf("expected cancelled state, got %s", cancelled.State())
	}
	if failing.State() != supervisor.StateFailed || !errors.Is(failing.Err(), boom) {
		t.Fatalf("expected failed state with error, got %s %v", failing.State(), failing.Err())
	}
}

func TestSpawnNamedKeepsOnlyLatestSuccessor(t *testing.T) {
	sup := supervisor.New(logging.NewNop())

	release := make(chan struct{})
	var firstRan, secondRan, thirdRan atomic.Bool
	thirdDone := make(chan struct{})

	first := sup.SpawnNamed("refresh", func(context.Context) error {
		<-release
		firstRan.Store(true)
		return nil
	})
	if first == nil {
		t.Fatal("expected first unit to start immediately")
	}
	if got := sup.SpawnNamed("refresh", func(context.Context) error {
		secondRan.Store(true)
		return nil
	}); got != nil {
		t.Fatal("expected second unit to be queued")
	}
	if got := sup.SpawnNamed("refresh", func(context.Context) error {
		thirdRan.Store(true)
		close(thirdDone)
		return nil
	}); got != nil {
		t.Fatal("expected third unit to be queued")
	}
	if sup.Len() != 1 {
		t.Fatalf("expected a single running unit, got %d", sup.Len())
	}

	close(release)
	select {
	case <-thirdDone:
	case <-time.After(2 * time.Second):
		t.Fatal("successor did not run")
	}
	if !firstRan.Load() || !thirdRan.Load() {
		t.Fatal("expected first and latest successor to run")
	}
	if secondRan.Load() {
		t.Fatal("replaced successor must not run")
	}
}

func TestSpawnNamedStartsAgainAfterCompletion(t *testing.T) {
	sup := supervisor.New(logging.NewNop())
	first := sup.SpawnNamed("job", func(context.Context) error { return nil })
	waitDone(t, first)
	second := sup.SpawnNamed("job", func(context.Context) error { return nil })
	if second == nil {
		t.Fatal("expected new unit to start once the previous finished")
	}
	waitDone(t, second)
}

func TestShutdownAwaitsExemptCallableAndCancelsOthers(t *testing.T) {
	sup := supervisor.New(logging.NewNop())

	inside := make(chan struct{})
	release := make(chan struct{})
	var exemptCompleted atomic.Bool
	exemptTask := sup.Spawn("persist", func(ctx context.Context) error {
		return supervisor.Exempt(ctx, func(ctx context.Context) error {
			close(inside)
			<-release
			if ctx.Err() != nil {
				return ctx.Err()
			}
			exemptCompleted.Store(true)
			return nil
		})
	})

	cancelledAt := make(chan time.Time, 1)
	other := sup.Spawn("poller", func(ctx context.Context) error {
		<-ctx.Done()
		cancelledAt <- time.Now()
		return ctx.Err()
	})

	<-inside
	finished := make(chan []string, 1)
	go func() { finished <- sup.Shutdown(time.Second) }()

	var otherStopped time.Time
	select {
	case otherStopped = <-cancelledAt:
	case <-time.After(2 * time.Second):
		t.Fatal("non-exempt task was not cancelled")
	}
	select {
	case <-finished:
		t.Fatal("shutdown returned before exempt task completed")
	default:
	}

	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case stragglers := <-finished:
		if len(stragglers) != 0 {
			t.Fatalf("expected no stragglers, got %v", stragglers)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not return")
	}
	if !exemptCompleted.Load() {
		t.Fatal("exempt callable was cancelled")
	}
	if exemptTask.State() != supervisor.StateDone {
		t.Fatalf("expected exempt task done, got %s", exemptTask.State())
	}
	if other.State() != supervisor.StateCancelled {
		t.Fatalf("expected other task cancelled, got %s", other.State())
	}
	if otherStopped.IsZero() {
		t.Fatal("expected cancellation time recorded")
	}
}

func TestShutdownReportsStragglersAndKeepsWaiting(t *testing.T) {
	sup := supervisor.New(logging.NewNop())
	sup.Spawn("stubborn", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(150 * time.Millisecond)
		return nil
	})

	stragglers := sup.Shutdown(20 * time.Millisecond)
	if len(stragglers) == 0 || stragglers[0] != "stubborn" {
		t.Fatalf("expected stubborn reported, got %v", stragglers)
	}
	if sup.Len() != 0 {
		t.Fatalf("expected no tracked tasks after shutdown, got %d", sup.Len())
	}
}

func TestShutdownCatchesTasksSpawnedDuringTeardown(t *testing.T) {
	sup := supervisor.New(logging.NewNop())
	var lateCancelled atomic.Bool
	sup.Spawn("parent", func(ctx context.Context) error {
		<-ctx.Done()
		sup.Spawn("late", func(ctx context.Context) error {
			<-ctx.Done()
			lateCancelled.Store(true)
			return ctx.Err()
		})
		return ctx.Err()
	})

	sup.Shutdown(time.Second)
	if sup.Len() != 0 {
		t.Fatalf("expected all tasks gone, got %d", sup.Len())
	}
	if !lateCancelled.Load() {
		t.Fatal("task spawned during teardown was not cancelled")
	}
}

func TestShutdownDiscardsQueuedSuccessor(t *testing.T) {
	sup := supervisor.New(logging.NewNop())
	var successorRan atomic.Bool
	sup.SpawnNamed("sync", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	sup.SpawnNamed("sync", func(context.Context) error {
		successorRan.Store(true)
		return nil
	})

	sup.Shutdown(time.Second)
	if successorRan.Load() {
		t.Fatal("queued successor must be discarded on shutdown")
	}
}

func TestSpawnWithExemptIsAwaited(t *testing.T) {
	sup := supervisor.New(logging.NewNop())
	var sawCancel atomic.Bool
	task := sup.Spawn("flush", func(ctx context.Context) error {
		time.Sleep(30 * time.Millisecond)
		sawCancel.Store(ctx.Err() != nil)
		return nil
	}, supervisor.WithExempt())
	if !task.Exempt() {
		t.Fatal("expected exempt flag")
	}
	sup.Shutdown(time.Second)
	if sawCancel.Load() {
		t.Fatal("exempt task was cancelled")
	}
}

func TestExemptOutsideTaskRunsFunction(t *testing.T) {
	called := false
	err := supervisor.Exempt(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected fn to run, called=%v err=%v", called, err)
	}
}
