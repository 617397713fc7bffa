package broker_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"framebridge/internal/broker"
	"framebridge/internal/logging"
	"framebridge/internal/wire"
)

type frameRecorder struct {
	mu          sync.Mutex
	frames      []wire.Frame
	fail        error
	undelivered error
	onFrame     func(wire.Frame)
}

func (r *frameRecorder) EmitTracked(event string, payload any, target string, onFailed func(error)) error {
	if event != wire.EventWindowRequest || target != "" {
		return fmt.Errorf("unexpected emit %s to %q", event, target)
	}
	if r.fail != nil {
		return r.fail
	}
	raw, ok := payload.(json.RawMessage)
	if !ok {
		return fmt.Errorf("expected raw frame, got %T", payload)
	}
	var frame wire.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return err
	}
	r.mu.Lock()
	r.frames = append(r.frames, frame)
	hook := r.onFrame
	r.mu.Unlock()
	if hook != nil {
		hook(frame)
	}
	if r.undelivered != nil && onFailed != nil {
		go onFailed(r.undelivered)
	}
	return nil
}

func (r *frameRecorder) methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.frames))
	for _, f := range r.frames {
		out = append(out, f.Method)
	}
	return out
}

func (r *frameRecorder) waitFrames(t *testing.T, n int) []wire.Frame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		if len(r.frames) >= n {
			frames := append([]wire.Frame(nil), r.frames...)
			r.mu.Unlock()
			return frames
		}
		r.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected %d frames, got %v", n, r.methods())
	return nil
}

type sendResult struct {
	value json.RawMessage
	err   error
}

// enqueue starts Send on its own goroutine and waits until the frame is queued
// so enqueue order is deterministic.
func enqueue(t *testing.T, b *broker.Broker, method string, args any, class broker.Class) <-chan sendResult {
	t.Helper()
	state, methodCount := b.Queued()
	before := state + methodCount
	out := make(chan sendResult, 1)
	go func() {
		v, err := b.Send(context.Background(), method, args, class)
		out <- sendResult{value: v, err: err}
	}()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s, m := b.Queued()
		if s+m > before {
			return out
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("request %s was not queued", method)
	return nil
}

func startRun(t *testing.T, b *broker.Broker) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = b.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel
}

func TestStateRequestForwardedBeforeMethodRequest(t *testing.T) {
	rec := &frameRecorder{}
	b := broker.New(rec, logging.NewNop(), time.Millisecond)

	enqueue(t, b, "dialog.pickFile", map[string]any{"filters": nil}, broker.ClassMethod)
	enqueue(t, b, "window.list", map[string]any{}, broker.ClassState)
	startRun(t, b)

	frames := rec.waitFrames(t, 2)
	if frames[0].Method != "window.list" {
		t.Fatalf("expected window.list first, got %v", rec.methods())
	}
	if frames[1].Method != "dialog.pickFile" {
		t.Fatalf("expected dialog.pickFile second, got %v", rec.methods())
	}
}

func TestStrictPriorityAndFIFOWithinClass(t *testing.T) {
	rec := &frameRecorder{}
	b := broker.New(rec, logging.NewNop(), time.Millisecond)

	order := []struct {
		method string
		class  broker.Class
	}{
		{"m1", broker.ClassMethod},
		{"s1", broker.ClassState},
		{"m2", broker.ClassMethod},
		{"s2", broker.ClassState},
		{"m3", broker.ClassMethod},
		{"s3", broker.ClassState},
	}
	for _, item := range order {
		enqueue(t, b, item.method, nil, item.class)
	}
	startRun(t, b)

	rec.waitFrames(t, len(order))
	got := rec.methods()
	want := []string{"s1", "s2", "s3", "m1", "m2", "m3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSendResolvesWithCorrelatedResult(t *testing.T) {
	rec := &frameRecorder{}
	b := broker.New(rec, logging.NewNop(), time.Millisecond)
	rec.onFrame = func(f wire.Frame) {
		args, _ := json.Marshal(f.Args)
		go b.Resolve(wire.Response{ID: f.ID, Kind: wire.KindResult, Result: args})
	}
	startRun(t, b)

	const callers = 50
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			class := broker.ClassMethod
			if i%2 == 0 {
				class = broker.ClassState
			}
			raw, err := b.Send(context.Background(), "echo", map[string]int{"n": i}, class)
			if err != nil {
				errs <- err
				return
			}
			var got map[string]int
			if err := json.Unmarshal(raw, &got); err != nil {
				errs <- err
				return
			}
			if got["n"] != i {
				errs <- fmt.Errorf("caller %d received result for %d", i, got["n"])
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	if b.Pending() != 0 {
		t.Fatalf("expected no pending requests, got %d", b.Pending())
	}
}

func TestResolveErrorRejectsCaller(t *testing.T) {
	rec := &frameRecorder{}
	b := broker.New(rec, logging.NewNop(), time.Millisecond)
	rec.onFrame = func(f wire.Frame) {
		go b.Resolve(wire.Response{ID: f.ID, Kind: wire.KindError, Error: json.RawMessage(`"no such window"`)})
	}
	startRun(t, b)

	_, err := b.Send(context.Background(), "window.close", nil, broker.ClassMethod)
	var remote *broker.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Message != "no such window" || remote.Method != "window.close" {
		t.Fatalf("unexpected remote error %+v", remote)
	}
}

func TestResolveUnknownOrDuplicateIsNoop(t *testing.T) {
	rec := &frameRecorder{}
	b := broker.New(rec, logging.NewNop(), time.Millisecond)
	if b.Resolve(wire.Response{ID: "missing", Kind: wire.KindResult}) {
		t.Fatal("expected unknown id to be ignored")
	}

	res := enqueue(t, b, "window.current", nil, broker.ClassState)
	startRun(t, b)
	frames := rec.waitFrames(t, 1)

	if !b.Resolve(wire.Response{ID: frames[0].ID, Kind: wire.KindResult, Result: json.RawMessage(`1`)}) {
		t.Fatal("expected first resolve to match")
	}
	if b.Resolve(wire.Response{ID: frames[0].ID, Kind: wire.KindResult, Result: json.RawMessage(`2`)}) {
		t.Fatal("expected duplicate resolve to be ignored")
	}
	got := <-res
	if got.err != nil || string(got.value) != "1" {
		t.Fatalf("expected first result, got %s %v", got.value, got.err)
	}
}

func TestCancelledSendAbandonsRequest(t *testing.T) {
	rec := &frameRecorder{}
	b := broker.New(rec, logging.NewNop(), time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Send(ctx, "window.title", nil, broker.ClassState)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if b.Pending() != 0 {
		t.Fatalf("expected abandoned request removed, got %d", b.Pending())
	}
	if s, m := b.Queued(); s+m != 0 {
		t.Fatalf("expected unsent frame removed, got %d/%d", s, m)
	}
}

func TestForwardFailureRejectsRequest(t *testing.T) {
	boom := errors.New("outbox closed")
	rec := &frameRecorder{fail: boom}
	b := broker.New(rec, logging.NewNop(), time.Millisecond)
	startRun(t, b)

	_, err := b.Send(context.Background(), "window.list", nil, broker.ClassState)
	if !errors.Is(err, boom) {
		t.Fatalf("expected forward failure, got %v", err)
	}
}

func TestDeliveryFailureRejectsRequest(t *testing.T) {
	lost := errors.New("connection dropped")
	rec := &frameRecorder{undelivered: lost}
	b := broker.New(rec, logging.NewNop(), time.Millisecond)
	startRun(t, b)

	_, err := b.Send(context.Background(), "window.list", nil, broker.ClassState)
	if !errors.Is(err, lost) {
		t.Fatalf("expected delivery failure, got %v", err)
	}
	if b.Pending() != 0 {
		t.Fatalf("expected rejected request removed, got %d", b.Pending())
	}
}

func TestCloseAbandonsPendingRequests(t *testing.T) {
	rec := &frameRecorder{}
	b := broker.New(rec, logging.NewNop(), time.Millisecond)
	res := enqueue(t, b, "window.list", nil, broker.ClassState)

	b.Close()
	if got := <-res; !errors.Is(got.err, broker.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", got.err)
	}
	if _, err := b.Send(context.Background(), "window.list", nil, broker.ClassState); !errors.Is(err, broker.ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestSendValidatesClass(t *testing.T) {
	b := broker.New(&frameRecorder{}, logging.NewNop(), time.Millisecond)
	if _, err := b.Send(context.Background(), "x", nil, broker.Class("urgent")); !errors.Is(err, broker.ErrUnknownClass) {
		t.Fatalf("expected ErrUnknownClass, got %v", err)
	}
	if c, err := broker.ParseClass(" State "); err != nil || c != broker.ClassState {
		t.Fatalf("ParseClass: %v %v", c, err)
	}
}

func TestSendDefaultsArgsToEmptyObject(t *testing.T) {
	rec := &frameRecorder{}
	b := broker.New(rec, logging.NewNop(), time.Millisecond)
	enqueue(t, b, "window.list", nil, broker.ClassState)
	startRun(t, b)
	frames := rec.waitFrames(t, 1)
	args, ok := frames[0].Args.(map[string]any)
	if !ok || len(args) != 0 {
		t.Fatalf("expected empty object args, got %#v", frames[0].Args)
	}
}
