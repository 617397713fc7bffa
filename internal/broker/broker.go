package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"framebridge/internal/logging"
	"framebridge/internal/wire"
)

// Class selects the queue a request waits on.
type Class string

const (
	// ClassState carries queries; it is always drained first.
	ClassState Class = "state"
	// ClassMethod carries mutations and dialogs.
	ClassMethod Class = "method"
)

// ParseClass validates a class name.
func ParseClass(value string) (Class, error) {
	switch Class(strings.ToLower(strings.TrimSpace(value))) {
	case ClassState:
		return ClassState, nil
	case ClassMethod:
		return ClassMethod, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownClass, value)
	}
}

// Emitter accepts frames for delivery to the UI. onFailed is called when a
// frame that was accepted later fails to reach the UI.
type Emitter interface {
	EmitTracked(event string, payload any, target string, onFailed func(error)) error
}

type reply struct {
	result json.RawMessage
	err    error
}

type pendingRequest struct {
	method  string
	created time.Time
	reply   chan reply
}

// Broker owns the two request queues and the pending table.
type Broker struct {
	out    Emitter
	logger *slog.Logger
	poll   time.Duration

	mu      sync.Mutex
	state   []wire.Frame
	method  []wire.Frame
	pending map[string]*pendingRequest
	closed  bool
	wake    chan struct{}
}

// New constructs a broker forwarding frames to out. poll bounds how long the
// idle drain loop sleeps between checks.
func New(out Emitter, logger *slog.Logger, poll time.Duration) *Broker {
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}
	return &Broker{
		out:     out,
		logger:  logging.NewComponentLogger(logger, "broker"),
		poll:    poll,
		pending: make(map[string]*pendingRequest),
		wake:    make(chan struct{}, 1),
	}
}

// Send queues method with args on class and waits for the correlated
// response. Cancelling ctx abandons the request; the broker applies no timeout
// of its own.
func (b *Broker) Send(ctx context.Context, method string, args any, class Class) (json.RawMessage, error) {
	if strings.TrimSpace(method) == "" {
		return nil, fmt.Errorf("send: empty method")
	}
	if class != ClassState && class != ClassMethod {
		return nil, fmt.Errorf("send %s: %w: %q", method, ErrUnknownClass, class)
	}
	if args == nil {
		args = map[string]any{}
	}

	id := uuid.NewString()
	req := &pendingRequest{method: method, created: time.Now(), reply: make(chan reply, 1)}
	frame := wire.Frame{ID: id, Method: method, Args: args}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.pending[id] = req
	if class == ClassState {
		b.state = append(b.state, frame)
	} else {
		b.method = append(b.method, frame)
	}
	b.mu.Unlock()
	b.signal()

	b.logger.Debug("request queued",
		logging.String(logging.FieldRequestID, id),
		logging.String(logging.FieldMethod, method),
		logging.String("class", string(class)),
	)

	select {
	case r := <-req.reply:
		return r.result, r.err
	case <-ctx.Done():
		b.abandon(id)
		return nil, ctx.Err()
	}
}

// Resolve completes the request matching resp.ID. It reports false, and does
// nothing else, when no such request is pending.
func (b *Broker) Resolve(resp wire.Response) bool {
	b.mu.Lock()
	req, ok := b.pending[resp.ID]
	if ok {
		delete(b.pending, resp.ID)
	}
	b.mu.Unlock()

	if !ok {
		b.logger.Debug("response without pending request dropped",
			logging.String(logging.FieldRequestID, resp.ID),
			logging.String(logging.FieldEventType, "correlation_miss"),
		)
		return false
	}

	if resp.Kind == wire.KindError {
		req.reply <- reply{err: &RemoteError{
			ID:      resp.ID,
			Method:  req.method,
			Message: resp.ErrorMessage(),
			Payload: resp.Error,
		}}
	} else {
		req.reply <- reply{result: resp.Result}
	}
	b.logger.Debug("request resolved",
		logging.String(logging.FieldRequestID, resp.ID),
		logging.String(logging.FieldMethod, req.method),
		logging.String("kind", resp.Kind.String()),
		logging.Duration("elapsed", time.Since(req.created)),
	)
	return true
}

// Run forwards queued frames until ctx is cancelled.
func (b *Broker) Run(ctx context.Context) error {
	timer := time.NewTimer(b.poll)
	defer timer.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if frame, ok := b.next(); ok {
			b.forward(frame)
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(b.poll)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.wake:
		case <-timer.C:
		}
	}
}

// Close rejects every pending request with ErrClosed and refuses new ones.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	abandoned := b.pending
	b.pending = make(map[string]*pendingRequest)
	b.state = nil
	b.method = nil
	b.mu.Unlock()

	for _, req := range abandoned {
		req.reply <- reply{err: ErrClosed}
	}
	if len(abandoned) > 0 {
		b.logger.Info("pending requests abandoned", logging.Int("count", len(abandoned)))
	}
}

// Pending returns the number of requests awaiting a response.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Queued returns the number of frames not yet forwarded, per class.
func (b *Broker) Queued() (state, method int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.state), len(b.method)
}

// next dequeues under the lock so a state frame queued at any point before
// the call wins over every method frame.
func (b *Broker) next() (wire.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.state) > 0 {
		frame := b.state[0]
		b.state[0] = wire.Frame{}
		b.state = b.state[1:]
		return frame, true
	}
	if len(b.method) > 0 {
		frame := b.method[0]
		b.method[0] = wire.Frame{}
		b.method = b.method[1:]
		return frame, true
	}
	return wire.Frame{}, false
}

func (b *Broker) forward(frame wire.Frame) {
	payload, err := json.Marshal(frame)
	if err == nil {
		err = b.out.EmitTracked(wire.EventWindowRequest, json.RawMessage(payload), "", func(err error) {
			b.reject(frame.ID, fmt.Errorf("deliver %s: %w", frame.Method, err))
		})
	}
	if err != nil {
		b.reject(frame.ID, fmt.Errorf("forward %s: %w", frame.Method, err))
	}
}

func (b *Broker) reject(id string, err error) {
	b.mu.Lock()
	req, ok := b.pending[id]
	if ok {
		delete(b.pending, id)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	req.reply <- reply{err: err}
	logging.WarnWithContext(b.logger, "request rejected before delivery", "request_forward_failed",
		logging.String(logging.FieldRequestID, id),
		logging.String(logging.FieldMethod, req.method),
		logging.Error(err),
		logging.String(logging.FieldImpact, "caller received an error instead of a UI response"),
	)
}

func (b *Broker) abandon(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, id)
	b.state = dropFrame(b.state, id)
	b.method = dropFrame(b.method, id)
}

func dropFrame(queue []wire.Frame, id string) []wire.Frame {
	for i, frame := range queue {
		if frame.ID == id {
			return append(queue[:i], queue[i+1:]...)
		}
	}
	return queue
}

func (b *Broker) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}
