package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"framebridge/internal/logging"
	"framebridge/internal/wire"
)

var (
	// ErrClosed is returned by Emit and Register after Close.
	ErrClosed = errors.New("outbox closed")
	// ErrItemPanic wraps a panic raised while delivering one item.
	ErrItemPanic = errors.New("outbox item panicked")
)

// Sink performs the channel I/O for drained items.
type Sink interface {
	Send(ctx context.Context, target, event string, payload any) error
	On(namespace, event string, handler wire.Handler) error
}

// EmitItem is a pending outbound event. An empty Target broadcasts. OnFailed,
// when set, receives the delivery error after it has been logged.
type EmitItem struct {
	Event    string
	Payload  any
	Target   string
	OnFailed func(error)
}

// Registration is a pending inbound handler registration.
type Registration struct {
	Event     string
	Handler   wire.Handler
	Namespace string
}

// Outbox buffers emits and registrations until the next drain.
type Outbox struct {
	sink   Sink
	logger *slog.Logger
	tick   time.Duration

	mu     sync.Mutex
	emits  []EmitItem
	regs   []Registration
	closed bool
	wake   chan struct{}
}

// New constructs an outbox draining into sink every tick.
func New(sink Sink, logger *slog.Logger, tick time.Duration) *Outbox {
	if tick <= 0 {
		tick = 5 * time.Millisecond
	}
	return &Outbox{
		sink:   sink,
		logger: logging.NewComponentLogger(logger, "outbox"),
		tick:   tick,
		wake:   make(chan struct{}, 1),
	}
}

// Emit queues event for delivery to target, or to every connection when target
// is empty. It never blocks.
func (o *Outbox) Emit(event string, payload any, target string) error {
	return o.EmitTracked(event, payload, target, nil)
}

// EmitTracked is Emit with a callback for delivery failures reported by the
// sink during a later drain.
func (o *Outbox) EmitTracked(event string, payload any, target string, onFailed func(error)) error {
	if strings.TrimSpace(event) == "" {
		return fmt.Errorf("emit: empty event name")
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	o.emits = append(o.emits, EmitItem{Event: event, Payload: payload, Target: target, OnFailed: onFailed})
	o.mu.Unlock()
	o.signal()
	return nil
}

// Register queues a handler registration for event under namespace. It never
// blocks.
func (o *Outbox) Register(event string, handler wire.Handler, namespace string) error {
	if strings.TrimSpace(event) == "" {
		return fmt.Errorf("register: empty event name")
	}
	if handler == nil {
		return fmt.Errorf("register %s: nil handler", event)
	}
	if namespace == "" {
		namespace = wire.DefaultNamespace
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	o.regs = append(o.regs, Registration{Event: event, Handler: handler, Namespace: namespace})
	o.mu.Unlock()
	o.signal()
	return nil
}

// Pending returns the number of buffered emits and registrations.
func (o *Outbox) Pending() (emits, registrations int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.emits), len(o.regs)
}

// Close rejects further items. Items already buffered are still drained.
func (o *Outbox) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.signal()
}

// Run drains the buffers until ctx is cancelled.
func (o *Outbox) Run(ctx context.Context) error {
	timer := time.NewTimer(o.tick)
	defer timer.Stop()
	for {
		o.Flush(ctx)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(o.tick)

		select {
		case <-ctx.Done():
			if emits, regs := o.Pending(); emits+regs > 0 {
				logging.WarnWithContext(o.logger, "outbox stopped with undelivered items", "outbox_dropped",
					logging.Int("emits", emits),
					logging.Int("registrations", regs),
					logging.String(logging.FieldImpact, "buffered events were not sent to the UI"),
				)
			}
			return ctx.Err()
		case <-o.wake:
		case <-timer.C:
		}
	}
}

// Flush snapshots and clears both buffers, then processes every emit followed
// by every registration. It returns the number of items handled.
func (o *Outbox) Flush(ctx context.Context) int {
	o.mu.Lock()
	if len(o.emits) == 0 && len(o.regs) == 0 {
		o.mu.Unlock()
		return 0
	}
	emits := o.emits
	regs := o.regs
	o.emits = nil
	o.regs = nil
	o.mu.Unlock()

	for _, item := range emits {
		if err := o.deliver(ctx, item); err != nil {
			logging.WarnWithContext(o.logger, "emit failed", "emit_failed",
				logging.String(logging.FieldEvent, item.Event),
				logging.String("target", item.Target),
				logging.Error(err),
				logging.String(logging.FieldImpact, "event was not delivered"),
				logging.String(logging.FieldErrorHint, "check the UI connection is open"),
			)
			if item.OnFailed != nil {
				item.OnFailed(err)
			}
		}
	}
	for _, reg := range regs {
		if err := o.install(reg); err != nil {
			logging.WarnWithContext(o.logger, "handler registration failed", "register_failed",
				logging.String(logging.FieldEvent, reg.Event),
				logging.String("namespace", reg.Namespace),
				logging.Error(err),
				logging.String(logging.FieldImpact, "inbound event will not be handled"),
			)
		}
	}
	return len(emits) + len(regs)
}

func (o *Outbox) deliver(ctx context.Context, item EmitItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrItemPanic, r)
		}
	}()
	return o.sink.Send(ctx, item.Target, item.Event, item.Payload)
}

func (o *Outbox) install(reg Registration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrItemPanic, r)
		}
	}()
	return o.sink.On(reg.Namespace, reg.Event, reg.Handler)
}

func (o *Outbox) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}
