package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"framebridge/internal/broker"
	"framebridge/internal/callbacks"
	"framebridge/internal/channel"
	"framebridge/internal/config"
	"framebridge/internal/invoker"
	"framebridge/internal/logging"
	"framebridge/internal/outbox"
	"framebridge/internal/protocol"
	"framebridge/internal/supervisor"
	"framebridge/internal/uiapi"
	"framebridge/internal/wire"
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("bridge already started")

// Bridge owns every component of one UI bridge.
type Bridge struct {
	logger          *slog.Logger
	shutdownTimeout time.Duration

	sup       *supervisor.Supervisor
	hub       *channel.Hub
	outbox    *outbox.Outbox
	broker    *broker.Broker
	protocols *protocol.Registry
	commands  *invoker.Invoker
	callbacks *callbacks.Registry

	mu      sync.Mutex
	started bool
	stopped bool
}

// Status is a point-in-time view of the bridge.
type Status struct {
	Tasks           int
	PendingRequests int
	QueuedState     int
	QueuedMethod    int
	QueuedEmits     int
	Connections     int
	Protocols       []string
	Commands        []string
}

// New assembles a bridge from cfg. Supervisor options such as
// supervisor.WithErrorHandler are applied to the task supervisor.
func New(cfg *config.Config, logger *slog.Logger, opts ...supervisor.Option) (*Bridge, error) {
	if cfg == nil {
		return nil, errors.New("bridge requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	sup := supervisor.New(logger, opts...)
	hub := channel.NewHub(sup, logger)
	box := outbox.New(hub, logger, cfg.OutboxTick())
	b := &Bridge{
		logger:          logging.NewComponentLogger(logger, "bridge"),
		shutdownTimeout: cfg.ShutdownTimeout(),
		sup:             sup,
		hub:             hub,
		outbox:          box,
		broker:          broker.New(box, logger, cfg.BrokerPollInterval()),
		protocols:       protocol.NewRegistry(),
		commands:        invoker.New(logger),
		callbacks:       callbacks.New(logger),
	}

	if err := b.protocols.Register(wire.ProtocolCommandInvoker, b.commands); err != nil {
		return nil, err
	}
	if err := b.protocols.Register(wire.ProtocolMenu, b.callbacks); err != nil {
		return nil, err
	}
	if err := b.commands.Register("available_commands", b.availableCommands); err != nil {
		return nil, err
	}
	return b, nil
}

// Start installs the inbound routes and launches the drain loops. The routes
// are applied before Start returns.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return ErrAlreadyStarted
	}
	if b.stopped {
		return fmt.Errorf("bridge stopped")
	}

	if err := b.registerRoutes(); err != nil {
		return err
	}
	b.outbox.Flush(ctx)

	b.sup.Spawn("outbox", b.outbox.Run)
	b.sup.Spawn("broker", b.broker.Run)
	b.started = true
	b.logger.Info("bridge started",
		logging.Strings("protocols", b.protocols.Names()),
		logging.Duration("shutdown_timeout", b.shutdownTimeout),
	)
	return nil
}

// Send forwards method to the UI on class and waits for its response.
func (b *Bridge) Send(ctx context.Context, method string, args any, class broker.Class) (json.RawMessage, error) {
	return b.broker.Send(ctx, method, args, class)
}

// Shutdown abandons pending requests, stops every task, and closes the
// channel. It returns the names of tasks that overran the timeout.
func (b *Bridge) Shutdown() []string {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	b.mu.Unlock()

	b.broker.Close()
	stragglers := b.sup.Shutdown(b.shutdownTimeout)
	b.hub.Close()
	b.outbox.Close()
	b.logger.Info("bridge stopped", logging.Int("stragglers", len(stragglers)))
	return stragglers
}

// Status reports queue depths, task counts, and registry contents.
func (b *Bridge) Status() Status {
	state, method := b.broker.Queued()
	emits, _ := b.outbox.Pending()
	return Status{
		Tasks:           b.sup.Len(),
		PendingRequests: b.broker.Pending(),
		QueuedState:     state,
		QueuedMethod:    method,
		QueuedEmits:     emits,
		Connections:     len(b.hub.Connections()),
		Protocols:       b.protocols.Names(),
		Commands:        b.commands.Names(),
	}
}

func (b *Bridge) Supervisor() *supervisor.Supervisor { return b.sup }

func (b *Bridge) Hub() *channel.Hub { return b.hub }

func (b *Bridge) Outbox() *outbox.Outbox { return b.outbox }

func (b *Bridge) Protocols() *protocol.Registry { return b.protocols }

func (b *Bridge) Commands() *invoker.Invoker { return b.commands }

func (b *Bridge) Callbacks() *callbacks.Registry { return b.callbacks }

// Window returns typed window methods bound to this bridge.
func (b *Bridge) Window() *uiapi.Window { return uiapi.NewWindow(b) }

// Dialog returns typed dialog methods bound to this bridge.
func (b *Bridge) Dialog() *uiapi.Dialog { return uiapi.NewDialog(b) }

func (b *Bridge) Webview() *uiapi.Webview { return uiapi.NewWebview(b) }

func (b *Bridge) Monitor() *uiapi.Monitor { return uiapi.NewMonitor(b) }

func (b *Bridge) Shortcut() *uiapi.Shortcut { return uiapi.NewShortcut(b) }

func (b *Bridge) Notifier() *uiapi.Notifier { return uiapi.NewNotifier(b) }

func (b *Bridge) Application() *uiapi.Application { return uiapi.NewApplication(b) }

func (b *Bridge) WindowExtra() *uiapi.WindowExtra { return uiapi.NewWindowExtra(b) }

func (b *Bridge) availableCommands(context.Context, invoker.Args) (any, error) {
	return b.commands.AvailableCommands(), nil
}
