package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"framebridge/internal/bridge"
	"framebridge/internal/config"
	"framebridge/internal/logging"
	"framebridge/internal/supervisor"
)

// Daemon owns the bridge, the HTTP endpoints, and the instance lock.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	bridge *bridge.Bridge
	api    *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	LockFilePath string
	SocketPath   string
	HTTPAddress  string
	Bridge       bridge.Status
	Tasks        []supervisor.TaskInfo
}

// New constructs a daemon around b.
func New(cfg *config.Config, logger *slog.Logger, b *bridge.Bridge) (*Daemon, error) {
	if cfg == nil || logger == nil || b == nil {
		return nil, errors.New("daemon requires config, logger, and bridge")
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		bridge:   b,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		shutdown: make(chan struct{}),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, starts the bridge, and begins serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another framebridge daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.bridge.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start bridge: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.bridge.Shutdown()
		_ = d.lock.Unlock()
		cancel()
		return err
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("framebridge daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.address()),
	)
	return nil
}

// Stop stops serving, shuts the bridge down, and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	if stragglers := d.bridge.Shutdown(); len(stragglers) > 0 {
		d.logger.Info("bridge shutdown overran timeout", logging.Strings("tasks", stragglers))
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String("lock", d.lockPath),
			logging.String(logging.FieldImpact, "next daemon start may report a running instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("framebridge daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// RequestShutdown asks the hosting process to stop the daemon.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() {
		d.logger.Info("shutdown requested")
		close(d.shutdown)
	})
}

// ShutdownRequested is closed once RequestShutdown was called.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdown
}

// Bridge returns the bridge served by the daemon.
func (d *Daemon) Bridge() *bridge.Bridge {
	return d.bridge
}

// Address returns the HTTP listen address, or "" when not serving.
func (d *Daemon) Address() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		SocketPath:   d.cfg.Paths.SocketPath,
		HTTPAddress:  d.api.address(),
		Bridge:       d.bridge.Status(),
		Tasks:        d.bridge.Supervisor().Snapshot(),
	}
}
