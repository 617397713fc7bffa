package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"framebridge/internal/logging"
	"framebridge/internal/supervisor"
	"framebridge/internal/wire"
)

var (
	// ErrUnknownConnection reports a targeted send to a connection that is gone.
	ErrUnknownConnection = errors.New("unknown connection")
	// ErrNoConnections reports a broadcast with nobody listening.
	ErrNoConnections = errors.New("no connections")
)

type handlerKey struct {
	namespace string
	event     string
}

type member struct {
	conn      Conn
	namespace string
}

// Hub routes envelopes between the process and its UI connections.
type Hub struct {
	sup      *supervisor.Supervisor
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	conns    map[string]member
	handlers map[handlerKey]wire.Handler
}

// NewHub constructs a hub whose readers and handlers run under sup.
func NewHub(sup *supervisor.Supervisor, logger *slog.Logger) *Hub {
	return &Hub{
		sup:    sup,
		logger: logging.NewComponentLogger(logger, "channel"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns:    make(map[string]member),
		handlers: make(map[handlerKey]wire.Handler),
	}
}

// On installs handler for event in namespace, replacing any existing one.
func (h *Hub) On(namespace, event string, handler wire.Handler) error {
	if handler == nil {
		return fmt.Errorf("on %s: nil handler", event)
	}
	if namespace == "" {
		namespace = wire.DefaultNamespace
	}
	h.mu.Lock()
	h.handlers[handlerKey{namespace: namespace, event: event}] = handler
	h.mu.Unlock()
	return nil
}

// Send writes event to target, or to every connection when target is empty.
func (h *Hub) Send(ctx context.Context, target, event string, payload any) error {
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", event, err)
	}

	if target != "" {
		h.mu.RLock()
		m, ok := h.conns[target]
		h.mu.RUnlock()
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownConnection, target)
		}
		return m.conn.WriteMessage(ctx, raw)
	}

	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns))
	for _, m := range h.conns {
		targets = append(targets, m.conn)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return fmt.Errorf("broadcast %s: %w", event, ErrNoConnections)
	}
	var errs []error
	for _, conn := range targets {
		if err := conn.WriteMessage(ctx, raw); err != nil {
			errs = append(errs, fmt.Errorf("connection %s: %w", conn.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Attach registers conn under namespace and starts its reader task.
func (h *Hub) Attach(conn Conn, namespace string) {
	if namespace == "" {
		namespace = wire.DefaultNamespace
	}
	h.mu.Lock()
	h.conns[conn.ID()] = member{conn: conn, namespace: namespace}
	h.mu.Unlock()

	h.logger.Info("client connected",
		logging.String(logging.FieldConnectionID, conn.ID()),
		logging.String("namespace", namespace),
	)
	h.sup.Spawn("channel.reader", func(ctx context.Context) error {
		return h.read(ctx, conn, namespace)
	})
}

// ServeHTTP upgrades the request to a websocket and attaches it.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WarnWithContext(h.logger, "websocket upgrade failed", "ws_upgrade_failed",
			logging.Error(err),
			logging.String("remote", r.RemoteAddr),
			logging.String(logging.FieldImpact, "UI client could not connect"),
		)
		return
	}
	h.Attach(NewWebsocketConn(ws), wire.DefaultNamespace)
}

// Connections lists live connection IDs.
func (h *Hub) Connections() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Close closes every connection; their readers then exit.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.conns))
	for _, m := range h.conns {
		conns = append(conns, m.conn)
	}
	h.mu.RUnlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (h *Hub) read(ctx context.Context, conn Conn, namespace string) error {
	id := conn.ID()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer h.detach(conn)

	for {
		raw, err := conn.ReadMessage(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			h.logger.Debug("connection read ended",
				logging.String(logging.FieldConnectionID, id),
				logging.Error(err),
			)
			return nil
		}

		env, err := wire.DecodeEnvelope(raw)
		if err != nil {
			logging.WarnWithContext(h.logger, "inbound message rejected", "malformed_message",
				logging.String(logging.FieldConnectionID, id),
				logging.Error(err),
				logging.String(logging.FieldImpact, "message ignored"),
				logging.String(logging.FieldErrorHint, "UI must send {\"event\",\"data\"} envelopes"),
			)
			continue
		}

		h.mu.RLock()
		handler, ok := h.handlers[handlerKey{namespace: namespace, event: env.Event}]
		h.mu.RUnlock()
		if !ok {
			h.logger.Debug("no handler for inbound event",
				logging.String(logging.FieldConnectionID, id),
				logging.String(logging.FieldEvent, env.Event),
			)
			continue
		}

		data := env.Data
		h.sup.Spawn("channel.event:"+env.Event, func(ctx context.Context) error {
			ctx = logging.WithConnection(ctx, id)
			if err := handler(ctx, id, data); err != nil {
				return fmt.Errorf("handle %s from %s: %w", env.Event, id, err)
			}
			return nil
		})
	}
}

func (h *Hub) detach(conn Conn) {
	h.mu.Lock()
	_, ok := h.conns[conn.ID()]
	delete(h.conns, conn.ID())
	h.mu.Unlock()
	_ = conn.Close()
	if ok {
		h.logger.Info("client disconnected", logging.String(logging.FieldConnectionID, conn.ID()))
	}
}
