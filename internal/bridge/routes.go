package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"framebridge/internal/logging"
	"framebridge/internal/wire"
)

// eventLoopCallback notifications are internal to the UI runtime.
const eventLoopCallback = "ipc.callback"

func (b *Bridge) registerRoutes() error {
	routes := map[string]wire.Handler{
		wire.EventWindowResponse:  b.handleWindowResponse,
		wire.EventBridgeAPI:       b.handleAPI,
		wire.EventWindowEventLoop: b.handleEventLoop,
	}
	for event, handler := range routes {
		if err := b.outbox.Register(event, handler, wire.DefaultNamespace); err != nil {
			return fmt.Errorf("register %s route: %w", event, err)
		}
	}
	return nil
}

func (b *Bridge) handleWindowResponse(_ context.Context, _ string, data json.RawMessage) error {
	resp, err := wire.DecodeResponse(data)
	if err != nil {
		return err
	}
	b.broker.Resolve(resp)
	return nil
}

func (b *Bridge) handleAPI(ctx context.Context, conn string, data json.RawMessage) error {
	msg, err := wire.DecodeAPIMessage(data)
	if err != nil {
		return err
	}
	if msg.Protocol == wire.ProtocolUIResult {
		resp, err := wire.DecodeResponse(msg.Payload)
		if err != nil {
			return err
		}
		b.broker.Resolve(resp)
		return nil
	}

	inv, err := wire.DecodeInvocation(msg.Payload)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, b.logger).With(
		logging.String(logging.FieldProtocol, msg.Protocol),
		logging.String(logging.FieldCommand, inv.Cmd),
	)

	result, err := b.protocols.Dispatch(ctx, msg.Protocol, inv.Data())
	if err != nil {
		logging.WarnWithContext(logger, "protocol invocation failed", "invocation_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "UI invocation returned an error"),
			logging.String(logging.FieldErrorHint, "check the command name and its parameters"),
		)
		if msg.Protocol == wire.ProtocolCommandInvoker {
			return b.outbox.Emit(wire.EventInvokeError, wire.InvokeError{ID: inv.ErrorID, Error: err.Error()}, conn)
		}
		return nil
	}

	logger.Debug("protocol invocation completed")
	if result.Protocol == wire.ProtocolCommandInvoker {
		return b.outbox.Emit(wire.EventInvokeResult, wire.InvokeResult{ID: inv.ResultID, Result: result.Value}, conn)
	}
	return nil
}

func (b *Bridge) handleEventLoop(ctx context.Context, _ string, data json.RawMessage) error {
	var msg wire.EventLoopMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("event loop message: %w: %v", wire.ErrMalformed, err)
	}
	if msg.Event == eventLoopCallback {
		return nil
	}
	logging.WithContext(ctx, b.logger).Debug("ui event loop",
		logging.String(logging.FieldEvent, msg.Event),
		logging.String("payload", string(msg.Payload)),
	)
	return nil
}
