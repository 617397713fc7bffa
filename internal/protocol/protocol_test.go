package protocol_test

import (
	"context"
	"errors"
	"testing"

	"framebridge/internal/protocol"
)

func TestDispatchTagsResultWithProtocol(t *testing.T) {
	reg := protocol.NewRegistry()
	if err := reg.Register("command-invoker", protocol.HandlerFunc(func(_ context.Context, data map[string]any) (any, error) {
		return data["cmd"], nil
	})); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := reg.Dispatch(context.Background(), "command-invoker", map[string]any{"cmd": "echo"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Protocol != "command-invoker" || res.Value != "echo" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDispatchUnknownProtocol(t *testing.T) {
	reg := protocol.NewRegistry()
	res, err := reg.Dispatch(context.Background(), "nope", nil)
	if !errors.Is(err, protocol.ErrProtocolNotFound) {
		t.Fatalf("expected ErrProtocolNotFound, got %v", err)
	}
	if res.Protocol != "nope" {
		t.Fatalf("expected protocol name on failure, got %q", res.Protocol)
	}
}

func TestRegisterOverwritesAndListsNames(t *testing.T) {
	reg := protocol.NewRegistry()
	first := protocol.HandlerFunc(func(context.Context, map[string]any) (any, error) { return 1, nil })
	second := protocol.HandlerFunc(func(context.Context, map[string]any) (any, error) { return 2, nil })
	_ = reg.Register("menu", first)
	_ = reg.Register("menu", second)
	_ = reg.Register("command-invoker", first)

	res, err := reg.Dispatch(context.Background(), "menu", nil)
	if err != nil || res.Value != 2 {
		t.Fatalf("expected overwritten handler, got %v %v", res.Value, err)
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "command-invoker" || names[1] != "menu" {
		t.Fatalf("unexpected names %v", names)
	}
	if err := reg.Register(" ", first); err == nil {
		t.Fatal("expected empty name rejected")
	}
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	reg := protocol.NewRegistry()
	boom := errors.New("boom")
	_ = reg.Register("menu", protocol.HandlerFunc(func(context.Context, map[string]any) (any, error) { return nil, boom }))
	if _, err := reg.Dispatch(context.Background(), "menu", nil); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
}
