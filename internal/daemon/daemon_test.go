package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"framebridge/internal/bridge"
	"framebridge/internal/channel"
	"framebridge/internal/config"
	"framebridge/internal/daemon"
	"framebridge/internal/logging"
	"framebridge/internal/testsupport"
	"framebridge/internal/wire"
)

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	b, err := bridge.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("bridge.New: %v", err)
	}
	d, err := daemon.New(cfg, logging.NewNop(), b)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.HTTPAddress == "" {
		t.Fatal("expected listen address")
	}
	if len(status.Tasks) < 2 {
		t.Fatalf("expected broker and outbox tasks, got %+v", status.Tasks)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newDaemon(t, cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second := newDaemon(t, cfg)
	err := second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock conflict, got %v", err)
	}
}

func TestServerShutdownEndpointSignals(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get("http://" + d.Address() + "/server_shutdown")
	if err != nil {
		t.Fatalf("GET /server_shutdown: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	select {
	case <-d.ShutdownRequested():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown was not requested")
	}
}

func TestWebsocketClientReachesBridge(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn, err := channel.Dial(context.Background(), "ws://"+d.Address()+cfg.Server.WSPath, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	ui := testsupport.NewUIPeer(t, conn)

	ui.Send(wire.EventBridgeAPI, map[string]any{
		"protocol": wire.ProtocolCommandInvoker,
		"payload":  map[string]any{"cmd": "available_commands", "result_id": "r1"},
	})
	var answer struct {
		ID     string                       `json:"id"`
		Result map[string]map[string]string `json:"result"`
	}
	ui.Expect(wire.EventInvokeResult, &answer)
	if answer.ID != "r1" {
		t.Fatalf("unexpected answer %+v", answer)
	}
	if _, ok := answer.Result["available_commands"]; !ok {
		t.Fatalf("expected builtin command listed, got %v", answer.Result)
	}

	resp, err := http.Get("http://" + d.Address() + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer resp.Body.Close()
	var status daemon.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || status.Connections != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestWebsocketClientNeedsTokenWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Token = "secret"
	d := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	url := "ws://" + d.Address() + cfg.Server.WSPath

	if _, err := channel.Dial(context.Background(), url, nil); err == nil {
		t.Fatal("expected dial without token to fail")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer secret")
	conn, err := channel.Dial(context.Background(), url, header)
	if err != nil {
		t.Fatalf("Dial with header: %v", err)
	}
	defer conn.Close()

	conn2, err := channel.Dial(context.Background(), url+"?token=secret", nil)
	if err != nil {
		t.Fatalf("Dial with query token: %v", err)
	}
	defer conn2.Close()
}
