package daemonrun_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"framebridge/internal/bridge"
	"framebridge/internal/daemonrun"
	"framebridge/internal/invoker"
	"framebridge/internal/ipc"
	"framebridge/internal/testsupport"
)

func TestRunStopsOnIPCRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	registered := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- daemonrun.Run(context.Background(), cfg, daemonrun.Options{
			LogLevel: "error",
			Setup: func(b *bridge.Bridge) error {
				defer close(registered)
				return b.Commands().Register("ping", func(context.Context, invoker.Args) (any, error) {
					return "pong", nil
				})
			},
		})
	}()

	select {
	case <-registered:
	case err := <-done:
		t.Fatalf("Run exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("setup hook not called")
	}

	var client *ipc.Client
	deadline := time.Now().Add(2 * time.Second)
	for {
		c, err := ipc.Dial(cfg.Paths.SocketPath)
		if err == nil {
			client = c
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial ipc socket: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	defer client.Close()

	commands, err := client.Commands()
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	found := false
	for _, c := range commands.Commands {
		if c.Name == "ping" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ping command, got %+v", commands.Commands)
	}

	if _, err := client.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after stop request")
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "framebridge.pid")); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, got %v", err)
	}
	if _, err := os.Lstat(filepath.Join(cfg.Paths.LogDir, "framebridge.log")); err != nil {
		t.Fatalf("expected current log pointer: %v", err)
	}
}

func TestRunSetupFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	boom := errors.New("boom")
	err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel: "error",
		Setup:    func(*bridge.Bridge) error { return boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected setup error, got %v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := daemonrun.Run(context.Background(), nil, daemonrun.Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
