package ipc_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"framebridge/internal/bridge"
	"framebridge/internal/daemon"
	"framebridge/internal/invoker"
	"framebridge/internal/ipc"
	"framebridge/internal/logging"
	"framebridge/internal/testsupport"
)

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	logger := logging.NewNop()
	b, err := bridge.New(cfg, logger)
	if err != nil {
		t.Fatalf("bridge.New: %v", err)
	}
	if err := b.Commands().Register("notes.save", func(context.Context, invoker.Args) (any, error) {
		return nil, nil
	}, invoker.Raw("text")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	d, err := daemon.New(cfg, logger, b)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID == 0 {
		t.Fatalf("unexpected status %+v", status)
	}
	if len(status.Protocols) != 2 {
		t.Fatalf("expected two protocols, got %v", status.Protocols)
	}

	tasks, err := client.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	names := map[string]bool{}
	for _, task := range tasks.Tasks {
		names[task.Name] = true
	}
	if !names["broker"] || !names["outbox"] {
		t.Fatalf("expected broker and outbox tasks, got %+v", tasks.Tasks)
	}

	commands, err := client.Commands()
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	if len(commands.Commands) != 2 || commands.Commands[1].Name != "notes.save" {
		t.Fatalf("unexpected commands %+v", commands.Commands)
	}
	if commands.Commands[1].Params["text"] != "raw" {
		t.Fatalf("unexpected params %+v", commands.Commands[1].Params)
	}

	stop, err := client.Stop()
	if err != nil || !stop.Stopped {
		t.Fatalf("Stop: %v %+v", err, stop)
	}
	select {
	case <-d.ShutdownRequested():
	case <-time.After(2 * time.Second):
		t.Fatal("expected shutdown request")
	}
}
