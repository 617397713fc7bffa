package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"framebridge/internal/bridge"
	"framebridge/internal/daemon"
	"framebridge/internal/daemonctl"
	"framebridge/internal/ipc"
	"framebridge/internal/logging"
	"framebridge/internal/testsupport"
)

func TestStopAndTerminateWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.StopAndTerminate(cfg.Paths.SocketPath, cfg, 0)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestProcessInfoWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	alive, pid, err := daemonctl.ProcessInfo(cfg.Paths.SocketPath)
	if err != nil || alive || pid != 0 {
		t.Fatalf("expected offline result, got alive=%v pid=%d err=%v", alive, pid, err)
	}
}

func TestDeriveLogDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if got := daemonctl.DeriveLogDir("/run/fb/framebridge.lock", cfg); got != "/run/fb" {
		t.Fatalf("expected lock dir, got %q", got)
	}
	if got := daemonctl.DeriveLogDir("", cfg); got != cfg.Paths.LogDir {
		t.Fatalf("expected config log dir, got %q", got)
	}
	if got := daemonctl.DeriveLogDir("", nil); got != "" {
		t.Fatalf("expected empty dir, got %q", got)
	}
}

func TestForceKillRefusesCurrentProcess(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "framebridge.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := daemonctl.ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected refusal to kill current process")
	}
	if _, err := daemonctl.ForceKillProcess(filepath.Join(t.TempDir(), "missing.pid"), "", 0); err == nil {
		t.Fatal("expected error without pid")
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	snapshot, err := daemonctl.BuildStatusSnapshot(context.Background(), cfg.Paths.SocketPath, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snapshot.Daemon.Running {
		t.Fatal("expected daemon reported offline")
	}
	if len(snapshot.Checks) != 2 || snapshot.Checks[0].Severity != "warn" {
		t.Fatalf("unexpected offline checks %+v", snapshot.Checks)
	}
	for _, line := range snapshot.Paths {
		if line.Severity != "ok" {
			t.Fatalf("expected path checks to pass, got %+v", line)
		}
	}
}

func TestBuildStatusSnapshotOnline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	logger := logging.NewNop()
	b, err := bridge.New(cfg, logger)
	if err != nil {
		t.Fatalf("bridge.New: %v", err)
	}
	d, err := daemon.New(cfg, logger, b)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Close()

	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	defer srv.Close()

	snapshot, err := daemonctl.BuildStatusSnapshot(ctx, cfg.Paths.SocketPath, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if !snapshot.Daemon.Running {
		t.Fatal("expected daemon reported running")
	}
	labels := map[string]string{}
	for _, line := range snapshot.Checks {
		labels[line.Label] = line.Severity
	}
	if labels["Framebridge"] != "ok" || labels["HTTP Endpoint"] != "ok" {
		t.Fatalf("unexpected checks %+v", snapshot.Checks)
	}
	if labels["UI Peers"] != "warn" {
		t.Fatalf("expected warning without UI peers, got %+v", snapshot.Checks)
	}
}
