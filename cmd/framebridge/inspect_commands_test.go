package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"framebridge/internal/ipc"
)

func TestTasksCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"tasks"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	requireContains(t, out, "broker")
	requireContains(t, out, "outbox")
	requireContains(t, out, "Pending")

	out, _, err = runCLI(t, []string{"tasks", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("tasks --json: %v", err)
	}
	var tasks []ipc.TaskInfo
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	if len(tasks) < 2 {
		t.Fatalf("expected at least two tasks, got %+v", tasks)
	}
}

func TestCommandsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"commands"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	requireContains(t, out, "available_commands")
	requireContains(t, out, "greet")
	requireContains(t, out, "who: main.greeting")
}

func TestTasksCommandWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(env.baseDir, "missing.sock")

	_, _, err := runCLI(t, []string{"tasks"}, missing, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "framebridge start") {
		t.Fatalf("expected dial hint, got %v", err)
	}
}

func TestTaskRows(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := taskRows([]ipc.TaskInfo{
		{Name: "broker", State: "pending", Started: now.Add(-90 * time.Second)},
		{Name: "channel.reader", State: "cancelled", Exempt: true},
	}, now)
	if rows[0][1] != "Pending" || rows[0][3] != "1m30s" {
		t.Fatalf("unexpected first row %v", rows[0])
	}
	if rows[1][1] != "Cancelled" || rows[1][2] != "yes" || rows[1][3] != "-" {
		t.Fatalf("unexpected second row %v", rows[1])
	}
}

func TestCommandRows(t *testing.T) {
	rows := commandRows([]ipc.CommandInfo{
		{Name: "save", Params: map[string]string{"text": "raw", "doc": "main.doc"}},
		{Name: "ping"},
	})
	if rows[0][1] != "doc: main.doc, text: raw" {
		t.Fatalf("expected sorted params, got %q", rows[0][1])
	}
	if rows[1][1] != "-" {
		t.Fatalf("expected placeholder for no params, got %q", rows[1][1])
	}
}
