package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"framebridge/internal/config"
	"framebridge/internal/ipc"
	"framebridge/internal/preflight"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// Launch starts a detached framebridge daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if socket := strings.TrimSpace(opts.SocketPath); socket != "" {
		args = append(args, "--socket", socket)
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless it already answers on socketPath.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client, err := ipc.Dial(socketPath)
	launched := false
	if err != nil {
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForClient(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		launched = true
	}
	defer client.Close()

	statusResp, err := client.Status()
	if err != nil {
		return StartResult{}, fmt.Errorf("query daemon status: %w", err)
	}
	if !statusResp.Running {
		return StartResult{}, errors.New("daemon answered on the control socket but is not running")
	}
	if launched {
		return StartResult{State: StartStateStarted, Launched: true, PID: statusResp.PID}, nil
	}
	return StartResult{State: StartStateAlreadyRunning, PID: statusResp.PID}, nil
}

// WaitForShutdown waits for daemon IPC to disappear or report not-running.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			if isDaemonUnavailable(err) {
				return nil
			}
			lastErr = err
			time.Sleep(200 * time.Millisecond)
			continue
		}
		status, statusErr := client.Status()
		_ = client.Close()
		if statusErr == nil && !status.Running {
			return nil
		}
		if statusErr != nil {
			lastErr = statusErr
		} else {
			lastErr = fmt.Errorf("daemon still running")
		}
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for shutdown")
	}
	return fmt.Errorf("daemon did not stop: %w", lastErr)
}

// ProcessInfo returns whether daemon IPC is reachable and the daemon PID when available.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer client.Close()
	status, statusErr := client.Status()
	if statusErr != nil {
		return true, 0, statusErr
	}
	pid := 0
	if status != nil {
		pid = status.PID
	}
	return true, pid, nil
}

// DeriveLogDir determines daemon log directory from status and config hints.
func DeriveLogDir(lockPath string, cfg *config.Config) string {
	if lockPath != "" {
		return filepath.Dir(lockPath)
	}
	if cfg != nil && strings.TrimSpace(cfg.Paths.LogDir) != "" {
		return cfg.Paths.LogDir
	}
	return ""
}

// ForceKillProcess sends SIGKILL to daemon process and cleans pid/lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	data, err := os.ReadFile(pidPath)
	if err == nil {
		pidStr := strings.TrimSpace(string(data))
		if pidStr != "" {
			if parsed, parseErr := strconv.Atoi(pidStr); parseErr == nil && parsed > 0 {
				pid = parsed
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// RestartResult captures stop/start outcomes for daemon restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// StopAndTerminate requests daemon stop and force-kills the process if still alive after gracePeriod.
func StopAndTerminate(socketPath string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	statusResp, statusErr := client.Status()
	var lockPath string
	pid := 0
	if statusErr == nil && statusResp != nil {
		lockPath = statusResp.LockPath
		pid = statusResp.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: pid}
	if resp != nil {
		result.StopAcknowledged = resp.Stopped
	}

	_ = WaitForShutdown(socketPath, gracePeriod)
	alive, livePID, aliveErr := ProcessInfo(socketPath)
	if aliveErr != nil {
		alive = false
	}
	if !alive {
		return result, nil
	}

	currentPID := livePID
	if currentPID == 0 {
		currentPID = pid
	}
	logDir := DeriveLogDir(lockPath, cfg)
	if logDir == "" {
		return result, fmt.Errorf("unable to determine daemon log directory")
	}
	pidPath := filepath.Join(logDir, "framebridge.pid")
	lockFile := filepath.Join(logDir, "framebridge.lock")
	killedPID, killErr := ForceKillProcess(pidPath, lockFile, currentPID)
	if killErr != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", killErr)
	}
	_ = os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

// Restart stops the daemon if running, then ensures it is started.
func Restart(socketPath string, cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	stopResult, stopErr := StopAndTerminate(socketPath, cfg, stopGracePeriod)
	if stopErr != nil && !errors.Is(stopErr, ErrDaemonNotRunning) {
		return RestartResult{}, stopErr
	}

	startResult, err := EnsureStarted(socketPath, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}

	return RestartResult{
		WasRunning: stopErr == nil,
		Stop:       stopResult,
		Start:      startResult,
	}, nil
}

// StatusLine is one labelled row of the status report.
type StatusLine struct {
	Label    string
	Severity string
	Detail   string
}

// Snapshot combines live daemon status with config-derived checks.
type Snapshot struct {
	Daemon ipc.StatusResponse
	Checks []StatusLine
	Paths  []StatusLine
}

// BuildStatusSnapshot collects daemon status over IPC and falls back to
// offline checks when the daemon is unreachable.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snapshot := &Snapshot{}

	client, err := ipc.Dial(socketPath)
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			snapshot.Daemon = *resp
		}
	}

	snapshot.Checks = BuildSystemChecks(ctx, cfg, snapshot.Daemon)
	snapshot.Paths = BuildPathChecks(cfg, snapshot.Daemon.Running)
	return snapshot, nil
}

// BuildSystemChecks resolves status lines that combine runtime state and config checks.
func BuildSystemChecks(ctx context.Context, cfg *config.Config, status ipc.StatusResponse) []StatusLine {
	lines := make([]StatusLine, 0, 4)
	if !status.Running {
		lines = append(lines, StatusLine{Label: "Framebridge", Severity: "warn", Detail: "Not running (run `framebridge start`)"})
		bind := preflight.CheckBindAddress("HTTP listener", cfg.Server.Bind)
		severity := "ok"
		if !bind.Passed {
			severity = "error"
		}
		lines = append(lines, StatusLine{Label: "HTTP Listener", Severity: severity, Detail: bind.Detail})
		return lines
	}

	lines = append(lines, StatusLine{Label: "Framebridge", Severity: "ok", Detail: fmt.Sprintf("Running (pid %d)", status.PID)})

	endpoint := preflight.CheckEndpoint(ctx, status.HTTPAddress)
	if endpoint.Passed {
		lines = append(lines, StatusLine{Label: "HTTP Endpoint", Severity: "ok", Detail: endpoint.Detail})
	} else {
		lines = append(lines, StatusLine{Label: "HTTP Endpoint", Severity: "error", Detail: endpoint.Detail})
	}

	switch status.Connections {
	case 0:
		lines = append(lines, StatusLine{Label: "UI Peers", Severity: "warn", Detail: "No UI connected"})
	case 1:
		lines = append(lines, StatusLine{Label: "UI Peers", Severity: "ok", Detail: "1 connection"})
	default:
		lines = append(lines, StatusLine{Label: "UI Peers", Severity: "ok", Detail: fmt.Sprintf("%d connections", status.Connections)})
	}

	backlog := status.QueuedState + status.QueuedMethod + status.QueuedEmits
	detail := fmt.Sprintf("%d awaiting replies, %d queued frames, %d queued emits",
		status.PendingRequests, status.QueuedState+status.QueuedMethod, status.QueuedEmits)
	severity := "ok"
	if backlog > 0 && status.Connections == 0 {
		severity = "warn"
	}
	lines = append(lines, StatusLine{Label: "Requests", Severity: severity, Detail: detail})
	return lines
}

// BuildPathChecks resolves filesystem readiness for the log directory and control socket.
func BuildPathChecks(cfg *config.Config, daemonRunning bool) []StatusLine {
	lines := make([]StatusLine, 0, 2)
	logDir := preflight.CheckDirectoryAccess("Logs", cfg.Paths.LogDir)
	lines = append(lines, lineFromResult("Logs", logDir))
	if daemonRunning {
		lines = append(lines, StatusLine{Label: "Socket", Severity: "ok", Detail: cfg.Paths.SocketPath + " (listening)"})
	} else {
		lines = append(lines, lineFromResult("Socket", preflight.CheckSocketPath("Socket", cfg.Paths.SocketPath)))
	}
	return lines
}

func lineFromResult(label string, result preflight.Result) StatusLine {
	severity := "error"
	if result.Passed {
		severity = "ok"
	}
	return StatusLine{Label: label, Severity: severity, Detail: result.Detail}
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
