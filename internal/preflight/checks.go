package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// maxSocketPath is the sun_path limit shared by Linux and the BSDs.
const maxSocketPath = 104

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSocketPath verifies that path can be bound as a Unix domain socket.
// An existing non-socket file at path fails the check because the IPC server
// would remove it.
func CheckSocketPath(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "missing path"}
	}
	if len(path) >= maxSocketPath {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: path longer than %d bytes)", path, maxSocketPath-1)}
	}
	info, err := os.Lstat(path)
	switch {
	case err == nil && info.Mode()&os.ModeSocket == 0:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: exists and is not a socket)", path)}
	case err == nil:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (stale socket will be replaced)", path)}
	case !os.IsNotExist(err):
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (available)", path)}
}

// CheckBindAddress verifies that addr parses and can be listened on right now.
// Port 0 always passes the listen probe.
func CheckBindAddress(name, addr string) Result {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return Result{Name: name, Detail: "missing bind address"}
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", addr, err)}
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, unix.EADDRINUSE) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: address already in use)", addr)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", addr, err)}
	}
	_ = listener.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (free)", addr)}
}

// CheckEndpoint verifies that a running daemon answers on its socket info
// route. The returned detail includes the advertised websocket path.
func CheckEndpoint(ctx context.Context, baseURL string) Result {
	const name = "HTTP endpoint"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/framebridge_socket_info", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("probe failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeProbeError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("probe failed (%d)", resp.StatusCode)}
	}
	var info struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unexpected response (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (ws %s)", info.Path)}
}

func summarizeProbeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "probe timed out (daemon unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "probe timed out (daemon unreachable)"
	}
	return fmt.Sprintf("unreachable (%v)", err)
}
