package preflight

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framebridge/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSocketPath(t *testing.T) {
	dir := t.TempDir()
	if result := CheckSocketPath("sock", filepath.Join(dir, "fb.sock")); !result.Passed {
		t.Fatalf("expected pass for fresh path, got: %s", result.Detail)
	}

	regular := filepath.Join(dir, "regular")
	if err := os.WriteFile(regular, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckSocketPath("sock", regular); result.Passed {
		t.Fatal("expected failure for regular file")
	}

	long := "/" + strings.Repeat("a", maxSocketPath)
	if result := CheckSocketPath("sock", long); result.Passed {
		t.Fatal("expected failure for overlong path")
	}
	if result := CheckSocketPath("sock", " "); result.Passed {
		t.Fatal("expected failure for blank path")
	}
}

func TestCheckBindAddress(t *testing.T) {
	if result := CheckBindAddress("http", "127.0.0.1:0"); !result.Passed {
		t.Fatalf("expected pass for ephemeral port, got: %s", result.Detail)
	}
	if result := CheckBindAddress("http", "not-an-address"); result.Passed {
		t.Fatal("expected failure for malformed address")
	}

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	defer busy.Close()
	result := CheckBindAddress("http", busy.Addr().String())
	if result.Passed {
		t.Fatal("expected failure for occupied port")
	}
	if !strings.Contains(result.Detail, "in use") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckEndpoint_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/framebridge_socket_info" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"path":"/ws","socketHost":"","reconnection":true}`))
	}))
	defer srv.Close()

	result := CheckEndpoint(context.Background(), srv.URL)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "/ws") {
		t.Fatalf("expected ws path in detail, got %q", result.Detail)
	}
}

func TestCheckEndpoint_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if result := CheckEndpoint(context.Background(), srv.URL); result.Passed {
		t.Fatal("expected failure for server error")
	}
}

func TestCheckEndpoint_MissingURL(t *testing.T) {
	if result := CheckEndpoint(context.Background(), ""); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAll(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "fb.sock")
	cfg.Server.Bind = "127.0.0.1:0"

	results := RunAll(context.Background(), &cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Log directory" {
		t.Fatalf("expected only the missing log directory to fail, got %+v", failed)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if failed := Failed(RunAll(context.Background(), &cfg)); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
}
