package testsupport

import (
	"path/filepath"
	"testing"

	"framebridge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test and
// short bridge intervals. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = filepath.Join(base, "fb.sock")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Bridge.BrokerPollIntervalMS = 1
	cfgVal.Bridge.OutboxTickMS = 1
	cfgVal.Bridge.ShutdownTimeoutSeconds = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBind overrides the HTTP bind address on the test config.
func WithBind(bind string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.Bind = bind
	}
}

// WithWSPath overrides the websocket path on the test config.
func WithWSPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.WSPath = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
