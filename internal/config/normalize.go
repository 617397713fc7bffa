package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeBridge()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = filepath.Join(c.Paths.LogDir, defaultSocketName)
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	if value, ok := os.LookupEnv("FRAMEBRIDGE_BIND"); ok && strings.TrimSpace(value) != "" {
		c.Server.Bind = value
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if value, ok := os.LookupEnv("FRAMEBRIDGE_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Server.Token = value
	}
	c.Server.Token = strings.TrimSpace(c.Server.Token)
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	path := strings.TrimSpace(c.Server.WSPath)
	if path == "" {
		path = defaultWSPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	c.Server.WSPath = path
}

func (c *Config) normalizeBridge() {
	if c.Bridge.BrokerPollIntervalMS == 0 {
		c.Bridge.BrokerPollIntervalMS = defaultBrokerPollIntervalMS
	}
	if c.Bridge.OutboxTickMS == 0 {
		c.Bridge.OutboxTickMS = defaultOutboxTickMS
	}
	if c.Bridge.ShutdownTimeoutSeconds == 0 {
		c.Bridge.ShutdownTimeoutSeconds = defaultShutdownTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
