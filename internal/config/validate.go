package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateBridge(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateBridge() error {
	if c.Bridge.BrokerPollIntervalMS < 0 {
		return errors.New("bridge.broker_poll_interval_ms must be positive")
	}
	if c.Bridge.OutboxTickMS < 0 {
		return errors.New("bridge.outbox_tick_ms must be positive")
	}
	if c.Bridge.ShutdownTimeoutSeconds < 0 {
		return errors.New("bridge.shutdown_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
