// Package config loads, normalizes, and validates framebridge configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the FRAMEBRIDGE_BIND environment
// override. The Config type centralizes every knob the daemon and CLI need:
// where the control socket and logs live, which address serves the UI
// channel, and how the broker, outbox, and supervisor loops are paced.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, positive intervals, and clear validation errors.
package config
