// Package main hosts the framebridge CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon, launches the daemon process itself, and scaffolds
// configuration. It centralizes configuration resolution and socket discovery
// so subcommands can focus on output.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
