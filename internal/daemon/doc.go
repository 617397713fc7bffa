// Package daemon coordinates the long-running framebridge process.
//
// It wraps a bridge in a single lifecycle with flock-based locking to prevent
// multiple instances, and serves the HTTP endpoints the UI process needs: the
// websocket channel, the socket info payload, and a shutdown trigger. The
// control socket and the CLI read daemon status through this package.
//
// Keep orchestration logic here: request correlation, dispatch, and task
// supervision live in their own packages while the daemon focuses on startup,
// shutdown, and high level coordination.
package daemon
