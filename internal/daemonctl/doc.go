// Package daemonctl drives the daemon process from the CLI: detached launch,
// stop with a forced-kill fallback, restart, and the status snapshot that
// combines live IPC data with offline config checks.
package daemonctl
