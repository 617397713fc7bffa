// Package daemonrun hosts the framebridge daemon process: logging setup,
// preflight reporting, the bridge and daemon lifecycle, and the IPC socket.
package daemonrun
