// Package bridge wires the supervisor, channel hub, outbox, broker, and the
// protocol handlers into one running bridge.
//
// New builds the components and registers the command-invoker and menu
// protocols. Start installs the inbound routes and launches the broker and
// outbox drain loops as supervised tasks. Shutdown abandons pending requests
// and tears the tasks down within the configured timeout.
package bridge
