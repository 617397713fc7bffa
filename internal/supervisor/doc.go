// Package supervisor spawns, tracks, and tears down the goroutines that drive
// framebridge: the broker and outbox drain loops, the channel readers, and
// every inbound handler invocation.
//
// Tasks run on their own cancellable contexts. Named tasks coalesce so at
// most one runs per name with a single latest-wins successor. Shutdown cancels
// everything that is not exempt, waits with a timeout, reports stragglers, and
// repeats until nothing is tracked.
package supervisor
