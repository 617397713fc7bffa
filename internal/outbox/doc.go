// Package outbox batches outbound channel operations produced anywhere in the
// process and applies them from a single drain loop.
//
// Producers call Emit and Register, which only append to a buffer. Run
// snapshots and clears both buffers each tick and hands every item to the
// Sink, logging failures per item so one bad item never stalls a batch.
package outbox
