// Package channel carries envelopes between framebridge and UI processes.
//
// A Hub owns the set of live connections and the inbound handler table. Each
// attached connection gets a supervised reader task, and every inbound event
// is handled on its own supervised task so a slow handler never stalls the
// reader. Connections are websockets in production and in-memory pipes in
// tests.
package channel
