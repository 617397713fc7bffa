// Package broker correlates outbound UI requests with their asynchronous
// responses.
//
// Send assigns every request a UUID, parks the caller on a one-shot reply
// channel, and queues the framed request on one of two priority classes. The
// Run loop forwards one frame per iteration, always preferring the state class
// over the method class, and Resolve hands inbound responses back to the
// waiting caller. Responses for unknown IDs are dropped.
package broker
