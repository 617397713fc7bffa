// Package wire defines the JSON shapes exchanged with the UI process over the
// duplex channel: the event envelope, outbound request frames, inbound
// responses and protocol invocations.
//
// Inbound payloads are decoded into explicit variants and malformed shapes are
// rejected with ErrMalformed before they reach a handler.
package wire
