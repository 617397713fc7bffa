// Package invoker dispatches inbound command invocations by name.
//
// Commands are registered with an explicit parameter schema: Raw parameters
// pass through untouched, Struct parameters are coerced into a typed Model
// and validated before the handler runs. Model results are serialized to
// their JSON form so they can be echoed straight back to the UI.
package invoker
