// Package notifications publishes run lifecycle events to an ntfy topic.
//
// The service degrades to a noop when no topic is configured, so callers can
// notify unconditionally. Per-event toggles in the configuration suppress
// completion or error pushes without disabling the topic entirely.
package notifications
