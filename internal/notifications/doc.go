// Package notifications delivers job lifecycle events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when notifications are disabled. Events
// are enumerated so the worker and scanner emit consistent messages without
// duplicating HTTP glue. Per-event toggles in the config suppress delivery
// without changing callers.
package notifications
