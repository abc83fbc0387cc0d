// Package notifications delivers run events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Per-event toggles
// (run_completed, run_failed) suppress individual events. Delivery failures
// are returned to the caller, which logs them; they never change a run's
// outcome.
package notifications
