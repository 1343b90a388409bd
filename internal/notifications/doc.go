// Package notifications delivers update lifecycle events via ntfy push.
//
// The service degrades to a noop when no topic is configured; notification
// failures are logged by callers and never block the update path.
package notifications
