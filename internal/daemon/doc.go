// Package daemon coordinates the long-running warden process.
//
// It wires configuration, the self updater, update history, the helper
// channel, and notifications into a single lifecycle with flock-based
// locking to prevent multiple instances. The poll loop consumes the self
// updater each tick and applies staged builds: through the helper when one
// is connected, by self-exec when auto restart is enabled, or by leaving the
// build staged for an operator. A small HTTP server exposes status, recent
// history, and Prometheus metrics.
//
// Keep orchestration logic here: update detection lives in selfupdate and
// helper plumbing in launcher, while the daemon focuses on startup,
// shutdown, and apply policy.
package daemon
