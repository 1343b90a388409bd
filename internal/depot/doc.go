// Package depot fetches daemon builds from the package depot.
//
// The Client resolves a channel's latest build for a package, downloads the
// artifact, and stages it under the data directory keyed by its fully
// qualified identifier. It is the installer collaborator behind the self
// updater; failures are opaque to callers and simply retried on the next
// poll.
package depot
