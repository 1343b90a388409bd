// Package history records what the self updater did and when.
//
// Events land in a small SQLite database under the data directory: builds
// staged, applied, skipped, or failed, each with the running and candidate
// identifiers. The daemon writes events as they happen and the CLI reads
// them back for the history command.
package history
