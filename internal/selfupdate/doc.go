// Package selfupdate keeps the running daemon current.
//
// A SelfUpdater spawns one background task that polls the update depot on a
// fixed period, staging candidate builds through an Installer and comparing
// their identifiers against the running build. The first strictly-newer build
// is delivered exactly once over a capacity-one channel and the task exits.
// The daemon's main loop polls Updated each tick; if the task has died the
// updater respawns it transparently, so update watching survives transient
// failures without any caller involvement.
package selfupdate
