// Package ident models package identifiers and their total ordering.
//
// Identifiers follow the origin/name/version/release convention used by the
// update depot. Version comparison is segment-wise and numeric-aware so that
// 1.10.0 sorts after 1.9.2; release fields are opaque build timestamps that
// order lexically. The self updater relies on this ordering to decide whether
// a candidate build is strictly newer than the running one.
package ident
