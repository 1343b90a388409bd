// Package launcher speaks the command protocol to the privileged helper
// process over unix sockets.
//
// The daemon dials the helper, starts a reply listener, registers, and then
// exchanges JSON envelopes whose payloads are serialized independently of
// the envelope itself. Failures form a closed taxonomy: connection
// establishment, send, blocking receive, and timeout-bound receive each have
// their own error type whose variants separate transport faults from
// protocol (de)serialization faults from application-level rejections the
// helper reports. Command errors always carry the command name, and the
// TransportError wrapper gives raw channel faults a message and an optional
// cause (a pure disconnection has none).
//
// Nothing here retries; every failure is surfaced as a typed value so the
// caller owns retry policy. That is also why the timeout-bound receive is a
// separate operation rather than an option on the blocking one.
package launcher
