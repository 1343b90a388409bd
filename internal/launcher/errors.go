package launcher

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// The command channel has a closed failure model: every fallible operation
// returns exactly one of the typed errors below, so callers can match
// exhaustively on cause with errors.As instead of string inspection.

// ConnectErrorKind enumerates the ways establishing the helper channel fails.
type ConnectErrorKind int

const (
	// ConnectHelperUnreachable means the helper socket could not be dialed.
	ConnectHelperUnreachable ConnectErrorKind = iota
	// ConnectListenerStartup means the reply listener could not be started.
	ConnectListenerStartup
	// ConnectAcceptConnection means the helper never completed its callback
	// connection.
	ConnectAcceptConnection
	// ConnectRegisterSend wraps a *SendError from the registration command.
	ConnectRegisterSend
	// ConnectRegisterReceive wraps a *ReadError from the registration response.
	ConnectRegisterReceive
)

// ConnectError reports a failure to establish the command channel to the
// helper process.
type ConnectError struct {
	Kind ConnectErrorKind
	Err  error
}

func (e *ConnectError) Error() string {
	switch e.Kind {
	case ConnectHelperUnreachable:
		return "failed to establish connection to the helper"
	case ConnectListenerStartup:
		return "failed to start listener for helper responses"
	case ConnectAcceptConnection:
		return "failed to accept incoming connection from the helper"
	case ConnectRegisterSend:
		return "failed to send registration command to the helper"
	case ConnectRegisterReceive:
		return "failed to receive registration response from the helper"
	default:
		return "failed to connect to the helper"
	}
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SendErrorKind enumerates the ways sending a command fails.
type SendErrorKind int

const (
	// SendEnvelopeEncode means the protocol envelope failed to serialize.
	SendEnvelopeEncode SendErrorKind = iota
	// SendPayloadEncode means the command payload failed to serialize.
	SendPayloadEncode
	// SendChannel wraps a *TransportError from the underlying channel.
	SendChannel
)

// SendError reports a failure to put a command on the wire.
type SendError struct {
	Kind SendErrorKind
	Err  error
}

func (e *SendError) Error() string {
	switch e.Kind {
	case SendEnvelopeEncode:
		return fmt.Sprintf("failed to serialize helper protocol message: %v", e.Err)
	case SendPayloadEncode:
		return fmt.Sprintf("failed to serialize helper protocol message payload: %v", e.Err)
	case SendChannel:
		return "failed to send command to the helper"
	default:
		return "failed to send command to the helper"
	}
}

func (e *SendError) Unwrap() error { return e.Err }

// ReadErrorKind enumerates the ways interpreting a received response fails.
type ReadErrorKind int

const (
	// ReadEnvelopeDecode means the protocol envelope failed to deserialize.
	ReadEnvelopeDecode ReadErrorKind = iota
	// ReadPayloadDecode means the payload did not match the expected shape.
	ReadPayloadDecode
	// ReadCommandRejected wraps a *CommandFailure the helper reported. The
	// helper understood the command and declined it; the channel is healthy.
	ReadCommandRejected
)

// ReadError reports a failure to interpret a response that was received.
// It is shared by the blocking and non-blocking receive paths.
type ReadError struct {
	Kind ReadErrorKind
	Err  error
}

func (e *ReadError) Error() string {
	switch e.Kind {
	case ReadEnvelopeDecode:
		return fmt.Sprintf("failed to deserialize helper protocol message: %v", e.Err)
	case ReadPayloadDecode:
		return fmt.Sprintf("received an unexpected helper protocol message payload: %v", e.Err)
	case ReadCommandRejected:
		return fmt.Sprintf("helper command execution failed: %v", e.Err)
	default:
		return "failed to read helper response"
	}
}

func (e *ReadError) Unwrap() error { return e.Err }

// ReceiveErrorKind enumerates the ways a blocking receive fails.
type ReceiveErrorKind int

const (
	// ReceiveRead wraps a *ReadError.
	ReceiveRead ReceiveErrorKind = iota
	// ReceiveChannel wraps a *TransportError from the underlying channel.
	ReceiveChannel
)

// ReceiveError reports a failure of the blocking receive path.
type ReceiveError struct {
	Kind ReceiveErrorKind
	Err  error
}

func (e *ReceiveError) Error() string {
	switch e.Kind {
	case ReceiveRead:
		return "failed to read helper command response"
	case ReceiveChannel:
		return "failed to receive command response from the helper"
	default:
		return "failed to receive command response from the helper"
	}
}

func (e *ReceiveError) Unwrap() error { return e.Err }

// TryReceiveErrorKind enumerates the ways a timeout-bound receive fails.
type TryReceiveErrorKind int

const (
	// TryReceiveRead wraps a *ReadError.
	TryReceiveRead TryReceiveErrorKind = iota
	// TryReceiveChannel wraps a *TransportError from the underlying channel.
	TryReceiveChannel
	// TryReceiveTimeout means the deadline elapsed with no message. It is
	// never conflated with a transport disconnection; callers may retry.
	TryReceiveTimeout
)

// TryReceiveError reports a failure of the timeout-bound receive path.
type TryReceiveError struct {
	Kind TryReceiveErrorKind
	Err  error
}

func (e *TryReceiveError) Error() string {
	switch e.Kind {
	case TryReceiveRead:
		return "failed to try reading helper command response"
	case TryReceiveChannel:
		return "failed to try receiving command response from the helper"
	case TryReceiveTimeout:
		return "timed out receiving command response from the helper"
	default:
		return "failed to try receiving command response from the helper"
	}
}

func (e *TryReceiveError) Unwrap() error { return e.Err }

// CommandPhase identifies which half of a command exchange failed.
type CommandPhase int

const (
	PhaseSend CommandPhase = iota
	PhaseReceive
)

// CommandError reports a failed blocking command exchange. It always carries
// the command name so logs can attribute failures without call-site context.
type CommandError struct {
	Cmd   string
	Phase CommandPhase
	Err   error
}

func (e *CommandError) Error() string {
	if e.Phase == PhaseSend {
		return fmt.Sprintf("failed to send %q command to the helper", e.Cmd)
	}
	return fmt.Sprintf("failed to receive %q command response from the helper", e.Cmd)
}

func (e *CommandError) Unwrap() error { return e.Err }

// TryCommandError reports a failed timeout-bound command exchange.
type TryCommandError struct {
	Cmd   string
	Phase CommandPhase
	Err   error
}

func (e *TryCommandError) Error() string {
	if e.Phase == PhaseSend {
		return fmt.Sprintf("failed to send %q command to the helper", e.Cmd)
	}
	return fmt.Sprintf("failed to try receiving %q command response from the helper", e.Cmd)
}

func (e *TryCommandError) Unwrap() error { return e.Err }

// Timeout reports whether err is a timed-out try-receive anywhere in its
// chain.
func (e *TryCommandError) Timeout() bool {
	var tre *TryReceiveError
	return errors.As(e.Err, &tre) && tre.Kind == TryReceiveTimeout
}

// TransportErrorKind classifies raw channel faults.
type TransportErrorKind int

const (
	// TransportDecode means the channel itself failed to decode a frame.
	TransportDecode TransportErrorKind = iota
	// TransportIO is any other I/O fault on the channel.
	TransportIO
	// TransportDisconnected means the peer went away. It carries no further
	// cause.
	TransportDisconnected
)

// TransportError adapts raw channel faults to the standard error interface
// with a message and an optional underlying cause. Disconnection is terminal
// and has no sub-cause; decode and I/O faults surface theirs.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case TransportDecode:
		return fmt.Sprintf("decode error: %v", e.Err)
	case TransportIO:
		return fmt.Sprintf("io error: %v", e.Err)
	case TransportDisconnected:
		return "disconnected"
	default:
		return "transport error"
	}
}

func (e *TransportError) Unwrap() error {
	if e.Kind == TransportDisconnected {
		return nil
	}
	return e.Err
}

// wrapTransport classifies an error returned by a Transport.
func wrapTransport(err error) *TransportError {
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ECONNRESET):
		return &TransportError{Kind: TransportDisconnected}
	default:
		return &TransportError{Kind: TransportIO, Err: err}
	}
}

// CommandFailure is an application-level rejection reported by the helper:
// the command was understood and executed, and the helper declined it.
type CommandFailure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (f *CommandFailure) Error() string {
	return fmt.Sprintf("helper reported failure (code %d): %s", f.Code, f.Message)
}
