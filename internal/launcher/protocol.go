package launcher

import "encoding/json"

// Command names understood by the helper.
const (
	CmdRegister = "register"
	CmdRestart  = "restart"
	CmdVersion  = "version"
	CmdShutdown = "shutdown"
)

// Envelope is the outer wire frame for helper commands and responses. The
// payload is serialized separately from the envelope so the two stages fail
// independently and are reported as distinct causes.
type Envelope struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Err     *CommandFailure `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RegisterRequest announces the daemon to the helper and names the socket
// the helper must dial back for responses.
type RegisterRequest struct {
	PID         int    `json:"pid"`
	ReplySocket string `json:"reply_socket"`
}

// RegisterReply acknowledges a registration.
type RegisterReply struct {
	Protocol string `json:"protocol"`
}

// RestartRequest asks the helper to restart the daemon, optionally into a
// staged binary.
type RestartRequest struct {
	BinaryPath string `json:"binary_path,omitempty"`
}

// RestartReply acknowledges a restart request.
type RestartReply struct {
	Accepted bool `json:"accepted"`
}

// VersionReply reports the helper's build identifier.
type VersionReply struct {
	Version string `json:"version"`
}
