package launcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"warden/internal/logging"
)

const dialTimeout = 2 * time.Second

// Client executes commands against the privileged helper process. Commands
// go out on the dialed connection; responses come back on the connection the
// helper opens to the client's reply listener.
type Client struct {
	tx     Transport
	rx     Transport
	logger *slog.Logger
}

// NewClient wraps established transports. Connect is the usual entry point;
// this constructor exists for wiring fakes in tests.
func NewClient(tx, rx Transport, logger *slog.Logger) *Client {
	return &Client{tx: tx, rx: rx, logger: logging.NewComponentLogger(logger, "helper")}
}

// Connect establishes the command channel to the helper: dial its socket,
// start a reply listener, register, and wait for the helper to dial back and
// acknowledge. Every step maps to its own ConnectError kind.
func Connect(helperSocket, replyDir string, logger *slog.Logger) (*Client, error) {
	conn, err := net.DialTimeout("unix", helperSocket, dialTimeout)
	if err != nil {
		return nil, &ConnectError{Kind: ConnectHelperUnreachable, Err: err}
	}

	if err := os.MkdirAll(replyDir, 0o755); err != nil {
		conn.Close()
		return nil, &ConnectError{Kind: ConnectListenerStartup, Err: err}
	}
	replyPath := filepath.Join(replyDir, fmt.Sprintf("wardend-%d.sock", os.Getpid()))
	if err := os.RemoveAll(replyPath); err != nil {
		conn.Close()
		return nil, &ConnectError{Kind: ConnectListenerStartup, Err: err}
	}
	listener, err := net.Listen("unix", replyPath)
	if err != nil {
		conn.Close()
		return nil, &ConnectError{Kind: ConnectListenerStartup, Err: err}
	}
	defer listener.Close()

	c := &Client{tx: NewSocketTransport(conn), logger: logging.NewComponentLogger(logger, "helper")}
	register := RegisterRequest{PID: os.Getpid(), ReplySocket: replyPath}
	if serr := c.send(CmdRegister, register); serr != nil {
		conn.Close()
		return nil, &ConnectError{Kind: ConnectRegisterSend, Err: serr}
	}

	replyConn, err := listener.Accept()
	if err != nil {
		conn.Close()
		return nil, &ConnectError{Kind: ConnectAcceptConnection, Err: err}
	}
	c.rx = NewSocketTransport(replyConn)

	var ack RegisterReply
	frame, err := c.rx.Recv()
	if err != nil {
		c.Close()
		return nil, &ConnectError{
			Kind: ConnectRegisterReceive,
			Err:  &ReadError{Kind: ReadEnvelopeDecode, Err: wrapTransport(err)},
		}
	}
	if rerr := readResponse(frame, &ack); rerr != nil {
		c.Close()
		return nil, &ConnectError{Kind: ConnectRegisterReceive, Err: rerr}
	}

	c.logger.Debug("registered with helper", logging.String("protocol", ack.Protocol))
	return c, nil
}

// Close tears down both halves of the channel.
func (c *Client) Close() error {
	var err error
	if c.tx != nil {
		err = c.tx.Close()
	}
	if c.rx != nil {
		if rerr := c.rx.Close(); err == nil {
			err = rerr
		}
	}
	return err
}

// Command sends cmd with payload and blocks until the helper responds,
// decoding the response payload into reply when reply is non-nil. Failures
// are always a *CommandError carrying the command name.
func (c *Client) Command(cmd string, payload, reply any) error {
	if serr := c.send(cmd, payload); serr != nil {
		return &CommandError{Cmd: cmd, Phase: PhaseSend, Err: serr}
	}
	if rerr := c.receive(reply); rerr != nil {
		return &CommandError{Cmd: cmd, Phase: PhaseReceive, Err: rerr}
	}
	return nil
}

// TryCommand is Command with a receive deadline. A deadline that elapses
// with no response is reported as a timeout, distinct from every transport
// fault, so callers can retry instead of reconnecting.
func (c *Client) TryCommand(cmd string, payload, reply any, timeout time.Duration) error {
	if serr := c.send(cmd, payload); serr != nil {
		return &TryCommandError{Cmd: cmd, Phase: PhaseSend, Err: serr}
	}
	if terr := c.tryReceive(reply, timeout); terr != nil {
		return &TryCommandError{Cmd: cmd, Phase: PhaseReceive, Err: terr}
	}
	return nil
}

// Restart asks the helper to restart the daemon, optionally into a staged
// binary.
func (c *Client) Restart(binaryPath string, timeout time.Duration) error {
	var reply RestartReply
	if err := c.TryCommand(CmdRestart, RestartRequest{BinaryPath: binaryPath}, &reply, timeout); err != nil {
		return err
	}
	if !reply.Accepted {
		return &TryCommandError{
			Cmd:   CmdRestart,
			Phase: PhaseReceive,
			Err: &TryReceiveError{
				Kind: TryReceiveRead,
				Err:  &ReadError{Kind: ReadCommandRejected, Err: &CommandFailure{Message: "restart not accepted"}},
			},
		}
	}
	return nil
}

// Version fetches the helper's build identifier.
func (c *Client) Version() (string, error) {
	var reply VersionReply
	if err := c.Command(CmdVersion, nil, &reply); err != nil {
		return "", err
	}
	return reply.Version, nil
}

func (c *Client) send(cmd string, payload any) *SendError {
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return &SendError{Kind: SendPayloadEncode, Err: err}
		}
		raw = encoded
	}

	env := Envelope{ID: uuid.NewString(), Command: cmd, Payload: raw}
	frame, err := json.Marshal(env)
	if err != nil {
		return &SendError{Kind: SendEnvelopeEncode, Err: err}
	}

	if err := c.tx.Send(frame); err != nil {
		return &SendError{Kind: SendChannel, Err: wrapTransport(err)}
	}
	return nil
}

func (c *Client) receive(reply any) *ReceiveError {
	frame, err := c.rx.Recv()
	if err != nil {
		return &ReceiveError{Kind: ReceiveChannel, Err: wrapTransport(err)}
	}
	if rerr := readResponse(frame, reply); rerr != nil {
		return &ReceiveError{Kind: ReceiveRead, Err: rerr}
	}
	return nil
}

func (c *Client) tryReceive(reply any, timeout time.Duration) *TryReceiveError {
	frame, err := c.rx.RecvTimeout(timeout)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return &TryReceiveError{Kind: TryReceiveTimeout}
		}
		return &TryReceiveError{Kind: TryReceiveChannel, Err: wrapTransport(err)}
	}
	if rerr := readResponse(frame, reply); rerr != nil {
		return &TryReceiveError{Kind: TryReceiveRead, Err: rerr}
	}
	return nil
}

// readResponse interprets a received frame: envelope decode, helper
// rejection, then payload decode, in that order.
func readResponse(frame []byte, reply any) *ReadError {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return &ReadError{Kind: ReadEnvelopeDecode, Err: err}
	}
	if env.Err != nil {
		return &ReadError{Kind: ReadCommandRejected, Err: env.Err}
	}
	if reply != nil && len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, reply); err != nil {
			return &ReadError{Kind: ReadPayloadDecode, Err: err}
		}
	}
	return nil
}
