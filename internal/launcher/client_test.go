package launcher_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"warden/internal/launcher"
	"warden/internal/logging"
)

// fakeHelper drives the helper side of a command exchange over in-memory
// pipes: commands arrive on cmd, responses go out on reply.
type fakeHelper struct {
	cmd   net.Conn
	reply net.Conn
}

func newTestClient(t *testing.T) (*launcher.Client, *fakeHelper) {
	t.Helper()
	cmdClient, cmdHelper := net.Pipe()
	replyClient, replyHelper := net.Pipe()
	t.Cleanup(func() {
		cmdClient.Close()
		cmdHelper.Close()
		replyClient.Close()
		replyHelper.Close()
	})
	client := launcher.NewClient(
		launcher.NewSocketTransport(cmdClient),
		launcher.NewSocketTransport(replyClient),
		logging.NewNop(),
	)
	return client, &fakeHelper{cmd: cmdHelper, reply: replyHelper}
}

func (h *fakeHelper) readCommand(t *testing.T) launcher.Envelope {
	t.Helper()
	line, err := bufio.NewReader(h.cmd).ReadBytes('\n')
	if err != nil {
		t.Errorf("helper read: %v", err)
		return launcher.Envelope{}
	}
	var env launcher.Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		t.Errorf("helper decode: %v", err)
	}
	return env
}

func (h *fakeHelper) respond(t *testing.T, env launcher.Envelope) {
	t.Helper()
	frame, err := json.Marshal(env)
	if err != nil {
		t.Errorf("helper encode: %v", err)
		return
	}
	if _, err := h.reply.Write(append(frame, '\n')); err != nil {
		t.Errorf("helper write: %v", err)
	}
}

func (h *fakeHelper) respondRaw(t *testing.T, frame string) {
	t.Helper()
	if _, err := h.reply.Write([]byte(frame + "\n")); err != nil {
		t.Errorf("helper write: %v", err)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	client, helper := newTestClient(t)
	go func() {
		env := helper.readCommand(t)
		if env.Command != launcher.CmdVersion {
			t.Errorf("expected version command, got %q", env.Command)
		}
		if env.ID == "" {
			t.Error("expected envelope ID")
		}
		payload, _ := json.Marshal(launcher.VersionReply{Version: "core/helper/2.0.1/20260801000000"})
		helper.respond(t, launcher.Envelope{ID: env.ID, Command: env.Command, Payload: payload})
	}()

	version, err := client.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "core/helper/2.0.1/20260801000000" {
		t.Fatalf("unexpected version %q", version)
	}
}

func TestCommandRejectedByHelper(t *testing.T) {
	client, helper := newTestClient(t)
	go func() {
		env := helper.readCommand(t)
		helper.respond(t, launcher.Envelope{
			ID:      env.ID,
			Command: env.Command,
			Err:     &launcher.CommandFailure{Code: 13, Message: "not permitted"},
		})
	}()

	err := client.Command(launcher.CmdRestart, launcher.RestartRequest{}, &launcher.RestartReply{})
	if err == nil {
		t.Fatal("expected rejection error")
	}

	var cmdErr *launcher.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Cmd != launcher.CmdRestart || cmdErr.Phase != launcher.PhaseReceive {
		t.Fatalf("expected receive-phase CommandError for restart, got %v", err)
	}
	var readErr *launcher.ReadError
	if !errors.As(err, &readErr) || readErr.Kind != launcher.ReadCommandRejected {
		t.Fatalf("expected command-rejected read error, got %v", err)
	}
	var failure *launcher.CommandFailure
	if !errors.As(err, &failure) || failure.Code != 13 {
		t.Fatalf("expected helper failure preserved, got %v", err)
	}
}

func TestEnvelopeDecodeFailure(t *testing.T) {
	client, helper := newTestClient(t)
	go func() {
		helper.readCommand(t)
		helper.respondRaw(t, "this is not an envelope")
	}()

	err := client.Command(launcher.CmdVersion, nil, &launcher.VersionReply{})
	var readErr *launcher.ReadError
	if !errors.As(err, &readErr) || readErr.Kind != launcher.ReadEnvelopeDecode {
		t.Fatalf("expected envelope decode error, got %v", err)
	}
}

func TestPayloadDecodeFailure(t *testing.T) {
	client, helper := newTestClient(t)
	go func() {
		env := helper.readCommand(t)
		helper.respond(t, launcher.Envelope{ID: env.ID, Command: env.Command, Payload: json.RawMessage(`{"version": 42}`)})
	}()

	err := client.Command(launcher.CmdVersion, nil, &launcher.VersionReply{})
	var readErr *launcher.ReadError
	if !errors.As(err, &readErr) || readErr.Kind != launcher.ReadPayloadDecode {
		t.Fatalf("expected payload decode error, got %v", err)
	}
}

func TestReceiveDisconnection(t *testing.T) {
	client, helper := newTestClient(t)
	go func() {
		helper.readCommand(t)
		helper.reply.Close()
	}()

	err := client.Command(launcher.CmdVersion, nil, &launcher.VersionReply{})
	var recvErr *launcher.ReceiveError
	if !errors.As(err, &recvErr) || recvErr.Kind != launcher.ReceiveChannel {
		t.Fatalf("expected channel receive error, got %v", err)
	}
	var transportErr *launcher.TransportError
	if !errors.As(err, &transportErr) || transportErr.Kind != launcher.TransportDisconnected {
		t.Fatalf("expected disconnected transport fault, got %v", err)
	}
}

func TestTryCommandTimesOut(t *testing.T) {
	client, helper := newTestClient(t)
	go func() {
		helper.readCommand(t)
		// Never respond; the deadline must fire.
	}()

	err := client.TryCommand(launcher.CmdVersion, nil, &launcher.VersionReply{}, 30*time.Millisecond)
	var tryErr *launcher.TryCommandError
	if !errors.As(err, &tryErr) {
		t.Fatalf("expected TryCommandError, got %v", err)
	}
	if !tryErr.Timeout() {
		t.Fatalf("expected timeout classification, got %v", err)
	}
	var tre *launcher.TryReceiveError
	if !errors.As(err, &tre) || tre.Kind != launcher.TryReceiveTimeout {
		t.Fatalf("expected timeout variant, got %v", err)
	}
}

func TestTryCommandDisconnectionIsNotTimeout(t *testing.T) {
	client, helper := newTestClient(t)
	go func() {
		helper.readCommand(t)
		helper.reply.Close()
	}()

	err := client.TryCommand(launcher.CmdVersion, nil, &launcher.VersionReply{}, time.Second)
	var tryErr *launcher.TryCommandError
	if !errors.As(err, &tryErr) {
		t.Fatalf("expected TryCommandError, got %v", err)
	}
	if tryErr.Timeout() {
		t.Fatal("disconnection misclassified as timeout")
	}
	var tre *launcher.TryReceiveError
	if !errors.As(err, &tre) || tre.Kind != launcher.TryReceiveChannel {
		t.Fatalf("expected channel variant, got %v", err)
	}
}

func TestSendPayloadEncodeFailure(t *testing.T) {
	client, _ := newTestClient(t)

	err := client.Command("spawn", func() {}, nil)
	var cmdErr *launcher.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Cmd != "spawn" || cmdErr.Phase != launcher.PhaseSend {
		t.Fatalf("expected send-phase CommandError for spawn, got %v", err)
	}
	var sendErr *launcher.SendError
	if !errors.As(err, &sendErr) || sendErr.Kind != launcher.SendPayloadEncode {
		t.Fatalf("expected payload encode error, got %v", err)
	}
}

func TestConnectHandshake(t *testing.T) {
	dir := t.TempDir()
	helperSocket := filepath.Join(dir, "helper.sock")
	listener, err := net.Listen("unix", helperSocket)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			t.Errorf("helper accept: %v", err)
			return
		}
		line, err := bufio.NewReader(conn).ReadBytes('\n')
		if err != nil {
			t.Errorf("helper read register: %v", err)
			return
		}
		var env launcher.Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			t.Errorf("helper decode register: %v", err)
			return
		}
		if env.Command != launcher.CmdRegister {
			t.Errorf("expected register command, got %q", env.Command)
			return
		}
		var req launcher.RegisterRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			t.Errorf("helper decode register payload: %v", err)
			return
		}
		reply, err := net.Dial("unix", req.ReplySocket)
		if err != nil {
			t.Errorf("helper dial reply socket: %v", err)
			return
		}
		payload, _ := json.Marshal(launcher.RegisterReply{Protocol: "1"})
		frame, _ := json.Marshal(launcher.Envelope{ID: env.ID, Command: env.Command, Payload: payload})
		if _, err := reply.Write(append(frame, '\n')); err != nil {
			t.Errorf("helper write ack: %v", err)
		}
	}()

	client, err := launcher.Connect(helperSocket, filepath.Join(dir, "run"), logging.NewNop())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })
}

func TestConnectUnreachableHelper(t *testing.T) {
	dir := t.TempDir()
	_, err := launcher.Connect(filepath.Join(dir, "absent.sock"), filepath.Join(dir, "run"), logging.NewNop())
	var connErr *launcher.ConnectError
	if !errors.As(err, &connErr) || connErr.Kind != launcher.ConnectHelperUnreachable {
		t.Fatalf("expected unreachable-helper error, got %v", err)
	}
}
