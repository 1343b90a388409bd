package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"warden/internal/daemon"
	"warden/internal/history"
	"warden/internal/ident"
	"warden/internal/ipc"
	"warden/internal/logging"
	"warden/internal/selfupdate"
	"warden/internal/testsupport"
)

type installerFunc func(ctx context.Context, url string, source ident.Ident, channel string) (*selfupdate.Package, error)

func (f installerFunc) Install(ctx context.Context, url string, source ident.Ident, channel string) (*selfupdate.Package, error) {
	return f(ctx, url, source, channel)
}

// startTestServer runs a daemon plus IPC server and returns the socket path.
func startTestServer(t *testing.T) string {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}

	installer := installerFunc(func(context.Context, string, ident.Ident, string) (*selfupdate.Package, error) {
		return nil, fmt.Errorf("no candidate")
	})
	d, err := daemon.New(cfg, ident.MustParse("core/wardend/1.0.0/20260101000000"), installer, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, nil, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() { srv.Close() })
	time.Sleep(50 * time.Millisecond)

	return socket
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	socket := startTestServer(t)

	out, err := runCommand(t, "--socket", socket, "status")
	if err != nil {
		t.Fatalf("status command: %v", err)
	}
	if !strings.Contains(out, "core/wardend/1.0.0/20260101000000") {
		t.Fatalf("expected current build in output, got:\n%s", out)
	}
	if !strings.Contains(out, "Running") {
		t.Fatalf("expected running field in output, got:\n%s", out)
	}
}

func TestCheckCommandReportsNoUpdate(t *testing.T) {
	socket := startTestServer(t)

	out, err := runCommand(t, "--socket", socket, "check")
	if err != nil {
		t.Fatalf("check command: %v", err)
	}
	if !strings.Contains(out, "No newer build") {
		t.Fatalf("unexpected check output:\n%s", out)
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	socket := startTestServer(t)

	out, err := runCommand(t, "--socket", socket, "history")
	if err != nil {
		t.Fatalf("history command: %v", err)
	}
	if !strings.Contains(out, "No update events recorded") {
		t.Fatalf("unexpected history output:\n%s", out)
	}
}

func TestStatusFailsWithoutDaemon(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")

	_, err := runCommand(t, "--socket", socket, "status")
	if err == nil {
		t.Fatal("expected error when daemon socket is missing")
	}
	if !strings.Contains(err.Error(), "connect to daemon") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target path in output, got:\n%s", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[update]") {
		t.Fatal("expected update section in sample config")
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init to refuse overwrite")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version command: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Fatalf("expected version in output, got:\n%s", out)
	}
}
