package depot_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"warden/internal/depot"
	"warden/internal/ident"
	"warden/internal/logging"
)

const artifact = "fake wardend binary"

func newDepotServer(t *testing.T, latest string, downloads *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/depot/channels/core/stable/pkgs/wardend/latest", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"ident": latest})
	})
	mux.HandleFunc("/v1/depot/pkgs/", func(w http.ResponseWriter, r *http.Request) {
		if downloads != nil {
			downloads.Add(1)
		}
		fmt.Fprint(w, artifact)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestInstallStagesLatestBuild(t *testing.T) {
	var downloads atomic.Int64
	server := newDepotServer(t, "core/wardend/1.4.0/20260820000000", &downloads)
	client := depot.New(t.TempDir(), logging.NewNop())

	pkg, err := client.Install(context.Background(), server.URL, ident.MustParse("core/wardend"), "stable")
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if pkg.Ident.String() != "core/wardend/1.4.0/20260820000000" {
		t.Fatalf("unexpected ident %s", pkg.Ident)
	}

	data, err := os.ReadFile(pkg.Path)
	if err != nil {
		t.Fatalf("read staged binary: %v", err)
	}
	if string(data) != artifact {
		t.Fatalf("staged binary corrupted: %q", data)
	}
	info, err := os.Stat(pkg.Path)
	if err != nil {
		t.Fatalf("stat staged binary: %v", err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Fatalf("staged binary not executable: %v", info.Mode())
	}
}

func TestInstallReusesStagedBuild(t *testing.T) {
	var downloads atomic.Int64
	server := newDepotServer(t, "core/wardend/1.4.0/20260820000000", &downloads)
	client := depot.New(t.TempDir(), logging.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := client.Install(context.Background(), server.URL, ident.MustParse("core/wardend"), "stable"); err != nil {
			t.Fatalf("Install %d: %v", i, err)
		}
	}
	if downloads.Load() != 1 {
		t.Fatalf("expected a single download, got %d", downloads.Load())
	}
}

func TestInstallRejectsPartialIdent(t *testing.T) {
	server := newDepotServer(t, "core/wardend/1.4.0", nil)
	client := depot.New(t.TempDir(), logging.NewNop())

	if _, err := client.Install(context.Background(), server.URL, ident.MustParse("core/wardend"), "stable"); err == nil {
		t.Fatal("expected error for partial ident")
	}
}

func TestInstallRejectsMismatchedPackage(t *testing.T) {
	server := newDepotServer(t, "core/other/1.4.0/20260820000000", nil)
	client := depot.New(t.TempDir(), logging.NewNop())

	if _, err := client.Install(context.Background(), server.URL, ident.MustParse("core/wardend"), "stable"); err == nil {
		t.Fatal("expected error for mismatched package")
	}
}

func TestInstallSurfacesDepotErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	client := depot.New(t.TempDir(), logging.NewNop())

	if _, err := client.Install(context.Background(), server.URL, ident.MustParse("core/wardend"), "stable"); err == nil {
		t.Fatal("expected error for unavailable depot")
	}
}
