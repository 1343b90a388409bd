package notifications_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"warden/internal/config"
	"warden/internal/notifications"
)

func TestNoopWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyUpdateStaged(context.Background(), "a/b/1.0.0/1", "a/b/1.1.0/1"); err != nil {
		t.Fatalf("noop service returned error: %v", err)
	}
}

func TestNtfyDelivery(t *testing.T) {
	var gotTitle, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyUpdateStaged(context.Background(), "core/wardend/1.0.0/1", "core/wardend/1.1.0/1"); err != nil {
		t.Fatalf("NotifyUpdateStaged: %v", err)
	}
	if gotTitle != "Warden - Update Staged" {
		t.Fatalf("unexpected title %q", gotTitle)
	}
	if gotBody == "" {
		t.Fatal("expected message body")
	}
}

func TestNtfyErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for rejected notification")
	}
}
