package main

import (
	"testing"

	"warden/internal/config"
)

func TestCurrentIdentUsesConfiguredPackage(t *testing.T) {
	cfg := config.Default()
	cfg.Update.Package = "core/wardend"

	id, err := currentIdent(&cfg)
	if err != nil {
		t.Fatalf("currentIdent: %v", err)
	}
	if id.Origin != "core" || id.Name != "wardend" {
		t.Fatalf("unexpected identifier %s", id)
	}
	if !id.FullyQualified() {
		t.Fatalf("expected fully qualified identifier, got %s", id)
	}
}

func TestCurrentIdentRejectsInvalidPackage(t *testing.T) {
	cfg := config.Default()
	cfg.Update.Package = "wardend"

	if _, err := currentIdent(&cfg); err == nil {
		t.Fatal("expected error for identifier without origin")
	}
}
