package main

import (
	"fmt"

	"warden/internal/config"
	"warden/internal/ident"
)

// Populated via -ldflags at release build time.
var (
	version = "0.1.0"
	release = "20260101000000"
)

// currentIdent resolves the fully qualified identifier of the running build
// from the configured package and the compiled-in version and release.
func currentIdent(cfg *config.Config) (ident.Ident, error) {
	base, err := ident.Parse(cfg.Update.Package)
	if err != nil {
		return ident.Ident{}, fmt.Errorf("update package: %w", err)
	}
	id := ident.Ident{
		Origin:  base.Origin,
		Name:    base.Name,
		Version: version,
		Release: release,
	}
	if !id.FullyQualified() {
		return ident.Ident{}, fmt.Errorf("running build %q is not fully qualified", id)
	}
	return id, nil
}
