package depot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"warden/internal/ident"
	"warden/internal/logging"
	"warden/internal/selfupdate"
)

const requestTimeout = 5 * time.Minute

// Client installs daemon builds from a package depot over HTTP. It
// implements selfupdate.Installer.
type Client struct {
	dataDir string
	http    *http.Client
	logger  *slog.Logger
}

// New constructs a depot client that stages artifacts under dataDir.
func New(dataDir string, logger *slog.Logger) *Client {
	return &Client{
		dataDir: dataDir,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logging.NewComponentLogger(logger, "depot"),
	}
}

// latestResponse is the depot's answer to a channel latest query.
type latestResponse struct {
	Ident string `json:"ident"`
}

// Install resolves the latest build of source in channel and stages its
// binary on disk. An already-staged build is reused without a download.
func (c *Client) Install(ctx context.Context, url string, source ident.Ident, channel string) (*selfupdate.Package, error) {
	latest, err := c.latest(ctx, url, source, channel)
	if err != nil {
		return nil, err
	}

	binPath := c.stagedPath(latest)
	if _, err := os.Stat(binPath); err == nil {
		return &selfupdate.Package{Ident: latest, Path: binPath}, nil
	}

	if err := c.download(ctx, url, latest, binPath); err != nil {
		return nil, err
	}
	c.logger.Debug("staged package",
		logging.String(logging.FieldPackage, latest.String()),
		logging.String("path", binPath))
	return &selfupdate.Package{Ident: latest, Path: binPath}, nil
}

func (c *Client) latest(ctx context.Context, url string, source ident.Ident, channel string) (ident.Ident, error) {
	endpoint := fmt.Sprintf("%s/v1/depot/channels/%s/%s/pkgs/%s/latest", url, source.Origin, channel, source.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ident.Ident{}, fmt.Errorf("build latest request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ident.Ident{}, fmt.Errorf("query channel latest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ident.Ident{}, fmt.Errorf("query channel latest: depot returned %s", resp.Status)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ident.Ident{}, fmt.Errorf("decode latest response: %w", err)
	}

	latest, err := ident.Parse(body.Ident)
	if err != nil {
		return ident.Ident{}, fmt.Errorf("depot returned invalid ident: %w", err)
	}
	if !latest.FullyQualified() {
		return ident.Ident{}, fmt.Errorf("depot returned partial ident %s", latest)
	}
	if !source.Satisfies(latest) {
		return ident.Ident{}, fmt.Errorf("depot returned %s for requested %s", latest, source)
	}
	return latest, nil
}

func (c *Client) download(ctx context.Context, url string, pkg ident.Ident, binPath string) error {
	endpoint := fmt.Sprintf("%s/v1/depot/pkgs/%s/%s/%s/%s/download", url, pkg.Origin, pkg.Name, pkg.Version, pkg.Release)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download artifact: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download artifact: depot returned %s", resp.Status)
	}

	// Download into a unique temp dir, then move into place so a staged
	// binary is always complete.
	tmpDir := filepath.Join(c.dataDir, "tmp", uuid.NewString())
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(binPath))
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(binPath), 0o755); err != nil {
		return fmt.Errorf("create package dir: %w", err)
	}
	if err := os.Rename(tmpPath, binPath); err != nil {
		return fmt.Errorf("move artifact into place: %w", err)
	}
	return nil
}

func (c *Client) stagedPath(pkg ident.Ident) string {
	return filepath.Join(c.dataDir, "pkgs", pkg.Origin, pkg.Name, pkg.Version, pkg.Release, "bin", pkg.Name)
}
