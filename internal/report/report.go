// Package report writes run artifacts: screenshots captured on failure or
// wait timeout, and text attachments. Files land under the artifact
// directory so the surrounding report tooling can pick them up.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthienduong1212/driverkit/internal/session"
)

// DefaultDir is the artifact directory when none is configured.
const DefaultDir = "reports"

// Reporter writes attachments into an artifact directory.
type Reporter struct {
	dir    string
	logger *slog.Logger
}

// NewReporter creates a reporter rooted at dir (DefaultDir when empty).
func NewReporter(dir string) *Reporter {
	if dir == "" {
		dir = DefaultDir
	}
	return &Reporter{
		dir:    dir,
		logger: slog.Default().With("component", "report"),
	}
}

// Dir returns the artifact root.
func (r *Reporter) Dir() string { return r.dir }

// AttachScreenshot captures the session's page as PNG and writes it under
// <dir>/screenshots. Returns the written path.
func (r *Reporter) AttachScreenshot(ctx context.Context, name string, sess *session.Session) (string, error) {
	png, err := sess.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}

	dir := filepath.Join(r.dir, "screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", sanitize(name), time.Now().Format("20060102_150405.000")))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}

	r.logger.Info("screenshot attached", "path", path, "session", sess.ID())
	return path, nil
}

// AttachText writes a text attachment under the artifact root.
func (r *Reporter) AttachText(name, body string) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	path := filepath.Join(r.dir, sanitize(name)+".txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return path, nil
}

// sanitize makes a test or step name safe as a file name.
func sanitize(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	return replacer.Replace(name)
}
