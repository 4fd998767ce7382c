package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthienduong1212/driverkit/internal/capability"
)

func parseRoot(t *testing.T, args ...string) (*capability.Config, []string, capability.ParallelMode, error) {
	t.Helper()
	flags := &rootFlags{}
	cmd := newRootCmdWithFlags(flags)
	require.NoError(t, cmd.ParseFlags(args))
	return resolveRun(cmd, flags)
}

func TestResolveRunDefaults(t *testing.T) {
	cfg, browsers, mode, err := parseRoot(t)
	require.NoError(t, err)
	assert.Equal(t, capability.DefaultBrowser, cfg.Browser)
	assert.Equal(t, []string{capability.DefaultBrowser}, browsers)
	assert.Equal(t, capability.ModeNone, mode)
}

func TestResolveRunBrowsersFlag(t *testing.T) {
	_, browsers, mode, err := parseRoot(t,
		"--browsers", "Chrome,FIREFOX",
		"--parallel-mode", "per-test",
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"chrome", "firefox"}, browsers)
	assert.Equal(t, capability.ModePerTest, mode)
}

func TestResolveRunMultiBrowserNeedsParallelMode(t *testing.T) {
	_, _, _, err := parseRoot(t, "--browsers", "chrome,firefox")
	var verr *capability.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "parallel-mode", verr.Field)
}

func TestResolveRunFileBrowserKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "browsers.yaml")
	body := "browsers:\n  firefox:\n    headless: true\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, browsers, _, err := parseRoot(t, "--browser-config", path)
	require.NoError(t, err)
	assert.Equal(t, []string{"firefox"}, browsers)
}

func TestResolveRunSingleBrowserWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "browsers.yaml")
	body := "browsers:\n  firefox: {}\n  edge: {}\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, browsers, _, err := parseRoot(t, "--browser-config", path, "--browser", "Edge")
	require.NoError(t, err)
	assert.Equal(t, "edge", cfg.Browser)
	assert.Equal(t, []string{"edge"}, browsers)
}
