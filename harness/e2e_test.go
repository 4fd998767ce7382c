package harness

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthienduong1212/driverkit/internal/capability"
)

// TestEndToEndChrome launches a real Chrome. It needs a browser binary on
// the host, so it only runs when DRIVERKIT_E2E is set and never in -short.
func TestEndToEndChrome(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if os.Getenv("DRIVERKIT_E2E") == "" {
		t.Skip("set DRIVERKIT_E2E=1 to run browser tests")
	}

	t.Setenv("HEADLESS", "true")
	cfg, err := capability.Resolve(nil, capability.Options{Browser: "chrome"})
	require.NoError(t, err)

	h, err := New(cfg, capability.ModePerTest)
	require.NoError(t, err)
	defer func() { require.NoError(t, h.Close()) }()

	sess := h.Session(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, sess.Navigate(ctx, "data:text/html,<title>driverkit e2e</title><h1>hello</h1>"))

	title, err := sess.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "driverkit e2e", title)

	w := h.Waiter(sess)
	require.NoError(t, w.UntilTitleContains(ctx, "e2e"))

	shot, err := sess.Screenshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, shot)

	require.NoError(t, sess.Reset(ctx))
}
