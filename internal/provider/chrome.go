package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chromedp/chromedp"

	"github.com/anthienduong1212/driverkit/internal/capability"
	"github.com/anthienduong1212/driverkit/internal/session"
)

func chromeProvider() Provider {
	return Provider{
		Name:    "chrome",
		Aliases: []string{"chromium", "google-chrome", "gc"},
		New:     newChromeSession,
	}
}

func newChromeSession(ctx context.Context, cfg *capability.Config) (*session.Session, error) {
	if endpoint := cfg.RemoteFor("chrome"); endpoint != "" {
		return connectRemoteChromium(ctx, "chrome", endpoint)
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !cfg.HeadlessFor("chrome") {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.Maximize {
		opts = append(opts, chromedp.Flag("start-maximized", true))
	} else {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	for _, arg := range cfg.ArgsFor("chrome") {
		name, value := splitChromeArg(arg)
		opts = append(opts, chromedp.Flag(name, value))
	}
	opts = append(opts, chromiumCapabilityOptions("chrome", cfg.CapsFor("chrome"))...)

	// The allocator must outlive the construction context: the session is
	// torn down by its scope, not by whoever built it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	backend := session.NewChromedpBackend(taskCtx, taskCancel, allocCancel)
	if err := launchChromedp(ctx, taskCtx); err != nil {
		_ = backend.Close(ctx)
		return nil, err
	}
	return session.New("chrome", backend), nil
}

// launchChromedp starts the browser by running an empty task list, bounded
// by the construction context.
func launchChromedp(ctx context.Context, taskCtx context.Context) error {
	runCtx := taskCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	if err := chromedp.Run(runCtx); err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	return nil
}

func connectRemoteChromium(ctx context.Context, browser, endpoint string) (*session.Session, error) {
	if err := waitForCDP(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("remote endpoint %s not reachable: %w", endpoint, err)
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), endpoint)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	backend := session.NewChromedpBackend(taskCtx, taskCancel, allocCancel)
	if err := launchChromedp(ctx, taskCtx); err != nil {
		_ = backend.Close(ctx)
		return nil, err
	}
	return session.New(browser, backend), nil
}

// waitForCDP polls the DevTools version endpoint until the remote browser
// answers. This is launch readiness, not a construction retry: a dead grid
// still fails within the backoff budget.
func waitForCDP(ctx context.Context, endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		// ws:// endpoints have no version route to probe.
		return nil
	}
	probeURL := strings.TrimRight(endpoint, "/") + "/json/version"

	probe := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("devtools endpoint returned %s", resp.Status)
		}
		return nil
	}

	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = 200 * time.Millisecond
	boff.MaxElapsedTime = 10 * time.Second
	return backoff.Retry(probe, backoff.WithContext(boff, ctx))
}

func splitChromeArg(arg string) (name string, value any) {
	arg = strings.TrimLeft(arg, "-")
	if name, val, ok := strings.Cut(arg, "="); ok {
		return name, val
	}
	return arg, true
}

// chromiumCapabilityOptions maps the opaque capability block onto allocator
// options. Recognized keys: binary, args. Anything else is the provider's
// to ignore.
func chromiumCapabilityOptions(browser string, caps map[string]any) []chromedp.ExecAllocatorOption {
	var opts []chromedp.ExecAllocatorOption
	for key, value := range caps {
		switch key {
		case "binary":
			if path, ok := value.(string); ok && path != "" {
				opts = append(opts, chromedp.ExecPath(path))
			}
		case "args":
			if args, ok := value.([]any); ok {
				for _, raw := range args {
					if arg, ok := raw.(string); ok {
						name, val := splitChromeArg(arg)
						opts = append(opts, chromedp.Flag(name, val))
					}
				}
			}
		default:
			slog.Default().Debug("ignoring capability", "browser", browser, "key", key)
		}
	}
	return opts
}
