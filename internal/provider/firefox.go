package provider

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/anthienduong1212/driverkit/internal/capability"
	"github.com/anthienduong1212/driverkit/internal/session"
)

func firefoxProvider() Provider {
	return Provider{
		Name:    "firefox",
		Aliases: []string{"ff", "mozilla-firefox"},
		New:     newFirefoxSession,
	}
}

func newFirefoxSession(_ context.Context, cfg *capability.Config) (*session.Session, error) {
	pw, err := playwrightRuntime()
	if err != nil {
		return nil, err
	}

	var browser playwright.Browser
	if endpoint := cfg.RemoteFor("firefox"); endpoint != "" {
		browser, err = pw.Firefox.Connect(endpoint)
		if err != nil {
			return nil, fmt.Errorf("connect to remote firefox at %s: %w", endpoint, err)
		}
	} else {
		opts := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(cfg.HeadlessFor("firefox")),
			Args:     cfg.ArgsFor("firefox"),
		}
		if prefs := firefoxPrefs(cfg.CapsFor("firefox")); len(prefs) > 0 {
			opts.FirefoxUserPrefs = prefs
		}
		if path, ok := cfg.CapsFor("firefox")["binary"].(string); ok && path != "" {
			opts.ExecutablePath = playwright.String(path)
		}
		browser, err = pw.Firefox.Launch(opts)
		if err != nil {
			return nil, fmt.Errorf("launch firefox: %w", err)
		}
	}

	backend, err := session.NewPlaywrightBackend(browser)
	if err != nil {
		_ = browser.Close()
		return nil, err
	}
	return session.New("firefox", backend), nil
}

// firefoxPrefs extracts a prefs map from the opaque capability block, the
// firefox counterpart of chromium args/binary.
func firefoxPrefs(caps map[string]any) map[string]any {
	prefs, _ := caps["prefs"].(map[string]any)
	return prefs
}
