package provider

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/anthienduong1212/driverkit/internal/capability"
	"github.com/anthienduong1212/driverkit/internal/session"
)

func edgeProvider() Provider {
	return Provider{
		Name:    "edge",
		Aliases: []string{"msedge", "microsoft-edge"},
		New:     newEdgeSession,
	}
}

func newEdgeSession(_ context.Context, cfg *capability.Config) (*session.Session, error) {
	pw, err := playwrightRuntime()
	if err != nil {
		return nil, err
	}

	var browser playwright.Browser
	if endpoint := cfg.RemoteFor("edge"); endpoint != "" {
		browser, err = pw.Chromium.ConnectOverCDP(endpoint)
		if err != nil {
			return nil, fmt.Errorf("connect to remote edge at %s: %w", endpoint, err)
		}
	} else {
		opts := playwright.BrowserTypeLaunchOptions{
			Channel:  playwright.String("msedge"),
			Headless: playwright.Bool(cfg.HeadlessFor("edge")),
			Args:     cfg.ArgsFor("edge"),
		}
		if path, ok := cfg.CapsFor("edge")["binary"].(string); ok && path != "" {
			opts.ExecutablePath = playwright.String(path)
			opts.Channel = nil
		}
		browser, err = pw.Chromium.Launch(opts)
		if err != nil {
			return nil, fmt.Errorf("launch edge: %w", err)
		}
	}

	backend, err := session.NewPlaywrightBackend(browser)
	if err != nil {
		_ = browser.Close()
		return nil, err
	}
	return session.New("edge", backend), nil
}
