package session

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightBackend drives a browser through the playwright server. It owns
// one browser context with a single page, matching the one-tab session model
// the harness exposes.
type PlaywrightBackend struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// NewPlaywrightBackend creates a fresh context and page on a launched or
// connected browser.
func NewPlaywrightBackend(browser playwright.Browser) (*PlaywrightBackend, error) {
	browserCtx, err := browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &PlaywrightBackend{browser: browser, context: browserCtx, page: page}, nil
}

func (b *PlaywrightBackend) Navigate(_ context.Context, url string) error {
	_, err := b.page.Goto(url)
	return err
}

func (b *PlaywrightBackend) Title(_ context.Context) (string, error) {
	return b.page.Title()
}

func (b *PlaywrightBackend) CurrentURL(_ context.Context) (string, error) {
	return b.page.URL(), nil
}

func (b *PlaywrightBackend) SetViewport(_ context.Context, width, height int) error {
	return b.page.SetViewportSize(width, height)
}

func (b *PlaywrightBackend) SetPageLoadTimeout(d time.Duration) error {
	b.page.SetDefaultNavigationTimeout(float64(d.Milliseconds()))
	return nil
}

func (b *PlaywrightBackend) Screenshot(_ context.Context) ([]byte, error) {
	return b.page.Screenshot()
}

func (b *PlaywrightBackend) ClearState(_ context.Context) error {
	return b.context.ClearCookies()
}

func (b *PlaywrightBackend) Close(_ context.Context) error {
	return b.browser.Close()
}
