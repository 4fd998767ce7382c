package provider

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

var (
	pwOnce     sync.Once
	pwInstance *playwright.Playwright
	pwErr      error
)

// playwrightRuntime returns the process-wide playwright instance, installing
// browser binaries on first use.
func playwrightRuntime() (*playwright.Playwright, error) {
	pwOnce.Do(func() {
		if err := playwright.Install(); err != nil {
			pwErr = fmt.Errorf("install playwright browsers: %w", err)
			return
		}
		pw, err := playwright.Run()
		if err != nil {
			pwErr = fmt.Errorf("start playwright: %w", err)
			return
		}
		pwInstance = pw
	})
	return pwInstance, pwErr
}
