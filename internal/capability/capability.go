// Package capability resolves the browser capability configuration for a run
// from its three sources: a YAML config file, environment variables, and CLI
// flags. Precedence is CLI > env > file > built-in default, merged field by
// field so that an override of one field never erases another.
package capability

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when no source sets a field.
const (
	DefaultBrowser      = "chrome"
	DefaultWindowWidth  = 1920
	DefaultWindowHeight = 1080
	DefaultWaitTimeout  = 4 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
)

// Config is the resolved, immutable capability configuration for one run.
// Build it with Resolve; do not mutate it afterwards.
type Config struct {
	// Browser is the normalized provider key (e.g. "chrome").
	Browser string

	// Headless runs the browser without UI.
	Headless bool

	// RemoteEndpoint is the grid/CDP hub URL. Empty means local.
	RemoteEndpoint string

	WindowWidth  int
	WindowHeight int
	Maximize     bool

	// WaitTimeout and PollInterval drive the element/condition waiter.
	WaitTimeout  time.Duration
	PollInterval time.Duration

	// PageLoadTimeout bounds navigations. Zero means backend default.
	PageLoadTimeout time.Duration

	// ExtraArgs holds per-browser command line arguments from the config
	// file, keyed by provider key.
	ExtraArgs map[string][]string

	// ExtraCapabilities holds per-browser capability blocks forwarded
	// opaquely to the provider that constructs the session.
	ExtraCapabilities map[string]map[string]any

	// PerBrowserRemote overrides RemoteEndpoint for a single browser.
	PerBrowserRemote map[string]string

	// PerBrowserHeadless overrides Headless for a single browser.
	PerBrowserHeadless map[string]bool
}

// Options are the CLI overrides, the highest-precedence source. Pointer
// fields distinguish "not passed" from an explicit zero value.
type Options struct {
	Browser        string
	Headless       *bool
	RemoteEndpoint string
	WindowSize     string
	Maximize       *bool
}

// ValidationError reports bad or conflicting configuration. It is detected
// before any session is built and is fatal for the run.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Resolve merges the three configuration sources over the built-in defaults.
// file may be nil when no config file is in play.
func Resolve(file *FileConfig, opts Options) (*Config, error) {
	cfg := &Config{
		Browser:            DefaultBrowser,
		WindowWidth:        DefaultWindowWidth,
		WindowHeight:       DefaultWindowHeight,
		WaitTimeout:        DefaultWaitTimeout,
		PollInterval:       DefaultPollInterval,
		ExtraArgs:          map[string][]string{},
		ExtraCapabilities:  map[string]map[string]any{},
		PerBrowserRemote:   map[string]string{},
		PerBrowserHeadless: map[string]bool{},
	}

	if file != nil {
		if err := applyFile(cfg, file); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOptions(cfg *Config, opts Options) error {
	if opts.Browser != "" {
		key := NormalizeKey(opts.Browser)
		if key == "" {
			return &ValidationError{Field: "browser", Reason: "browser name is empty"}
		}
		cfg.Browser = key
	}
	if opts.Headless != nil {
		cfg.Headless = *opts.Headless
	}
	if opts.RemoteEndpoint != "" {
		cfg.RemoteEndpoint = opts.RemoteEndpoint
	}
	if opts.WindowSize != "" {
		w, h, err := ParseWindowSize(opts.WindowSize)
		if err != nil {
			return err
		}
		cfg.WindowWidth, cfg.WindowHeight = w, h
	}
	if opts.Maximize != nil {
		cfg.Maximize = *opts.Maximize
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Browser == "" {
		return &ValidationError{Field: "browser", Reason: "browser name is empty"}
	}
	if cfg.RemoteEndpoint != "" {
		if err := checkEndpoint("remote_endpoint", cfg.RemoteEndpoint); err != nil {
			return err
		}
	}
	for name, endpoint := range cfg.PerBrowserRemote {
		if err := checkEndpoint("browsers."+name+".remote_endpoint", endpoint); err != nil {
			return err
		}
	}
	return nil
}

func checkEndpoint(field, endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("%q is not a valid URL", endpoint),
		}
	}
	return nil
}

// NormalizeKey lowercases and trims a provider key.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseWindowSize parses "WxH" (e.g. "1920x1080").
func ParseWindowSize(s string) (width, height int, err error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, &ValidationError{Field: "window_size", Reason: fmt.Sprintf("%q is not in WxH form", s)}
	}
	width, werr := strconv.Atoi(parts[0])
	height, herr := strconv.Atoi(parts[1])
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		return 0, 0, &ValidationError{Field: "window_size", Reason: fmt.Sprintf("%q is not in WxH form", s)}
	}
	return width, height, nil
}

// WithBrowser returns a copy of the config targeting a different browser.
// Used when one resolved configuration fans out over several browsers.
func (c *Config) WithBrowser(name string) *Config {
	clone := *c
	clone.Browser = NormalizeKey(name)
	return &clone
}

// RemoteFor returns the remote endpoint for a browser, preferring the
// per-browser override over the run-wide endpoint.
func (c *Config) RemoteFor(browser string) string {
	if endpoint, ok := c.PerBrowserRemote[NormalizeKey(browser)]; ok && endpoint != "" {
		return endpoint
	}
	return c.RemoteEndpoint
}

// HeadlessFor returns the headless setting for a browser, preferring the
// per-browser override.
func (c *Config) HeadlessFor(browser string) bool {
	if headless, ok := c.PerBrowserHeadless[NormalizeKey(browser)]; ok {
		return headless
	}
	return c.Headless
}

// ArgsFor returns extra command line arguments for a browser.
func (c *Config) ArgsFor(browser string) []string {
	return c.ExtraArgs[NormalizeKey(browser)]
}

// CapsFor returns the opaque capability block for a browser.
func (c *Config) CapsFor(browser string) map[string]any {
	return c.ExtraCapabilities[NormalizeKey(browser)]
}

func envString(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

var (
	trueWords  = map[string]bool{"1": true, "true": true, "t": true, "yes": true, "y": true, "on": true}
	falseWords = map[string]bool{"0": true, "false": true, "f": true, "no": true, "n": true, "off": true}
)

func envBool(key string) (bool, bool, error) {
	raw, ok := envString(key)
	if !ok {
		return false, false, nil
	}
	v := strings.ToLower(raw)
	switch {
	case trueWords[v]:
		return true, true, nil
	case falseWords[v]:
		return false, true, nil
	default:
		return false, false, &ValidationError{Field: key, Reason: fmt.Sprintf("%q is not a boolean", raw)}
	}
}

func envInt(key string) (int, bool, error) {
	raw, ok := envString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, &ValidationError{Field: key, Reason: fmt.Sprintf("%q is not an integer", raw)}
	}
	return n, true, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := envString("BROWSER"); ok {
		cfg.Browser = NormalizeKey(v)
	}
	if v, ok, err := envBool("HEADLESS"); err != nil {
		return err
	} else if ok {
		cfg.Headless = v
	}
	if v, ok := envString("REMOTE_URL"); ok {
		cfg.RemoteEndpoint = v
	} else if v, ok := envString("REMOTE"); ok {
		cfg.RemoteEndpoint = v
	}
	if v, ok, err := envInt("WINDOW_WIDTH"); err != nil {
		return err
	} else if ok {
		cfg.WindowWidth = v
	}
	if v, ok, err := envInt("WINDOW_HEIGHT"); err != nil {
		return err
	} else if ok {
		cfg.WindowHeight = v
	}
	if v, ok, err := envBool("START_MAXIMIZED"); err != nil {
		return err
	} else if ok {
		cfg.Maximize = v
	}
	if v, ok, err := envInt("WAIT_TIMEOUT_MS"); err != nil {
		return err
	} else if ok {
		cfg.WaitTimeout = time.Duration(v) * time.Millisecond
	}
	if v, ok, err := envInt("POLL_INTERVAL_MS"); err != nil {
		return err
	} else if ok {
		cfg.PollInterval = time.Duration(v) * time.Millisecond
	}
	if v, ok, err := envInt("PAGE_LOAD_TIMEOUT_MS"); err != nil {
		return err
	} else if ok {
		cfg.PageLoadTimeout = time.Duration(v) * time.Millisecond
	}
	return nil
}
