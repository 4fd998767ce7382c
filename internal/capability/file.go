package capability

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML config file shape. Pointer fields distinguish
// absent keys from explicit false/zero so merging stays field-by-field.
type FileConfig struct {
	Browser           string `yaml:"browser"`
	Headless          *bool  `yaml:"headless"`
	RemoteEndpoint    string `yaml:"remote_endpoint"`
	WindowSize        string `yaml:"window_size"`
	Maximize          *bool  `yaml:"maximize"`
	WaitTimeoutMS     *int   `yaml:"wait_timeout_ms"`
	PollIntervalMS    *int   `yaml:"poll_interval_ms"`
	PageLoadTimeoutMS *int   `yaml:"page_load_timeout_ms"`

	// Browsers holds per-browser blocks forwarded to the matching provider.
	Browsers map[string]BrowserBlock `yaml:"browsers"`
}

// BrowserBlock is a per-browser override block in the config file.
type BrowserBlock struct {
	Args           []string       `yaml:"args"`
	Capabilities   map[string]any `yaml:"capabilities"`
	RemoteEndpoint string         `yaml:"remote_endpoint"`
	Headless       *bool          `yaml:"headless"`
}

// LoadFile reads and parses a YAML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read browser config %s: %w", path, err)
	}
	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse browser config %s: %w", path, err)
	}
	return &file, nil
}

// DefaultConfigPath returns the config file path from BROWSER_CONFIG, or ""
// when unset.
func DefaultConfigPath() string {
	return os.Getenv("BROWSER_CONFIG")
}

// BrowserKeys returns the normalized keys of the per-browser blocks. The CLI
// falls back to these when neither --browser nor --browsers is passed.
func (f *FileConfig) BrowserKeys() []string {
	keys := make([]string, 0, len(f.Browsers))
	for name := range f.Browsers {
		keys = append(keys, NormalizeKey(name))
	}
	return keys
}

func applyFile(cfg *Config, file *FileConfig) error {
	if file.Browser != "" {
		cfg.Browser = NormalizeKey(file.Browser)
	}
	if file.Headless != nil {
		cfg.Headless = *file.Headless
	}
	if file.RemoteEndpoint != "" {
		cfg.RemoteEndpoint = file.RemoteEndpoint
	}
	if file.WindowSize != "" {
		w, h, err := ParseWindowSize(file.WindowSize)
		if err != nil {
			return err
		}
		cfg.WindowWidth, cfg.WindowHeight = w, h
	}
	if file.Maximize != nil {
		cfg.Maximize = *file.Maximize
	}
	if file.WaitTimeoutMS != nil {
		cfg.WaitTimeout = time.Duration(*file.WaitTimeoutMS) * time.Millisecond
	}
	if file.PollIntervalMS != nil {
		cfg.PollInterval = time.Duration(*file.PollIntervalMS) * time.Millisecond
	}
	if file.PageLoadTimeoutMS != nil {
		cfg.PageLoadTimeout = time.Duration(*file.PageLoadTimeoutMS) * time.Millisecond
	}

	for name, block := range file.Browsers {
		key := NormalizeKey(name)
		if key == "" {
			return &ValidationError{Field: "browsers", Reason: "browser name is empty"}
		}
		if len(block.Args) > 0 {
			cfg.ExtraArgs[key] = append([]string(nil), block.Args...)
		}
		if len(block.Capabilities) > 0 {
			cfg.ExtraCapabilities[key] = block.Capabilities
		}
		if block.RemoteEndpoint != "" {
			cfg.PerBrowserRemote[key] = block.RemoteEndpoint
		}
		if block.Headless != nil {
			cfg.PerBrowserHeadless[key] = *block.Headless
		}
	}
	return nil
}
