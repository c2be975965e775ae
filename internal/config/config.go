package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when -c is not given.
const DefaultFile = "sitepipe.yaml"

// Config represents the application configuration
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	HTML    HTMLConfig    `yaml:"html"`
	Styles  StylesConfig  `yaml:"styles"`
	Scripts ScriptsConfig `yaml:"scripts"`
	Images  ImagesConfig  `yaml:"images"`
	Tools   ToolsConfig   `yaml:"tools"`
	Server  ServerConfig  `yaml:"server"`
	Watch   WatchConfig   `yaml:"watch"`
	Notify  NotifyConfig  `yaml:"notify"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// PathsConfig locates the source tree and both output roots. Subdirectory
// names are relative to Source.
type PathsConfig struct {
	Source         string `yaml:"source"`
	Dev            string `yaml:"dev"`
	Prod           string `yaml:"prod"`
	Archive        string `yaml:"archive"`
	HTML           string `yaml:"html"`
	Blocks         string `yaml:"blocks"` // under HTML, never published
	Styles         string `yaml:"styles"`
	Images         string `yaml:"images"`
	SVGIcons       string `yaml:"svg_icons"` // under Images
	Files          string `yaml:"files"`
	Scripts        string `yaml:"scripts"`
	Fonts          string `yaml:"fonts"`
	FontStylesheet string `yaml:"font_stylesheet"`
}

// SafeTag is an opening/closing marker pair whose content typography leaves alone.
type SafeTag struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// HTMLConfig configures include expansion, typography and WebP markup.
type HTMLConfig struct {
	IncludePrefix  string         `yaml:"include_prefix"`
	Locales        []string       `yaml:"locales"`
	SafeTags       []SafeTag      `yaml:"safe_tags"`
	WebPExtensions []string       `yaml:"webp_extensions"`
	Retina         map[int]string `yaml:"retina"`
}

// StylesConfig configures SASS output and vendor prefixing.
type StylesConfig struct {
	// Targets are esbuild engine names with versions, e.g. "chrome58".
	Targets []string `yaml:"targets"`
}

// ScriptsConfig configures bundling.
type ScriptsConfig struct {
	// ProdTarget is the language level prod bundles are lowered to.
	ProdTarget string `yaml:"prod_target"`
	Sourcemap  bool   `yaml:"sourcemap"`
}

// ImagesConfig configures prod image conversion.
type ImagesConfig struct {
	WebPQuality int `yaml:"webp_quality"`
}

// ToolsConfig names the external binaries. Empty disables nothing; the
// binary is resolved on PATH when first used.
type ToolsConfig struct {
	Sass    string `yaml:"sass"`
	CWebP   string `yaml:"cwebp"`
	OTF2TTF string `yaml:"otf2ttf"`
	WOFF2   string `yaml:"woff2_compress"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Open       *bool  `yaml:"open,omitempty"`
	LiveReload *bool  `yaml:"livereload,omitempty"`
}

// WatchConfig configures the watch loop.
type WatchConfig struct {
	Debounce     string `yaml:"debounce"`
	PollInterval string `yaml:"poll_interval,omitempty"` // empty disables polling
}

// NotifyConfig configures failure notifications beyond the log.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load loads configuration from the specified file. A missing file yields
// the defaults, which reproduce the standard src/build/prod layout.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := NewDefaultApplier().ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}

// SourceDir joins a source subdirectory onto the source root.
func (c *Config) SourceDir(sub string) string {
	return filepath.Join(c.Paths.Source, sub)
}

// OutputRoot returns the output root for mode.
func (c *Config) OutputRoot(mode Mode) string {
	if mode == ModeProd {
		return c.Paths.Prod
	}
	return c.Paths.Dev
}

// FontStylesheetPath is the generated @font-face partial inside the source tree.
func (c *Config) FontStylesheetPath() string {
	return c.SourceDir(c.Paths.FontStylesheet)
}

// DebounceDuration returns the parsed watch debounce.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return defaultDebounce
	}
	return d
}

// PollDuration returns the parsed poll interval, zero when polling is off.
func (w WatchConfig) PollDuration() time.Duration {
	if w.PollInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(w.PollInterval)
	if err != nil {
		return 0
	}
	return d
}

// ShouldOpen reports whether serve opens a browser tab.
func (s ServerConfig) ShouldOpen() bool { return s.Open == nil || *s.Open }

// LiveReloadEnabled reports whether dev serving injects live reload.
func (s ServerConfig) LiveReloadEnabled() bool { return s.LiveReload == nil || *s.LiveReload }

// Addr returns host:port.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// Init creates a new configuration file with the default content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := "# sitepipe configuration. Every key is optional; values shown are the defaults.\n" +
		"# ${VAR} references are expanded from the environment and .env files.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
