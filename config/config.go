// Package config loads the scraper configuration from YAML.
//
// Every field has a default that reproduces a plain interactive run against
// the English→Japanese listing, so an empty file (or no file) is valid.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/lexscrape/browser"
	"github.com/hazyhaar/lexscrape/extract"
	"github.com/hazyhaar/lexscrape/pipeline"
	"github.com/hazyhaar/lexscrape/source"
)

// Config is the top-level configuration.
type Config struct {
	LogLevel  slog.Level      `yaml:"log_level"`
	Source    SourceConfig    `yaml:"source"`
	Browser   BrowserConfig   `yaml:"browser"`
	Selectors SelectorsConfig `yaml:"selectors"`
	Output    OutputConfig    `yaml:"output"`
	Journal   JournalConfig   `yaml:"journal"`
}

// SourceConfig names the listing to scrape.
type SourceConfig struct {
	URL string `yaml:"url"`
}

// BrowserConfig controls the rendering session.
type BrowserConfig struct {
	Remote           string         `yaml:"remote"`
	Bin              string         `yaml:"bin"`
	Headless         bool           `yaml:"headless"`
	UserDataDir      string         `yaml:"user_data_dir"`
	UserAgent        string         `yaml:"user_agent"`
	Locale           string         `yaml:"locale"`
	Timezone         string         `yaml:"timezone"`
	Viewport         ViewportConfig `yaml:"viewport"`
	NavTimeout       time.Duration  `yaml:"nav_timeout"`
	Flags            []string       `yaml:"flags"`
	ResourceBlocking []string       `yaml:"resource_blocking"`
	Stealth          *bool          `yaml:"stealth"` // nil = on
	XvfbDisplay      string         `yaml:"xvfb_display"`
}

// ViewportConfig is the page size in CSS pixels.
type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SelectorsConfig locates the listing and each entry's fields.
type SelectorsConfig struct {
	Listing pipeline.Selectors `yaml:",inline"`
	Entry   extract.Selectors  `yaml:",inline"`
}

// OutputConfig controls the CSV store.
type OutputConfig struct {
	Dir  string `yaml:"dir"`
	CRLF *bool  `yaml:"crlf"` // nil = on
	Sync *bool  `yaml:"sync"` // nil = on
}

// JournalConfig enables the SQLite run journal. Empty path = disabled.
type JournalConfig struct {
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	b := browser.DefaultConfig()
	return &Config{
		LogLevel: slog.LevelInfo,
		Source:   SourceConfig{URL: source.DefaultURL},
		Browser: BrowserConfig{
			UserDataDir: b.UserDataDir,
			UserAgent:   b.UserAgent,
			Locale:      b.Locale,
			Timezone:    b.Timezone,
			Viewport:    ViewportConfig{Width: b.ViewportWidth, Height: b.ViewportHeight},
			NavTimeout:  b.NavTimeout,
			Flags:       b.Flags,
			XvfbDisplay: b.XvfbDisplay,
		},
		Selectors: SelectorsConfig{
			Listing: pipeline.DefaultSelectors(),
			Entry:   extract.DefaultSelectors(),
		},
		Journal: JournalConfig{BusyTimeout: 10 * time.Second},
	}
}

// LoadFile reads a YAML configuration file over the defaults. ${VAR}
// references are expanded from the environment before parsing.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads path when it exists and falls back to Default otherwise.
// An explicitly required file that is missing is still an error.
func Load(path string, required bool) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !required {
		return Default(), nil
	}
	return LoadFile(path)
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Source.URL == "" {
		c.Source.URL = d.Source.URL
	}
	if c.Browser.Locale == "" {
		c.Browser.Locale = d.Browser.Locale
	}
	if c.Browser.Timezone == "" {
		c.Browser.Timezone = d.Browser.Timezone
	}
	if c.Browser.Viewport.Width <= 0 {
		c.Browser.Viewport.Width = d.Browser.Viewport.Width
	}
	if c.Browser.Viewport.Height <= 0 {
		c.Browser.Viewport.Height = d.Browser.Viewport.Height
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = d.Browser.NavTimeout
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = d.Browser.XvfbDisplay
	}
	if c.Selectors.Listing.Entries == "" {
		c.Selectors.Listing.Entries = d.Selectors.Listing.Entries
	}
	if c.Selectors.Listing.Total == "" {
		c.Selectors.Listing.Total = d.Selectors.Listing.Total
	}
	if c.Journal.BusyTimeout <= 0 {
		c.Journal.BusyTimeout = d.Journal.BusyTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Source,
		validation.Field(&c.Source.URL, validation.Required, validation.By(validSource)),
	); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := validation.ValidateStruct(&c.Browser,
		validation.Field(&c.Browser.NavTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Browser.Locale, validation.Required),
		validation.Field(&c.Browser.Timezone, validation.Required),
	); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	if err := validation.ValidateStruct(&c.Browser.Viewport,
		validation.Field(&c.Browser.Viewport.Width, validation.Required, validation.Min(320)),
		validation.Field(&c.Browser.Viewport.Height, validation.Required, validation.Min(240)),
	); err != nil {
		return fmt.Errorf("browser.viewport: %w", err)
	}
	if err := validation.ValidateStruct(&c.Selectors.Listing,
		validation.Field(&c.Selectors.Listing.Entries, validation.Required),
		validation.Field(&c.Selectors.Listing.Total, validation.Required),
	); err != nil {
		return fmt.Errorf("selectors: %w", err)
	}
	if err := validation.ValidateStruct(&c.Journal,
		validation.Field(&c.Journal.BusyTimeout, validation.Required, validation.Min(time.Millisecond)),
	); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

func validSource(v any) error {
	s, _ := v.(string)
	if _, err := source.Parse(s); err != nil {
		return errors.New("must contain a /xx/yy language pair")
	}
	return nil
}

// BrowserSession converts the browser section into a browser.Config.
func (c *Config) BrowserSession(logger *slog.Logger) browser.Config {
	stealth := true
	if c.Browser.Stealth != nil {
		stealth = *c.Browser.Stealth
	}
	return browser.Config{
		RemoteURL:        c.Browser.Remote,
		Bin:              c.Browser.Bin,
		Headless:         c.Browser.Headless,
		UserDataDir:      c.Browser.UserDataDir,
		Flags:            c.Browser.Flags,
		ResourceBlocking: c.Browser.ResourceBlocking,
		UserAgent:        c.Browser.UserAgent,
		Locale:           c.Browser.Locale,
		Timezone:         c.Browser.Timezone,
		ViewportWidth:    c.Browser.Viewport.Width,
		ViewportHeight:   c.Browser.Viewport.Height,
		NavTimeout:       c.Browser.NavTimeout,
		Stealth:          stealth,
		XvfbDisplay:      c.Browser.XvfbDisplay,
		Logger:           logger,
	}
}

// CRLFEnabled reports whether rows end in "\r\n".
func (o OutputConfig) CRLFEnabled() bool { return o.CRLF == nil || *o.CRLF }

// SyncEnabled reports whether each row is fsynced.
func (o OutputConfig) SyncEnabled() bool { return o.Sync == nil || *o.Sync }
