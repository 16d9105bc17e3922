// Package browser is the live rendering session: it launches Chrome (or
// attaches to a remote one) through Rod, opens stealth pages configured like
// a regular desktop browser, and exposes the rendered listing through the
// pipeline's page and node contract.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// DefaultUserAgent is a desktop Edge on Windows, as duome sees from its
// regular visitors.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36 Edg/113.0.1774.57"

// DefaultFlags hide the most obvious automation markers.
var DefaultFlags = []string{
	"disable-blink-features=AutomationControlled",
	"disable-dev-shm-usage",
	"disable-component-extensions-with-background-pages",
}

// Config configures the browser session.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local browser.
	RemoteURL string

	// Bin is the browser executable. Empty = Rod's managed Chromium.
	Bin string

	// Headless hides the window. When false on a Linux host without
	// DISPLAY, an Xvfb display is started.
	Headless bool

	// UserDataDir keeps cookies and consent state between runs.
	UserDataDir string

	// Flags are extra command-line switches, "name" or "name=value".
	Flags []string

	// ResourceBlocking lists resource types to block (images, fonts, media, stylesheets).
	ResourceBlocking []string

	UserAgent      string
	Locale         string        // Default: "en-US".
	Timezone       string        // Default: "Europe/London".
	ViewportWidth  int           // Default: 1244.
	ViewportHeight int           // Default: 830.
	NavTimeout     time.Duration // Default: 3m.

	// Stealth injects go-rod/stealth evasions into every page. Default on
	// through DefaultConfig.
	Stealth bool

	// XvfbDisplay for headful mode. Default: ":99".
	XvfbDisplay string

	Logger *slog.Logger
}

// DefaultConfig mirrors a regular headful desktop session.
func DefaultConfig() Config {
	return Config{
		UserDataDir:    "PersistentContext",
		Flags:          append([]string(nil), DefaultFlags...),
		UserAgent:      DefaultUserAgent,
		Locale:         "en-US",
		Timezone:       "Europe/London",
		ViewportWidth:  1244,
		ViewportHeight: 830,
		NavTimeout:     3 * time.Minute,
		Stealth:        true,
		XvfbDisplay:    ":99",
	}
}

func (c *Config) defaults() {
	if c.Locale == "" {
		c.Locale = "en-US"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/London"
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1244
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 830
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 3 * time.Minute
	}
	if c.XvfbDisplay == "" {
		c.XvfbDisplay = ":99"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns the browser process for one run.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	xvfb    *exec.Cmd
	closed  bool
}

// NewManager creates a Manager. Call Start to launch the browser.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches the browser (or connects to a remote instance).
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return m.browser, nil
	}

	b, err := m.launch(ctx)
	if err != nil {
		m.cleanup()
		return nil, err
	}
	m.browser = b
	return b, nil
}

// Browser returns the current Rod browser handle, nil before Start.
func (m *Manager) Browser() *rod.Browser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser
}

// Close shuts down the browser and Xvfb.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.cleanup()
}

func (m *Manager) launch(ctx context.Context) (*rod.Browser, error) {
	log := m.cfg.Logger

	var wsURL string
	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Context(ctx).Headless(m.cfg.Headless)
		if m.cfg.Bin != "" {
			l = l.Bin(m.cfg.Bin)
		}
		if m.cfg.UserDataDir != "" {
			l = l.UserDataDir(m.cfg.UserDataDir)
		}
		if m.needsXvfb() {
			if err := m.startXvfb(); err != nil {
				return nil, fmt.Errorf("browser: xvfb: %w", err)
			}
			l = l.Env(append(os.Environ(), "DISPLAY="+m.cfg.XvfbDisplay)...)
		}
		l = l.Set(flags.Flag("lang"), m.cfg.Locale)
		for _, f := range m.cfg.Flags {
			name, values := splitFlag(f)
			l = l.Set(name, values...)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local browser",
			"url", wsURL, "headless", m.cfg.Headless, "profile", m.cfg.UserDataDir)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	return b, nil
}

// needsXvfb reports whether a headful launch has no display to draw on.
func (m *Manager) needsXvfb() bool {
	return !m.cfg.Headless && runtime.GOOS == "linux" && os.Getenv("DISPLAY") == ""
}

func (m *Manager) cleanup() error {
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Kill()
		// Cleanup removes the user-data dir. Only rod's temporary profile
		// may go; a configured one holds cookies and consent state.
		if m.cfg.UserDataDir == "" {
			m.lnch.Cleanup()
		}
		m.lnch = nil
	}
	m.stopXvfb()
	return err
}

// splitFlag turns "name=a,b" into the launcher flag and its values.
func splitFlag(f string) (flags.Flag, []string) {
	f = strings.TrimLeft(f, "-")
	name, val, ok := strings.Cut(f, "=")
	if !ok || val == "" {
		return flags.Flag(name), nil
	}
	return flags.Flag(name), strings.Split(val, ",")
}
