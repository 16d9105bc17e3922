package browser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSplitFlag(t *testing.T) {
	name, vals := splitFlag("disable-blink-features=AutomationControlled")
	if name != "disable-blink-features" || len(vals) != 1 || vals[0] != "AutomationControlled" {
		t.Errorf("got %q %v", name, vals)
	}

	name, vals = splitFlag("--disable-dev-shm-usage")
	if name != "disable-dev-shm-usage" || vals != nil {
		t.Errorf("got %q %v", name, vals)
	}

	_, vals = splitFlag("enable-features=A,B")
	if len(vals) != 2 {
		t.Errorf("vals = %v", vals)
	}
}

func TestShouldBlock(t *testing.T) {
	set := map[string]bool{"images": true, "fonts": true}
	if !shouldBlock(set, "Image") {
		t.Error("expected image blocked")
	}
	if !shouldBlock(set, "Font") {
		t.Error("expected font blocked")
	}
	if shouldBlock(set, "Document") {
		t.Error("document must pass")
	}
	if shouldBlock(set, "Stylesheet") {
		t.Error("stylesheet not configured")
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Headless {
		t.Error("default session is headful")
	}
	if c.NavTimeout != 3*time.Minute {
		t.Errorf("nav timeout = %v", c.NavTimeout)
	}
	if c.ViewportWidth != 1244 || c.ViewportHeight != 830 {
		t.Errorf("viewport = %dx%d", c.ViewportWidth, c.ViewportHeight)
	}
	if c.Locale != "en-US" || c.Timezone != "Europe/London" {
		t.Errorf("locale/tz = %s %s", c.Locale, c.Timezone)
	}
	if !strings.Contains(strings.Join(c.Flags, " "), "AutomationControlled") {
		t.Errorf("flags = %v", c.Flags)
	}
	// Mutating the copy must not leak into the package default.
	c.Flags[0] = "x"
	if DefaultFlags[0] == "x" {
		t.Error("DefaultConfig shares the DefaultFlags slice")
	}
}

func TestConfigDefaults_FillsZeroes(t *testing.T) {
	c := Config{}
	c.defaults()
	if c.Logger == nil || c.NavTimeout <= 0 || c.XvfbDisplay != ":99" {
		t.Errorf("defaults not applied: %+v", c)
	}
}

func TestNavError_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := navError(ctx, "https://duome.eu/vocabulary/en/ja", Config{NavTimeout: time.Nanosecond}, ctx.Err())
	var nte *NavigationTimeoutError
	if !errors.As(err, &nte) {
		t.Fatalf("err = %v, want NavigationTimeoutError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("timeout error must unwrap to DeadlineExceeded")
	}
}

func TestNavError_Other(t *testing.T) {
	boom := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := navError(context.Background(), "https://x.invalid/", Config{}, boom)
	var nte *NavigationTimeoutError
	if errors.As(err, &nte) {
		t.Error("non-timeout classified as timeout")
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestOpenPage_NotStarted(t *testing.T) {
	mgr := NewManager(Config{})
	if _, err := OpenPage(context.Background(), mgr, "https://duome.eu/"); err == nil {
		t.Error("expected error without a started browser")
	}
}

func TestManager_StartAfterClose(t *testing.T) {
	mgr := NewManager(Config{})
	if err := mgr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := mgr.Start(context.Background()); err == nil {
		t.Error("expected error starting a closed manager")
	}
}
