package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeChrome writes a shell script that announces a DevTools endpoint
// served by srv and then idles, enough for the launcher to succeed.
func fakeChrome(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	host := strings.TrimPrefix(srv.URL, "http://")
	script := fmt.Sprintf("#!/bin/sh\necho \"DevTools listening on ws://%s/devtools/browser/fake\" 1>&2\nexec sleep 30\n", host)
	bin := filepath.Join(t.TempDir(), "chrome")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin
}

func TestManager_CloseKeepsPersistentProfile(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("fake browser is a shell script")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"webSocketDebuggerUrl":"ws://%s/devtools/browser/fake"}`, r.Host)
	}))
	defer srv.Close()

	profile := filepath.Join(t.TempDir(), "PersistentContext")
	if err := os.MkdirAll(profile, 0o755); err != nil {
		t.Fatal(err)
	}
	cookies := filepath.Join(profile, "Cookies")
	if err := os.WriteFile(cookies, []byte("consent=yes"), 0o644); err != nil {
		t.Fatal(err)
	}

	mgr := NewManager(Config{
		Bin:         fakeChrome(t, srv),
		Headless:    true,
		UserDataDir: profile,
	})
	// The stub has no WebSocket endpoint, so Start fails after launch.
	if _, err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected connect error from stub endpoint")
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(cookies); err != nil {
		t.Fatalf("profile not kept: %v", err)
	}
}
