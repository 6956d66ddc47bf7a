package statepaths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHomePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	cases := map[string]string{
		"~":            home,
		"~/x/y":        filepath.Join(home, "x/y"),
		"/abs/path":    "/abs/path",
		"rel/path":     "rel/path",
		"~other/thing": "~other/thing",
	}
	for in, want := range cases {
		if got := ExpandHomePath(in); got != want {
			t.Fatalf("ExpandHomePath(%q) mismatch: got %q want %q", in, got, want)
		}
	}
}

func TestResolveStateFile(t *testing.T) {
	dir := t.TempDir()
	if got := ResolveStateFile(dir, "", DefaultSessionDBName); got != filepath.Join(dir, "whatsapp.db") {
		t.Fatalf("default session path mismatch: got %q", got)
	}
	if got := ResolveStateFile(dir, "sessions/bot.db", DefaultSessionDBName); got != filepath.Join(dir, "sessions", "bot.db") {
		t.Fatalf("relative session path mismatch: got %q", got)
	}
	abs := filepath.Join(t.TempDir(), "other.db")
	if got := ResolveStateFile(dir, abs, DefaultSessionDBName); got != abs {
		t.Fatalf("absolute session path mismatch: got %q want %q", got, abs)
	}
}

func TestResolveStateDirDefault(t *testing.T) {
	if got := ResolveStateDir(""); got != filepath.Clean(ExpandHomePath(DefaultFileStateDir)) {
		t.Fatalf("default state dir mismatch: got %q", got)
	}
}
