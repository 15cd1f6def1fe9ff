package backup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveSource(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile("local.json", []byte("[]"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", dir)

	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"asset name", "demo_backup.json", "demo_backup.json"},
		{"existing local file", "local.json", filepath.Join(dir, "local.json")},
		{"relative path", "sub/x.json", filepath.Join(dir, "sub/x.json")},
		{"absolute path", "/tmp/x.json", "/tmp/x.json"},
		{"home", "~/x.json", filepath.Join(dir, "x.json")},
		{"trimmed", "  demo_backup.json ", "demo_backup.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSource(tt.arg)
			if err != nil {
				t.Fatalf("ResolveSource(%q): %v", tt.arg, err)
			}
			if got != tt.want {
				t.Errorf("ResolveSource(%q) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}

	if _, err := ResolveSource("  "); err == nil {
		t.Error("expected error for empty source")
	}
}

func TestResolveTarget(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	got, err := ResolveTarget("out.json")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "out.json"); got != want {
		t.Errorf("ResolveTarget = %q, want %q", got, want)
	}
	if _, err := ResolveTarget(""); err == nil {
		t.Error("expected error for empty target")
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
