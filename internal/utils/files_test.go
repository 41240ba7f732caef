package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte("<configuration/>"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", f, err)
		}
	}
}

func relAll(t *testing.T, root string, paths []string) string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatalf("Rel failed: %v", err)
		}
		out[i] = filepath.ToSlash(rel)
	}
	return strings.Join(out, ",")
}

func TestResolveConfigFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"web.config",
		"notes.txt",
		"src/api/app.config",
		"src/api/Api.dll.config",
		"src/worker/appsettings.json",
		".git/config.config",
	)

	tests := []struct {
		name     string
		patterns []string
		want     string
	}{
		{"literal file", []string{"web.config"}, "web.config"},
		{"literal non-config file", []string{"notes.txt"}, "notes.txt"},
		{"directory", []string{"."}, "src/api/Api.dll.config,src/api/app.config,web.config"},
		{"doublestar glob", []string{"**/*.config"}, "src/api/Api.dll.config,src/api/app.config,web.config"},
		{"single level glob", []string{"src/*/*.config"}, "src/api/Api.dll.config,src/api/app.config"},
		{"deduplicates", []string{"web.config", "*.config"}, "web.config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := ResolveConfigFiles(tt.patterns, root)
			if err != nil {
				t.Fatalf("ResolveConfigFiles failed: %v", err)
			}
			if got := relAll(t, root, files); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolveConfigFiles_Errors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "notes.txt")

	if _, err := ResolveConfigFiles([]string{"missing.config"}, root); !errors.Is(err, kerrors.ErrFileNotFound) {
		t.Errorf("Expected ErrFileNotFound, got: %v", err)
	}
	if _, err := ResolveConfigFiles([]string{"**/*.config"}, root); !errors.Is(err, kerrors.ErrNoFilesFound) {
		t.Errorf("Expected ErrNoFilesFound, got: %v", err)
	}
	if _, err := ResolveConfigFiles([]string{"[.config"}, root); err == nil {
		t.Errorf("Expected error for invalid glob")
	}
}

func TestRelativePath(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "work")
	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(base, "web.config"), "web.config"},
		{filepath.Join(base, "src", "app.config"), filepath.Join("src", "app.config")},
		{filepath.Join(string(filepath.Separator), "elsewhere", "web.config"), filepath.Join(string(filepath.Separator), "elsewhere", "web.config")},
	}
	for _, tt := range tests {
		if got := RelativePath(tt.path, base); got != tt.want {
			t.Errorf("RelativePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFormatPaths(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "work")
	out := FormatPaths([]string{
		filepath.Join(base, "web.config"),
		filepath.Join(base, "src", "app.config"),
	}, base)

	if !strings.HasPrefix(out, "\n") {
		t.Errorf("Expected output to start on a new line, got %q", out)
	}
	if got := strings.Count(out, "    - "); got != 2 {
		t.Errorf("Expected 2 list items, got %d in %q", got, out)
	}
	for _, want := range []string{"web.config", filepath.Join("src", "app.config")} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
}
