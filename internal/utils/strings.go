package utils

import (
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/confseal/internal/ui"
)

// FormatPaths formats a slice of paths into a readable list. Paths under
// baseDir are shown relative to it.
func FormatPaths(paths []string, baseDir string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, path := range paths {
		b.WriteString("    - ")
		b.WriteString(ui.Path.Sprint(RelativePath(path, baseDir)))
		b.WriteString("\n")
	}
	return b.String()
}

// RelativePath returns path relative to baseDir when it lies below it.
func RelativePath(path, baseDir string) string {
	if baseDir == "" {
		return path
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
