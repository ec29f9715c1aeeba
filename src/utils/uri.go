package utils

import (
	"path/filepath"
	"strings"

	"go.lsp.dev/uri"
)

// URIToFilePath converts a file:// URI to a file system path. Non-file
// URIs (e.g. deno:/...) are returned unchanged: they address virtual
// documents, not files.
func URIToFilePath(u string) string {
	if !strings.HasPrefix(u, "file://") {
		return u
	}
	parsed, err := uri.Parse(u)
	if err != nil {
		return u
	}
	return parsed.Filename()
}

// FilePathToURI converts an absolute file system path to a file:// URI.
// Relative paths are returned unchanged so virtual buffer names survive
// the round-trip.
func FilePathToURI(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	return string(uri.File(path))
}

// RelativePath shortens path against cwd for display. Paths outside cwd
// are kept absolute.
func RelativePath(cwd, path string) string {
	if cwd == "" {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
