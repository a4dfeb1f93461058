package domain

import (
	"fmt"
	"path"
	"strings"
)

// ObjectInfo is one leaf object returned by a source listing.
type ObjectInfo struct {
	// Locator names where the raw bytes live (file path or s3://bucket/key).
	Locator string

	// RelPath is the object path relative to the watched root, slash separated.
	RelPath string

	// ModTime is the modification time in seconds since the epoch.
	ModTime float64
}

// SourceObject is one entry of a watcher delta.
type SourceObject struct {
	Key     string
	Locator string
	ModTime float64
}

// ExecutionRequest seeds the pipeline for one partition.
type ExecutionRequest struct {
	Key     string
	Locator string
}

// DeriveKey builds the partition key for a path relative to the watched root.
// The key is "/" + prefix + "/" + relPath with the path cleaned.
// relPath must stay inside the root.
func DeriveKey(prefix, relPath string) (string, error) {
	cleaned := path.Clean(relPath)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("%w: path %q escapes the root", ErrInvalidInput, relPath)
	}
	if cleaned == "." {
		return "", fmt.Errorf("%w: empty relative path", ErrInvalidInput)
	}
	return path.Join("/", strings.Trim(prefix, "/"), cleaned), nil
}
