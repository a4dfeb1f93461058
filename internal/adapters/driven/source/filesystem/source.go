// Package filesystem provides an ObjectSource over a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.ObjectSource = (*Source)(nil)

// Source lists and reads regular files under a root directory.
type Source struct {
	root string

	// visit, when set, is called with each path before it is examined.
	visit func(path string)
}

// New creates a filesystem source rooted at root.
func New(root string) *Source {
	return &Source{root: filepath.Clean(root)}
}

// Type returns the backend identifier.
func (s *Source) Type() string {
	return domain.BackendFilesystem
}

// List walks the tree and returns every regular file. Hidden entries
// (names starting with ".") and symlinks are skipped. Entries that vanish
// during the walk are omitted. A missing root yields an empty listing.
func (s *Source) List(ctx context.Context) ([]domain.ObjectInfo, error) {
	info, err := os.Stat(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("filesystem root %s does not exist", s.root)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: root %s is not a directory", domain.ErrInvalidInput, s.root)
	}

	var objects []domain.ObjectInfo
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.visit != nil {
			s.visit(path)
		}
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			if path == s.root {
				return walkErr
			}
			logger.Warn("skipping %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != s.root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			// Removed between readdir and stat.
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		objects = append(objects, domain.ObjectInfo{
			Locator: path,
			RelPath: filepath.ToSlash(rel),
			ModTime: domain.EpochSeconds(fi.ModTime()),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	return objects, nil
}

// Read returns the contents of the file at locator, which must lie
// inside the root.
func (s *Source) Read(_ context.Context, locator string) ([]byte, error) {
	rel, err := filepath.Rel(s.root, filepath.Clean(locator))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %s is outside %s", domain.ErrInvalidInput, locator, s.root)
	}

	data, err := os.ReadFile(locator)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, locator)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", locator, err)
	}
	return data, nil
}
