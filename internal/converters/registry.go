package converters

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-ingest/internal/converters/docx"
	"github.com/custodia-labs/sercha-ingest/internal/converters/html"
	"github.com/custodia-labs/sercha-ingest/internal/converters/markdown"
	"github.com/custodia-labs/sercha-ingest/internal/converters/plaintext"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ConverterRegistry = (*Registry)(nil)

// Registry maps file extensions to converters.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]driven.Converter
}

// NewRegistry creates an empty converter registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt: make(map[string]driven.Converter),
	}
}

// NewDefaultRegistry creates a registry with every built-in converter.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// RegisterDefaults registers all built-in converters with the registry.
func RegisterDefaults(r driven.ConverterRegistry) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
}

// Register adds a converter for each of its extensions.
func (r *Registry) Register(c driven.Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range c.Extensions() {
		r.byExt[strings.ToLower(ext)] = c
	}
}

// Lookup returns the converter for the locator's extension.
func (r *Registry) Lookup(locator string) (driven.Converter, error) {
	ext := strings.ToLower(path.Ext(locator))
	if ext == "" {
		return nil, fmt.Errorf("%w: %q has no extension", domain.ErrUnsupportedFormat, path.Base(locator))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}
	return c, nil
}

// Extensions returns all supported extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
