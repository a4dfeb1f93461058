// Package markdown provides a Converter for documents that are already markdown.
package markdown

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

// Converter passes markdown through with line endings normalised.
type Converter struct{}

// New creates a new markdown converter.
func New() *Converter {
	return &Converter{}
}

// Name returns the converter name.
func (c *Converter) Name() string {
	return "markdown"
}

// Extensions returns the extensions this converter handles.
func (c *Converter) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Convert returns content as markdown.
func (c *Converter) Convert(_ context.Context, name string, content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrConversion, name)
	}
	text := strings.TrimPrefix(string(content), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return text, nil
}
