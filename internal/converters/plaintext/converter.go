// Package plaintext provides a Converter for plain text sources.
// Plain text is valid markdown, so conversion only normalises encoding
// artefacts and line endings.
package plaintext

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

// Converter handles plain text documents.
type Converter struct{}

// New creates a new plain text converter.
func New() *Converter {
	return &Converter{}
}

// Name returns the converter name.
func (c *Converter) Name() string {
	return "plaintext"
}

// Extensions returns the extensions this converter handles.
func (c *Converter) Extensions() []string {
	return []string{".txt", ".text", ".csv", ".log"}
}

// Convert returns the text content unchanged apart from line endings.
// Binary content (NUL bytes or invalid UTF-8) is rejected.
func (c *Converter) Convert(_ context.Context, name string, content []byte) (string, error) {
	if !utf8.Valid(content) || strings.IndexByte(string(content), 0) >= 0 {
		return "", fmt.Errorf("%w: %s does not look like text", domain.ErrConversion, name)
	}
	text := strings.TrimPrefix(string(content), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}
