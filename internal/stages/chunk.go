package stages

import "github.com/custodia-labs/sercha-ingest/internal/core/domain"

// Chunker splits text into fixed-size windows measured in runes.
type Chunker struct {
	size int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the window size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// NewChunker creates a chunker. Without options it cuts non-overlapping
// windows of domain.DefaultChunkSize runes.
func NewChunker(opts ...Option) *Chunker {
	c := &Chunker{size: domain.DefaultChunkSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns the window size in runes.
func (c *Chunker) Size() int {
	return c.size
}

// Split cuts text into consecutive windows that never overlap. Empty text
// yields no chunks. Windows never split a multi-byte character.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/c.size+1)
	for start := 0; start < len(runes); start += c.size {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Encode splits text and encodes the chunks in index order.
func (c *Chunker) Encode(text string) (string, error) {
	return domain.EncodeChunks(c.Split(text))
}
