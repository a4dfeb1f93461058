package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Column names a column of the document record.
// Each derived column is written by exactly one stage.
type Column string

// Document record columns.
const (
	ColumnSourceLocator Column = "source_locator"
	ColumnMarkdown      Column = "markdown_repr"
	ColumnJSON          Column = "json_repr"
	ColumnPlain         Column = "plain_repr"
	ColumnChunks        Column = "chunks"
	ColumnEmbeddings    Column = "embeddings"
)

// AllColumns lists every record column in stage order.
var AllColumns = []Column{
	ColumnSourceLocator,
	ColumnMarkdown,
	ColumnJSON,
	ColumnPlain,
	ColumnChunks,
	ColumnEmbeddings,
}

// Valid reports whether c is a known record column.
func (c Column) Valid() bool {
	for _, known := range AllColumns {
		if c == known {
			return true
		}
	}
	return false
}

// Record is one row of the document store, keyed by partition key.
// Derived columns are nil until the stage producing them succeeds.
type Record struct {
	// Key is the partition key. Stable and never reused.
	Key string

	// SourceLocator names where the raw bytes live. Immutable once set.
	SourceLocator string

	// Markdown is the document converted to markdown.
	Markdown *string

	// JSON is the JSON representation derived from Markdown.
	JSON *string

	// Plain is the plain-text representation derived from Markdown.
	Plain *string

	// Chunks is the encoded chunk mapping (see EncodeChunks).
	Chunks *string

	// Embeddings is the encoded embedding mapping (see EncodeEmbeddings).
	Embeddings *string

	// CreatedAt is when the record was first registered.
	CreatedAt time.Time

	// UpdatedAt is when any column was last written.
	UpdatedAt time.Time
}

// Value returns the value of a column and whether it is populated.
func (r *Record) Value(col Column) (string, bool) {
	var v *string
	switch col {
	case ColumnSourceLocator:
		return r.SourceLocator, r.SourceLocator != ""
	case ColumnMarkdown:
		v = r.Markdown
	case ColumnJSON:
		v = r.JSON
	case ColumnPlain:
		v = r.Plain
	case ColumnChunks:
		v = r.Chunks
	case ColumnEmbeddings:
		v = r.Embeddings
	}
	if v == nil {
		return "", false
	}
	return *v, true
}

// Populated returns the columns that currently hold a value.
func (r *Record) Populated() []Column {
	var cols []Column
	for _, col := range AllColumns {
		if _, ok := r.Value(col); ok {
			cols = append(cols, col)
		}
	}
	return cols
}

// ColumnValues is the result of reading a set of columns for one key.
// A nil entry means the column is null.
type ColumnValues map[Column]*string

// Get returns the value of col and whether it is non-null.
func (v ColumnValues) Get(col Column) (string, bool) {
	p, ok := v[col]
	if !ok || p == nil {
		return "", false
	}
	return *p, true
}

// Missing returns the requested columns that are null, in request order.
func (v ColumnValues) Missing(cols ...Column) []Column {
	var missing []Column
	for _, col := range cols {
		if _, ok := v.Get(col); !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// EncodeChunks encodes chunks as a JSON object keyed by index, in index order.
func EncodeChunks(chunks []string) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, chunk := range chunks {
		if i > 0 {
			buf.WriteByte(',')
		}
		value, err := json.Marshal(chunk)
		if err != nil {
			return "", fmt.Errorf("encoding chunk %d: %w", i, err)
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(i)))
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// DecodeChunks decodes an encoded chunk mapping.
// Indices must be the contiguous range 0..N-1.
func DecodeChunks(encoded string) ([]string, error) {
	var raw map[string]string
	if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding chunks: %v", ErrInvalidInput, err)
	}
	chunks := make([]string, len(raw))
	for k, v := range raw {
		idx, err := parseIndex(k, len(raw))
		if err != nil {
			return nil, err
		}
		chunks[idx] = v
	}
	return chunks, nil
}

// EncodeEmbeddings encodes one score per chunk index, in index order.
func EncodeEmbeddings(scores []float64) string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, score := range scores {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(i)))
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(score, 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.String()
}

// DecodeEmbeddings decodes an encoded embedding mapping.
func DecodeEmbeddings(encoded string) ([]float64, error) {
	var raw map[string]float64
	if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding embeddings: %v", ErrInvalidInput, err)
	}
	scores := make([]float64, len(raw))
	for k, v := range raw {
		idx, err := parseIndex(k, len(raw))
		if err != nil {
			return nil, err
		}
		scores[idx] = v
	}
	return scores, nil
}

// SortedIndices returns the integer keys of an encoded mapping in ascending order.
func SortedIndices(encoded string) ([]int, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(encoded), &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding mapping: %v", ErrInvalidInput, err)
	}
	indices := make([]int, 0, len(raw))
	for k := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("%w: non-integer index %q", ErrInvalidInput, k)
		}
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices, nil
}

// parseIndex parses k and checks it falls within [0, n).
// With unique map keys this guarantees the indices are contiguous.
func parseIndex(k string, n int) (int, error) {
	idx, err := strconv.Atoi(k)
	if err != nil || strconv.Itoa(idx) != k {
		return 0, fmt.Errorf("%w: non-integer index %q", ErrInvalidInput, k)
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: index %d outside 0..%d", ErrInvalidInput, idx, n-1)
	}
	return idx, nil
}
