package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func TestConverter_Metadata(t *testing.T) {
	c := New()
	assert.Equal(t, "plaintext", c.Name())
	assert.Contains(t, c.Extensions(), ".txt")
	assert.Contains(t, c.Extensions(), ".csv")
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unchanged", "hello world", "hello world"},
		{"crlf", "a\r\nb\r\n", "a\nb\n"},
		{"bare cr", "a\rb", "a\nb"},
		{"bom", "\ufeffhello", "hello"},
		{"empty", "", ""},
		{"unicode", "héllo wörld ✓", "héllo wörld ✓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New().Convert(context.Background(), "a.txt", []byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestConvert_Binary(t *testing.T) {
	_, err := New().Convert(context.Background(), "a.txt", []byte("abc\x00def"))
	assert.ErrorIs(t, err, domain.ErrConversion)

	_, err = New().Convert(context.Background(), "a.txt", []byte{0xc3, 0x28})
	assert.ErrorIs(t, err, domain.ErrConversion)
}
