package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"upstream", ErrUpstreamNotReady, KindUpstreamNotReady},
		{"wrapped upstream", fmt.Errorf("chunk: %w", ErrUpstreamNotReady), KindUpstreamNotReady},
		{"duplicate key", ErrDuplicateKeyConflict, KindDuplicateKeyConflict},
		{"unsupported", ErrUnsupportedFormat, KindUnsupportedFormat},
		{"conversion", ErrConversion, KindConversionError},
		{"store", fmt.Errorf("%w: disk full", ErrStoreUnavailable), KindStoreUnavailable},
		{"integrity", ErrReferentialIntegrity, KindReferentialIntegrity},
		{"cancelled", context.Canceled, KindCancelled},
		{"deadline", context.DeadlineExceeded, KindCancelled},
		{"unknown", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestStageError(t *testing.T) {
	err := &StageError{
		Key:   "/org/usr/a.txt",
		Stage: StageChunk,
		Err:   fmt.Errorf("missing plain_repr: %w", ErrUpstreamNotReady),
	}

	assert.ErrorIs(t, err, ErrUpstreamNotReady)
	assert.Equal(t, KindUpstreamNotReady, err.Kind())
	assert.Contains(t, err.Error(), "chunk")
	assert.Contains(t, err.Error(), "/org/usr/a.txt")
	assert.Contains(t, err.Error(), KindUpstreamNotReady)

	var stageErr *StageError
	wrapped := fmt.Errorf("pipeline: %w", err)
	assert.True(t, errors.As(wrapped, &stageErr))
	assert.Equal(t, StageChunk, stageErr.Stage)
}
