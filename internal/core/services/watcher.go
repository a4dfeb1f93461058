package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Watcher detects source objects modified since a cursor.
type Watcher struct {
	source    driven.ObjectSource
	keyPrefix string
}

// NewWatcher creates a watcher over source. keyPrefix is prepended to
// every derived partition key.
func NewWatcher(source driven.ObjectSource, keyPrefix string) *Watcher {
	return &Watcher{
		source:    source,
		keyPrefix: keyPrefix,
	}
}

// Scan lists the source and returns every object with a modification time
// strictly greater than cursor, in listing order, along with the advanced
// cursor. The new cursor is the maximum of cursor and every observed
// modification time, so it never decreases. A failed listing returns the
// input cursor unchanged.
func (w *Watcher) Scan(ctx context.Context, cursor domain.Cursor) ([]domain.SourceObject, domain.Cursor, error) {
	objects, err := w.source.List(ctx)
	if err != nil {
		return nil, cursor, fmt.Errorf("list %s source: %w", w.source.Type(), err)
	}

	next := cursor
	var delta []domain.SourceObject
	for _, obj := range objects {
		next = next.Advance(obj.ModTime)
		if domain.Cursor(obj.ModTime) <= cursor {
			continue
		}
		key, err := domain.DeriveKey(w.keyPrefix, obj.RelPath)
		if err != nil {
			logger.Warn("skipping %s: %v", obj.Locator, err)
			continue
		}
		delta = append(delta, domain.SourceObject{
			Key:     key,
			Locator: obj.Locator,
			ModTime: obj.ModTime,
		})
	}

	logger.Debug("scan %s: %d listed, %d changed, cursor %s -> %s",
		w.source.Type(), len(objects), len(delta), cursor, next)
	return delta, next, nil
}
