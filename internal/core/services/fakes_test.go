package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-ingest/internal/converters"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

const testRoot = "/data/ingest"

// fakeObject is one file held by fakeSource.
type fakeObject struct {
	content []byte
	mtime   float64
}

// fakeSource is an in-memory driven.ObjectSource rooted at testRoot.
type fakeSource struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	listErr error
	readErr error
	reads   map[string]int

	// gate, when set, blocks Read until closed. entered receives one
	// value per blocked Read.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		objects: make(map[string]fakeObject),
		reads:   make(map[string]int),
	}
}

func (s *fakeSource) put(relPath, content string, mtime float64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[relPath] = fakeObject{content: []byte(content), mtime: mtime}
	return path.Join(testRoot, relPath)
}

func (s *fakeSource) remove(relPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, relPath)
}

func (s *fakeSource) readCount(locator string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[locator]
}

func (s *fakeSource) Type() string { return "fake" }

func (s *fakeSource) List(_ context.Context) ([]domain.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	infos := make([]domain.ObjectInfo, 0, len(s.objects))
	for rel, obj := range s.objects {
		infos = append(infos, domain.ObjectInfo{
			Locator: path.Join(testRoot, rel),
			RelPath: rel,
			ModTime: obj.mtime,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].RelPath < infos[j].RelPath })
	return infos, nil
}

func (s *fakeSource) Read(_ context.Context, locator string) ([]byte, error) {
	s.mu.Lock()
	s.reads[locator]++
	gate, entered := s.gate, s.entered
	s.mu.Unlock()

	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	rel, err := relTo(testRoot, locator)
	if err != nil {
		return nil, err
	}
	obj, ok := s.objects[rel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, locator)
	}
	return obj.content, nil
}

func relTo(root, locator string) (string, error) {
	prefix := root + "/"
	if len(locator) <= len(prefix) || locator[:len(prefix)] != prefix {
		return "", fmt.Errorf("%w: %s outside %s", domain.ErrNotFound, locator, root)
	}
	return locator[len(prefix):], nil
}

// fakeEmbedder returns a one-element vector derived from the text length.
type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len([]rune(text))) / 1000}, nil
}

func (e *fakeEmbedder) ModelName() string { return "fake" }

func (e *fakeEmbedder) Close() error { return nil }

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []driven.StageEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event driven.StageEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) snapshot() []driven.StageEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]driven.StageEvent(nil), p.events...)
}

// gatedRecordStore holds the first CreateIfAbsent call until gate closes.
type gatedRecordStore struct {
	*memory.RecordStore
	calls   atomic.Int32
	entered chan struct{}
	gate    chan struct{}
}

func (s *gatedRecordStore) CreateIfAbsent(ctx context.Context, key, locator string) (bool, error) {
	if s.calls.Add(1) == 1 {
		s.entered <- struct{}{}
		<-s.gate
	}
	return s.RecordStore.CreateIfAbsent(ctx, key, locator)
}

// vanishingRecordStore deletes the record just before every column write.
type vanishingRecordStore struct {
	*memory.RecordStore
}

func (s vanishingRecordStore) UpsertColumn(ctx context.Context, key string, col domain.Column, value string) error {
	if err := s.RecordStore.Delete(ctx, key); err != nil {
		return err
	}
	return s.RecordStore.UpsertColumn(ctx, key, col, value)
}

// panickingRunner panics on every Run.
type panickingRunner struct{}

func (panickingRunner) Run(_ context.Context, req domain.ExecutionRequest) *domain.PipelineResult {
	panic("converter exploded on " + req.Key)
}

func (panickingRunner) RunStage(_ context.Context, _ string, _ domain.StageName, _ string) error {
	return nil
}

// newExecutor builds an executor over records that shares the harness
// source and embedder.
func (h *harness) newExecutor(records driven.RecordStore) *StageExecutor {
	return NewStageExecutor(records, h.source, converters.NewDefaultRegistry(), h.embedder)
}

// harness wires the services over memory stores and a fake source.
type harness struct {
	source     *fakeSource
	records    *memory.RecordStore
	partitions *memory.PartitionStore
	cursors    *memory.CursorStore
	embedder   *fakeEmbedder
	executor   *StageExecutor
	engine     *Engine
	pool       *WorkerPool
	watch      *WatchService
}

func newHarness(opts ...ExecutorOption) (*harness, error) {
	h := &harness{
		source:     newFakeSource(),
		records:    memory.NewRecordStore(),
		partitions: memory.NewPartitionStore(),
		cursors:    memory.NewCursorStore(),
		embedder:   &fakeEmbedder{},
	}
	h.executor = NewStageExecutor(h.records, h.source, converters.NewDefaultRegistry(), h.embedder, opts...)
	h.engine = NewEngine(NewWatcher(h.source, "test_bucket"), NewPartitionRegistry(h.partitions))

	pool, err := NewWorkerPool(h.executor, 4)
	if err != nil {
		return nil, err
	}
	h.pool = pool
	h.watch = NewWatchService("test", h.engine, h.pool, h.cursors)
	return h, nil
}

func (h *harness) close() {
	h.pool.Release()
}

// failingPartitionStore fails every Add.
type failingPartitionStore struct {
	*memory.PartitionStore
}

func (s failingPartitionStore) Add(_ context.Context, _ ...string) error {
	return errors.Join(domain.ErrStoreUnavailable, errors.New("disk full"))
}
