package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vexhq/vexdb/internal/embed"
	verrors "github.com/vexhq/vexdb/internal/errors"
	"github.com/vexhq/vexdb/internal/store"
)

// BuildRequest carries the parameters of an index build.
type BuildRequest struct {
	// Kind selects the index implementation. Empty defaults to BRUTE_FORCE.
	Kind store.IndexerKind

	// LeafSize is the ball tree leaf size. Zero defaults to DefaultLeafSize.
	LeafSize int

	// M is the HNSW graph connectivity. Zero defaults to DefaultHNSWM.
	M int

	// EfSearch is the HNSW query candidate set size. Zero defaults to
	// DefaultHNSWEfSearch.
	EfSearch int
}

// WithDefaults returns the request with zero values replaced by defaults.
func (r BuildRequest) WithDefaults() BuildRequest {
	if r.Kind == "" {
		r.Kind = store.IndexerBruteForce
	}
	if r.LeafSize == 0 {
		r.LeafSize = DefaultLeafSize
	}
	if r.M == 0 {
		r.M = DefaultHNSWM
	}
	if r.EfSearch == 0 {
		r.EfSearch = DefaultHNSWEfSearch
	}
	return r
}

// validate checks the resolved request's parameter bounds.
func (r BuildRequest) validate() error {
	if !store.ValidIndexerKind(r.Kind) {
		return verrors.Validation(fmt.Sprintf("unknown indexer kind %q", r.Kind))
	}
	if r.LeafSize < MinLeafSize || r.LeafSize > MaxLeafSize {
		return verrors.Validation(
			fmt.Sprintf("leaf_size must be between %d and %d", MinLeafSize, MaxLeafSize))
	}
	if r.M < MinHNSWM || r.M > MaxHNSWM {
		return verrors.Validation(
			fmt.Sprintf("m must be between %d and %d", MinHNSWM, MaxHNSWM))
	}
	if r.EfSearch < MinHNSWEfSearch || r.EfSearch > MaxHNSWEfSearch {
		return verrors.Validation(
			fmt.Sprintf("ef_search must be between %d and %d", MinHNSWEfSearch, MaxHNSWEfSearch))
	}
	return nil
}

// buildStats records the outcome of the last successful build.
type buildStats struct {
	duration time.Duration
}

// buildHandle tracks one running build goroutine.
type buildHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns the in-memory indexes and the per-library build lifecycle.
// At most one build runs per library; starting a build on a library that is
// already building returns the current status without spawning a second one.
type Manager struct {
	store    *store.Store
	embedder embed.Embedder
	logger   *slog.Logger

	mu      sync.RWMutex
	indexes map[uuid.UUID]Index
	stats   map[uuid.UUID]buildStats

	buildMu sync.Mutex
	builds  map[uuid.UUID]*buildHandle
}

// NewManager creates an index manager.
func NewManager(st *store.Store, embedder embed.Embedder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    st,
		embedder: embedder,
		logger:   logger,
		indexes:  make(map[uuid.UUID]Index),
		stats:    make(map[uuid.UUID]buildStats),
		builds:   make(map[uuid.UUID]*buildHandle),
	}
}

// StartBuild kicks off an asynchronous index build for the library and
// returns the resulting status. If a build is already running the current
// status is returned unchanged.
func (m *Manager) StartBuild(libraryID uuid.UUID, req BuildRequest) (store.IndexStatus, error) {
	lib := m.store.GetLibrary(libraryID)
	if lib == nil {
		return store.IndexStatus{}, verrors.Newf(verrors.ErrCodeLibraryNotFound, "library with ID %s not found", libraryID)
	}

	req = req.WithDefaults()
	if err := req.validate(); err != nil {
		return store.IndexStatus{}, err
	}

	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	if _, running := m.builds[libraryID]; running {
		return m.currentStatus(libraryID), nil
	}

	// The build outlives the HTTP request that triggered it, so it runs on
	// a detached context. Drop cancels it when the library is deleted.
	ctx, cancel := context.WithCancel(context.Background())
	handle := &buildHandle{cancel: cancel, done: make(chan struct{})}
	m.builds[libraryID] = handle

	if err := m.store.UpdateIndexStatus(libraryID, func(st *store.IndexStatus) {
		st.IndexingInProgress = true
		st.Indexed = false
		st.IndexerKind = req.Kind
	}); err != nil {
		cancel()
		delete(m.builds, libraryID)
		return store.IndexStatus{}, err
	}

	go m.runBuild(ctx, libraryID, req, handle)

	return m.currentStatus(libraryID), nil
}

// currentStatus reads the library's status, tolerating concurrent deletion.
func (m *Manager) currentStatus(libraryID uuid.UUID) store.IndexStatus {
	if lib := m.store.GetLibrary(libraryID); lib != nil {
		return lib.IndexStatus
	}
	return store.IndexStatus{}
}

// runBuild embeds the library's chunks and constructs the index. Chunks that
// already carry an embedding are used as-is; only the rest are embedded.
func (m *Manager) runBuild(ctx context.Context, libraryID uuid.UUID, req BuildRequest, handle *buildHandle) {
	defer func() {
		handle.cancel()
		m.buildMu.Lock()
		delete(m.builds, libraryID)
		m.buildMu.Unlock()
		close(handle.done)
	}()

	start := time.Now()

	var refs []ChunkRef
	var vectors [][]float32
	var missing []int
	var texts []string
	for _, doc := range m.store.ListDocumentsByLibrary(libraryID) {
		for _, chunk := range m.store.ListChunksByDocument(doc.ID) {
			refs = append(refs, ChunkRef{
				ChunkID:      chunk.ID,
				DocumentID:   doc.ID,
				DocumentName: doc.Name,
				Text:         chunk.Text,
				Metadata:     chunk.Metadata,
			})
			vectors = append(vectors, chunk.Embedding)
			if chunk.Embedding == nil {
				missing = append(missing, len(refs)-1)
				texts = append(texts, chunk.Text)
			}
		}
	}

	if len(texts) > 0 {
		embedded, err := m.embedder.EmbedBatch(ctx, texts, embed.InputSearchDocument)
		if err != nil {
			m.logger.Warn("index build failed",
				slog.String("library_id", libraryID.String()),
				slog.String("kind", string(req.Kind)),
				slog.String("error", err.Error()))
			m.failBuild(libraryID)
			return
		}
		for i, pos := range missing {
			vectors[pos] = embedded[i]
		}
	}

	var idx Index
	switch req.Kind {
	case store.IndexerBallTree:
		idx = NewBallTreeIndex(refs, vectors, req.LeafSize)
	case store.IndexerHNSW:
		idx = NewHNSWIndex(refs, vectors, req.M, req.EfSearch)
	default:
		idx = NewLinearIndex(refs, vectors)
	}

	duration := time.Since(start)

	m.mu.Lock()
	m.indexes[libraryID] = idx
	m.stats[libraryID] = buildStats{duration: duration}
	m.mu.Unlock()

	now := time.Now().UTC()
	if err := m.store.UpdateIndexStatus(libraryID, func(st *store.IndexStatus) {
		st.Indexed = true
		st.IndexerKind = req.Kind
		st.LastIndexed = &now
		st.IndexingInProgress = false
	}); err != nil {
		// Library was deleted mid-build; discard the orphaned index.
		m.mu.Lock()
		delete(m.indexes, libraryID)
		delete(m.stats, libraryID)
		m.mu.Unlock()
		return
	}

	m.logger.Info("index built",
		slog.String("library_id", libraryID.String()),
		slog.String("kind", string(req.Kind)),
		slog.Int("chunks", len(refs)),
		slog.Duration("duration", duration))
}

// failBuild tears down state after a failed build: any installed index is
// removed and the status resets to unindexed with no indexer kind.
func (m *Manager) failBuild(libraryID uuid.UUID) {
	m.mu.Lock()
	delete(m.indexes, libraryID)
	delete(m.stats, libraryID)
	m.mu.Unlock()

	_ = m.store.UpdateIndexStatus(libraryID, func(st *store.IndexStatus) {
		st.Indexed = false
		st.IndexerKind = ""
		st.IndexingInProgress = false
	})
}

// Wait blocks until the library's running build (if any) finishes.
func (m *Manager) Wait(libraryID uuid.UUID) {
	m.buildMu.Lock()
	handle := m.builds[libraryID]
	m.buildMu.Unlock()

	if handle != nil {
		<-handle.done
	}
}

// Invalidate drops the library's index after a content mutation. The index
// status keeps the last indexer kind and timestamp for inspection.
func (m *Manager) Invalidate(libraryID uuid.UUID) {
	m.mu.Lock()
	delete(m.indexes, libraryID)
	delete(m.stats, libraryID)
	m.mu.Unlock()

	_ = m.store.UpdateIndexStatus(libraryID, func(st *store.IndexStatus) {
		st.Indexed = false
	})
}

// Drop cancels any running build and discards the library's index.
// Called when the library itself is deleted.
func (m *Manager) Drop(libraryID uuid.UUID) {
	m.buildMu.Lock()
	handle := m.builds[libraryID]
	m.buildMu.Unlock()

	if handle != nil {
		handle.cancel()
		<-handle.done
	}

	m.mu.Lock()
	delete(m.indexes, libraryID)
	delete(m.stats, libraryID)
	m.mu.Unlock()
}

// Describe returns the built index's size and parameters for status
// reporting, or nil if the library has no live index.
func (m *Manager) Describe(libraryID uuid.UUID) map[string]any {
	m.mu.RLock()
	idx, ok := m.indexes[libraryID]
	stats := m.stats[libraryID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	desc := map[string]any{
		"kind":              string(idx.Kind()),
		"size":              idx.Size(),
		"build_duration_ms": stats.duration.Milliseconds(),
	}
	for k, v := range idx.Params() {
		desc[k] = v
	}
	return desc
}

// Search embeds the query text and runs it against the library's index.
func (m *Manager) Search(ctx context.Context, libraryID uuid.UUID, queryText string, k int) ([]Result, error) {
	lib := m.store.GetLibrary(libraryID)
	if lib == nil {
		return nil, verrors.Newf(verrors.ErrCodeLibraryNotFound, "library with ID %s not found", libraryID)
	}
	if lib.IndexStatus.IndexingInProgress {
		return nil, verrors.Conflict(verrors.ErrCodeIndexingInProgress,
			"indexing is in progress, retry when it completes")
	}
	if !lib.IndexStatus.Indexed {
		return nil, verrors.Conflict(verrors.ErrCodeNotIndexed,
			"library has not been indexed, build an index first")
	}

	m.mu.RLock()
	idx, ok := m.indexes[libraryID]
	m.mu.RUnlock()
	if !ok {
		return nil, verrors.Conflict(verrors.ErrCodeNotIndexed,
			"library index is no longer available, rebuild it")
	}

	// k of zero is a valid query with an empty answer; skip the embed call.
	if k <= 0 {
		return nil, nil
	}

	query, err := m.embedder.Embed(ctx, queryText, embed.InputSearchQuery)
	if err != nil {
		return nil, err
	}

	return idx.Search(query, k), nil
}

// Close waits for all running builds to finish.
func (m *Manager) Close() {
	m.buildMu.Lock()
	handles := make([]*buildHandle, 0, len(m.builds))
	for _, h := range m.builds {
		handles = append(handles, h)
	}
	m.buildMu.Unlock()

	for _, h := range handles {
		<-h.done
	}
}
