package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	verrors "github.com/vexhq/vexdb/internal/errors"
)

// snapshotPrefix and snapshotSuffix frame per-library snapshot file names,
// e.g. library_3f2a....json.
const (
	snapshotPrefix = "library_"
	snapshotSuffix = ".json"
)

// Snapshot is the on-disk form of one library subtree. Chunk embeddings are
// stripped before writing; they are recomputed by the next index build.
type Snapshot struct {
	Library   *Library    `json:"library"`
	Documents []*Document `json:"documents"`
	Chunks    []*Chunk    `json:"chunks"`
}

// SnapshotStore persists per-library snapshots as JSON files under dataDir.
type SnapshotStore struct {
	dataDir string
	store   *Store
	logger  *slog.Logger
}

// NewSnapshotStore creates a snapshot store rooted at dataDir.
func NewSnapshotStore(dataDir string, store *Store, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{dataDir: dataDir, store: store, logger: logger}
}

// Path returns the snapshot file path for a library.
func (ss *SnapshotStore) Path(libraryID uuid.UUID) string {
	return filepath.Join(ss.dataDir, snapshotPrefix+libraryID.String()+snapshotSuffix)
}

// Save writes the library's subtree to disk. The snapshot is assembled from
// deep copies, so no store lock is held during the disk write. Writes go to a
// temp file first and are renamed into place.
func (ss *SnapshotStore) Save(libraryID uuid.UUID) error {
	lib := ss.store.GetLibrary(libraryID)
	if lib == nil {
		return verrors.Newf(verrors.ErrCodeLibraryNotFound, "library with ID %s not found", libraryID)
	}

	snap := Snapshot{
		Library:   lib,
		Documents: ss.store.ListDocumentsByLibrary(libraryID),
	}
	for _, doc := range snap.Documents {
		snap.Chunks = append(snap.Chunks, ss.store.ListChunksByDocument(doc.ID)...)
	}
	for _, chunk := range snap.Chunks {
		chunk.Embedding = nil
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return verrors.Wrap(verrors.ErrCodeSnapshotFailed, err)
	}

	if err := os.MkdirAll(ss.dataDir, 0755); err != nil {
		return verrors.Wrap(verrors.ErrCodeSnapshotFailed, err)
	}

	path := ss.Path(libraryID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return verrors.Wrap(verrors.ErrCodeSnapshotFailed, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return verrors.Wrap(verrors.ErrCodeSnapshotFailed, err)
	}

	ss.logger.Debug("snapshot saved",
		slog.String("library_id", libraryID.String()),
		slog.Int("documents", len(snap.Documents)),
		slog.Int("chunks", len(snap.Chunks)))
	return nil
}

// Remove deletes the library's snapshot file. A missing file is not an error.
func (ss *SnapshotStore) Remove(libraryID uuid.UUID) error {
	err := os.Remove(ss.Path(libraryID))
	if err != nil && !os.IsNotExist(err) {
		return verrors.Wrap(verrors.ErrCodeSnapshotFailed, err)
	}
	return nil
}

// LoadFile reads one snapshot file and installs its subtree into the store.
// The loaded library starts with a fresh index status. Documents belonging to
// a different library and chunks whose document is not in the snapshot are
// skipped with a warning.
func (ss *SnapshotStore) LoadFile(path string) (uuid.UUID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse snapshot %s: %w", filepath.Base(path), err)
	}
	if snap.Library == nil || snap.Library.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("snapshot %s has no library", filepath.Base(path))
	}

	lib := snap.Library.Clone()
	lib.IndexStatus = IndexStatus{}
	if err := ss.store.CreateLibrary(lib); err != nil {
		return uuid.Nil, err
	}

	loadedDocs := make(map[uuid.UUID]bool, len(snap.Documents))
	for _, doc := range snap.Documents {
		if doc.LibraryID != lib.ID {
			ss.logger.Warn("skipping document from foreign library",
				slog.String("document_id", doc.ID.String()),
				slog.String("library_id", doc.LibraryID.String()))
			continue
		}
		if err := ss.store.CreateDocument(doc); err != nil {
			return uuid.Nil, err
		}
		loadedDocs[doc.ID] = true
	}

	for _, chunk := range snap.Chunks {
		if !loadedDocs[chunk.DocumentID] {
			ss.logger.Warn("skipping chunk with unknown document",
				slog.String("chunk_id", chunk.ID.String()),
				slog.String("document_id", chunk.DocumentID.String()))
			continue
		}
		chunk.Embedding = nil
		if err := ss.store.CreateChunk(chunk); err != nil {
			return uuid.Nil, err
		}
	}

	return lib.ID, nil
}

// LoadAll loads every library_*.json snapshot under dataDir. Corrupt files
// are logged and skipped so one bad snapshot does not block startup.
func (ss *SnapshotStore) LoadAll() (int, error) {
	entries, err := os.ReadDir(ss.dataDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read data directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		libID, err := ss.LoadFile(filepath.Join(ss.dataDir, name))
		if err != nil {
			ss.logger.Warn("failed to load snapshot",
				slog.String("file", name),
				slog.String("error", err.Error()))
			continue
		}
		ss.logger.Info("snapshot loaded",
			slog.String("file", name),
			slog.String("library_id", libID.String()))
		loaded++
	}
	return loaded, nil
}
