package service

import (
	"log/slog"

	"github.com/google/uuid"

	verrors "github.com/vexhq/vexdb/internal/errors"
	"github.com/vexhq/vexdb/internal/store"
)

// DocumentInput is one document in a nested library create.
type DocumentInput struct {
	ID       *uuid.UUID     `json:"id"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
	Chunks   []ChunkInput   `json:"chunks"`
}

// CreateLibraryRequest is the input for creating a library, optionally with
// its initial documents and chunks in the same call. A nil ID gets a
// generated one.
type CreateLibraryRequest struct {
	ID        *uuid.UUID      `json:"id"`
	Name      string          `json:"name"`
	Metadata  map[string]any  `json:"metadata"`
	Documents []DocumentInput `json:"documents"`
}

// CreateLibrary creates a library with any nested documents and chunks, then
// persists its snapshot.
func (s *Service) CreateLibrary(req CreateLibraryRequest) (*store.Library, error) {
	for _, doc := range req.Documents {
		for _, chunk := range doc.Chunks {
			if chunk.Text == "" {
				return nil, verrors.Validation("chunk text must not be empty")
			}
		}
	}

	id := uuid.New()
	if req.ID != nil {
		id = *req.ID
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	lib := &store.Library{ID: id, Name: req.Name, Metadata: metadata}
	if err := s.store.CreateLibrary(lib); err != nil {
		return nil, err
	}

	for _, input := range req.Documents {
		if err := s.createNestedDocument(id, input); err != nil {
			// Roll the half-created library back so a failed create leaves
			// nothing behind.
			_ = s.store.DeleteLibrary(id)
			return nil, err
		}
	}

	s.persist(id)
	return s.store.GetLibrary(id), nil
}

// createNestedDocument installs one document and its chunks during a nested
// library create. No snapshot is written; the caller persists once.
func (s *Service) createNestedDocument(libraryID uuid.UUID, input DocumentInput) error {
	docID := uuid.New()
	if input.ID != nil {
		docID = *input.ID
	}
	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	doc := &store.Document{ID: docID, LibraryID: libraryID, Name: input.Name, Metadata: metadata}
	if err := s.store.CreateDocument(doc); err != nil {
		return err
	}
	for _, chunk := range input.Chunks {
		if _, err := s.createChunkNoPersist(docID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// GetLibrary returns one library.
func (s *Service) GetLibrary(id uuid.UUID) (*store.Library, error) {
	lib := s.store.GetLibrary(id)
	if lib == nil {
		return nil, verrors.Newf(verrors.ErrCodeLibraryNotFound, "library with ID %s not found", id)
	}
	return lib, nil
}

// ListLibraries returns all libraries.
func (s *Service) ListLibraries() []*store.Library {
	return s.store.ListLibraries()
}

// UpdateLibrary applies a partial update from a raw body. Metadata and name
// changes do not touch chunk content, so the index stays valid. Updates are
// rejected while an index build is running to keep the snapshot and status
// consistent.
func (s *Service) UpdateLibrary(id uuid.UUID, body map[string]any) (*store.Library, error) {
	lib := s.store.GetLibrary(id)
	if lib == nil {
		return nil, verrors.Newf(verrors.ErrCodeLibraryNotFound, "library with ID %s not found", id)
	}
	if lib.IndexStatus.IndexingInProgress {
		return nil, verrors.Conflict(verrors.ErrCodeIndexingInProgress,
			"library cannot be updated while indexing is in progress")
	}

	patch, err := libraryPatchFromMap(body)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateLibrary(id, patch)
	if err != nil {
		return nil, err
	}

	s.persist(id)
	return updated, nil
}

// DeleteLibrary removes the library, its subtree, its index (cancelling a
// running build), and its snapshot file.
func (s *Service) DeleteLibrary(id uuid.UUID) error {
	s.indexes.Drop(id)

	if err := s.store.DeleteLibrary(id); err != nil {
		return err
	}
	if err := s.snapshots.Remove(id); err != nil {
		s.logger.Warn("failed to remove snapshot",
			slog.String("library_id", id.String()),
			slog.String("error", err.Error()))
	}
	return nil
}
