package service

import (
	"github.com/google/uuid"

	verrors "github.com/vexhq/vexdb/internal/errors"
	"github.com/vexhq/vexdb/internal/store"
)

// ChunkInput is one chunk in a nested document create or a batch create.
type ChunkInput struct {
	ID        *uuid.UUID     `json:"id"`
	Text      string         `json:"text"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata"`
}

// CreateDocumentRequest is the input for creating a document, optionally
// with its initial chunks in the same call.
type CreateDocumentRequest struct {
	ID        *uuid.UUID     `json:"id"`
	LibraryID uuid.UUID      `json:"library_id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata"`
	Chunks    []ChunkInput   `json:"chunks"`
}

// CreateDocument creates a document and any nested chunks, then invalidates
// the library's index.
func (s *Service) CreateDocument(req CreateDocumentRequest) (*store.Document, error) {
	if req.LibraryID == uuid.Nil {
		return nil, verrors.Validation("library_id is required")
	}
	for _, chunk := range req.Chunks {
		if chunk.Text == "" {
			return nil, verrors.Validation("chunk text must not be empty")
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

	doc := &store.Document{ID: id, LibraryID: req.LibraryID, Name: req.Name, Metadata: metadata}
	if err := s.store.CreateDocument(doc); err != nil {
		return nil, err
	}

	for _, input := range req.Chunks {
		if _, err := s.createChunkNoPersist(id, input); err != nil {
			// Roll the half-created document back so a failed create leaves
			// nothing behind and the library's index stays valid.
			_ = s.store.DeleteDocument(id)
			return nil, err
		}
	}

	s.contentChanged(req.LibraryID)
	return s.store.GetDocument(id), nil
}

// GetDocument returns one document.
func (s *Service) GetDocument(id uuid.UUID) (*store.Document, error) {
	doc := s.store.GetDocument(id)
	if doc == nil {
		return nil, verrors.Newf(verrors.ErrCodeDocumentNotFound, "document with ID %s not found", id)
	}
	return doc, nil
}

// ListDocuments returns all documents.
func (s *Service) ListDocuments() []*store.Document {
	return s.store.ListDocuments()
}

// ListDocumentsByLibrary returns the library's documents.
func (s *Service) ListDocumentsByLibrary(libraryID uuid.UUID) ([]*store.Document, error) {
	if s.store.GetLibrary(libraryID) == nil {
		return nil, verrors.Newf(verrors.ErrCodeLibraryNotFound, "library with ID %s not found", libraryID)
	}
	return s.store.ListDocumentsByLibrary(libraryID), nil
}

// UpdateDocument applies a partial update from a raw body. The document name
// and metadata are captured in search results at build time, so any change
// invalidates the library's index.
func (s *Service) UpdateDocument(id uuid.UUID, body map[string]any) (*store.Document, error) {
	patch, err := documentPatchFromMap(body)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateDocument(id, patch)
	if err != nil {
		return nil, err
	}

	s.contentChanged(updated.LibraryID)
	return updated, nil
}

// DeleteDocument removes the document, its chunks, and invalidates the
// library's index.
func (s *Service) DeleteDocument(id uuid.UUID) error {
	libraryID, ok := s.store.LibraryIDForDocument(id)
	if !ok {
		return verrors.Newf(verrors.ErrCodeDocumentNotFound, "document with ID %s not found", id)
	}

	if err := s.store.DeleteDocument(id); err != nil {
		return err
	}

	s.contentChanged(libraryID)
	return nil
}
