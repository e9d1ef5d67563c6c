package service

import (
	"github.com/google/uuid"

	verrors "github.com/vexhq/vexdb/internal/errors"
	"github.com/vexhq/vexdb/internal/store"
)

// CreateChunkRequest is the input for creating a single chunk. A provided
// embedding is kept until the text changes and is reused by index builds.
type CreateChunkRequest struct {
	ID         *uuid.UUID     `json:"id"`
	DocumentID uuid.UUID      `json:"document_id"`
	Text       string         `json:"text"`
	Embedding  []float32      `json:"embedding"`
	Metadata   map[string]any `json:"metadata"`
}

// CreateChunk creates a chunk and invalidates the library's index.
func (s *Service) CreateChunk(req CreateChunkRequest) (*store.Chunk, error) {
	if req.DocumentID == uuid.Nil {
		return nil, verrors.Validation("document_id is required")
	}
	if req.Text == "" {
		return nil, verrors.Validation("chunk text must not be empty")
	}

	chunk, err := s.createChunkNoPersist(req.DocumentID, ChunkInput{
		ID:        req.ID,
		Text:      req.Text,
		Embedding: req.Embedding,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	libraryID, _ := s.store.LibraryIDForDocument(req.DocumentID)
	s.contentChanged(libraryID)
	return chunk, nil
}

// CreateChunks creates multiple chunks under one document in a single call.
// The index is invalidated and the snapshot written once.
func (s *Service) CreateChunks(documentID uuid.UUID, inputs []ChunkInput) ([]*store.Chunk, error) {
	if documentID == uuid.Nil {
		return nil, verrors.Validation("document_id is required")
	}
	if len(inputs) == 0 {
		return nil, verrors.Validation("at least one chunk is required")
	}
	for _, input := range inputs {
		if input.Text == "" {
			return nil, verrors.Validation("chunk text must not be empty")
		}
	}

	chunks := make([]*store.Chunk, 0, len(inputs))
	for _, input := range inputs {
		chunk, err := s.createChunkNoPersist(documentID, input)
		if err != nil {
			// Roll the earlier inserts back so a failed batch leaves nothing
			// behind and the library's index stays valid.
			for _, created := range chunks {
				_ = s.store.DeleteChunk(created.ID)
			}
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	libraryID, _ := s.store.LibraryIDForDocument(documentID)
	s.contentChanged(libraryID)
	return chunks, nil
}

// createChunkNoPersist installs one chunk without touching the snapshot or
// index; callers batch those effects.
func (s *Service) createChunkNoPersist(documentID uuid.UUID, input ChunkInput) (*store.Chunk, error) {
	id := uuid.New()
	if input.ID != nil {
		id = *input.ID
	}
	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	chunk := &store.Chunk{
		ID:         id,
		DocumentID: documentID,
		Text:       input.Text,
		Embedding:  input.Embedding,
		Metadata:   metadata,
	}
	if err := s.store.CreateChunk(chunk); err != nil {
		return nil, err
	}
	return s.store.GetChunk(id), nil
}

// GetChunk returns one chunk.
func (s *Service) GetChunk(id uuid.UUID) (*store.Chunk, error) {
	chunk := s.store.GetChunk(id)
	if chunk == nil {
		return nil, verrors.Newf(verrors.ErrCodeChunkNotFound, "chunk with ID %s not found", id)
	}
	return chunk, nil
}

// ListChunks returns all chunks.
func (s *Service) ListChunks() []*store.Chunk {
	return s.store.ListChunks()
}

// ListChunksByDocument returns the document's chunks.
func (s *Service) ListChunksByDocument(documentID uuid.UUID) ([]*store.Chunk, error) {
	if s.store.GetDocument(documentID) == nil {
		return nil, verrors.Newf(verrors.ErrCodeDocumentNotFound, "document with ID %s not found", documentID)
	}
	return s.store.ListChunksByDocument(documentID), nil
}

// UpdateChunk applies a partial update from a raw body and invalidates the
// library's index.
func (s *Service) UpdateChunk(id uuid.UUID, body map[string]any) (*store.Chunk, error) {
	patch, err := chunkPatchFromMap(body)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateChunk(id, patch)
	if err != nil {
		return nil, err
	}

	if libraryID, ok := s.store.LibraryIDForDocument(updated.DocumentID); ok {
		s.contentChanged(libraryID)
	}
	return updated, nil
}

// DeleteChunk removes the chunk and invalidates the library's index.
func (s *Service) DeleteChunk(id uuid.UUID) error {
	documentID, ok := s.store.DocumentIDForChunk(id)
	if !ok {
		return verrors.Newf(verrors.ErrCodeChunkNotFound, "chunk with ID %s not found", id)
	}

	if err := s.store.DeleteChunk(id); err != nil {
		return err
	}

	if libraryID, ok := s.store.LibraryIDForDocument(documentID); ok {
		s.contentChanged(libraryID)
	}
	return nil
}
