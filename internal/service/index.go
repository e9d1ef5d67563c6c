package service

import (
	"context"

	"github.com/google/uuid"

	verrors "github.com/vexhq/vexdb/internal/errors"
	"github.com/vexhq/vexdb/internal/index"
	"github.com/vexhq/vexdb/internal/store"
)

// Search paging bounds.
const (
	DefaultTopK = 5
	MaxTopK     = 100
)

// BuildIndexRequest is the input for starting an index build. LeafSize
// applies to the ball tree, M and EfSearch to HNSW; zeros take defaults.
type BuildIndexRequest struct {
	IndexerKind store.IndexerKind `json:"indexer_type"`
	LeafSize    int               `json:"leaf_size"`
	M           int               `json:"m"`
	EfSearch    int               `json:"ef_search"`
}

// IndexStatusResponse is the library's index status plus a description of
// the live index, when one exists. Accepted describes the parameters of a
// build that was just started.
type IndexStatusResponse struct {
	LibraryID uuid.UUID         `json:"library_id"`
	Status    store.IndexStatus `json:"status"`
	Index     map[string]any    `json:"index,omitempty"`
	Accepted  map[string]any    `json:"accepted,omitempty"`
}

// SearchResultDocument is the parent document rendered inside a search hit.
type SearchResultDocument struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

// SearchResult is one search hit.
type SearchResult struct {
	ChunkID  uuid.UUID            `json:"chunk_id"`
	Text     string               `json:"text"`
	Score    float32              `json:"score"`
	Metadata map[string]any       `json:"metadata"`
	Document SearchResultDocument `json:"document"`
}

// BuildIndex starts an asynchronous index build and returns the status as of
// the kick-off.
func (s *Service) BuildIndex(libraryID uuid.UUID, req BuildIndexRequest) (*IndexStatusResponse, error) {
	build := index.BuildRequest{
		Kind:     req.IndexerKind,
		LeafSize: req.LeafSize,
		M:        req.M,
		EfSearch: req.EfSearch,
	}
	status, err := s.indexes.StartBuild(libraryID, build)
	if err != nil {
		return nil, err
	}

	resolved := build.WithDefaults()
	accepted := map[string]any{"kind": string(resolved.Kind)}
	switch resolved.Kind {
	case store.IndexerBallTree:
		accepted["leaf_size"] = resolved.LeafSize
	case store.IndexerHNSW:
		accepted["m"] = resolved.M
		accepted["ef_search"] = resolved.EfSearch
	}

	return &IndexStatusResponse{LibraryID: libraryID, Status: status, Accepted: accepted}, nil
}

// IndexStatus returns the library's current index status.
func (s *Service) IndexStatus(libraryID uuid.UUID) (*IndexStatusResponse, error) {
	lib := s.store.GetLibrary(libraryID)
	if lib == nil {
		return nil, verrors.Newf(verrors.ErrCodeLibraryNotFound, "library with ID %s not found", libraryID)
	}
	return &IndexStatusResponse{
		LibraryID: libraryID,
		Status:    lib.IndexStatus,
		Index:     s.indexes.Describe(libraryID),
	}, nil
}

// Search runs a nearest-neighbor query against the library's index.
// A topK of zero returns an empty result list; values above MaxTopK are
// rejected. The HTTP layer substitutes DefaultTopK when top_k is absent.
func (s *Service) Search(ctx context.Context, libraryID uuid.UUID, queryText string, topK int) ([]SearchResult, error) {
	if queryText == "" {
		return nil, verrors.Validation("query_text must not be empty")
	}
	if topK < 0 || topK > MaxTopK {
		return nil, verrors.Validation("top_k must be between 0 and 100")
	}

	hits, err := s.indexes.Search(ctx, libraryID, queryText, topK)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		doc := SearchResultDocument{
			ID:   hit.Ref.DocumentID,
			Name: hit.Ref.DocumentName,
		}
		// Document metadata may have changed since the build; prefer live data.
		if live := s.store.GetDocument(hit.Ref.DocumentID); live != nil {
			doc.Name = live.Name
			doc.Metadata = live.Metadata
		}

		results = append(results, SearchResult{
			ChunkID:  hit.Ref.ChunkID,
			Text:     hit.Ref.Text,
			Score:    hit.Score,
			Metadata: hit.Ref.Metadata,
			Document: doc,
		})
	}
	return results, nil
}
