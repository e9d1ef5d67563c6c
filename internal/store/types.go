// Package store holds the in-memory library/document/chunk hierarchy and
// its per-library JSON snapshots. This is the single source of truth for
// all entity state.
package store

import (
	"time"

	"github.com/google/uuid"
)

// IndexerKind identifies a vector index implementation.
type IndexerKind string

const (
	// IndexerBruteForce is the exact cosine-similarity linear scan.
	IndexerBruteForce IndexerKind = "BRUTE_FORCE"
	// IndexerBallTree is the exact euclidean ball-tree index.
	IndexerBallTree IndexerKind = "BALL_TREE"
	// IndexerHNSW is the approximate HNSW graph index.
	IndexerHNSW IndexerKind = "HNSW"
)

// ValidIndexerKind reports whether k names a known indexer.
func ValidIndexerKind(k IndexerKind) bool {
	switch k {
	case IndexerBruteForce, IndexerBallTree, IndexerHNSW:
		return true
	}
	return false
}

// IndexStatus tracks a library's index lifecycle.
// IndexerKind and LastIndexed survive invalidation so callers can see what
// the library was last indexed with.
type IndexStatus struct {
	Indexed            bool        `json:"indexed"`
	IndexerKind        IndexerKind `json:"indexer_kind,omitempty"`
	LastIndexed        *time.Time  `json:"last_indexed,omitempty"`
	IndexingInProgress bool        `json:"indexing_in_progress"`
}

// Library is the top level of the content hierarchy.
type Library struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Metadata    map[string]any `json:"metadata"`
	IndexStatus IndexStatus    `json:"index_status"`
}

// Document belongs to exactly one library. LibraryID is immutable once set.
type Document struct {
	ID        uuid.UUID      `json:"id"`
	LibraryID uuid.UUID      `json:"library_id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata"`
}

// Chunk is a unit of text with an optional embedding vector.
// DocumentID is immutable once set. Embeddings are transient: they are never
// written to snapshots and are recomputed during index builds.
type Chunk struct {
	ID         uuid.UUID      `json:"id"`
	DocumentID uuid.UUID      `json:"document_id"`
	Text       string         `json:"text"`
	Embedding  []float32      `json:"embedding,omitempty"`
	Metadata   map[string]any `json:"metadata"`
}

// Clone returns a deep copy so callers cannot mutate store state by reference.
func (l *Library) Clone() *Library {
	if l == nil {
		return nil
	}
	out := *l
	out.Metadata = cloneMetadata(l.Metadata)
	if l.IndexStatus.LastIndexed != nil {
		ts := *l.IndexStatus.LastIndexed
		out.IndexStatus.LastIndexed = &ts
	}
	return &out
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Metadata = cloneMetadata(d.Metadata)
	return &out
}

// Clone returns a deep copy of the chunk, including its embedding.
func (c *Chunk) Clone() *Chunk {
	if c == nil {
		return nil
	}
	out := *c
	out.Metadata = cloneMetadata(c.Metadata)
	if c.Embedding != nil {
		out.Embedding = make([]float32, len(c.Embedding))
		copy(out.Embedding, c.Embedding)
	}
	return &out
}

// cloneMetadata copies one level of metadata. Values are treated as opaque;
// nested mutable values arriving via JSON decoding are fresh allocations
// already owned by the entity.
func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// LibraryPatch is a partial library update. Nil fields are left unchanged.
type LibraryPatch struct {
	Name     *string
	Metadata map[string]any
}

// DocumentPatch is a partial document update. A non-nil LibraryID is only
// accepted when it matches the current value.
type DocumentPatch struct {
	LibraryID *uuid.UUID
	Name      *string
	Metadata  map[string]any
}

// ChunkPatch is a partial chunk update. A non-nil DocumentID is only
// accepted when it matches the current value. SetEmbedding distinguishes
// "clear the embedding" from "leave it alone".
type ChunkPatch struct {
	DocumentID   *uuid.UUID
	Text         *string
	Embedding    []float32
	SetEmbedding bool
	Metadata     map[string]any
}
