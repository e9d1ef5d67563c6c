package store

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	verrors "github.com/vexhq/vexdb/internal/errors"
)

// Store is the thread-safe in-memory database for the three-level
// library/document/chunk hierarchy.
//
// Each entity kind has its own mutex; its relationship map is guarded by the
// child's mutex. When an operation needs more than one lock they are always
// acquired in the fixed order library -> document -> chunk. Locks are never
// held across embedder or disk I/O.
type Store struct {
	libraryMu  sync.RWMutex
	documentMu sync.RWMutex
	chunkMu    sync.RWMutex

	libraries map[uuid.UUID]*Library
	documents map[uuid.UUID]*Document
	chunks    map[uuid.UUID]*Chunk

	docToLib   map[uuid.UUID]uuid.UUID // document_id -> library_id
	chunkToDoc map[uuid.UUID]uuid.UUID // chunk_id -> document_id
}

// New creates an empty store.
func New() *Store {
	return &Store{
		libraries:  make(map[uuid.UUID]*Library),
		documents:  make(map[uuid.UUID]*Document),
		chunks:     make(map[uuid.UUID]*Chunk),
		docToLib:   make(map[uuid.UUID]uuid.UUID),
		chunkToDoc: make(map[uuid.UUID]uuid.UUID),
	}
}

// ---- libraries ----

// CreateLibrary installs a new library. Fails on ID collision.
func (s *Store) CreateLibrary(lib *Library) error {
	if lib.Name == "" {
		return verrors.Validation("library name must not be empty")
	}

	s.libraryMu.Lock()
	defer s.libraryMu.Unlock()

	if _, exists := s.libraries[lib.ID]; exists {
		return verrors.Newf(verrors.ErrCodeDuplicateID, "library with ID %s already exists", lib.ID)
	}
	s.libraries[lib.ID] = lib.Clone()
	return nil
}

// GetLibrary returns a deep copy of the library, or nil if absent.
func (s *Store) GetLibrary(id uuid.UUID) *Library {
	s.libraryMu.RLock()
	defer s.libraryMu.RUnlock()
	return s.libraries[id].Clone()
}

// ListLibraries returns copies of all libraries, ordered by name then ID
// for deterministic output.
func (s *Store) ListLibraries() []*Library {
	s.libraryMu.RLock()
	defer s.libraryMu.RUnlock()

	out := make([]*Library, 0, len(s.libraries))
	for _, lib := range s.libraries {
		out = append(out, lib.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// UpdateLibrary applies a partial update and returns the updated copy.
func (s *Store) UpdateLibrary(id uuid.UUID, patch LibraryPatch) (*Library, error) {
	s.libraryMu.Lock()
	defer s.libraryMu.Unlock()

	lib, ok := s.libraries[id]
	if !ok {
		return nil, verrors.Newf(verrors.ErrCodeLibraryNotFound, "library with ID %s not found", id)
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, verrors.Validation("library name must not be empty")
		}
		lib.Name = *patch.Name
	}
	if patch.Metadata != nil {
		lib.Metadata = cloneMetadata(patch.Metadata)
	}
	return lib.Clone(), nil
}

// UpdateIndexStatus mutates a library's index status under the library lock.
func (s *Store) UpdateIndexStatus(id uuid.UUID, fn func(*IndexStatus)) error {
	s.libraryMu.Lock()
	defer s.libraryMu.Unlock()

	lib, ok := s.libraries[id]
	if !ok {
		return verrors.Newf(verrors.ErrCodeLibraryNotFound, "library with ID %s not found", id)
	}
	fn(&lib.IndexStatus)
	return nil
}

// DeleteLibrary removes a library and cascades to its documents and chunks.
// All three locks are held for the duration of the cascade so no concurrent
// create can attach a child to the vanishing subtree.
func (s *Store) DeleteLibrary(id uuid.UUID) error {
	s.libraryMu.Lock()
	defer s.libraryMu.Unlock()

	if _, ok := s.libraries[id]; !ok {
		return verrors.Newf(verrors.ErrCodeLibraryNotFound, "library with ID %s not found", id)
	}
	delete(s.libraries, id)

	s.documentMu.Lock()
	defer s.documentMu.Unlock()

	var docIDs []uuid.UUID
	for docID, libID := range s.docToLib {
		if libID == id {
			docIDs = append(docIDs, docID)
		}
	}
	for _, docID := range docIDs {
		delete(s.documents, docID)
		delete(s.docToLib, docID)
	}

	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()
	s.deleteChunksOfDocumentsLocked(docIDs)

	return nil
}

// ---- documents ----

// CreateDocument installs a new document. Fails if the ID collides or the
// parent library does not exist. The library read lock is held across the
// install so a concurrent library delete cannot orphan the document.
func (s *Store) CreateDocument(doc *Document) error {
	s.libraryMu.RLock()
	defer s.libraryMu.RUnlock()

	if _, ok := s.libraries[doc.LibraryID]; !ok {
		return verrors.Newf(verrors.ErrCodeLibraryNotFound, "library with ID %s does not exist", doc.LibraryID)
	}

	s.documentMu.Lock()
	defer s.documentMu.Unlock()

	if _, exists := s.documents[doc.ID]; exists {
		return verrors.Newf(verrors.ErrCodeDuplicateID, "document with ID %s already exists", doc.ID)
	}
	s.documents[doc.ID] = doc.Clone()
	s.docToLib[doc.ID] = doc.LibraryID
	return nil
}

// GetDocument returns a deep copy of the document, or nil if absent.
func (s *Store) GetDocument(id uuid.UUID) *Document {
	s.documentMu.RLock()
	defer s.documentMu.RUnlock()
	return s.documents[id].Clone()
}

// ListDocuments returns copies of all documents.
func (s *Store) ListDocuments() []*Document {
	s.documentMu.RLock()
	defer s.documentMu.RUnlock()

	out := make([]*Document, 0, len(s.documents))
	for _, doc := range s.documents {
		out = append(out, doc.Clone())
	}
	sortDocuments(out)
	return out
}

// ListDocumentsByLibrary returns copies of the library's documents.
func (s *Store) ListDocumentsByLibrary(libraryID uuid.UUID) []*Document {
	s.documentMu.RLock()
	defer s.documentMu.RUnlock()

	var out []*Document
	for docID, libID := range s.docToLib {
		if libID != libraryID {
			continue
		}
		if doc, ok := s.documents[docID]; ok {
			out = append(out, doc.Clone())
		}
	}
	sortDocuments(out)
	return out
}

// UpdateDocument applies a partial update. Changing library_id is rejected.
func (s *Store) UpdateDocument(id uuid.UUID, patch DocumentPatch) (*Document, error) {
	s.documentMu.Lock()
	defer s.documentMu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, verrors.Newf(verrors.ErrCodeDocumentNotFound, "document with ID %s not found", id)
	}

	if patch.LibraryID != nil && *patch.LibraryID != doc.LibraryID {
		return nil, verrors.New(verrors.ErrCodeImmutableField, "Cannot change library_id of an existing document", nil)
	}
	if patch.Name != nil {
		doc.Name = *patch.Name
	}
	if patch.Metadata != nil {
		doc.Metadata = cloneMetadata(patch.Metadata)
	}
	return doc.Clone(), nil
}

// DeleteDocument removes a document and cascades to its chunks.
func (s *Store) DeleteDocument(id uuid.UUID) error {
	s.documentMu.Lock()
	defer s.documentMu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return verrors.Newf(verrors.ErrCodeDocumentNotFound, "document with ID %s not found", id)
	}
	delete(s.documents, id)
	delete(s.docToLib, id)

	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()
	s.deleteChunksOfDocumentsLocked([]uuid.UUID{id})

	return nil
}

// LibraryIDForDocument resolves a document's parent library.
func (s *Store) LibraryIDForDocument(docID uuid.UUID) (uuid.UUID, bool) {
	s.documentMu.RLock()
	defer s.documentMu.RUnlock()
	libID, ok := s.docToLib[docID]
	return libID, ok
}

// ---- chunks ----

// CreateChunk installs a new chunk. Fails if the ID collides or the parent
// document does not exist.
func (s *Store) CreateChunk(chunk *Chunk) error {
	s.documentMu.RLock()
	defer s.documentMu.RUnlock()

	if _, ok := s.documents[chunk.DocumentID]; !ok {
		return verrors.Newf(verrors.ErrCodeDocumentNotFound, "document with ID %s does not exist", chunk.DocumentID)
	}

	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()

	if _, exists := s.chunks[chunk.ID]; exists {
		return verrors.Newf(verrors.ErrCodeDuplicateID, "chunk with ID %s already exists", chunk.ID)
	}
	s.chunks[chunk.ID] = chunk.Clone()
	s.chunkToDoc[chunk.ID] = chunk.DocumentID
	return nil
}

// GetChunk returns a deep copy of the chunk, or nil if absent.
func (s *Store) GetChunk(id uuid.UUID) *Chunk {
	s.chunkMu.RLock()
	defer s.chunkMu.RUnlock()
	return s.chunks[id].Clone()
}

// ListChunks returns copies of all chunks.
func (s *Store) ListChunks() []*Chunk {
	s.chunkMu.RLock()
	defer s.chunkMu.RUnlock()

	out := make([]*Chunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		out = append(out, chunk.Clone())
	}
	sortChunks(out)
	return out
}

// ListChunksByDocument returns copies of the document's chunks.
func (s *Store) ListChunksByDocument(documentID uuid.UUID) []*Chunk {
	s.chunkMu.RLock()
	defer s.chunkMu.RUnlock()

	var out []*Chunk
	for chunkID, docID := range s.chunkToDoc {
		if docID != documentID {
			continue
		}
		if chunk, ok := s.chunks[chunkID]; ok {
			out = append(out, chunk.Clone())
		}
	}
	sortChunks(out)
	return out
}

// UpdateChunk applies a partial update. Changing document_id is rejected.
func (s *Store) UpdateChunk(id uuid.UUID, patch ChunkPatch) (*Chunk, error) {
	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()

	chunk, ok := s.chunks[id]
	if !ok {
		return nil, verrors.Newf(verrors.ErrCodeChunkNotFound, "chunk with ID %s not found", id)
	}

	if patch.DocumentID != nil && *patch.DocumentID != chunk.DocumentID {
		return nil, verrors.New(verrors.ErrCodeImmutableField, "Cannot change document_id of an existing chunk", nil)
	}
	if patch.Text != nil {
		chunk.Text = *patch.Text
	}
	if patch.SetEmbedding {
		if patch.Embedding == nil {
			chunk.Embedding = nil
		} else {
			chunk.Embedding = make([]float32, len(patch.Embedding))
			copy(chunk.Embedding, patch.Embedding)
		}
	}
	if patch.Metadata != nil {
		chunk.Metadata = cloneMetadata(patch.Metadata)
	}
	return chunk.Clone(), nil
}

// DeleteChunk removes a single chunk.
func (s *Store) DeleteChunk(id uuid.UUID) error {
	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()

	if _, ok := s.chunks[id]; !ok {
		return verrors.Newf(verrors.ErrCodeChunkNotFound, "chunk with ID %s not found", id)
	}
	delete(s.chunks, id)
	delete(s.chunkToDoc, id)
	return nil
}

// DocumentIDForChunk resolves a chunk's parent document.
func (s *Store) DocumentIDForChunk(chunkID uuid.UUID) (uuid.UUID, bool) {
	s.chunkMu.RLock()
	defer s.chunkMu.RUnlock()
	docID, ok := s.chunkToDoc[chunkID]
	return docID, ok
}

// deleteChunksOfDocumentsLocked removes every chunk owned by the given
// documents. Caller must hold chunkMu.
func (s *Store) deleteChunksOfDocumentsLocked(docIDs []uuid.UUID) {
	if len(docIDs) == 0 {
		return
	}
	owned := make(map[uuid.UUID]bool, len(docIDs))
	for _, id := range docIDs {
		owned[id] = true
	}

	var chunkIDs []uuid.UUID
	for chunkID, docID := range s.chunkToDoc {
		if owned[docID] {
			chunkIDs = append(chunkIDs, chunkID)
		}
	}
	for _, chunkID := range chunkIDs {
		delete(s.chunks, chunkID)
		delete(s.chunkToDoc, chunkID)
	}
}

func sortDocuments(docs []*Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Name != docs[j].Name {
			return docs[i].Name < docs[j].Name
		}
		return docs[i].ID.String() < docs[j].ID.String()
	})
}

func sortChunks(chunks []*Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ID.String() < chunks[j].ID.String()
	})
}
