package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verrors "github.com/vexhq/vexdb/internal/errors"
)

func newLibrary(name string) *Library {
	return &Library{ID: uuid.New(), Name: name, Metadata: map[string]any{}}
}

func newDocument(libID uuid.UUID, name string) *Document {
	return &Document{ID: uuid.New(), LibraryID: libID, Name: name, Metadata: map[string]any{}}
}

func newChunk(docID uuid.UUID, text string) *Chunk {
	return &Chunk{ID: uuid.New(), DocumentID: docID, Text: text, Metadata: map[string]any{}}
}

func TestStore_LibraryCRUD(t *testing.T) {
	s := New()

	// Given a created library
	lib := newLibrary("papers")
	require.NoError(t, s.CreateLibrary(lib))

	// When it is read back
	got := s.GetLibrary(lib.ID)
	require.NotNil(t, got)
	assert.Equal(t, "papers", got.Name)
	assert.False(t, got.IndexStatus.Indexed)

	// Then updates apply and deletion removes it
	name := "articles"
	updated, err := s.UpdateLibrary(lib.ID, LibraryPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "articles", updated.Name)

	require.NoError(t, s.DeleteLibrary(lib.ID))
	assert.Nil(t, s.GetLibrary(lib.ID))
}

func TestStore_CreateLibrary_Validation(t *testing.T) {
	s := New()

	err := s.CreateLibrary(&Library{ID: uuid.New()})
	assert.True(t, verrors.Is(err, verrors.ErrCodeInvalidInput))

	lib := newLibrary("dup")
	require.NoError(t, s.CreateLibrary(lib))
	err = s.CreateLibrary(lib)
	assert.True(t, verrors.Is(err, verrors.ErrCodeDuplicateID))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := New()
	lib := newLibrary("papers")
	lib.Metadata["owner"] = "alice"
	require.NoError(t, s.CreateLibrary(lib))

	// Mutating a returned copy must not affect stored state
	got := s.GetLibrary(lib.ID)
	got.Name = "mutated"
	got.Metadata["owner"] = "mallory"

	fresh := s.GetLibrary(lib.ID)
	assert.Equal(t, "papers", fresh.Name)
	assert.Equal(t, "alice", fresh.Metadata["owner"])
}

func TestStore_DocumentRequiresLibrary(t *testing.T) {
	s := New()

	err := s.CreateDocument(newDocument(uuid.New(), "orphan"))
	assert.True(t, verrors.Is(err, verrors.ErrCodeLibraryNotFound))
}

func TestStore_ChunkRequiresDocument(t *testing.T) {
	s := New()

	err := s.CreateChunk(newChunk(uuid.New(), "text"))
	assert.True(t, verrors.Is(err, verrors.ErrCodeDocumentNotFound))
}

func TestStore_ImmutableParentReferences(t *testing.T) {
	s := New()
	lib := newLibrary("papers")
	require.NoError(t, s.CreateLibrary(lib))
	doc := newDocument(lib.ID, "doc")
	require.NoError(t, s.CreateDocument(doc))
	chunk := newChunk(doc.ID, "text")
	require.NoError(t, s.CreateChunk(chunk))

	// When an update tries to reparent a document or chunk
	otherLib := uuid.New()
	_, err := s.UpdateDocument(doc.ID, DocumentPatch{LibraryID: &otherLib})
	assert.True(t, verrors.Is(err, verrors.ErrCodeImmutableField))

	otherDoc := uuid.New()
	_, err = s.UpdateChunk(chunk.ID, ChunkPatch{DocumentID: &otherDoc})
	assert.True(t, verrors.Is(err, verrors.ErrCodeImmutableField))

	// Then restating the current parent is still allowed
	_, err = s.UpdateDocument(doc.ID, DocumentPatch{LibraryID: &lib.ID})
	assert.NoError(t, err)
}

func TestStore_DeleteLibraryCascades(t *testing.T) {
	s := New()

	// Given a library with two documents and three chunks
	lib := newLibrary("papers")
	require.NoError(t, s.CreateLibrary(lib))
	doc1 := newDocument(lib.ID, "a")
	doc2 := newDocument(lib.ID, "b")
	require.NoError(t, s.CreateDocument(doc1))
	require.NoError(t, s.CreateDocument(doc2))
	c1 := newChunk(doc1.ID, "one")
	c2 := newChunk(doc1.ID, "two")
	c3 := newChunk(doc2.ID, "three")
	for _, c := range []*Chunk{c1, c2, c3} {
		require.NoError(t, s.CreateChunk(c))
	}

	// And an unrelated library that must survive
	other := newLibrary("other")
	require.NoError(t, s.CreateLibrary(other))
	otherDoc := newDocument(other.ID, "keep")
	require.NoError(t, s.CreateDocument(otherDoc))

	// When the library is deleted
	require.NoError(t, s.DeleteLibrary(lib.ID))

	// Then its whole subtree is gone
	assert.Nil(t, s.GetDocument(doc1.ID))
	assert.Nil(t, s.GetDocument(doc2.ID))
	assert.Nil(t, s.GetChunk(c1.ID))
	assert.Nil(t, s.GetChunk(c2.ID))
	assert.Nil(t, s.GetChunk(c3.ID))

	// And the unrelated library is untouched
	assert.NotNil(t, s.GetDocument(otherDoc.ID))

	// And the relationship maps carry no stale entries
	assert.Len(t, s.docToLib, 1)
	assert.Empty(t, s.chunkToDoc)
}

func TestStore_DeleteDocumentCascades(t *testing.T) {
	s := New()
	lib := newLibrary("papers")
	require.NoError(t, s.CreateLibrary(lib))
	doc := newDocument(lib.ID, "doc")
	require.NoError(t, s.CreateDocument(doc))
	chunk := newChunk(doc.ID, "text")
	require.NoError(t, s.CreateChunk(chunk))

	require.NoError(t, s.DeleteDocument(doc.ID))

	assert.Nil(t, s.GetChunk(chunk.ID))
	assert.Empty(t, s.chunkToDoc)
	assert.NotNil(t, s.GetLibrary(lib.ID))
}

func TestStore_ListDocumentsByLibrary(t *testing.T) {
	s := New()
	lib1 := newLibrary("a")
	lib2 := newLibrary("b")
	require.NoError(t, s.CreateLibrary(lib1))
	require.NoError(t, s.CreateLibrary(lib2))

	require.NoError(t, s.CreateDocument(newDocument(lib1.ID, "x")))
	require.NoError(t, s.CreateDocument(newDocument(lib1.ID, "y")))
	require.NoError(t, s.CreateDocument(newDocument(lib2.ID, "z")))

	assert.Len(t, s.ListDocumentsByLibrary(lib1.ID), 2)
	assert.Len(t, s.ListDocumentsByLibrary(lib2.ID), 1)
	assert.Len(t, s.ListDocuments(), 3)
}

func TestStore_ListChunksByDocument(t *testing.T) {
	s := New()
	lib := newLibrary("papers")
	require.NoError(t, s.CreateLibrary(lib))
	doc1 := newDocument(lib.ID, "a")
	doc2 := newDocument(lib.ID, "b")
	require.NoError(t, s.CreateDocument(doc1))
	require.NoError(t, s.CreateDocument(doc2))

	require.NoError(t, s.CreateChunk(newChunk(doc1.ID, "one")))
	require.NoError(t, s.CreateChunk(newChunk(doc1.ID, "two")))
	require.NoError(t, s.CreateChunk(newChunk(doc2.ID, "three")))

	assert.Len(t, s.ListChunksByDocument(doc1.ID), 2)
	assert.Len(t, s.ListChunksByDocument(doc2.ID), 1)
}

func TestStore_UpdateChunkEmbedding(t *testing.T) {
	s := New()
	lib := newLibrary("papers")
	require.NoError(t, s.CreateLibrary(lib))
	doc := newDocument(lib.ID, "doc")
	require.NoError(t, s.CreateDocument(doc))
	chunk := newChunk(doc.ID, "text")
	chunk.Embedding = []float32{1, 2, 3}
	require.NoError(t, s.CreateChunk(chunk))

	// Updating text without SetEmbedding keeps the vector
	text := "new text"
	got, err := s.UpdateChunk(chunk.ID, ChunkPatch{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, got.Embedding)

	// SetEmbedding with nil clears it
	got, err = s.UpdateChunk(chunk.ID, ChunkPatch{SetEmbedding: true})
	require.NoError(t, err)
	assert.Nil(t, got.Embedding)
}

func TestStore_UpdateIndexStatus(t *testing.T) {
	s := New()
	lib := newLibrary("papers")
	require.NoError(t, s.CreateLibrary(lib))

	require.NoError(t, s.UpdateIndexStatus(lib.ID, func(st *IndexStatus) {
		st.IndexingInProgress = true
		st.IndexerKind = IndexerBallTree
	}))

	got := s.GetLibrary(lib.ID)
	assert.True(t, got.IndexStatus.IndexingInProgress)
	assert.Equal(t, IndexerBallTree, got.IndexStatus.IndexerKind)

	err := s.UpdateIndexStatus(uuid.New(), func(st *IndexStatus) {})
	assert.True(t, verrors.Is(err, verrors.ErrCodeLibraryNotFound))
}

func TestStore_ParentResolution(t *testing.T) {
	s := New()
	lib := newLibrary("papers")
	require.NoError(t, s.CreateLibrary(lib))
	doc := newDocument(lib.ID, "doc")
	require.NoError(t, s.CreateDocument(doc))
	chunk := newChunk(doc.ID, "text")
	require.NoError(t, s.CreateChunk(chunk))

	libID, ok := s.LibraryIDForDocument(doc.ID)
	require.True(t, ok)
	assert.Equal(t, lib.ID, libID)

	docID, ok := s.DocumentIDForChunk(chunk.ID)
	require.True(t, ok)
	assert.Equal(t, doc.ID, docID)

	_, ok = s.LibraryIDForDocument(uuid.New())
	assert.False(t, ok)
}
