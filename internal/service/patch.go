package service

import (
	"fmt"

	"github.com/google/uuid"

	verrors "github.com/vexhq/vexdb/internal/errors"
	"github.com/vexhq/vexdb/internal/store"
)

// Patch bodies arrive as raw maps so absent fields can be told apart from
// explicit nulls, and so unknown or read-only fields can be rejected with a
// clear error instead of being silently dropped.

func forbidden(key string) error {
	return verrors.New(verrors.ErrCodeForbiddenField,
		fmt.Sprintf("field %q cannot be set through this endpoint", key), nil)
}

func asString(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", verrors.Validation(fmt.Sprintf("field %q must be a string", key))
	}
	return s, nil
}

func asMetadata(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, verrors.Validation("field \"metadata\" must be an object")
	}
	return m, nil
}

func asUUID(key string, v any) (uuid.UUID, error) {
	s, err := asString(key, v)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, verrors.Validation(fmt.Sprintf("field %q is not a valid UUID", key))
	}
	return id, nil
}

// libraryPatchFromMap converts a raw update body. Only name and metadata are
// writable on a library.
func libraryPatchFromMap(body map[string]any) (store.LibraryPatch, error) {
	var patch store.LibraryPatch
	for key, value := range body {
		switch key {
		case "name":
			name, err := asString(key, value)
			if err != nil {
				return patch, err
			}
			patch.Name = &name
		case "metadata":
			meta, err := asMetadata(value)
			if err != nil {
				return patch, err
			}
			patch.Metadata = meta
		default:
			return patch, forbidden(key)
		}
	}
	return patch, nil
}

// documentPatchFromMap converts a raw update body. library_id is accepted
// only so the store can verify it matches the current parent.
func documentPatchFromMap(body map[string]any) (store.DocumentPatch, error) {
	var patch store.DocumentPatch
	for key, value := range body {
		switch key {
		case "name":
			name, err := asString(key, value)
			if err != nil {
				return patch, err
			}
			patch.Name = &name
		case "metadata":
			meta, err := asMetadata(value)
			if err != nil {
				return patch, err
			}
			patch.Metadata = meta
		case "library_id":
			id, err := asUUID(key, value)
			if err != nil {
				return patch, err
			}
			patch.LibraryID = &id
		default:
			return patch, forbidden(key)
		}
	}
	return patch, nil
}

// chunkPatchFromMap converts a raw update body. Embeddings can be supplied
// at create time but not patched afterwards; a text change clears any
// stored embedding.
func chunkPatchFromMap(body map[string]any) (store.ChunkPatch, error) {
	var patch store.ChunkPatch
	for key, value := range body {
		switch key {
		case "text":
			text, err := asString(key, value)
			if err != nil {
				return patch, err
			}
			if text == "" {
				return patch, verrors.Validation("chunk text must not be empty")
			}
			patch.Text = &text
			patch.SetEmbedding = true
		case "metadata":
			meta, err := asMetadata(value)
			if err != nil {
				return patch, err
			}
			patch.Metadata = meta
		case "document_id":
			id, err := asUUID(key, value)
			if err != nil {
				return patch, err
			}
			patch.DocumentID = &id
		default:
			return patch, forbidden(key)
		}
	}
	return patch, nil
}
