// Package errors provides structured error handling for VexDB.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Validation errors
//   - 2XX: Not-found errors
//   - 3XX: Conflict / precondition errors
//   - 4XX: Upstream (embedding provider) errors
//   - 5XX: Internal errors
package errors

import "net/http"

// Category defines error categories for classification.
type Category string

const (
	// CategoryValidation indicates malformed or forbidden input.
	CategoryValidation Category = "VALIDATION"
	// CategoryNotFound indicates a missing entity.
	CategoryNotFound Category = "NOT_FOUND"
	// CategoryConflict indicates a precondition failure (not indexed, build in flight).
	CategoryConflict Category = "CONFLICT"
	// CategoryUpstream indicates an embedding provider failure.
	CategoryUpstream Category = "UPSTREAM"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Validation errors (100-199)
	ErrCodeInvalidInput   = "ERR_101_INVALID_INPUT"
	ErrCodeImmutableField = "ERR_102_IMMUTABLE_FIELD"
	ErrCodeForbiddenField = "ERR_103_FORBIDDEN_FIELD"
	ErrCodeDuplicateID    = "ERR_104_DUPLICATE_ID"

	// Not-found errors (200-299)
	ErrCodeLibraryNotFound  = "ERR_201_LIBRARY_NOT_FOUND"
	ErrCodeDocumentNotFound = "ERR_202_DOCUMENT_NOT_FOUND"
	ErrCodeChunkNotFound    = "ERR_203_CHUNK_NOT_FOUND"

	// Conflict errors (300-399)
	ErrCodeNotIndexed         = "ERR_301_NOT_INDEXED"
	ErrCodeIndexingInProgress = "ERR_302_INDEXING_IN_PROGRESS"

	// Upstream errors (400-499)
	ErrCodeEmbeddingFailed = "ERR_401_EMBEDDING_FAILED"

	// Internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeSnapshotFailed = "ERR_502_SNAPSHOT_FAILED"
	ErrCodeIndexFailed    = "ERR_503_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryValidation
	case '2':
		return CategoryNotFound
	case '3':
		return CategoryConflict
	case '4':
		return CategoryUpstream
	default:
		return CategoryInternal
	}
}

// httpStatusForCategory maps error categories to HTTP status codes.
func httpStatusForCategory(cat Category) int {
	switch cat {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryConflict:
		return http.StatusConflict
	case CategoryUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
