package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		status   int
	}{
		{ErrCodeInvalidInput, CategoryValidation, http.StatusBadRequest},
		{ErrCodeImmutableField, CategoryValidation, http.StatusBadRequest},
		{ErrCodeLibraryNotFound, CategoryNotFound, http.StatusNotFound},
		{ErrCodeNotIndexed, CategoryConflict, http.StatusConflict},
		{ErrCodeEmbeddingFailed, CategoryUpstream, http.StatusBadGateway},
		{ErrCodeInternal, CategoryInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.status, err.HTTPStatus())
		})
	}
}

func TestError_Is_MatchesByCode(t *testing.T) {
	a := New(ErrCodeLibraryNotFound, "library x not found", nil)
	b := New(ErrCodeLibraryNotFound, "different message", nil)
	c := New(ErrCodeChunkNotFound, "chunk missing", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeEmbeddingFailed, cause)

	require.NotNil(t, err)
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestHTTPStatus_PlainError(t *testing.T) {
	// Plain errors that carry no code map to 500.
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("oops")))
}

func TestHTTPStatus_WrappedInChain(t *testing.T) {
	inner := Conflict(ErrCodeIndexingInProgress, "library is being indexed")
	outer := fmt.Errorf("search failed: %w", inner)

	assert.Equal(t, http.StatusConflict, HTTPStatus(outer))
	assert.Equal(t, CategoryConflict, GetCategory(outer))
}
