package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCohere serves the embed API shape with canned 3-dimensional vectors.
func fakeCohere(t *testing.T, check func(r *http.Request, req cohereRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req cohereRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if check != nil {
			check(r, req)
		}

		embeddings := make([][]float64, len(req.Texts))
		for i := range req.Texts {
			embeddings[i] = []float64{float64(i) + 0.1, 0.2, 0.3}
		}
		_ = json.NewEncoder(w).Encode(cohereResponse{Embeddings: embeddings})
	}))
}

func TestCohereEmbedder_RequestShape(t *testing.T) {
	var gotAuth string
	var gotReq cohereRequest
	srv := fakeCohere(t, func(r *http.Request, req cohereRequest) {
		gotAuth = r.Header.Get("Authorization")
		gotReq = req
	})
	defer srv.Close()

	e, err := NewCohereEmbedder(CohereConfig{APIKey: "test-key", URL: srv.URL})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	vec, err := e.Embed(context.Background(), "hello world", InputSearchQuery)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, []string{"hello world"}, gotReq.Texts)
	assert.Equal(t, DefaultCohereModel, gotReq.Model)
	assert.Equal(t, "END", gotReq.Truncate)
	assert.Equal(t, "search_query", gotReq.InputType)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 3, e.Dimensions())
}

func TestCohereEmbedder_BatchSplitting(t *testing.T) {
	var calls atomic.Int32
	srv := fakeCohere(t, func(r *http.Request, req cohereRequest) {
		calls.Add(1)
		assert.LessOrEqual(t, len(req.Texts), 2)
	})
	defer srv.Close()

	e, err := NewCohereEmbedder(CohereConfig{APIKey: "k", URL: srv.URL, BatchSize: 2})
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c", "d", "e"}, InputSearchDocument)
	require.NoError(t, err)
	assert.Len(t, vecs, 5)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCohereEmbedder_EmptyTextSkipsAPI(t *testing.T) {
	srv := fakeCohere(t, func(r *http.Request, req cohereRequest) {
		for _, text := range req.Texts {
			assert.NotEmpty(t, text)
		}
	})
	defer srv.Close()

	e, err := NewCohereEmbedder(CohereConfig{APIKey: "k", URL: srv.URL})
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), []string{"real", "  "}, InputSearchDocument)
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.NotEmpty(t, vecs[0])
}

func TestCohereEmbedder_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(cohereResponse{Embeddings: [][]float64{{1, 0}}})
	}))
	defer srv.Close()

	e, err := NewCohereEmbedder(CohereConfig{APIKey: "k", URL: srv.URL, MaxRetries: 3})
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "text", InputSearchDocument)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCohereEmbedder_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e, err := NewCohereEmbedder(CohereConfig{APIKey: "k", URL: srv.URL, MaxRetries: 2, Timeout: time.Second})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "text", InputSearchDocument)
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewCohereEmbedder_RequiresAPIKey(t *testing.T) {
	_, err := NewCohereEmbedder(CohereConfig{})
	assert.Error(t, err)
}
