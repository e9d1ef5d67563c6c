package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vexhq/vexdb/internal/service"
)

func (s *Server) handleCreateChunk(w http.ResponseWriter, r *http.Request) {
	var req service.CreateChunkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	chunk, err := s.svc.CreateChunk(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chunk)
}

// batchCreateRequest is the body of POST /api/chunks/batch.
type batchCreateRequest struct {
	DocumentID uuid.UUID            `json:"document_id"`
	Chunks     []service.ChunkInput `json:"chunks"`
}

func (s *Server) handleCreateChunksBatch(w http.ResponseWriter, r *http.Request) {
	var req batchCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	chunks, err := s.svc.CreateChunks(req.DocumentID, req.Chunks)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chunks)
}

func (s *Server) handleListChunks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ListChunks())
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	chunk, err := s.svc.GetChunk(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (s *Server) handleUpdateChunk(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	chunk, err := s.svc.UpdateChunk(id, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

func (s *Server) handleDeleteChunk(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.svc.DeleteChunk(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListChunksByDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	chunks, err := s.svc.ListChunksByDocument(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chunks)
}
