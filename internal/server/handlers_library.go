package server

import (
	"net/http"
	"strconv"

	"github.com/vexhq/vexdb/internal/service"
)

func (s *Server) handleCreateLibrary(w http.ResponseWriter, r *http.Request) {
	var req service.CreateLibraryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	lib, err := s.svc.CreateLibrary(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lib)
}

func (s *Server) handleListLibraries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ListLibraries())
}

func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	lib, err := s.svc.GetLibrary(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *Server) handleUpdateLibrary(w http.ResponseWriter, r *http.Request) {
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

	lib, err := s.svc.UpdateLibrary(id, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *Server) handleDeleteLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.svc.DeleteLibrary(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBuildIndex(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// An empty body requests the default indexer.
	var req service.BuildIndexRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	status, err := s.svc.BuildIndex(id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	status, err := s.svc.IndexStatus(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	queryText := r.URL.Query().Get("query_text")
	topK := service.DefaultTopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		topK, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, errInvalidTopK)
			return
		}
	}

	results, err := s.svc.Search(r.Context(), id, queryText, topK)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
