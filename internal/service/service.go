// Package service implements the application operations behind the HTTP
// API: entity CRUD with snapshot persistence, index lifecycle, and search.
package service

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/vexhq/vexdb/internal/index"
	"github.com/vexhq/vexdb/internal/store"
)

// Service coordinates the store, snapshot persistence, and index manager.
// Snapshot writes happen after the in-memory mutation and are best-effort;
// a failed write is logged and the API call still succeeds.
type Service struct {
	store     *store.Store
	snapshots *store.SnapshotStore
	indexes   *index.Manager
	logger    *slog.Logger
}

// New creates a service.
func New(st *store.Store, snapshots *store.SnapshotStore, indexes *index.Manager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		snapshots: snapshots,
		indexes:   indexes,
		logger:    logger,
	}
}

// persist writes the library's snapshot, logging failures instead of
// surfacing them to the API caller.
func (s *Service) persist(libraryID uuid.UUID) {
	if err := s.snapshots.Save(libraryID); err != nil {
		s.logger.Warn("failed to persist snapshot",
			slog.String("library_id", libraryID.String()),
			slog.String("error", err.Error()))
	}
}

// contentChanged invalidates the library's index and refreshes its snapshot
// after a document or chunk mutation.
func (s *Service) contentChanged(libraryID uuid.UUID) {
	s.indexes.Invalidate(libraryID)
	s.persist(libraryID)
}
