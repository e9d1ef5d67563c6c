// Package bootstrap prepares the data directory at startup: it takes the
// cross-process lock, loads persisted library snapshots, and applies the
// optional seed file.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/vexhq/vexdb/internal/config"
	"github.com/vexhq/vexdb/internal/store"
)

// lockFileName is the data directory lock file. Holding it prevents two
// server processes from writing the same snapshot files.
const lockFileName = ".vexdb.lock"

// loadConcurrency bounds parallel snapshot parsing at startup.
const loadConcurrency = 4

// Handle owns the data directory lock for the life of the process.
type Handle struct {
	lock *flock.Flock

	// LibrariesLoaded counts the snapshots restored at startup.
	LibrariesLoaded int
}

// Release gives up the data directory lock.
func (h *Handle) Release() error {
	if h.lock == nil {
		return nil
	}
	return h.lock.Unlock()
}

// Run prepares the data directory, restores snapshots into the store, and
// loads the configured seed file. It fails fast when another process holds
// the directory lock.
func Run(cfg *config.Config, st *store.Store, snaps *store.SnapshotStore, logger *slog.Logger) (*Handle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dataDir := cfg.Storage.DataDir
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFileName))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire data directory lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("data directory %s is locked by another process", dataDir)
	}

	handle := &Handle{lock: lock}

	loaded, err := loadSnapshots(dataDir, snaps, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	handle.LibrariesLoaded = loaded

	if cfg.Storage.SeedFile != "" {
		if libID, err := snaps.LoadFile(cfg.Storage.SeedFile); err != nil {
			logger.Warn("failed to load seed file",
				slog.String("file", cfg.Storage.SeedFile),
				slog.String("error", err.Error()))
		} else {
			logger.Info("seed file loaded",
				slog.String("file", cfg.Storage.SeedFile),
				slog.String("library_id", libID.String()))
			handle.LibrariesLoaded++
			// Persist the seeded library so it survives restarts.
			if err := snaps.Save(libID); err != nil {
				logger.Warn("failed to persist seeded library",
					slog.String("library_id", libID.String()),
					slog.String("error", err.Error()))
			}
		}
	}

	logger.Info("bootstrap complete",
		slog.String("data_dir", dataDir),
		slog.Int("libraries", handle.LibrariesLoaded))
	return handle, nil
}

// loadSnapshots restores every library_*.json file in parallel. A corrupt
// snapshot is logged and skipped so one bad file does not block startup.
func loadSnapshots(dataDir string, snaps *store.SnapshotStore, logger *slog.Logger) (int, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read data directory: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(loadConcurrency)

	var loaded atomic.Int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "library_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		g.Go(func() error {
			libID, err := snaps.LoadFile(filepath.Join(dataDir, name))
			if err != nil {
				logger.Warn("failed to load snapshot",
					slog.String("file", name),
					slog.String("error", err.Error()))
				return nil
			}
			logger.Debug("snapshot loaded",
				slog.String("file", name),
				slog.String("library_id", libID.String()))
			loaded.Add(1)
			return nil
		})
	}

	_ = g.Wait()
	return int(loaded.Load()), nil
}
