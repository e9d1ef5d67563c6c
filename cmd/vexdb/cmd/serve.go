package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vexhq/vexdb/internal/bootstrap"
	"github.com/vexhq/vexdb/internal/config"
	"github.com/vexhq/vexdb/internal/embed"
	"github.com/vexhq/vexdb/internal/index"
	"github.com/vexhq/vexdb/internal/logging"
	"github.com/vexhq/vexdb/internal/server"
	"github.com/vexhq/vexdb/internal/service"
	"github.com/vexhq/vexdb/internal/store"
	"github.com/vexhq/vexdb/pkg/version"
)

// serveOptions are the flags shared between the root command's default
// action and the explicit serve subcommand.
type serveOptions struct {
	configFile string
	addr       string
	dataDir    string
	debug      bool
}

// newServeCmd creates the serve command.
func newServeCmd(opts *serveOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the VexDB HTTP server.

Persisted library snapshots are restored from the data directory before
the server starts accepting requests. The server stops gracefully on
SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Snapshot directory (overrides config)")

	return cmd
}

// runServe wires the full server stack and blocks until shutdown.
func runServe(ctx context.Context, opts *serveOptions) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.dataDir != "" {
		cfg.Storage.DataDir = opts.dataDir
	}
	if opts.debug {
		cfg.Logging.Level = "debug"
	}

	logger, loggingCleanup, err := logging.Setup(logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.FilePath,
		WriteToStderr: true,
	})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer loggingCleanup()
	slog.SetDefault(logger)

	logger.Info("vexdb starting",
		slog.String("version", version.Short()),
		slog.String("addr", cfg.Server.Addr),
		slog.String("data_dir", cfg.Storage.DataDir))

	st := store.New()
	snaps := store.NewSnapshotStore(cfg.Storage.DataDir, st, logger)

	embedder, err := embed.New(embed.CohereConfig{
		APIKey:     cfg.Embedding.APIKey,
		URL:        cfg.Embedding.URL,
		Model:      cfg.Embedding.Model,
		BatchSize:  cfg.Embedding.BatchSize,
		Timeout:    cfg.Embedding.Timeout,
		MaxRetries: cfg.Embedding.MaxRetries,
	}, cfg.Embedding.CacheSize, logger)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	indexes := index.NewManager(st, embedder, logger)
	defer indexes.Close()

	handle, err := bootstrap.Run(cfg, st, snaps, logger)
	if err != nil {
		return err
	}
	defer func() { _ = handle.Release() }()

	svc := service.New(st, snaps, indexes, logger)
	srv := server.New(svc, logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", slog.String("error", err.Error()))
	}
	return nil
}
