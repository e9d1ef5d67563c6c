// Package cmd provides the CLI commands for the vexdb server.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vexhq/vexdb/pkg/version"
)

// NewRootCmd creates the root command for the vexdb CLI.
func NewRootCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "vexdb",
		Short: "In-memory vector database with nearest-neighbor search",
		Long: `VexDB is an in-memory vector database exposed over HTTP.

It stores libraries of documents and chunks, embeds chunk text, and
answers k-nearest-neighbor queries against per-library indexes
(brute force, ball tree, or HNSW). Libraries are persisted as JSON
snapshots and restored on startup.

Running 'vexdb' with no arguments starts the server.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.SetVersionTemplate("vexdb version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Snapshot directory (overrides config)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
