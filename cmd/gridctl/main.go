// Package main implements gridctl, the operator CLI for the site progress
// grids. It works directly against the configured snapshot backend, so it
// should not be run while the server holds unsaved changes.
package main

import (
	"fmt"
	"os"

	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/config"
	applogger "github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gridctl",
	Short: "Inspect and edit installation progress grids",
	Long: `gridctl reads and edits the per-building installation grids tracked by
the site progress server.

Grids are addressed by building and process, e.g.:
  gridctl show 101 indoor-unit
  gridctl toggle 101동 실내기 15 2`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lc := applogger.CLIConfig()
		if verbose {
			lc.Level = "debug"
		}
		var err error
		if logger, err = applogger.New(lc); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if cfg, err = config.LoadFrom(configPath); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default <building>_<process>.xlsx)")
	reconcileCmd.Flags().BoolVar(&reconcileWrite, "write", false, "save the reconciled grids back to storage")

	rootCmd.AddCommand(
		showCmd,
		toggleCmd,
		notesCmd,
		exportCmd,
		reconcileCmd,
		inspectCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
