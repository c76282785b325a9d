package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geomorph-labs/gauntlet/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "gauntlet",
	Short: "Building morphology feature pipeline",
	Long:  "Reads building footprints, computes per-building shape descriptors and multi-radius nearest-neighbor statistics over a spatial index, and writes the flat feature table to CSV, XLSX, SQLite or Postgres.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
