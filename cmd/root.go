package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-fm/assetcond/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "assetcond",
	Short: "Facility condition assessment engine",
	Long:  "Normalizes field condition ratings, aggregates condition indices across systems and buildings, predicts component deterioration, and ranks capital projects by composite priority.",
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
