package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"julianmorley.ca/con-plar/storefront/pkg/global"
)

var (
	verbose bool
	envFile string

	cfg    global.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Tabletop games storefront API",
	Long: `Backend-for-frontend for the tabletop games storefront.

It serves the filtered catalog and keeps one cart per shopper session, backed
either by the hosted storefront API or by a local MongoDB catalog with carts
in Redis (GATEWAY_MODE=local).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		production := os.Getenv("ENV") == "production"
		if err := global.LoadEnvFile(production, envFile); err != nil {
			return err
		}

		var err error
		cfg, err = global.LoadConfig()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		config := zap.NewProductionConfig()
		if verbose || !cfg.IsProduction() {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
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
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")

	rootCmd.AddCommand(serveCmd, seedCmd, indexesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
