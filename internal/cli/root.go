package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"typeindex/config"
	"typeindex/internal/logging"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "typeindex",
	Short: "Semantic type similarity index",
	Long: `typeindex embeds semantic type definitions and finds the registered types
most similar to a newly described data column.

Example usage:
  typeindex index                             # Embed every type in the catalog
  typeindex query -d "customer email address" # Rank the closest types
  typeindex serve                             # Expose the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			config.LoadEnv(rootDir)
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./typeindex.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "dir", "", "working directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func newLogger() *logging.Logger {
	return logging.New(cfg.Logging.Level)
}

// openApp builds and connects an App for one-shot commands.
func openApp() (*App, error) {
	app, err := NewApp(GetRootDir(), GetConfig(), newLogger())
	if err != nil {
		return nil, err
	}
	if err := app.openBackend(); err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	return app, nil
}
