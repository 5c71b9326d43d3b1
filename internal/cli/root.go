package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/rapport/internal/config"
	"github.com/lazypower/rapport/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "rapport",
	Short: "Network intelligence for your LinkedIn export",
	Long: "Rapport reads a LinkedIn data export and scores relationship health, advocacy and reciprocity, " +
		"finds warm introduction paths and flags conversations worth reopening. Single Go binary, local SQLite archive.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportsCmd)
}

// loadConfig returns the defaults, or the --config file layered over them,
// with environment overrides applied.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func openStore(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
