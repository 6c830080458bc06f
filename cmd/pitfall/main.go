package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "pitfall",
	Short:   "Security and concurrency pitfalls, served over HTTP",
	Long: `pitfall is a small HTTP service that demonstrates common security and
concurrency pitfalls (path traversal, algorithmic complexity, leaked
background tasks, racy counters) next to their partial fixes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLogging(cfg)
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path(s), later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("files-path", "", "uploads directory (default: uploads next to the executable, env: PITFALL_FILES_PATH)")
	rootCmd.PersistentFlags().String("users-backend", "", "credential store: memory, sqlite, postgres (default: memory, env: PITFALL_USERS_BACKEND)")
	rootCmd.PersistentFlags().String("users-dsn", "", "credential store connection string (env: PITFALL_USERS_DSN)")
	rootCmd.PersistentFlags().String("users-file", "", "JSON file with extra user records (env: PITFALL_USERS_FILE)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: PITFALL_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
