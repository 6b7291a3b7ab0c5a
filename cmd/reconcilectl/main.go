// Command reconcilectl runs reconciliation queries from the terminal against
// the same database and providers the HTTP server uses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reconciler/internal/app"
	"github.com/kailas-cloud/reconciler/internal/config"
	logpkg "github.com/kailas-cloud/reconciler/internal/logger"
	"github.com/kailas-cloud/reconciler/internal/version"
)

var (
	configFile string
	envName    string
	logLevel   string
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:     "reconcilectl",
	Short:   "Run reconciliation queries against the configured entity types",
	Version: version.String(),
	Long: `reconcilectl loads the server configuration, connects to PostgreSQL and the
configured LLM providers, and runs reconciliation queries directly without
going through the HTTP API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"Path to configuration file (default: config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", "",
		"Configuration environment (default: $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level override: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false,
		"Print results as JSON instead of tables")

	rootCmd.AddCommand(newQueryCmd(), newBatchCmd(), newTypesCmd(), newDetailsCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	env := envName
	if env == "" {
		env = config.GetEnv()
	}
	return config.Load(env)
}

// openApp builds the services for one command run. The caller must Close it.
func openApp(cmd *cobra.Command) (*app.App, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logpkg.NewLogger("cli", level)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return a, logger, nil
}
