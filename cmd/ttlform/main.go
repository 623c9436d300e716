// Command ttlform is a terminal Turtle authoring form with attribution and a
// submit gate, plus the ingestion backend it submits to.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ttlform/internal/config"
	"ttlform/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logs   *logging.Factory
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ttlform",
	Short: "ttlform - Turtle authoring form with attribution",
	Long: `ttlform edits Turtle (TTL) documents, validates them as you type, and
submits them to a target graph credited to the right author.

Content loaded from a generator is credited to that generator until a human
edits it; from then on it is credited to you.

Run without arguments to open the editor.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
	RunE: runEdit,
}

// setup loads configuration and builds the logging factory.
func setup() error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if verbose {
		loaded.Logging.DebugMode = true
		loaded.Logging.Level = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	factory, err := logging.NewFactory(loaded.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg = loaded
	logs = factory
	logger = logs.Get(logging.CategoryBoot)
	logger.Debug("configuration loaded", zap.String("path", configPath), zap.String("transport", cfg.Transport.Mode))
	return nil
}

func teardown() {
	if logs != nil {
		_ = logs.Close()
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Configuration file")

	rootCmd.Flags().StringVar(&editOrigin, "origin", "", "Automated origin tag for the loaded file")
	rootCmd.Flags().StringVar(&editWatchDir, "watch", "", "Load .ttl files dropped into this directory")

	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(identityCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
