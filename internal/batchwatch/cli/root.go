package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/batchtools/batchwatch/pkg/config"
	"github.com/batchtools/batchwatch/pkg/logger"
)

var (
	cfg        *config.Config
	log        *logger.Logger
	configPath string
	regionFlag string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "batchwatch",
	Short: "Watch AWS Batch job queues for status changes",
	Long: `batchwatch polls an AWS Batch job queue and prints job status
transitions as they happen, with CloudWatch console log links and a
tail of the log output when a job fails.

Credentials come from the AWS default credential chain (environment,
shared credentials file, IAM role).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if regionFlag != "" {
			cfg.Region = regionFlag
		}

		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		parsed, err := logger.ParseLevel(level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log = logger.NewWithConfig(logger.Config{Level: parsed})
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to configuration file (searches common locations if not specified)")
	rootCmd.PersistentFlags().StringVar(&regionFlag, "region", "",
		"AWS region (defaults to config file, then the SDK chain)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level for diagnostics: DEBUG, INFO, WARN, ERROR")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())
}
