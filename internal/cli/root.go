package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"earnings-watch/internal/app"
	"earnings-watch/internal/config"
	"earnings-watch/internal/earnings"
	"earnings-watch/internal/logging"
	"earnings-watch/internal/version"
)

var (
	cfgFile   string
	logLevel  string
	sources   []string
	appHandle *app.App
)

var rootCmd = &cobra.Command{
	Use:           "earningswatch",
	Short:         "Estimate the last trading session before a company's earnings release",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if len(sources) > 0 {
			cfg.Sources.Enabled = sources
		}

		logger := logging.NewLogger(cfg.Logging)
		logger.Debug().Str("version", version.Version).Str("commit", version.Commit).
			Strs("sources", cfg.Sources.Enabled).Msg("configuration loaded")
		appHandle = app.NewApp(cfg, logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")
	rootCmd.PersistentFlags().StringSliceVar(&sources, "sources", nil, "Override enabled sources (comma separated)")

	rootCmd.AddCommand(guessCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchlistCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(simulateCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}

func parseDateFlag(name, value string) (earnings.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return earnings.Date{}, nil
	}
	d, err := earnings.ParseDate(value)
	if err != nil {
		return earnings.Date{}, fmt.Errorf("invalid --%s value: %w", name, err)
	}
	return d, nil
}
