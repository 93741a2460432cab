// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vidlink/internal/config"
	"vidlink/internal/log"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig string
	flagDebug  bool
	flagJSON   bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vidlink",
	Short: "Resolve video pages into HLS manifest links",
	Long: `vidlink follows a page's player link and collects the HLS (.m3u8) manifests
the player serves, falling back to a headless browser when the manifest is
only produced by scripts.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $XDG_CONFIG_HOME/vidlink/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "log-json", false, "Log as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagDebug {
		cfg.LogLevel = "debug"
	}
	if flagJSON {
		cfg.LogJSON = true
	}
	if cmd.Flags().Changed("listen") {
		cfg.Listen = flagListen
	}
	if flagNoBrowser {
		cfg.Browser.Enabled = false
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Setup(cfg.LogLevel, cfg.LogJSON)
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "vidlink", Version)
	},
}
