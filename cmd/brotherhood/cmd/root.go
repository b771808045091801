// Package cmd provides the CLI commands for the Brotherhood client.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/brotherhood-social/brotherhood/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "brotherhood",
	Short: "Brotherhood - social network terminal client",
	Long: `brotherhood talks to a Brotherhood API server from the terminal.

It keeps a cookie session, caches reads for a few minutes, retries server
errors with backoff and guards pages that need a signed-in user.

Quick start:
  1. Start the API server (default http://localhost:8000/api)
  2. Run: brotherhood shell

Configuration:
  Config is loaded from brotherhood.yaml in the current directory,
  $HOME/.brotherhood/, or /etc/brotherhood/.

  Environment variables can override config values with the BROTHERHOOD_ prefix.
  Example: BROTHERHOOD_API_BASE_URL=https://brotherhood.example.com/api

Commands:
  shell       Start an interactive session
  config      Print the effective configuration
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./brotherhood.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides log.level)")
	rootCmd.PersistentFlags().Bool("dev", false, "development mode (debug logging)")

	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("dev_mode", rootCmd.PersistentFlags().Lookup("dev"))
}

func initConfig() {
	config.InitViper(cfgFile)
}
