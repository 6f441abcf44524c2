package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/social-graph/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "socialnet",
	Short: "Social graph API server",
	Long: `socialnet serves the users, thoughts and friends API over MongoDB,
PostgreSQL or SQLite, selected by the scheme of database.uri.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml or ./config/config.yaml)")
}

func loadConfig() (*config.Config, error) {
	return config.LoadFrom(configPath)
}
