package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "darsbot",
	Short: "Darsbot - Telegram bot that generates teaching documents",
	Long: `Darsbot is a Telegram bot for educators. It walks the user through a
three-step dialogue (educator level, document type, topic), generates the
document text with an AI backend and returns it as a downloadable .docx or
.pptx file, enforcing a rolling per-user monthly quota.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to serve when no subcommand is provided
		return runServe(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/darsbot/config.yaml", "Path to configuration file")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
