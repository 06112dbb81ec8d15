// Package cli implements the thyknow command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "thyknow",
	Short: "ThyKnow progression service",
	Long: `ThyKnow tracks weekly reflection streaks, points, levels and the companion pet
for the ThyKnow Telegram bot and mini-app.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory holding an optional app.env")
}

// Execute runs the root command. Called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
