// Package cli implements the tracksync command tree.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/tracksync/tracksync/internal/cli.version=1.2.3"
	version = "1.0.0"
	logo    = "\n" +
		"  _                  _                         \n" +
		" | |_ _ __ __ _  ___| | _____ _   _ _ __   ___ \n" +
		" | __| '__/ _` |/ __| |/ / __| | | | '_ \\ / __|\n" +
		" | |_| | | (_| | (__|   <\\__ \\ |_| | | | | (__ \n" +
		"  \\__|_|  \\__,_|\\___|_|\\_\\___/\\__, |_| |_|\\___|\n" +
		"                              |___/            \n"
)

var rootCmd = &cobra.Command{
	Use:   "tracksync",
	Short: "tracksync - user action sync and analytics pipeline",
	Long:  color.CyanString(logo) + "\nRecords user actions, aggregates display data, and computes analytics over a pluggable record store.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(daemonCmd)
}
