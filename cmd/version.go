package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helixlabs/codeprism/analytics"
)

var (
	// Version is injected at build time.
	Version = "dev"
	// GitCommit is injected at build time.
	GitCommit = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		analytics.ReportEvent(analytics.VersionCommand)
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Git Commit: %s\n", GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
