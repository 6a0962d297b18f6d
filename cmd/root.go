package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixlabs/codeprism/analytics"
	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/output"
)

var rootCmd = &cobra.Command{
	Use:   "codeprism",
	Short: "codeprism - a deterministic code property graph kernel",
	Long: `codeprism builds a reproducible Code Property Graph from source
repositories, persists it as a hash-stable snapshot, and runs bounded
graph queries and analyses over it.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		disableMetrics, _ := cmd.Flags().GetBool("disable-metrics") //nolint:all
		analytics.LoadEnvFile()
		analytics.Init(disableMetrics)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("disable-metrics", false, "Disable usage metrics collection")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show progress and statistics")
	rootCmd.PersistentFlags().Bool("debug", false, "Show debug diagnostics")
}

// loggerFromFlags builds a logger honoring the persistent verbosity flags.
func loggerFromFlags(cmd *cobra.Command) *output.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose") //nolint:all
	debug, _ := cmd.Flags().GetBool("debug")     //nolint:all

	level := output.VerbosityDefault
	if verbose {
		level = output.VerbosityVerbose
	}
	if debug {
		level = output.VerbosityDebug
	}
	return output.NewLogger(level)
}

// errorRecord is the single-line JSON form failures are surfaced in.
type errorRecord struct {
	Error   string `json:"error"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

// emitError prints a failure as a single-line JSON record on stderr.
func emitError(err error) {
	record := errorRecord{Error: "error", Message: err.Error()}
	var ke *core.KernelError
	if errors.As(err, &ke) {
		record.Error = ke.Kind.String()
		record.Op = ke.Op
	}
	line, marshalErr := json.Marshal(record)
	if marshalErr != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Fprintln(os.Stderr, string(line))
}
