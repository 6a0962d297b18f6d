package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/helixlabs/codeprism/analytics"
	"github.com/helixlabs/codeprism/metrics"
	"github.com/helixlabs/codeprism/snapshot"
)

var buildCmd = &cobra.Command{
	Use:   "build [paths...]",
	Short: "Build a CPG snapshot from source files",
	Long: `Build walks the given files and directories, parses every
recognized source file, builds the semantic graphs and the fused Code
Property Graph, and persists it as a hash-stable snapshot.

Identical inputs produce bit-identical snapshots across machines.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analytics.ReportEvent(analytics.BuildCommand)
		cmd.SilenceUsage = true

		out, _ := cmd.Flags().GetString("out")                  //nolint:all
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr") //nolint:all

		cfg := loadConfig()
		if out == "" {
			out = cfg.Snapshot
		}
		if metricsAddr == "" {
			metricsAddr = cfg.MetricsAddr
		}

		logger := loggerFromFlags(cmd)
		collector := metrics.NewCollector()
		if metricsAddr != "" {
			go func() {
				if err := http.ListenAndServe(metricsAddr, collector.Handler()); err != nil {
					logger.Warning("metrics endpoint: %v", err)
				}
			}()
		}

		files, err := collectSourceFiles(args)
		if err != nil {
			emitError(err)
			analytics.ReportEvent(analytics.ErrorBuild)
			return err
		}
		logger.Progress("Ingesting %d files...", len(files))

		var bar *progressbar.ProgressBar
		if logger.Verbosity() > 0 {
			bar = progressbar.Default(int64(len(files)), "ingesting")
		}

		p, err := buildPipeline(cmd.Context(), files, logger, collector, cfg.TreeCacheSize, bar)
		if err != nil {
			emitError(err)
			analytics.ReportEvent(analytics.ErrorBuild)
			return err
		}
		defer func() {
			if err := p.Close(); err != nil {
				logger.Warning("closing epochs: %v", err)
			}
		}()

		store := snapshot.NewStore()
		meta, err := store.Save(cmd.Context(), out, p.cpg.Graph(), p.cpg.Marker(), time.Now().Unix())
		if err != nil {
			emitError(err)
			analytics.ReportEvent(analytics.ErrorBuild)
			return err
		}

		fmt.Printf("%s %s\n", color.GreenString("snapshot:"), out)
		fmt.Printf("%s %s\n", color.GreenString("hash:"), meta.Hash)
		logger.PrintTimingSummary()
		return nil
	},
}

func init() {
	buildCmd.Flags().StringP("out", "o", "", "Snapshot output path")
	buildCmd.Flags().String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	rootCmd.AddCommand(buildCmd)
}
