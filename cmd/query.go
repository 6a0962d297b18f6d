package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/helixlabs/codeprism/analytics"
	"github.com/helixlabs/codeprism/cpg"
	"github.com/helixlabs/codeprism/execution"
	"github.com/helixlabs/codeprism/snapshot"
)

// resultRow is one committed node rendered for output and filtering.
type resultRow struct {
	Task  int    `json:"task" expr:"task"`
	ID    uint64 `json:"id" expr:"id"`
	Kind  string `json:"kind" expr:"kind"`
	Start uint64 `json:"start" expr:"start"`
	End   uint64 `json:"end" expr:"end"`
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Execute a staged query plan against a snapshot",
	Long: `Query loads a snapshot and executes a YAML plan of staged tasks
with the parallel-compute / serial-commit scheduler. The committed result
sequence depends only on the plan and the snapshot, never on the worker
count.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		analytics.ReportEvent(analytics.QueryCommand)
		cmd.SilenceUsage = true

		snapshotPath, _ := cmd.Flags().GetString("snapshot") //nolint:all
		planPath, _ := cmd.Flags().GetString("plan")         //nolint:all
		workers, _ := cmd.Flags().GetInt("workers")          //nolint:all
		filterSrc, _ := cmd.Flags().GetString("filter")      //nolint:all
		format, _ := cmd.Flags().GetString("format")         //nolint:all

		cfg := loadConfig()
		if snapshotPath == "" {
			snapshotPath = cfg.Snapshot
		}
		if workers < 1 {
			workers = cfg.Workers
		}

		logger := loggerFromFlags(cmd)

		g, meta, err := snapshot.NewStore().Load(cmd.Context(), snapshotPath)
		if err != nil {
			emitError(err)
			analytics.ReportEvent(analytics.ErrorQuery)
			return err
		}
		logger.Statistic("Loaded snapshot %s (hash %s)", snapshotPath, meta.Hash)

		plan, err := loadPlan(planPath)
		if err != nil {
			emitError(err)
			analytics.ReportEvent(analytics.ErrorQuery)
			return err
		}

		results, err := execution.NewScheduler(workers).Execute(cmd.Context(), plan, g)
		if err != nil {
			emitError(err)
			analytics.ReportEvent(analytics.ErrorQuery)
			return err
		}

		rows := renderRows(g, results)
		if filterSrc != "" {
			rows, err = filterRows(rows, filterSrc)
			if err != nil {
				emitError(err)
				return err
			}
		}
		return printRows(rows, format)
	},
}

// renderRows flattens committed results into output rows, preserving the
// committed order.
func renderRows(g *cpg.Graph, results []execution.Result) []resultRow {
	var rows []resultRow
	for task, result := range results {
		for _, id := range result {
			row := resultRow{Task: task, ID: uint64(id)}
			if n, ok := g.Node(id); ok {
				row.Kind = n.Kind.String()
				row.Start = n.SourceRange.Start
				row.End = n.SourceRange.End
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// filterRows applies an expression over each row; rows where it evaluates
// to true survive. Filtering is post-processing over committed results and
// does not extend the kernel's query surface.
func filterRows(rows []resultRow, src string) ([]resultRow, error) {
	program, err := expr.Compile(src, expr.Env(resultRow{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling filter: %w", err)
	}
	var out []resultRow
	for _, row := range rows {
		keep, err := expr.Run(program, row)
		if err != nil {
			return nil, fmt.Errorf("evaluating filter: %w", err)
		}
		if keep.(bool) {
			out = append(out, row)
		}
	}
	return out, nil
}

func printRows(rows []resultRow, format string) error {
	if format == "json" {
		encoded, err := json.Marshal(rows)
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	}

	header := color.New(color.Bold)
	header.Fprintf(os.Stdout, "%-6s %-8s %-10s %-10s %-10s\n", "TASK", "NODE", "KIND", "START", "END")
	for _, row := range rows {
		fmt.Printf("%-6d %-8d %-10s %-10d %-10d\n", row.Task, row.ID, row.Kind, row.Start, row.End)
	}
	return nil
}

func init() {
	queryCmd.Flags().String("snapshot", "", "Snapshot path to query")
	queryCmd.Flags().String("plan", "plan.yaml", "YAML plan file")
	queryCmd.Flags().Int("workers", 0, "Worker limit for stage execution")
	queryCmd.Flags().String("filter", "", "Expression filter over result rows, e.g. 'kind == \"Function\"'")
	queryCmd.Flags().String("format", "text", "Output format: text or json")
	rootCmd.AddCommand(queryCmd)
}
