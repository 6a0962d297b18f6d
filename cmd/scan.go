package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/owenrumney/go-sarif/v2/sarif"
	"github.com/spf13/cobra"

	"github.com/helixlabs/codeprism/analysis"
	"github.com/helixlabs/codeprism/analytics"
	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/cpg"
	"github.com/helixlabs/codeprism/metrics"
	"github.com/helixlabs/codeprism/semantic"
)

const taintRuleID = "taint/parameter-to-return"

// finding is one taint path rendered for output.
type finding struct {
	File      string   `json:"file"`
	SourceVar string   `json:"source_var"`
	Line      int      `json:"line"`
	PathNodes []uint64 `json:"path_nodes"`
}

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Run taint analysis and report parameter-to-return flows",
	Long: `Scan builds the CPG in memory, runs the bounded taint analysis
with every function parameter as a source and every return value as a
sink, and reports the discovered flows.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analytics.ReportEvent(analytics.ScanCommand)
		cmd.SilenceUsage = true

		format, _ := cmd.Flags().GetString("format") //nolint:all
		outFile, _ := cmd.Flags().GetString("out")   //nolint:all

		cfg := loadConfig()
		logger := loggerFromFlags(cmd)
		collector := metrics.NewCollector()

		files, err := collectSourceFiles(args)
		if err != nil {
			emitError(err)
			return err
		}

		p, err := buildPipeline(cmd.Context(), files, logger, collector, cfg.TreeCacheSize, nil)
		if err != nil {
			emitError(err)
			return err
		}
		defer func() {
			if err := p.Close(); err != nil {
				logger.Warning("closing epochs: %v", err)
			}
		}()

		findings, capped := runTaintScan(p, collector)
		if capped {
			logger.Warning("taint analysis hit the depth bound; results are incomplete")
		}

		rendered, err := renderFindings(findings, format)
		if err != nil {
			emitError(err)
			return err
		}
		if outFile != "" {
			return os.WriteFile(outFile, rendered, 0644)
		}
		fmt.Print(string(rendered))
		return nil
	},
}

// runTaintScan derives sources (parameter values) and sinks (return
// temporaries) from the semantic epoch and runs taint over the CPG.
func runTaintScan(p *pipeline, collector *metrics.Collector) ([]finding, bool) {
	g := p.cpg.Graph()

	// Map every DFG value to its CPG node.
	valueNodes := make(map[core.ValueID]cpg.NodeID)
	for _, n := range g.Nodes {
		if n.Kind == cpg.NodeDfg && n.Origin.Kind == cpg.OriginDfg {
			valueNodes[n.Origin.ValueID] = n.ID
		}
	}

	var sources []analysis.TaintSource
	var sinks []analysis.TaintSink
	sourceInfo := make(map[cpg.NodeID]struct {
		file core.FileID
		name string
	})

	for _, fileID := range p.semantic.FileIDs() {
		for _, dfg := range p.semantic.DFGs(fileID) {
			for _, v := range dfg.Values {
				node, ok := valueNodes[v.ID]
				if !ok {
					continue
				}
				switch v.Kind {
				case semantic.ValueParameter:
					sources = append(sources, analysis.TaintSource{Kind: analysis.SourceParameter, Node: node})
					sourceInfo[node] = struct {
						file core.FileID
						name string
					}{file: fileID, name: v.Name}
				case semantic.ValueTemporary:
					sinks = append(sinks, analysis.TaintSink{Kind: analysis.SinkReturn, Node: node})
				}
			}
		}
	}

	result := analysis.AnalyzeTaint(g, sources, sinks)
	if result.HitDepthCap() {
		collector.AnalysisIncomplete("taint")
	}

	var findings []finding
	for _, path := range result.Paths() {
		info := sourceInfo[path.Source.Node]
		f := finding{
			File:      p.paths[info.file],
			SourceVar: info.name,
		}
		if n, ok := g.Node(path.Source.Node); ok {
			f.Line = lineOf(p, info.file, n.SourceRange.Start)
		}
		for _, node := range path.Path {
			f.PathNodes = append(f.PathNodes, uint64(node))
		}
		findings = append(findings, f)
	}
	return findings, result.HitDepthCap()
}

// lineOf converts a byte offset to a 1-indexed line number.
func lineOf(p *pipeline, fileID core.FileID, offset uint64) int {
	f, err := p.ingestion.File(fileID)
	if err != nil {
		return 0
	}
	content := f.Content
	if offset > uint64(len(content)) {
		offset = uint64(len(content))
	}
	return bytes.Count(content[:offset], []byte("\n")) + 1
}

func renderFindings(findings []finding, format string) ([]byte, error) {
	switch format {
	case "sarif":
		return renderSARIF(findings)
	case "json":
		return json.Marshal(findings)
	default:
		var buf bytes.Buffer
		if len(findings) == 0 {
			fmt.Fprintln(&buf, "No taint flows found.")
			return buf.Bytes(), nil
		}
		bold := color.New(color.Bold)
		for _, f := range findings {
			bold.Fprintf(&buf, "%s:%d", f.File, f.Line)
			fmt.Fprintf(&buf, " parameter %q flows to a return value (%d nodes)\n", f.SourceVar, len(f.PathNodes))
		}
		return buf.Bytes(), nil
	}
}

func renderSARIF(findings []finding) ([]byte, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, err
	}
	run := sarif.NewRunWithInformationURI("codeprism", "https://github.com/helixlabs/codeprism")
	run.AddRule(taintRuleID).
		WithDescription("A function parameter flows into a return value without sanitization.")

	for _, f := range findings {
		run.CreateResultForRule(taintRuleID).
			WithLevel("warning").
			WithMessage(sarif.NewTextMessage(fmt.Sprintf("parameter %q flows to a return value", f.SourceVar))).
			AddLocation(sarif.NewLocationWithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewSimpleArtifactLocation(f.File)).
					WithRegion(sarif.NewSimpleRegion(f.Line, f.Line)),
			))
	}
	report.AddRun(run)

	var buf bytes.Buffer
	if err := report.PrettyWrite(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func init() {
	scanCmd.Flags().String("format", "text", "Output format: text, json, or sarif")
	scanCmd.Flags().String("out", "", "Write results to a file instead of stdout")
	rootCmd.AddCommand(scanCmd)
}
