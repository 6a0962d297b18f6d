package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlabs/codeprism/metrics"
	"github.com/helixlabs/codeprism/output"
)

func buildTestPipeline(t *testing.T, sources map[string]string) *pipeline {
	t.Helper()
	dir := t.TempDir()
	for name, content := range sources {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	files, err := collectSourceFiles([]string{dir})
	require.NoError(t, err)

	logger := output.NewLoggerWithWriter(output.VerbosityDefault, os.Stderr)
	p, err := buildPipeline(context.Background(), files, logger, metrics.NewCollector(), 16, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, p.Close())
	})
	return p
}

func TestScanFindsParameterToReturnFlow(t *testing.T) {
	p := buildTestPipeline(t, map[string]string{
		"lib.rs": `fn passthrough(input: u32) {
    let staged = input;
    return staged;
}`,
	})

	findings, capped := runTaintScan(p, metrics.NewCollector())
	assert.False(t, capped)
	require.Len(t, findings, 1)
	assert.Equal(t, "input", findings[0].SourceVar)
	assert.Equal(t, 1, findings[0].Line)
	assert.GreaterOrEqual(t, len(findings[0].PathNodes), 3)
}

func TestScanNoFlowWithoutReturn(t *testing.T) {
	p := buildTestPipeline(t, map[string]string{
		"lib.rs": "fn sealed(input: u32) { let x = input; }",
	})

	findings, capped := runTaintScan(p, metrics.NewCollector())
	assert.False(t, capped)
	assert.Empty(t, findings)
}

func TestRenderFindingsJSON(t *testing.T) {
	findings := []finding{{File: "a.rs", SourceVar: "x", Line: 3, PathNodes: []uint64{1, 2}}}

	rendered, err := renderFindings(findings, "json")
	require.NoError(t, err)

	var decoded []finding
	require.NoError(t, json.Unmarshal(rendered, &decoded))
	assert.Equal(t, findings, decoded)
}

func TestRenderFindingsSARIF(t *testing.T) {
	findings := []finding{{File: "a.rs", SourceVar: "x", Line: 3, PathNodes: []uint64{1, 2}}}

	rendered, err := renderFindings(findings, "sarif")
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "2.1.0")
	assert.Contains(t, string(rendered), taintRuleID)
	assert.Contains(t, string(rendered), "a.rs")
}

func TestCollectSourceFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"z.rs", "a.rs", "m.rs", "ignored.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("fn f() {}"), 0644))
	}

	files, err := collectSourceFiles([]string{dir})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.rs"), files[0])
	assert.Equal(t, filepath.Join(dir, "z.rs"), files[2])
}
