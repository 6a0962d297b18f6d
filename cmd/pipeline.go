package cmd

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/viant/afs"

	"github.com/helixlabs/codeprism/core"
	"github.com/helixlabs/codeprism/cpg"
	"github.com/helixlabs/codeprism/epoch"
	"github.com/helixlabs/codeprism/metrics"
	"github.com/helixlabs/codeprism/output"
	"github.com/helixlabs/codeprism/parse"
	"github.com/helixlabs/codeprism/semantic"
)

// pipeline holds the live epoch stack of one build.
type pipeline struct {
	ingestion *epoch.Ingestion
	parse     *epoch.Parse
	semantic  *semantic.Epoch
	cpg       *cpg.Epoch

	// paths maps opaque file identifiers back to the paths the CLI walked;
	// the mapping never enters the analysis core.
	paths map[core.FileID]string
}

// Close drops all epochs newest-first.
func (p *pipeline) Close() error {
	for _, close := range []func() error{
		p.cpg.Close, p.semantic.Close, p.parse.Close, p.ingestion.Close,
	} {
		if err := close(); err != nil {
			return err
		}
	}
	return nil
}

// collectSourceFiles expands files and directories into a sorted list of
// source file paths, so file identifiers are assigned reproducibly.
func collectSourceFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".rs") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// buildPipeline ingests the files, parses them, and builds the semantic
// and CPG epochs. The progress bar is optional.
func buildPipeline(
	ctx context.Context,
	files []string,
	logger *output.Logger,
	collector *metrics.Collector,
	cacheSize int,
	bar *progressbar.ProgressBar,
) (*pipeline, error) {
	start := time.Now()
	fs := afs.New()

	p := &pipeline{paths: make(map[core.FileID]string)}
	p.ingestion = epoch.NewIngestion(core.EpochMarker(1))
	for i, path := range files {
		content, err := fs.DownloadWithURL(ctx, path)
		if err != nil {
			return nil, err
		}
		id := core.FileID(i + 1)
		lang := core.LanguageFromExtension(strings.TrimPrefix(filepath.Ext(path), "."))
		if err := p.ingestion.AddFile(id, content, lang); err != nil {
			return nil, err
		}
		p.paths[id] = path
		collector.FileIngested()
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	cache, err := parse.NewTreeCache(cacheSize)
	if err != nil {
		return nil, err
	}

	p.parse = epoch.NewParse(p.ingestion, core.EpochMarker(2))
	if err := p.parse.ParseAll(ctx, cache); err != nil {
		return nil, err
	}
	for _, id := range p.parse.Skipped() {
		logger.Warning("skipping file %d: no usable parse", id)
	}

	p.semantic = semantic.NewEpoch(p.parse, core.EpochMarker(3))
	if err := p.semantic.Build(); err != nil {
		return nil, err
	}

	p.cpg = cpg.NewEpoch(p.semantic, core.EpochMarker(4))

	g := p.cpg.Graph()
	collector.ObserveBuild(time.Since(start).Seconds())
	collector.SetGraphSize(len(g.Nodes), len(g.Edges))
	logger.Statistic("CPG built: %d nodes, %d edges", len(g.Nodes), len(g.Edges))

	return p, nil
}
