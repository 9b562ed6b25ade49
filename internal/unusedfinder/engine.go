// Package unusedfinder wires the walker, resolver, and graph engine
// together into the top-level analysis entry point.
package unusedfinder

import (
	"context"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/unused-finder/monorepo-core/internal/astscan"
	"github.com/unused-finder/monorepo-core/internal/config"
	"github.com/unused-finder/monorepo-core/internal/dircache"
	"github.com/unused-finder/monorepo-core/internal/diagnostic"
	"github.com/unused-finder/monorepo-core/internal/graph"
	"github.com/unused-finder/monorepo-core/internal/manifest"
	"github.com/unused-finder/monorepo-core/internal/pathutil"
	"github.com/unused-finder/monorepo-core/internal/resolve"
	"github.com/unused-finder/monorepo-core/internal/walker"
)

// Engine is the top-level analysis driver: configure it once, then call
// Analyze for a full run (internal/incremental wraps Analyze with per-file
// change tracking; each of its calls is still a full run).
type Engine struct {
	Config     *config.Config
	ReadDir    walker.ReadDir
	ReadFile   dircache.ReadFile
	FileExists resolve.FileExists
	Log        *diagnostic.Log
}

// New builds an Engine. readDir/readFile/fileExists abstract the
// filesystem so the engine can run against a real tree or an in-memory
// fixture identically.
func New(cfg *config.Config, readDir walker.ReadDir, readFile dircache.ReadFile, fileExists resolve.FileExists, log *diagnostic.Log) *Engine {
	return &Engine{Config: cfg, ReadDir: readDir, ReadFile: readFile, FileExists: fileExists, Log: log}
}

// Run is one full analysis pass: walk, resolve, build the graph, seed
// entries and tests, expand reachability, and report.
type Run struct {
	Cache    *dircache.Cache
	Resolver *resolve.Resolver
	Walk     walker.Result
	Graph    *graph.Graph
	Report   graph.UnusedReport
}

// Analyze performs one full, from-scratch analysis run.
func (e *Engine) Analyze(ctx context.Context) (*Run, error) {
	cache := dircache.New(e.Config.RepoRoot, e.ReadFile)

	parser := astscan.NewParser()
	skip, err := buildSkipMatcher(e.Config.Skip)
	if err != nil {
		return nil, err
	}

	w := walker.New(e.Config.RepoRoot, cache, e.ReadDir, e.ReadFile, parser, skip, 0)
	walkResult, err := w.Walk(ctx)
	if err != nil {
		return nil, err
	}
	for _, warning := range walkResult.Warnings {
		e.logWarn(warning)
	}

	nodeModules := pathutil.Join(e.Config.RepoRoot, "node_modules")
	resolver := resolve.New(cache, e.FileExists, e.Config.RepoRoot, nodeModules)

	g := graph.New()
	for _, f := range walkResult.Files {
		g.Files[f.Path] = buildGraphFile(f, resolver)
	}

	testMatcher, err := buildSkipMatcher(e.Config.TestFiles)
	if err != nil {
		return nil, err
	}

	seeds := seedEntries(walkResult, e.Config.EntryMatchRules, testMatcher, e.Config.RepoRoot)

	if err := g.Run(ctx, seeds); err != nil {
		return nil, err
	}

	report := g.Report(e.Config.AllowUnusedTypes)
	if !e.Config.ReportExportedSymbols {
		report.UnusedSymbols = map[string][]graph.SymbolResult{}
	}

	return &Run{Cache: cache, Resolver: resolver, Walk: walkResult, Graph: g, Report: report}, nil
}

func (e *Engine) logWarn(text string) {
	if e.Log != nil {
		e.Log.Warn(diagnostic.KindIOFailure, text, nil)
	}
}

func buildSkipMatcher(patterns []string) (walker.SkipMatcher, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	matcher := gitignore.CompileIgnoreLines(patterns...)
	return func(rel string) bool { return matcher.MatchesPath(rel) }, nil
}

func buildGraphFile(f walker.SourceFile, resolver *resolve.Resolver) *graph.File {
	dir := filepath.Dir(f.Path)
	gf := &graph.File{
		Path:      f.Path,
		IsIgnored: f.IsIgnored,
		Exports:   make(map[string]graph.ExportInfo, len(f.Scan.Exports)),
	}
	for _, exp := range f.Scan.Exports {
		gf.Exports[exp.Name] = graph.ExportInfo{Span: exp.Span, IsType: exp.IsType}
	}

	for _, b := range f.Scan.StaticImports {
		gf.Edges = append(gf.Edges, resolveImportEdge(resolver, dir, b.Module, b.ExportName))
	}
	for _, b := range f.Scan.Requires {
		gf.Edges = append(gf.Edges, resolveImportEdge(resolver, dir, b.Module, b.ExportName))
	}
	for _, b := range f.Scan.DynamicImports {
		gf.Edges = append(gf.Edges, resolveExecutionEdge(resolver, dir, b.Module))
	}
	for _, module := range f.Scan.ExecutedPaths {
		gf.Edges = append(gf.Edges, resolveExecutionEdge(resolver, dir, module))
	}

	for _, r := range f.Scan.Reexports {
		result := resolver.Resolve(dir, r.Module)
		reexport := graph.Reexport{ExposedName: r.AsName, FromSymbol: r.ExportName}
		if result.Ok && !result.External {
			reexport.FromFile = result.Path
		} else {
			reexport.External = true
		}
		gf.Reexports = append(gf.Reexports, reexport)
	}

	return gf
}

func resolveImportEdge(resolver *resolve.Resolver, dir, module, exportName string) graph.Edge {
	result := resolver.Resolve(dir, module)
	if !result.Ok || result.External {
		return graph.Edge{External: true}
	}
	if exportName == "*" {
		return graph.Edge{ToFile: result.Path, Kind: graph.KindNamespace}
	}
	return graph.Edge{ToFile: result.Path, Kind: graph.KindNamed, Symbol: exportName}
}

func resolveExecutionEdge(resolver *resolve.Resolver, dir, module string) graph.Edge {
	result := resolver.Resolve(dir, module)
	if !result.Ok || result.External {
		return graph.Edge{External: true}
	}
	return graph.Edge{ToFile: result.Path, Kind: graph.KindExecutionOnly}
}

// seedEntries computes the initial BFS frontier: every file belonging to a
// package matched by entryRules (or every package, when no entryPackages
// were configured), and exported by that package's manifest per
// IsAbspathExported, gets its whole-file node tagged TagEntry; every file
// matched by the testFiles globs gets tagged TagTest as an independent root
// — so code reachable only from tests is tagged accordingly rather than
// treated as a production entry point; and every file under an ignore file
// gets tagged TagIgnored, so its own export surface (and anything it
// forwards via re-exports) is treated as used rather than reported, without
// ever being mistaken for a production entry point.
func seedEntries(walkResult walker.Result, entryRules config.PackageMatchRules, isTestFile walker.SkipMatcher, repoRoot string) []graph.Seed {
	entryPackageDirs := map[string]*manifest.Manifest{}
	noRulesConfigured := len(entryRules.Names) == 0 && len(entryRules.NamePatterns) == 0 && len(entryRules.PathPatterns) == 0
	for _, pkg := range walkResult.Packages {
		rel := pathutil.Rel(repoRoot, pkg.Dir)
		if noRulesConfigured || entryRules.Matches(rel, pkg.Manifest.Name) {
			entryPackageDirs[pkg.Dir] = pkg.Manifest
		}
	}

	var seeds []graph.Seed
	for _, f := range walkResult.Files {
		if f.IsIgnored {
			seeds = append(seeds, graph.Seed{ID: graph.NodeID{File: f.Path}, Tag: graph.TagIgnored})
		}

		rel := pathutil.Rel(repoRoot, f.Path)
		if isTestFile != nil && isTestFile(rel) {
			seeds = append(seeds, graph.Seed{ID: graph.NodeID{File: f.Path}, Tag: graph.TagTest})
			continue
		}
		if f.PackageDir == "" {
			continue
		}
		pkgManifest, isEntryPkg := entryPackageDirs[f.PackageDir]
		if isEntryPkg && pkgManifest.IsAbspathExported(f.Path) {
			seeds = append(seeds, graph.Seed{ID: graph.NodeID{File: f.Path}, Tag: graph.TagEntry})
		}
	}
	return seeds
}
