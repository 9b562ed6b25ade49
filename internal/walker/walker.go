// Package walker performs the parallel repository walk: it visits every
// directory once, honoring default and configured skip rules plus
// ".unusedignore" files, and emits the package and source-file records the
// resolver and AST scanner build on. Subtrees are explored concurrently;
// the number of goroutines is bounded only when Concurrency is positive.
package walker

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/unused-finder/monorepo-core/internal/astscan"
	"github.com/unused-finder/monorepo-core/internal/dircache"
	"github.com/unused-finder/monorepo-core/internal/ignorefile"
	"github.com/unused-finder/monorepo-core/internal/manifest"
	"github.com/unused-finder/monorepo-core/internal/pathutil"
)

// defaultSkipDirs are pruned unconditionally; they never contain source the
// analysis should see, and descending into node_modules would otherwise
// make every run cost proportional to the dependency tree.
var defaultSkipDirs = map[string]bool{
	".git": true, "node_modules": true, "dist": true, "build": true,
	"out": true, "coverage": true, "vendor": true, ".next": true, ".turbo": true,
}

// DirEntry is one entry in a listed directory.
type DirEntry struct {
	Name  string
	IsDir bool
}

// ReadDir lists the entries of a directory.
type ReadDir func(dir string) ([]DirEntry, error)

// SourceFile is one source file discovered by the walk, already parsed.
type SourceFile struct {
	Path       string
	PackageDir string // nearest enclosing manifest directory, "" if none
	IsIgnored  bool   // under a .unusedignore rule in scope at this path
	Scan       astscan.FileScan
}

// Package is one package.json-rooted directory discovered by the walk.
type Package struct {
	Dir      string
	Manifest *manifest.Manifest
}

// Result is everything the walk produced.
type Result struct {
	Packages []Package
	Files    []SourceFile
	Warnings []string
}

// SkipMatcher decides whether a directory-relative path should be pruned,
// beyond the default and ignore-file rules (the config's "skip" globs).
type SkipMatcher func(relPath string) bool

// Walker walks Root concurrently, bounded by Concurrency goroutines.
type Walker struct {
	Root        string
	Cache       *dircache.Cache
	ReadDir     ReadDir
	ReadFile    dircache.ReadFile
	Parser      *astscan.Parser
	Skip        SkipMatcher
	Concurrency int
}

// New builds a Walker. concurrency <= 0 means "let errgroup pick an
// unbounded pool", matching lopper's own fallback.
func New(root string, cache *dircache.Cache, readDir ReadDir, readFile dircache.ReadFile, parser *astscan.Parser, skip SkipMatcher, concurrency int) *Walker {
	return &Walker{
		Root: pathutil.ToSlash(root), Cache: cache, ReadDir: readDir,
		ReadFile: readFile, Parser: parser, Skip: skip, Concurrency: concurrency,
	}
}

// Walk performs the full repository walk.
func (w *Walker) Walk(ctx context.Context) (Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	if w.Concurrency > 0 {
		g.SetLimit(w.Concurrency)
	}

	var mu sync.Mutex
	result := Result{}

	var visit func(dir string, stack *ignorefile.Stack) error
	visit = func(dir string, stack *ignorefile.Stack) error {
		if gctx.Err() != nil {
			return gctx.Err()
		}

		entries, err := w.ReadDir(dir)
		if err != nil {
			return err
		}

		stack = w.pushIgnoreFile(dir, entries, stack)

		if m, err := loadManifestEntry(dir, entries, w.ReadFile); err != nil {
			mu.Lock()
			result.Warnings = append(result.Warnings, err.Error())
			mu.Unlock()
		} else if m != nil {
			mu.Lock()
			result.Packages = append(result.Packages, Package{Dir: dir, Manifest: m})
			mu.Unlock()
		}

		for _, entry := range entries {
			full := pathutil.Join(dir, entry.Name)
			rel := pathutil.Rel(w.Root, full)

			if entry.IsDir {
				if defaultSkipDirs[entry.Name] || (w.Skip != nil && w.Skip(rel)) {
					continue
				}
				if stack.IsIgnored(full) {
					continue
				}
				childDir, childStack := full, stack
				g.Go(func() error { return visit(childDir, childStack) })
				continue
			}

			if !astscan.IsSupportedFile(full) {
				continue
			}
			if w.Skip != nil && w.Skip(rel) {
				continue
			}
			ignored := stack.IsIgnored(full)

			path := full
			g.Go(func() error {
				content, err := w.ReadFile(path)
				if err != nil {
					mu.Lock()
					result.Warnings = append(result.Warnings, err.Error())
					mu.Unlock()
					return nil
				}
				scan, err := w.Parser.Scan(path, content)
				if err != nil {
					mu.Lock()
					result.Warnings = append(result.Warnings, err.Error())
					mu.Unlock()
					return nil
				}
				packageDir := w.nearestPackageDir(path)
				mu.Lock()
				result.Files = append(result.Files, SourceFile{Path: path, PackageDir: packageDir, IsIgnored: ignored, Scan: scan})
				mu.Unlock()
				return nil
			})
		}
		return nil
	}

	g.Go(func() error { return visit(w.Root, nil) })

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

func (w *Walker) nearestPackageDir(filePath string) string {
	ctx, err := w.Cache.Get(pathutil.Join(filePath, ".."))
	if err != nil || ctx.Manifest == nil {
		return ""
	}
	return ctx.ManifestDir
}

func (w *Walker) pushIgnoreFile(dir string, entries []DirEntry, stack *ignorefile.Stack) *ignorefile.Stack {
	for _, entry := range entries {
		if entry.IsDir || entry.Name != ignorefile.FileName {
			continue
		}
		data, err := w.ReadFile(pathutil.Join(dir, entry.Name))
		if err != nil {
			return stack
		}
		f, err := ignorefile.FromLines(dir, splitLines(string(data)))
		if err != nil {
			return stack
		}
		return stack.Push(f)
	}
	return stack
}

func splitLines(content string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, trimCR(content[start:i]))
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, trimCR(content[start:]))
	}
	return lines
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}

func loadManifestEntry(dir string, entries []DirEntry, readFile dircache.ReadFile) (*manifest.Manifest, error) {
	for _, entry := range entries {
		if !entry.IsDir && entry.Name == "package.json" {
			data, err := readFile(pathutil.Join(dir, entry.Name))
			if err != nil {
				return nil, err
			}
			return manifest.Parse(dir, data)
		}
	}
	return nil, nil
}
