// Package resolve turns a module specifier referenced from some directory
// into an absolute file path (or a decision that the specifier names an
// external, untracked dependency), following the same precedence order a
// bundler would: tsconfig path aliases, then package/node_modules
// resolution, then the package's browser-field rewrite, then its exports
// map, and finally extension/index-file probing.
package resolve

import (
	"path/filepath"
	"strings"

	"github.com/unused-finder/monorepo-core/internal/dircache"
	"github.com/unused-finder/monorepo-core/internal/manifest"
	"github.com/unused-finder/monorepo-core/internal/pathutil"
)

// candidateExtensions is the order extension-less specifiers are probed in;
// TypeScript sources are preferred over their compiled JS siblings when
// both exist side by side.
var candidateExtensions = []string{"", ".ts", ".tsx", ".d.ts", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts", ".json"}

// indexBasenames are tried, in order, when a specifier resolves to a
// directory rather than a file.
var indexBasenames = []string{"index.ts", "index.tsx", "index.js", "index.jsx", "index.mjs", "index.cjs", "index.json"}

// FileExists reports whether path names a regular file on disk.
type FileExists func(path string) bool

// Result is the outcome of resolving one specifier.
type Result struct {
	Path     string // absolute, resolved path; empty if not resolved
	External bool   // a Node builtin or an npm dependency outside the repo
	Ok       bool
}

// Resolver resolves specifiers using a shared directory-context cache.
type Resolver struct {
	Cache       *dircache.Cache
	FileExists  FileExists
	RepoRoot    string
	NodeModules string // absolute path to the monorepo's node_modules root, or ""
}

// New builds a Resolver. repoRoot bounds which resolved paths are
// considered "internal" to the analysis versus external dependencies.
func New(cache *dircache.Cache, fileExists FileExists, repoRoot, nodeModules string) *Resolver {
	return &Resolver{Cache: cache, FileExists: fileExists, RepoRoot: pathutil.ToSlash(repoRoot), NodeModules: pathutil.ToSlash(nodeModules)}
}

// Resolve resolves specifier as referenced from a file in fromDir.
func (r *Resolver) Resolve(fromDir, specifier string) Result {
	if IsNodeBuiltin(specifier) {
		return Result{External: true, Ok: true}
	}

	if isRelative(specifier) {
		return r.resolveRelative(fromDir, specifier)
	}

	return r.resolveBare(fromDir, specifier)
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || specifier == "." || specifier == ".."
}

func (r *Resolver) resolveRelative(fromDir, specifier string) Result {
	abs := pathutil.Join(fromDir, specifier)
	if path, ok := r.probe(abs); ok {
		return Result{Path: r.applyBrowserRewrite(fromDir, path), Ok: true}
	}
	return Result{Ok: false}
}

func (r *Resolver) resolveBare(fromDir, specifier string) Result {
	if ctx, err := r.Cache.Get(fromDir); err == nil && ctx.TSConfig != nil {
		for _, candidate := range ctx.TSConfig.Resolve(specifier) {
			if path, ok := r.probe(candidate); ok && pathutil.IsWithin(r.RepoRoot, path) {
				return Result{Path: r.applyBrowserRewrite(fromDir, path), Ok: true}
			}
		}
	}

	if path, ok := r.resolvePackage(specifier); ok {
		return Result{Path: path, Ok: true}
	}

	// Not found under any internal package; treat as an external npm
	// dependency rather than an error, matching how the graph engine
	// over-approximates anything it cannot statically chase further.
	return Result{External: true, Ok: true}
}

// resolvePackage splits specifier into a package name (respecting scoped
// "@scope/name" packages) and subpath, then looks for that package under
// the monorepo's node_modules. The subpath is mapped through the manifest's
// exports map (or, without one, its main field or the subpath itself) and
// probed with extensions; the manifest's browser-field rewrite is then
// applied to the probed file.
func (r *Resolver) resolvePackage(specifier string) (string, bool) {
	if r.NodeModules == "" {
		return "", false
	}
	pkgName, subpath := splitPackageSpecifier(specifier)
	pkgDir := pathutil.Join(r.NodeModules, pkgName)

	ctx, err := r.Cache.Get(pkgDir)
	if err != nil || ctx.Manifest == nil {
		return "", false
	}

	rel := subpath
	if rel == "" {
		rel = "."
	}
	if ctx.Manifest.HasExports() {
		path, ok := r.resolveViaExports(ctx, pkgDir, rel)
		if !ok {
			return "", false
		}
		return r.applyBrowserRewrite(pkgDir, path), true
	}
	return r.resolveLegacyPackageEntry(ctx, pkgDir, rel)
}

func (r *Resolver) resolveViaExports(ctx *dircache.Context, pkgDir, rel string) (string, bool) {
	key := "./" + strings.TrimPrefix(rel, "./")
	if rel == "." {
		key = "."
	}
	leaves, ok := ctx.Manifest.Exports[key]
	if !ok {
		return "", false
	}
	for _, leaf := range leaves {
		if leaf.Kind != manifest.ExportedPath {
			continue
		}
		abs := pathutil.Join(pkgDir, strings.TrimPrefix(leaf.Path, "./"))
		if path, ok := r.probe(abs); ok {
			return path, true
		}
	}
	return "", false
}

func (r *Resolver) resolveLegacyPackageEntry(ctx *dircache.Context, pkgDir, rel string) (string, bool) {
	var target string
	switch rel {
	case ".":
		target = ctx.Manifest.CleanedMain
		if target == "" {
			target = "./index.js"
		}
	default:
		target = "./" + strings.TrimPrefix(rel, "./")
	}

	abs := pathutil.Join(pkgDir, strings.TrimPrefix(target, "./"))
	path, ok := r.probe(abs)
	if !ok {
		return "", false
	}
	return r.applyBrowserRewrite(pkgDir, path), true
}

// applyBrowserRewrite rewrites path according to the enclosing package's
// browser-field map, if any, re-probing the rewritten target.
func (r *Resolver) applyBrowserRewrite(fromDir, path string) string {
	ctx, err := r.Cache.Get(filepath.Dir(path))
	if err != nil || ctx.Manifest == nil {
		return path
	}
	rel := pathutil.Rel(ctx.ManifestDir, path)
	target, ignored, matched := ctx.Manifest.Browser.RewritePath(rel)
	if !matched || ignored {
		return path
	}
	abs := pathutil.Join(ctx.ManifestDir, strings.TrimPrefix(target, "./"))
	if rewritten, ok := r.probe(abs); ok {
		return rewritten
	}
	return path
}

// probe tries abs as-is, then with each candidate extension, then as a
// directory with each index basename.
func (r *Resolver) probe(abs string) (string, bool) {
	for _, ext := range candidateExtensions {
		candidate := abs + ext
		if r.FileExists(candidate) {
			return pathutil.ToSlash(candidate), true
		}
	}
	for _, index := range indexBasenames {
		candidate := pathutil.Join(abs, index)
		if r.FileExists(candidate) {
			return pathutil.ToSlash(candidate), true
		}
	}
	return "", false
}

func splitPackageSpecifier(specifier string) (pkgName, subpath string) {
	parts := strings.SplitN(specifier, "/", 2)
	if strings.HasPrefix(specifier, "@") && len(parts) > 1 {
		scopedParts := strings.SplitN(parts[1], "/", 2)
		pkgName = parts[0] + "/" + scopedParts[0]
		if len(scopedParts) > 1 {
			subpath = scopedParts[1]
		}
		return pkgName, subpath
	}
	pkgName = parts[0]
	if len(parts) > 1 {
		subpath = parts[1]
	}
	return pkgName, subpath
}
