package manifest

import (
	"path/filepath"
	"strings"

	"github.com/unused-finder/monorepo-core/internal/pathutil"
)

// BrowserRewrites holds the four buckets spec.md §4.B derives from a
// package.json "browser" field: two keyed by relative file path, two keyed
// by bare module name. A string value is a rewrite target; a literal false
// value marks the key as ignored entirely (the module/file resolves to
// nothing under the browser condition).
type BrowserRewrites struct {
	PathRewrites   map[string]string // rel path (no leading "./") -> rewrite target
	PathIgnores    map[string]bool
	ModuleRewrites map[string]string // bare module name -> rewrite target
	ModuleIgnores  map[string]bool
}

func newBrowserRewrites() BrowserRewrites {
	return BrowserRewrites{
		PathRewrites:   map[string]string{},
		PathIgnores:    map[string]bool{},
		ModuleRewrites: map[string]string{},
		ModuleIgnores:  map[string]bool{},
	}
}

// parseBrowserField handles both the legacy string form ("browser":
// "./dist/index.js", equivalent to a single main-field rewrite) and the
// object form (a map of path/module keys to rewrite targets or false).
func parseBrowserField(dir string, value any) BrowserRewrites {
	rewrites := newBrowserRewrites()
	switch typed := value.(type) {
	case string:
		rewrites.PathRewrites["."] = cleanField(typed)
	case map[string]any:
		for key, target := range typed {
			assignBrowserEntry(dir, &rewrites, key, target)
		}
	}
	return rewrites
}

func assignBrowserEntry(dir string, rewrites *BrowserRewrites, key string, target any) {
	isPathKey := strings.HasPrefix(key, "./") || strings.HasPrefix(key, "../") || filepath.IsAbs(key)

	switch t := target.(type) {
	case bool:
		if t {
			return
		}
		if isPathKey {
			rewrites.PathIgnores[normalizeBrowserPathKey(key)] = true
		} else {
			rewrites.ModuleIgnores[key] = true
		}
	case string:
		if isPathKey {
			rewrites.PathRewrites[normalizeBrowserPathKey(key)] = resolveBrowserTarget(dir, t)
		} else {
			rewrites.ModuleRewrites[key] = t
		}
	}
}

func normalizeBrowserPathKey(key string) string {
	return pathutil.ToSlash(pathutil.TrimDotSlash(key))
}

// resolveBrowserTarget keeps bare-module targets (another package name) as
// given, but normalizes relative-path targets the same way cleanField does.
func resolveBrowserTarget(dir, target string) string {
	if strings.HasPrefix(target, "./") || strings.HasPrefix(target, "../") {
		return cleanField(target)
	}
	return target
}

// RewritePath looks up a local-file rewrite for rel (relative to the
// package's root, no leading "./"). Returns the rewrite target and whether
// one applied; a true ignored result means the path should be treated as
// resolving to an empty stub module under the browser condition.
func (b BrowserRewrites) RewritePath(rel string) (target string, ignored bool, matched bool) {
	rel = pathutil.ToSlash(pathutil.TrimDotSlash(rel))
	if b.PathIgnores[rel] {
		return "", true, true
	}
	if t, ok := b.PathRewrites[rel]; ok {
		return t, false, true
	}
	return "", false, false
}

// RewriteModule looks up a bare-specifier rewrite for a module name (e.g.
// "lodash").
func (b BrowserRewrites) RewriteModule(name string) (target string, ignored bool, matched bool) {
	if b.ModuleIgnores[name] {
		return "", true, true
	}
	if t, ok := b.ModuleRewrites[name]; ok {
		return t, false, true
	}
	return "", false, false
}
