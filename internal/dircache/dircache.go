// Package dircache caches, per directory, the nearest enclosing package.json
// manifest and tsconfig.json so the resolver never re-walks the same
// ancestor chain twice. Entries are guarded individually so lookups for
// unrelated directories never contend with one another.
package dircache

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/unused-finder/monorepo-core/internal/manifest"
	"github.com/unused-finder/monorepo-core/internal/pathutil"
	"github.com/unused-finder/monorepo-core/internal/tsconfig"
)

// MaxProbeDepth bounds the upward walk from a directory to the repo root;
// a chain deeper than this indicates a misconfigured root and is reported
// as an error rather than looping indefinitely.
const MaxProbeDepth = 1000

// ReadFile reads file content. An absent file is reported by an error with an
// IsNotExist() bool method returning true, or by an os.IsNotExist-compatible
// error (one matching fs.ErrNotExist).
type ReadFile func(path string) ([]byte, error)

// Context is the resolved directory context for one directory: the nearest
// enclosing manifest and tsconfig, and the directories that own them.
type Context struct {
	Dir         string
	Manifest    *manifest.Manifest
	ManifestDir string
	TSConfig    *tsconfig.Config
	TSConfigDir string
}

type entry struct {
	mu    sync.RWMutex
	ready bool
	ctx   *Context
	err   error
}

// Cache is a directory-context cache rooted at Root; probes never walk
// above Root.
type Cache struct {
	Root     string
	ReadFile ReadFile

	mu      sync.RWMutex
	entries map[string]*entry
}

// New returns a Cache rooted at root, reading files via readFile.
func New(root string, readFile ReadFile) *Cache {
	return &Cache{
		Root:     pathutil.ToSlash(root),
		ReadFile: readFile,
		entries:  make(map[string]*entry),
	}
}

func (c *Cache) entryFor(dir string) *entry {
	c.mu.RLock()
	e, ok := c.entries[dir]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[dir]; ok {
		return e
	}
	e = &entry{}
	c.entries[dir] = e
	return e
}

// Get returns the directory context for dir, computing and caching it on
// first use. Concurrent calls for the same directory block on that
// directory's entry only; calls for other directories proceed independently.
func (c *Cache) Get(dir string) (*Context, error) {
	dir = pathutil.ToSlash(dir)
	e := c.entryFor(dir)

	e.mu.RLock()
	if e.ready {
		ctx, err := e.ctx, e.err
		e.mu.RUnlock()
		return ctx, err
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready {
		return e.ctx, e.err
	}

	ctx, err := c.compute(dir)
	e.ctx, e.err, e.ready = ctx, err, true
	return ctx, err
}

// MarkDirty invalidates the cached context for dir (and only dir); the next
// Get recomputes it from scratch. Used by the incremental driver for the
// directories whose source files were added, removed, or changed their
// parsed scan since the previous run.
func (c *Cache) MarkDirty(dir string) {
	dir = pathutil.ToSlash(dir)
	c.mu.RLock()
	e, ok := c.entries[dir]
	c.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.ready = false
	e.ctx, e.err = nil, nil
	e.mu.Unlock()
}

func (c *Cache) compute(dir string) (*Context, error) {
	ctx := &Context{Dir: dir}

	manifestDir, manifestBytes, err := c.probeUpward(dir, "package.json")
	if err != nil {
		return nil, err
	}
	if manifestBytes != nil {
		m, err := manifest.Parse(manifestDir, manifestBytes)
		if err != nil {
			return nil, err
		}
		ctx.Manifest, ctx.ManifestDir = m, manifestDir
	}

	tsconfigDir, tsconfigBytes, err := c.probeUpward(dir, "tsconfig.json")
	if err != nil {
		return nil, err
	}
	if tsconfigBytes != nil {
		t, err := tsconfig.Parse(tsconfigDir, tsconfigBytes)
		if err != nil {
			return nil, err
		}
		ctx.TSConfig, ctx.TSConfigDir = t, tsconfigDir
	}

	return ctx, nil
}

// probeUpward walks from dir toward Root (inclusive), returning the first
// directory that contains fileName and its bytes. Returns ("", nil, nil) if
// none of the ancestors up to and including Root contain it.
func (c *Cache) probeUpward(dir, fileName string) (string, []byte, error) {
	current := dir
	for depth := 0; ; depth++ {
		if depth > MaxProbeDepth {
			return "", nil, fmt.Errorf("dircache: exceeded max probe depth (%d) walking up from %s toward root %s", MaxProbeDepth, dir, c.Root)
		}

		data, err := c.ReadFile(pathutil.Join(current, fileName))
		if err == nil {
			return current, data, nil
		}
		if !isNotExist(err) {
			return "", nil, err
		}

		if current == c.Root || !pathutil.IsWithin(c.Root, current) {
			return "", nil, nil
		}
		parent := pathutil.Join(current, "..")
		if parent == current {
			return "", nil, nil
		}
		current = parent
	}
}

func isNotExist(err error) bool {
	type notExister interface{ IsNotExist() bool }
	if ne, ok := err.(notExister); ok {
		return ne.IsNotExist()
	}
	return errors.Is(err, fs.ErrNotExist)
}
