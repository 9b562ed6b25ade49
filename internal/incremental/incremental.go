// Package incremental wraps Engine.Analyze with a per-file digest of each
// parsed scan, so that a watch loop or editor-driven re-analysis can tell
// which directories' source files were added, removed, or changed since the
// previous call. Every call still runs a full Engine.Analyze, which walks and
// parses every file and builds a fresh dircache.Cache; the MarkDirty calls
// apply to the cache of the run just returned, and no cache state carries
// over to the next call.
package incremental

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path"

	"github.com/unused-finder/monorepo-core/internal/astscan"
	"github.com/unused-finder/monorepo-core/internal/unusedfinder"
)

// Driver holds the engine plus the digest of every file seen on the
// previous run, so Reanalyze can tell which directories changed.
type Driver struct {
	Engine *unusedfinder.Engine

	digests map[string]string
	lastRun *unusedfinder.Run
}

// New builds a Driver around engine. The first Reanalyze call has no
// baseline to diff against, so every directory the walk touches counts as
// dirty (harmless: the cache starts empty anyway).
func New(engine *unusedfinder.Engine) *Driver {
	return &Driver{Engine: engine, digests: map[string]string{}}
}

// Reanalyze runs the engine, then invalidates the returned run's
// directory-context cache only for directories whose files were added, removed, or whose parsed
// import/export surface changed since the previous call.
func (d *Driver) Reanalyze(ctx context.Context) (*unusedfinder.Run, error) {
	run, err := d.Engine.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	next := make(map[string]string, len(run.Walk.Files))
	dirtyDirs := map[string]bool{}
	for _, f := range run.Walk.Files {
		digest := hashScan(f.Scan)
		next[f.Path] = digest
		if prev, ok := d.digests[f.Path]; !ok || prev != digest {
			dirtyDirs[path.Dir(f.Path)] = true
		}
	}
	for prevPath := range d.digests {
		if _, stillPresent := next[prevPath]; !stillPresent {
			dirtyDirs[path.Dir(prevPath)] = true
		}
	}

	for dir := range dirtyDirs {
		run.Cache.MarkDirty(dir)
	}

	d.digests = next
	d.lastRun = run
	return run, nil
}

// LastRun returns the most recent analysis result, or nil before the
// first Reanalyze call.
func (d *Driver) LastRun() *unusedfinder.Run { return d.lastRun }

// hashScan digests a file's parsed scan result rather than its raw bytes.
// The scan carries byte-offset spans, so only an edit that leaves both the
// import/export surface and those offsets unchanged keeps the same digest;
// a comment or formatting change that shifts an export's span changes it.
func hashScan(scan astscan.FileScan) string {
	payload, err := json.Marshal(scan)
	if err != nil {
		return ""
	}
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:])
}
