// Package manifest parses package.json manifests and derives the artifacts
// the resolver and graph engine need from them: a normalized
// is-this-path-exported predicate, and browser-field rewrite tables.
package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unused-finder/monorepo-core/internal/pathutil"
)

// raw mirrors the subset of package.json fields this package cares about.
// Like the teacher's packagejson struct, unknown fields are ignored rather
// than rejected.
type raw struct {
	Name    string `json:"name"`
	Main    string `json:"main"`
	Module  string `json:"module"`
	Browser any    `json:"browser"`
	Exports any    `json:"exports"`
}

// Manifest is the parsed, derived form of one package.json.
type Manifest struct {
	Dir           string // absolute directory containing package.json
	Name          string
	CleanedMain   string // slash-normalized "./…" form, "" if absent
	CleanedModule string
	Browser       BrowserRewrites
	Exports       ExportsMap // nil if the manifest has no "exports" field
	hasExports    bool
}

// Load parses the package.json at dir/package.json. A missing file is not an
// error: it returns (nil, nil), the "absent" case from the spec.
func Load(dir string, readFile func(string) ([]byte, error)) (*Manifest, error) {
	path := filepath.Join(dir, "package.json")
	data, err := readFile(path)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return Parse(dir, data)
}

func isNotExist(err error) bool {
	type notExister interface{ IsNotExist() bool }
	if ne, ok := err.(notExister); ok {
		return ne.IsNotExist()
	}
	return strings.Contains(err.Error(), "no such file") || strings.Contains(err.Error(), "cannot find the file")
}

// Parse parses manifest content already read from dir/package.json.
func Parse(dir string, data []byte) (*Manifest, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse package.json in %s: %w", dir, err)
	}

	m := &Manifest{
		Dir:           pathutil.ToSlash(dir),
		Name:          r.Name,
		CleanedMain:   cleanField(r.Main),
		CleanedModule: cleanField(r.Module),
	}
	m.Browser = parseBrowserField(dir, r.Browser)
	if r.Exports != nil {
		m.hasExports = true
		m.Exports = parseExportsField(r.Exports)
	}
	return m, nil
}

func cleanField(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return "./" + pathutil.ToSlash(pathutil.TrimDotSlash(value))
}

// --- exports field ---

// ExportLeafKind classifies one resolved leaf of the exports map.
type ExportLeafKind int

const (
	ExportPrivate ExportLeafKind = iota
	ExportedPath
	ExportUnrecognized
)

// ExportLeaf is one terminal value reached while walking the exports map for
// a given subpath (there may be several, one per condition).
type ExportLeaf struct {
	Kind ExportLeafKind
	Path string // set when Kind == ExportedPath
}

// ExportsMap is subpath (e.g. ".", "./foo") -> the leaves reachable under
// every condition for that subpath. A flat exports map (single conditional
// group) is modeled as a single "." entry.
type ExportsMap map[string][]ExportLeaf

func parseExportsField(value any) ExportsMap {
	m := ExportsMap{}
	switch typed := value.(type) {
	case string:
		m["."] = []ExportLeaf{classifyLeaf(typed)}
	case nil:
		m["."] = []ExportLeaf{{Kind: ExportPrivate}}
	case bool:
		m["."] = []ExportLeaf{{Kind: ExportPrivate}}
	case map[string]any:
		if hasSubpathKeys(typed) {
			for key, leafValue := range typed {
				if !isSubpathKey(key) {
					continue
				}
				m[key] = collectLeaves(leafValue)
			}
		} else {
			m["."] = collectLeaves(typed)
		}
	default:
		m["."] = []ExportLeaf{{Kind: ExportUnrecognized}}
	}
	return m
}

func hasSubpathKeys(m map[string]any) bool {
	for key := range m {
		if isSubpathKey(key) {
			return true
		}
	}
	return false
}

func isSubpathKey(key string) bool {
	return strings.HasPrefix(strings.TrimSpace(key), ".")
}

// collectLeaves walks a condition map / nested value and gathers every leaf
// reachable from it, regardless of which condition selects it — the graph
// engine's seeding predicate only needs "is this path reachable under *some*
// condition", not runtime condition selection (that lives in internal/resolve,
// which picks one at resolve time).
func collectLeaves(value any) []ExportLeaf {
	switch typed := value.(type) {
	case string:
		return []ExportLeaf{classifyLeaf(typed)}
	case nil:
		return []ExportLeaf{{Kind: ExportPrivate}}
	case bool:
		if typed {
			return []ExportLeaf{{Kind: ExportUnrecognized}}
		}
		return []ExportLeaf{{Kind: ExportPrivate}}
	case []any:
		leaves := make([]ExportLeaf, 0, len(typed))
		for _, item := range typed {
			leaves = append(leaves, collectLeaves(item)...)
		}
		return leaves
	case map[string]any:
		leaves := make([]ExportLeaf, 0, len(typed))
		for _, key := range sortedKeys(typed) {
			leaves = append(leaves, collectLeaves(typed[key])...)
		}
		return leaves
	default:
		return []ExportLeaf{{Kind: ExportUnrecognized}}
	}
}

func classifyLeaf(path string) ExportLeaf {
	path = strings.TrimSpace(path)
	if path == "" {
		return ExportLeaf{Kind: ExportUnrecognized}
	}
	return ExportLeaf{Kind: ExportedPath, Path: pathutil.ToSlash("./" + pathutil.TrimDotSlash(path))}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasExports reports whether the manifest carries an "exports" field at all;
// its absence means "legacy package" (everything is exported).
func (m *Manifest) HasExports() bool {
	return m.hasExports
}

// IsAbspathExported implements spec.md §4.B's predicate: given an absolute
// path, is it reachable as an entry point of this package?
func (m *Manifest) IsAbspathExported(abs string) bool {
	rel := pathutil.Rel(m.Dir, abs)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	if !m.hasExports {
		return true
	}
	if matchesCleanedField(m.CleanedMain, rel) || matchesCleanedField(m.CleanedModule, rel) {
		return true
	}
	for _, leaves := range m.Exports {
		for _, leaf := range leaves {
			if leaf.Kind == ExportedPath && matchesCleanedField(leaf.Path, rel) {
				return true
			}
		}
	}
	return false
}

func matchesCleanedField(cleaned, rel string) bool {
	if cleaned == "" {
		return false
	}
	target := strings.TrimPrefix(cleaned, "./")
	if target == rel {
		return true
	}
	return stripExt(target) == stripExt(rel)
}

func stripExt(p string) string {
	ext := filepath.Ext(p)
	return strings.TrimSuffix(p, ext)
}
