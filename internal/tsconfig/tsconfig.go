// Package tsconfig parses the "baseUrl" and "paths" compiler options from a
// tsconfig.json and answers specifier lookups against them, the same
// substitution rules the TypeScript compiler itself uses for module
// resolution.
package tsconfig

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unused-finder/monorepo-core/internal/pathutil"
)

type raw struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// Pattern is one compiled "paths" entry. At most one "*" is permitted in the
// key, per TypeScript's own restriction; Exact patterns have none.
type Pattern struct {
	Key     string
	Exact   bool
	Prefix  string // text before "*" (or the whole key, when Exact)
	Suffix  string // text after "*" (empty when Exact)
	Targets []string
}

// Config is one parsed, directory-anchored tsconfig.json.
type Config struct {
	Dir     string // directory containing the tsconfig.json
	BaseURL string // absolute; equals Dir if baseUrl was unset
	Paths   []Pattern
}

// Parse parses tsconfig content rooted at dir. "extends" is intentionally
// unsupported: the walker resolves one tsconfig per directory context and
// merging an inheritance chain is out of scope for path-mapping lookups.
func Parse(dir string, data []byte) (*Config, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse tsconfig.json in %s: %w", dir, err)
	}

	baseURL := dir
	if r.CompilerOptions.BaseURL != "" {
		baseURL = pathutil.Join(dir, r.CompilerOptions.BaseURL)
	}

	cfg := &Config{Dir: pathutil.ToSlash(dir), BaseURL: pathutil.ToSlash(baseURL)}
	for _, key := range sortedPathKeys(r.CompilerOptions.Paths) {
		pattern, err := compilePattern(key, r.CompilerOptions.Paths[key])
		if err != nil {
			return nil, err
		}
		cfg.Paths = append(cfg.Paths, pattern)
	}
	return cfg, nil
}

func sortedPathKeys(paths map[string][]string) []string {
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func compilePattern(key string, targets []string) (Pattern, error) {
	if strings.Count(key, "*") > 1 {
		return Pattern{}, fmt.Errorf("paths key %q has more than one wildcard", key)
	}
	for _, target := range targets {
		if strings.Count(target, "*") > 1 {
			return Pattern{}, fmt.Errorf("paths target %q for key %q has more than one wildcard", target, key)
		}
	}

	idx := strings.IndexByte(key, '*')
	if idx < 0 {
		return Pattern{Key: key, Exact: true, Prefix: key, Targets: targets}, nil
	}
	return Pattern{Key: key, Prefix: key[:idx], Suffix: key[idx+1:], Targets: targets}, nil
}

// Match reports whether specifier matches p, and if so the wildcard capture
// (empty for an Exact pattern).
func (p Pattern) Match(specifier string) (capture string, ok bool) {
	if p.Exact {
		if specifier == p.Key {
			return "", true
		}
		return "", false
	}
	if !strings.HasPrefix(specifier, p.Prefix) || !strings.HasSuffix(specifier, p.Suffix) {
		return "", false
	}
	rest := specifier[len(p.Prefix) : len(specifier)-len(p.Suffix)]
	return rest, true
}

// Resolve returns every absolute candidate path implied by specifier across
// all matching patterns, longest prefix first (TypeScript tries patterns in
// the order most-specific to least, with exact matches always first).
func (c *Config) Resolve(specifier string) []string {
	var exactCandidates, wildcardCandidates []string
	for _, p := range orderedBySpecificity(c.Paths) {
		capture, ok := p.Match(specifier)
		if !ok {
			continue
		}
		for _, target := range p.Targets {
			substituted := strings.Replace(target, "*", capture, 1)
			abs := pathutil.ToSlash(filepath.Join(c.BaseURL, substituted))
			if p.Exact {
				exactCandidates = append(exactCandidates, abs)
			} else {
				wildcardCandidates = append(wildcardCandidates, abs)
			}
		}
	}
	return append(exactCandidates, wildcardCandidates...)
}

// orderedBySpecificity sorts patterns so the one with the longest literal
// prefix is tried first, matching tsc's longest-prefix-match tie-breaking.
func orderedBySpecificity(patterns []Pattern) []Pattern {
	sorted := append([]Pattern(nil), patterns...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && len(sorted[j].Prefix) > len(sorted[j-1].Prefix); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted
}
