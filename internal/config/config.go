// Package config loads and validates the JSON configuration file, and
// classifies "entryPackages" entries into literal-name, name-glob, and
// path-glob match rules.
package config

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/unused-finder/monorepo-core/internal/errs"
)

// Config is the parsed, defaulted configuration.
type Config struct {
	RepoRoot              string   `json:"repoRoot"`
	RootPaths             []string `json:"rootPaths"`
	Skip                  []string `json:"skip"`
	ReportExportedSymbols bool     `json:"reportExportedSymbols"`
	AllowUnusedTypes      bool     `json:"allowUnusedTypes"`
	EntryPackages         []string `json:"entryPackages"`
	TestFiles             []string `json:"testFiles"`
	DeadlockDetector      bool     `json:"deadlockDetector"`

	EntryMatchRules PackageMatchRules `json:"-"`
}

type raw struct {
	RepoRoot              string   `json:"repoRoot"`
	RootPaths             []string `json:"rootPaths"`
	Skip                  []string `json:"skip"`
	ReportExportedSymbols *bool    `json:"reportExportedSymbols"`
	AllowUnusedTypes      *bool    `json:"allowUnusedTypes"`
	EntryPackages         []string `json:"entryPackages"`
	TestFiles             []string `json:"testFiles"`
	DeadlockDetector      *bool    `json:"deadlockDetector"`
}

// Load parses and defaults a configuration from JSON content. Callers that
// want schema diagnostics before parsing should call ValidateSchema first.
func Load(data []byte) (*Config, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if strings.TrimSpace(r.RepoRoot) == "" {
		return nil, fmt.Errorf("parse config: \"repoRoot\" is required")
	}

	cfg := &Config{
		RepoRoot:              r.RepoRoot,
		RootPaths:             r.RootPaths,
		Skip:                  r.Skip,
		ReportExportedSymbols: boolOr(r.ReportExportedSymbols, false),
		AllowUnusedTypes:      boolOr(r.AllowUnusedTypes, false),
		EntryPackages:         r.EntryPackages,
		TestFiles:             r.TestFiles,
		DeadlockDetector:      boolOr(r.DeadlockDetector, false),
	}
	if len(cfg.RootPaths) == 0 {
		cfg.RootPaths = []string{cfg.RepoRoot}
	}

	rules, err := NewPackageMatchRules(cfg.EntryPackages)
	if err != nil {
		return nil, err
	}
	cfg.EntryMatchRules = rules

	return cfg, nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// PackageMatchRules classifies entryPackages strings into three buckets:
// a literal-name set, compiled name globs, and compiled "./"-rooted path
// globs, mirroring the original cfg/package_match_rules.rs classification.
type PackageMatchRules struct {
	Names        map[string]bool
	NamePatterns []Glob
	PathPatterns []Glob
}

// Glob is a compiled glob pattern with its original source text retained
// for diagnostics.
type Glob struct {
	Source  string
	matcher func(string) bool
}

// Match reports whether s matches the glob.
func (g Glob) Match(s string) bool { return g.matcher(s) }

// globSpecialChars are the characters whose presence in an entryPackages
// entry (that isn't "./"-prefixed) marks it as a name glob rather than a
// literal package name.
const globSpecialChars = "~)('!*,{"

// NewPackageMatchRules classifies entries the same way the upstream
// config's entryPackages field does: a "./"-prefixed entry is a path glob
// (matched against the package directory relative to the repo root); an
// entry containing any of globSpecialChars is a name glob; anything else is
// a literal package name.
func NewPackageMatchRules(entries []string) (PackageMatchRules, error) {
	rules := PackageMatchRules{Names: map[string]bool{}}
	acc := errs.New()

	for i, entry := range entries {
		switch {
		case strings.HasPrefix(entry, "./"):
			trimmed := strings.TrimPrefix(entry, "./")
			g, err := compileGlob(trimmed)
			if err != nil {
				acc.AddSingle(fmt.Errorf("entryPackages[%d] %q: invalid path glob: %w", i, entry, err))
				continue
			}
			rules.PathPatterns = append(rules.PathPatterns, g)
		case strings.ContainsAny(entry, globSpecialChars):
			g, err := compileGlob(entry)
			if err != nil {
				acc.AddSingle(fmt.Errorf("entryPackages[%d] %q: invalid name glob: %w", i, entry, err))
				continue
			}
			rules.NamePatterns = append(rules.NamePatterns, g)
		default:
			rules.Names[entry] = true
		}
	}

	if err := acc.IntoResult(); err != nil {
		return PackageMatchRules{}, err
	}
	return rules, nil
}

// Matches reports whether a package (named packageName, rooted at
// packagePathRelToRepo) satisfies any configured rule. An empty rule set
// matches nothing, which callers should treat as "no entryPackages filter
// configured" at a higher level if that's the desired default.
func (r PackageMatchRules) Matches(packagePathRelToRepo, packageName string) bool {
	if r.Names[packageName] {
		return true
	}
	for _, g := range r.NamePatterns {
		if g.Match(packageName) {
			return true
		}
	}
	for _, g := range r.PathPatterns {
		if g.Match(packagePathRelToRepo) {
			return true
		}
	}
	return false
}

// compileGlob compiles a shell-style glob (supporting "**" as "match any
// number of path segments", the one extension path.Match lacks) into a
// matcher function.
func compileGlob(pattern string) (Glob, error) {
	if _, err := path.Match(stripDoubleStar(pattern), ""); err != nil {
		return Glob{}, err
	}
	return Glob{Source: pattern, matcher: func(s string) bool { return matchGlob(pattern, s) }}, nil
}

func stripDoubleStar(pattern string) string {
	return strings.ReplaceAll(pattern, "**", "*")
}

// matchGlob matches s against pattern. A pattern without "**" is matched with
// path.Match. A pattern with "**" is split at each "**"; the parts (with
// surrounding "/" trimmed) must occur in s in order, the first one at the
// start of s, so each "**" matches any run of characters, "/" included. The
// parts are compared as literal text ("*", "?" and "[" inside them are not
// wildcards), and the last part need not reach the end of s.
func matchGlob(pattern, s string) bool {
	if !strings.Contains(pattern, "**") {
		ok, _ := path.Match(pattern, s)
		return ok
	}
	parts := strings.Split(pattern, "**")
	idx := 0
	for i, part := range parts {
		part = strings.Trim(part, "/")
		if part == "" {
			continue
		}
		found := strings.Index(s[idx:], part)
		if i == 0 && !strings.HasPrefix(s, part) {
			return false
		}
		if found < 0 {
			return false
		}
		idx += found + len(part)
	}
	return true
}
