// Package report defines the serializable output shape of an analysis
// run and formats it for humans or machines.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unused-finder/monorepo-core/internal/graph"
)

// Format selects the output rendering.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// SchemaVersion tags the JSON shape so downstream tooling can detect a
// breaking change.
const SchemaVersion = "1.0.0"

var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat maps a format name ("table" or "json", case-insensitive) to a
// Format, defaulting to table for an empty value.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, value)
	}
}

// SymbolEntry is one unreachable named export, as emitted in the report.
type SymbolEntry struct {
	ID    string `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Tags  string `json:"tags,omitempty"`
}

// Report is the full result of one analysis run.
type Report struct {
	SchemaVersion string                   `json:"schemaVersion"`
	GeneratedAt   time.Time                `json:"generatedAt"`
	RepoRoot      string                   `json:"repoRoot"`
	UnusedFiles   []string                 `json:"unusedFiles"`
	UnusedSymbols map[string][]SymbolEntry `json:"unusedSymbols"`
	Warnings      []string                 `json:"warnings,omitempty"`
}

// FromGraph builds a Report from the graph engine's verdict plus the
// ambient run metadata (repo root, walk warnings, generation time).
func FromGraph(repoRoot string, generatedAt time.Time, unused graph.UnusedReport, warnings []string) Report {
	r := Report{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   generatedAt,
		RepoRoot:      repoRoot,
		UnusedFiles:   unused.UnusedFiles,
		UnusedSymbols: make(map[string][]SymbolEntry, len(unused.UnusedSymbols)),
		Warnings:      warnings,
	}
	for path, symbols := range unused.UnusedSymbols {
		entries := make([]SymbolEntry, 0, len(symbols))
		for _, s := range symbols {
			entries = append(entries, SymbolEntry{ID: s.Name, Start: s.Start, End: s.End, Tags: tagString(s.Tags)})
		}
		r.UnusedSymbols[path] = entries
	}
	return r
}

// tagString renders a Tag bitset as "entry+ignored+test", in that fixed
// order, omitting whichever bits aren't set. Empty when tag == 0.
func tagString(tag graph.Tag) string {
	var parts []string
	if tag&graph.TagEntry != 0 {
		parts = append(parts, "entry")
	}
	if tag&graph.TagIgnored != 0 {
		parts = append(parts, "ignored")
	}
	if tag&graph.TagTest != 0 {
		parts = append(parts, "test")
	}
	return strings.Join(parts, "+")
}
