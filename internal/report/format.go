package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"
)

// Formatter renders a Report for a chosen output Format.
type Formatter struct{}

func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Format(r Report, format Format) (string, error) {
	switch format {
	case FormatTable:
		return formatTable(r), nil
	case FormatJSON:
		payload, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", err
		}
		return string(payload) + "\n", nil
	default:
		return "", ErrUnknownFormat
	}
}

func formatTable(r Report) string {
	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "Unused files: %d\n", len(r.UnusedFiles))

	files := append([]string(nil), r.UnusedFiles...)
	sort.Strings(files)
	for _, path := range files {
		fmt.Fprintf(&buffer, "  %s\n", path)
	}

	symbolCount := 0
	for _, symbols := range r.UnusedSymbols {
		symbolCount += len(symbols)
	}
	fmt.Fprintf(&buffer, "\nUnused symbols: %d\n", symbolCount)

	paths := make([]string, 0, len(r.UnusedSymbols))
	for path := range r.UnusedSymbols {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	writer := tabwriter.NewWriter(&buffer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "File\tSymbol\tSpan\tTags")
	for _, path := range paths {
		entries := append([]SymbolEntry(nil), r.UnusedSymbols[path]...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
		for _, s := range entries {
			tags := s.Tags
			if tags == "" {
				tags = "-"
			}
			fmt.Fprintf(writer, "%s\t%s\t%d-%d\t%s\n", path, s.ID, s.Start, s.End, tags)
		}
	}
	writer.Flush()

	if len(r.Warnings) > 0 {
		buffer.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&buffer, "  %s\n", w)
		}
	}

	return buffer.String()
}
