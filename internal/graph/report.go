package graph

import "sort"

// SymbolResult is one reported named export: either never reached at all,
// or reached only through edges that don't grant full "used" status (a
// test-only path).
type SymbolResult struct {
	Name  string
	Start int
	End   int
	Tags  Tag // the tag bits accumulated on this symbol's own node; 0 if never reached
}

// UnusedReport is the final reachability verdict: files never activated,
// and named exports of otherwise-used files that were never fully reached.
type UnusedReport struct {
	UnusedFiles   []string
	UnusedSymbols map[string][]SymbolResult
}

// Report walks every file in the graph and classifies it as fully unused,
// partially unused (some exports unreached), or fully used.
//
// A symbol tagged TagIgnored is never reported, matching the rule that an
// ignored file's export surface doesn't count against the repo regardless
// of whether anything actually imports it. A symbol tagged TagEntry (alone
// or combined with TagTest) is fully used and dropped from the report; one
// reached only through TagTest is kept, tagged "test", since production
// code never actually reaches it. allowUnusedTypes, when true, additionally
// suppresses any export the scanner marked type-only, whether or not it was
// ever reached.
func (g *Graph) Report(allowUnusedTypes bool) UnusedReport {
	g.mu.Lock()
	defer g.mu.Unlock()

	report := UnusedReport{UnusedSymbols: map[string][]SymbolResult{}}
	for path, file := range g.Files {
		if _, used := g.moduleTags[path]; !used {
			report.UnusedFiles = append(report.UnusedFiles, path)
			continue
		}

		names := make([]string, 0, len(file.Exports))
		for name := range file.Exports {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			info := file.Exports[name]
			if allowUnusedTypes && info.IsType {
				continue
			}
			tag := g.tags[NodeID{path, name}]
			if tag&TagIgnored != 0 || tag&TagEntry != 0 {
				continue
			}
			report.UnusedSymbols[path] = append(report.UnusedSymbols[path], SymbolResult{
				Name: name, Start: info.Span.Start, End: info.Span.End, Tags: tag,
			})
		}
	}

	sort.Strings(report.UnusedFiles)
	return report
}
