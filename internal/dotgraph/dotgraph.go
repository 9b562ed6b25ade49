// Package dotgraph renders a graph.Graph as Graphviz DOT, for the
// "graph --filter <substring>" CLI command.
package dotgraph

import (
	"sort"
	"strings"
	"text/template"

	"github.com/unused-finder/monorepo-core/internal/graph"
)

type node struct {
	ID    string
	Label string
}

type edge struct {
	From  string
	To    string
	Label string
}

type document struct {
	Nodes []node
	Edges []edge
}

var docTemplate = template.Must(template.New("dot").Parse(`digraph unused_finder {
  rankdir=LR;
  node [shape=box, fontsize=10];
{{- range .Nodes}}
  "{{.ID}}" [label="{{.Label}}"];
{{- end}}
{{- range .Edges}}
  "{{.From}}" -> "{{.To}}"{{if .Label}} [label="{{.Label}}"]{{end}};
{{- end}}
}
`))

// Render writes g as a Graphviz DOT document, restricted to files whose
// path contains filter (an empty filter includes every file). Edges
// pointing to files filtered out, or to external/unresolved modules, are
// omitted.
func Render(g *graph.Graph, filter string) (string, error) {
	included := map[string]bool{}
	for path := range g.Files {
		if filter == "" || strings.Contains(path, filter) {
			included[path] = true
		}
	}

	doc := document{}
	paths := make([]string, 0, len(included))
	for path := range included {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		doc.Nodes = append(doc.Nodes, node{ID: path, Label: shortLabel(path)})

		file := g.Files[path]
		for _, e := range file.Edges {
			if e.External || e.ToFile == "" || !included[e.ToFile] {
				continue
			}
			doc.Edges = append(doc.Edges, edge{From: path, To: e.ToFile, Label: edgeLabel(e)})
		}
		for _, r := range file.Reexports {
			if r.External || r.FromFile == "" || !included[r.FromFile] {
				continue
			}
			doc.Edges = append(doc.Edges, edge{From: path, To: r.FromFile, Label: "reexport:" + r.ExposedName})
		}
	}

	var buffer strings.Builder
	if err := docTemplate.Execute(&buffer, doc); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

func edgeLabel(e graph.Edge) string {
	switch e.Kind {
	case graph.KindNamed:
		return e.Symbol
	case graph.KindNamespace:
		return "*"
	case graph.KindExecutionOnly:
		return "exec"
	default:
		return ""
	}
}

func shortLabel(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
