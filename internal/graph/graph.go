// Package graph implements the bipartite file x symbol reachability engine:
// given a set of files with their declared exports, re-export forwarding
// rules, and outgoing import/require/dynamic-import edges, it computes
// which files and which named exports are reachable from a set of entry
// points via parallel-within-step, serial-across-step breadth-first
// expansion, propagating FROM_ENTRY / FROM_TEST / FROM_IGNORED tags as it
// goes.
package graph

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/unused-finder/monorepo-core/internal/astscan"
)

// MaxSteps bounds the BFS: a well-formed graph converges in a number of
// steps proportional to the longest re-export chain, never anywhere near
// this; it exists as a guard against a construction bug turning a cycle
// guard into an infinite loop.
const MaxSteps = 10_000_000

// Tag marks why a node was reached, so the report can distinguish "used by
// production code" from "only ever used from a test" or "would be unused
// but its file is ignore-listed".
type Tag uint8

const (
	TagEntry Tag = 1 << iota
	TagTest
	TagIgnored
)

// NodeID identifies one reachability target: a specific named export of a
// file, or the whole file (Symbol == "") for namespace-wide / execution-only
// references.
type NodeID struct {
	File   string
	Symbol string
}

// Kind classifies an outgoing edge from a file to whatever it imports.
type Kind int

const (
	KindNamespace Kind = iota
	KindExecutionOnly
	KindNamed
)

// Edge is one outgoing reference from a file to another module.
type Edge struct {
	ToFile   string // resolved absolute path; "" if External or unresolved
	External bool
	Kind     Kind
	Symbol   string // set when Kind == KindNamed
}

// Reexport is one `export ... from "module"` forwarding rule.
type Reexport struct {
	ExposedName string // the name consumers of this file see; "*" for `export * from`
	FromFile    string // resolved target file; "" if external/unresolved
	FromSymbol  string // the name in the target file; "*" for a star reexport
	External    bool
}

// ExportInfo is one name a file declares directly, along with whatever
// report-relevant metadata the scanner attached to it.
type ExportInfo struct {
	Span   astscan.Span
	IsType bool
}

// File is one node in the bipartite graph: a source file with its declared
// exports, re-export forwarding rules, and outgoing edges.
type File struct {
	Path      string
	IsTest    bool
	IsIgnored bool
	Exports   map[string]ExportInfo // locally declared export name -> info
	Reexports []Reexport
	Edges     []Edge
}

// Graph holds the full file set and the reachability state accumulated by
// Run.
type Graph struct {
	Files map[string]*File

	mu         sync.Mutex
	tags       map[NodeID]Tag
	moduleTags map[string]Tag
}

// New builds an empty Graph. Populate Files before calling Run.
func New() *Graph {
	return &Graph{
		Files:      map[string]*File{},
		tags:       map[NodeID]Tag{},
		moduleTags: map[string]Tag{},
	}
}

// Seed is one entry point: a node to mark reachable up front, with the tag
// that explains why.
type Seed struct {
	ID  NodeID
	Tag Tag
}

// Run expands reachability from seeds using errgroup parallelism (one
// goroutine per frontier node, no limit) within each BFS step; steps
// themselves are strictly sequential, so a step starts only after every node
// of the previous step has been processed, and it processes exactly the nodes
// that step produced.
func (g *Graph) Run(ctx context.Context, seeds []Seed) error {
	frontier := make(map[NodeID]Tag, len(seeds))
	for _, s := range seeds {
		frontier[s.ID] = frontier[s.ID] | s.Tag
	}

	for step := 0; len(frontier) > 0; step++ {
		if step > MaxSteps {
			return fmt.Errorf("graph: exceeded max BFS steps (%d)", MaxSteps)
		}

		type job struct {
			id  NodeID
			tag Tag
		}
		jobs := make([]job, 0, len(frontier))
		for id, tag := range frontier {
			jobs = append(jobs, job{id, tag})
		}

		next := make(map[NodeID]Tag)
		var mu sync.Mutex
		eg, egctx := errgroup.WithContext(ctx)
		for _, j := range jobs {
			j := j
			eg.Go(func() error {
				if egctx.Err() != nil {
					return egctx.Err()
				}
				produced := g.markSymbol(j.id, j.tag)
				mu.Lock()
				for _, p := range produced {
					next[p.id] = next[p.id] | p.tag
				}
				mu.Unlock()
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		frontier = next
	}
	return nil
}

type taggedNode struct {
	id  NodeID
	tag Tag
}

// markSymbol merges tag into id's accumulated tags and, if that changed
// anything, expands id into the frontier nodes it activates. Safe for
// concurrent use; callers within the same BFS step may race harmlessly
// against each other, guarded by g.mu.
func (g *Graph) markSymbol(id NodeID, tag Tag) []taggedNode {
	g.mu.Lock()
	prev := g.tags[id]
	merged := prev | tag
	changed := merged != prev
	g.tags[id] = merged
	g.mu.Unlock()

	var produced []taggedNode
	produced = append(produced, g.activateModule(id.File, merged)...)

	if !changed {
		return produced
	}

	file := g.Files[id.File]
	if file == nil {
		return produced
	}

	if id.Symbol == "" {
		for name := range file.Exports {
			produced = append(produced, taggedNode{NodeID{id.File, name}, merged})
		}
		for _, r := range file.Reexports {
			produced = append(produced, g.forward(r, r.FromSymbol, merged)...)
		}
		return produced
	}

	if _, declared := file.Exports[id.Symbol]; declared {
		return produced
	}

	matched := false
	for _, r := range file.Reexports {
		if r.ExposedName == id.Symbol {
			matched = true
			produced = append(produced, g.forward(r, r.FromSymbol, merged)...)
		}
	}
	if !matched {
		for _, r := range file.Reexports {
			if r.ExposedName == "*" {
				produced = append(produced, g.forward(r, id.Symbol, merged)...)
			}
		}
	}
	return produced
}

func (g *Graph) forward(r Reexport, requestedName string, tag Tag) []taggedNode {
	if r.External || r.FromFile == "" {
		return nil
	}
	symbol := r.FromSymbol
	if symbol == "*" {
		symbol = requestedName
	}
	return []taggedNode{{NodeID{r.FromFile, symbol}, tag}}
}

// activateModule marks file as activated the first time any of its nodes is
// reached, and expands its own outgoing edges (a module's top-level code
// runs, importing everything it statically depends on, as soon as any of
// its exports is referenced at all). Re-activation with a superset of tags
// re-expands so new tags propagate to dependents.
func (g *Graph) activateModule(file string, tag Tag) []taggedNode {
	g.mu.Lock()
	prev := g.moduleTags[file]
	merged := prev | tag
	changed := merged != prev
	g.moduleTags[file] = merged
	g.mu.Unlock()

	if !changed {
		return nil
	}

	f := g.Files[file]
	if f == nil {
		return nil
	}

	var produced []taggedNode
	for _, e := range f.Edges {
		if e.External || e.ToFile == "" {
			continue
		}
		switch e.Kind {
		case KindNamespace, KindExecutionOnly:
			produced = append(produced, taggedNode{NodeID{e.ToFile, ""}, merged})
		case KindNamed:
			produced = append(produced, taggedNode{NodeID{e.ToFile, e.Symbol}, merged})
		}
	}
	return produced
}

// IsModuleUsed reports whether file was ever activated.
func (g *Graph) IsModuleUsed(file string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.moduleTags[file]
	return ok
}

// ModuleTag returns the accumulated tag bitset for file (0 if never used).
func (g *Graph) ModuleTag(file string) Tag {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moduleTags[file]
}

// IsSymbolUsed reports whether the named export of file was ever reached.
func (g *Graph) IsSymbolUsed(file, symbol string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.tags[NodeID{file, symbol}]
	return ok
}

// SymbolTag returns the accumulated tag bitset for a file's named export
// (0 if never used).
func (g *Graph) SymbolTag(file, symbol string) Tag {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tags[NodeID{file, symbol}]
}
