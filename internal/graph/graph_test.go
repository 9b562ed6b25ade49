package graph

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/unused-finder/monorepo-core/internal/astscan"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEntryReachesDirectImport(t *testing.T) {
	g := New()
	g.Files["/entry.ts"] = &File{
		Path:    "/entry.ts",
		Exports: map[string]ExportInfo{},
		Edges:   []Edge{{ToFile: "/lib.ts", Kind: KindNamed, Symbol: "helper"}},
	}
	g.Files["/lib.ts"] = &File{
		Path: "/lib.ts",
		Exports: map[string]ExportInfo{
			"helper": {Span: astscan.Span{Start: 0, End: 10}},
			"unused": {Span: astscan.Span{Start: 20, End: 30}},
		},
	}

	err := g.Run(context.Background(), []Seed{{ID: NodeID{"/entry.ts", ""}, Tag: TagEntry}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !g.IsSymbolUsed("/lib.ts", "helper") {
		t.Error("expected helper to be reached")
	}
	if g.IsSymbolUsed("/lib.ts", "unused") {
		t.Error("expected unused to remain unreached")
	}
	if !g.IsModuleUsed("/lib.ts") {
		t.Error("expected /lib.ts to be activated")
	}
}

func TestUnreferencedFileIsUnused(t *testing.T) {
	g := New()
	g.Files["/entry.ts"] = &File{Path: "/entry.ts", Exports: map[string]ExportInfo{}}
	g.Files["/orphan.ts"] = &File{Path: "/orphan.ts", Exports: map[string]ExportInfo{"x": {}}}

	if err := g.Run(context.Background(), []Seed{{ID: NodeID{"/entry.ts", ""}, Tag: TagEntry}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report := g.Report(false)
	found := false
	for _, f := range report.UnusedFiles {
		if f == "/orphan.ts" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected /orphan.ts in unused files, got %v", report.UnusedFiles)
	}
}

func TestReexportChainForwards(t *testing.T) {
	g := New()
	g.Files["/entry.ts"] = &File{
		Path:  "/entry.ts",
		Edges: []Edge{{ToFile: "/middle.ts", Kind: KindNamed, Symbol: "thing"}},
	}
	g.Files["/middle.ts"] = &File{
		Path:      "/middle.ts",
		Exports:   map[string]ExportInfo{},
		Reexports: []Reexport{{ExposedName: "thing", FromFile: "/origin.ts", FromSymbol: "thing"}},
	}
	g.Files["/origin.ts"] = &File{
		Path:    "/origin.ts",
		Exports: map[string]ExportInfo{"thing": {Span: astscan.Span{Start: 1, End: 2}}},
	}

	if err := g.Run(context.Background(), []Seed{{ID: NodeID{"/entry.ts", ""}, Tag: TagEntry}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !g.IsSymbolUsed("/origin.ts", "thing") {
		t.Error("expected re-export chain to forward reachability to the origin file")
	}
}

func TestStarReexportForwardsRequestedName(t *testing.T) {
	g := New()
	g.Files["/entry.ts"] = &File{
		Path:  "/entry.ts",
		Edges: []Edge{{ToFile: "/barrel.ts", Kind: KindNamed, Symbol: "widget"}},
	}
	g.Files["/barrel.ts"] = &File{
		Path:      "/barrel.ts",
		Exports:   map[string]ExportInfo{},
		Reexports: []Reexport{{ExposedName: "*", FromFile: "/impl.ts", FromSymbol: "*"}},
	}
	g.Files["/impl.ts"] = &File{
		Path: "/impl.ts",
		Exports: map[string]ExportInfo{
			"widget": {Span: astscan.Span{Start: 0, End: 5}},
			"other":  {Span: astscan.Span{Start: 6, End: 9}},
		},
	}

	if err := g.Run(context.Background(), []Seed{{ID: NodeID{"/entry.ts", ""}, Tag: TagEntry}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !g.IsSymbolUsed("/impl.ts", "widget") {
		t.Error("expected widget to forward through the star reexport")
	}
	if g.IsSymbolUsed("/impl.ts", "other") {
		t.Error("expected other to remain unreached")
	}
}

func TestNamespaceImportMarksAllExportsUsed(t *testing.T) {
	g := New()
	g.Files["/entry.ts"] = &File{
		Path:  "/entry.ts",
		Edges: []Edge{{ToFile: "/lib.ts", Kind: KindNamespace}},
	}
	g.Files["/lib.ts"] = &File{
		Path:    "/lib.ts",
		Exports: map[string]ExportInfo{"a": {}, "b": {}},
	}

	if err := g.Run(context.Background(), []Seed{{ID: NodeID{"/entry.ts", ""}, Tag: TagEntry}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !g.IsSymbolUsed("/lib.ts", "a") || !g.IsSymbolUsed("/lib.ts", "b") {
		t.Error("expected a namespace import to mark every export as used")
	}
}

func TestTestOnlyTagDoesNotGrantEntryTag(t *testing.T) {
	g := New()
	g.Files["/test.spec.ts"] = &File{
		Path:  "/test.spec.ts",
		Edges: []Edge{{ToFile: "/lib.ts", Kind: KindNamed, Symbol: "helper"}},
	}
	g.Files["/lib.ts"] = &File{Path: "/lib.ts", Exports: map[string]ExportInfo{"helper": {}}}

	if err := g.Run(context.Background(), []Seed{{ID: NodeID{"/test.spec.ts", ""}, Tag: TagTest}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	tag := g.SymbolTag("/lib.ts", "helper")
	if tag&TagTest == 0 {
		t.Error("expected the test tag to propagate")
	}
	if tag&TagEntry != 0 {
		t.Error("expected no entry tag to leak in from a test-only path")
	}

	report := g.Report(false)
	results := report.UnusedSymbols["/lib.ts"]
	if len(results) != 1 || results[0].Name != "helper" {
		t.Fatalf("expected helper to remain in the report as test-only, got %v", results)
	}
	if results[0].Tags&TagTest == 0 {
		t.Error("expected the reported symbol to carry the test tag")
	}
	if results[0].Tags&TagEntry != 0 {
		t.Error("expected the reported symbol not to carry the entry tag")
	}
}

func TestEntryTagOverridesTestOnlyStatus(t *testing.T) {
	g := New()
	g.Files["/test.spec.ts"] = &File{
		Path:  "/test.spec.ts",
		Edges: []Edge{{ToFile: "/lib.ts", Kind: KindNamed, Symbol: "helper"}},
	}
	g.Files["/entry.ts"] = &File{
		Path:  "/entry.ts",
		Edges: []Edge{{ToFile: "/lib.ts", Kind: KindNamed, Symbol: "helper"}},
	}
	g.Files["/lib.ts"] = &File{Path: "/lib.ts", Exports: map[string]ExportInfo{"helper": {}}}

	seeds := []Seed{
		{ID: NodeID{"/test.spec.ts", ""}, Tag: TagTest},
		{ID: NodeID{"/entry.ts", ""}, Tag: TagEntry},
	}
	if err := g.Run(context.Background(), seeds); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report := g.Report(false)
	if results := report.UnusedSymbols["/lib.ts"]; len(results) != 0 {
		t.Errorf("expected a non-test reaching edge to fully mark helper used, got %v", results)
	}
}

func TestIgnoredFileSuppressesSymbolFromReport(t *testing.T) {
	g := New()
	g.Files["/ignored.ts"] = &File{
		Path:      "/ignored.ts",
		IsIgnored: true,
		Exports:   map[string]ExportInfo{"unused": {}},
	}

	if err := g.Run(context.Background(), []Seed{{ID: NodeID{"/ignored.ts", ""}, Tag: TagIgnored}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report := g.Report(false)
	if results := report.UnusedSymbols["/ignored.ts"]; len(results) != 0 {
		t.Errorf("expected ignored file's exports to be suppressed, got %v", results)
	}
	for _, f := range report.UnusedFiles {
		if f == "/ignored.ts" {
			t.Error("expected ignored file not to appear as an unused file")
		}
	}
}

func TestIgnoredIntermediateFileForwardsReexport(t *testing.T) {
	g := New()
	g.Files["/entry.ts"] = &File{
		Path:  "/entry.ts",
		Edges: []Edge{{ToFile: "/ignored.ts", Kind: KindNamed, Symbol: "thing"}},
	}
	g.Files["/ignored.ts"] = &File{
		Path:      "/ignored.ts",
		IsIgnored: true,
		Exports:   map[string]ExportInfo{},
		Reexports: []Reexport{{ExposedName: "thing", FromFile: "/origin.ts", FromSymbol: "thing"}},
	}
	g.Files["/origin.ts"] = &File{
		Path:    "/origin.ts",
		Exports: map[string]ExportInfo{"thing": {}},
	}

	seeds := []Seed{
		{ID: NodeID{"/entry.ts", ""}, Tag: TagEntry},
		{ID: NodeID{"/ignored.ts", ""}, Tag: TagIgnored},
	}
	if err := g.Run(context.Background(), seeds); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !g.IsSymbolUsed("/origin.ts", "thing") {
		t.Error("expected reachability to forward through an ignored intermediate file")
	}
}

func TestAllowUnusedTypesSuppressesTypeOnlyExport(t *testing.T) {
	g := New()
	g.Files["/entry.ts"] = &File{
		Path:    "/entry.ts",
		Exports: map[string]ExportInfo{},
		Edges:   []Edge{{ToFile: "/lib.ts", Kind: KindNamed, Symbol: "used"}},
	}
	g.Files["/lib.ts"] = &File{
		Path: "/lib.ts",
		Exports: map[string]ExportInfo{
			"Thing": {IsType: true},
			"value": {},
			"used":  {},
		},
	}

	if err := g.Run(context.Background(), []Seed{{ID: NodeID{"/entry.ts", ""}, Tag: TagEntry}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	withTypes := g.Report(false)
	names := map[string]bool{}
	for _, r := range withTypes.UnusedSymbols["/lib.ts"] {
		names[r.Name] = true
	}
	if !names["Thing"] || !names["value"] {
		t.Errorf("expected both exports reported when allowUnusedTypes is false, got %v", withTypes.UnusedSymbols["/lib.ts"])
	}

	withoutTypes := g.Report(true)
	names = map[string]bool{}
	for _, r := range withoutTypes.UnusedSymbols["/lib.ts"] {
		names[r.Name] = true
	}
	if names["Thing"] {
		t.Error("expected the type-only export to be suppressed when allowUnusedTypes is true")
	}
	if !names["value"] {
		t.Error("expected the value export to still be reported")
	}
}

func TestSelfReexportCycleDoesNotHang(t *testing.T) {
	g := New()
	g.Files["/entry.ts"] = &File{
		Path:  "/entry.ts",
		Edges: []Edge{{ToFile: "/a.ts", Kind: KindNamed, Symbol: "x"}},
	}
	g.Files["/a.ts"] = &File{
		Path:      "/a.ts",
		Exports:   map[string]ExportInfo{},
		Reexports: []Reexport{{ExposedName: "x", FromFile: "/b.ts", FromSymbol: "x"}},
	}
	g.Files["/b.ts"] = &File{
		Path:      "/b.ts",
		Exports:   map[string]ExportInfo{},
		Reexports: []Reexport{{ExposedName: "x", FromFile: "/a.ts", FromSymbol: "x"}},
	}

	if err := g.Run(context.Background(), []Seed{{ID: NodeID{"/entry.ts", ""}, Tag: TagEntry}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
