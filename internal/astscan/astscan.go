// Package astscan parses one JS/TS source file with tree-sitter and
// extracts the raw facts the resolver and graph engine need: static and
// dynamic imports, require() calls (including destructuring shadowing),
// re-exports, declared exports with their byte spans, and paths that are
// only ever executed (never bound to an identifier).
package astscan

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	tsxlang "github.com/smacker/go-tree-sitter/typescript/tsx"
	tslang "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/unused-finder/monorepo-core/internal/diagnostic"
)

// Kind classifies how a module specifier was referenced.
type Kind int

const (
	KindStaticImport Kind = iota
	KindDynamicImport
	KindRequire
	KindReexport
)

// Span is a byte-offset range into the file's content.
type Span struct {
	Start, End int
}

// Binding is one reference to a module specifier, with whatever local
// identifier (if any) it was bound to.
type Binding struct {
	Module     string
	ExportName string // "*" for namespace bindings, "" for side-effect-only
	LocalName  string
	Kind       Kind
	Span       Span
}

// ReexportDecl is one `export ... from "module"` declaration.
type ReexportDecl struct {
	Module     string
	ExportName string // "*" for `export * from`, otherwise the exported name
	AsName     string // alias; equals ExportName when unaliased
	Span       Span
}

// ExportDecl is one name this file exports directly (not forwarded from
// another module).
type ExportDecl struct {
	Name   string // "default" for a default export
	Span   Span
	IsType bool // true for `export type ...`, `interface`, or a type-only named export
}

// FileScan is everything extracted from one source file.
type FileScan struct {
	Path           string
	StaticImports  []Binding
	DynamicImports []Binding
	Requires       []Binding
	Reexports      []ReexportDecl
	Exports        []ExportDecl
	ExecutedPaths  []string // specifiers referenced only for side effect
	AutoGenerated  bool
	Diagnostics    []diagnostic.Msg
}

var supportedExtensions = map[string]bool{
	".js": true, ".cjs": true, ".mjs": true, ".jsx": true,
	".ts": true, ".mts": true, ".cts": true, ".tsx": true,
}

// IsSupportedFile reports whether path has an extension this scanner
// understands.
func IsSupportedFile(path string) bool {
	return supportedExtensions[strings.ToLower(ext(path))]
}

func ext(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}

// Parser wraps the three grammars this module understands (plain
// JS/JSX, TS, and TSX), exactly the set lopper's scanner supports.
type Parser struct {
	js  *sitter.Language
	ts  *sitter.Language
	tsx *sitter.Language
}

// NewParser constructs a Parser. Grammars are loaded once and reused across
// every Scan call.
func NewParser() *Parser {
	return &Parser{
		js:  javascript.GetLanguage(),
		ts:  tslang.GetLanguage(),
		tsx: tsxlang.GetLanguage(),
	}
}

func (p *Parser) languageFor(path string) (*sitter.Language, error) {
	switch strings.ToLower(ext(path)) {
	case ".js", ".cjs", ".mjs", ".jsx":
		return p.js, nil
	case ".ts", ".mts", ".cts":
		return p.ts, nil
	case ".tsx":
		return p.tsx, nil
	default:
		return nil, fmt.Errorf("astscan: unsupported extension for %s", path)
	}
}

// Scan parses content (the bytes of the file at path) and extracts its
// FileScan. A parse with syntax errors still returns a best-effort FileScan,
// and the syntax errors themselves are not reported; the returned
// diagnostics cover only module-scope return/break/continue and `with`
// statements.
func (p *Parser) Scan(path string, content []byte) (FileScan, error) {
	lang, err := p.languageFor(path)
	if err != nil {
		return FileScan{}, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree := parser.Parse(nil, content)
	if tree == nil {
		return FileScan{}, fmt.Errorf("astscan: tree-sitter returned no tree for %s", path)
	}

	locator := diagnostic.NewSourceLocator(path, content)
	v := &visitor{path: path, content: content, locator: locator}
	v.walk(tree.RootNode(), scopeKind{})
	v.scan.AutoGenerated = detectAutoGenerated(content)
	v.scan.Path = path
	return v.scan, nil
}

func detectAutoGenerated(content []byte) bool {
	head := content
	if len(head) > 512 {
		head = head[:512]
	}
	text := string(head)
	markers := []string{"@generated", "DO NOT EDIT", "AUTO-GENERATED", "Code generated"}
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// scopeKind tracks whether the walker is currently inside a function body or
// a loop, so module-scope return/break/continue can be flagged.
type scopeKind struct {
	inFunction bool
	inLoop     bool
}

type visitor struct {
	path    string
	content []byte
	locator *diagnostic.SourceLocator
	scan    FileScan
}

var functionNodeTypes = map[string]bool{
	"function_declaration": true, "function_expression": true,
	"arrow_function": true, "generator_function_declaration": true,
	"generator_function": true, "method_definition": true,
}

var loopNodeTypes = map[string]bool{
	"for_statement": true, "for_in_statement": true,
	"while_statement": true, "do_statement": true,
}

func (v *visitor) walk(node *sitter.Node, scope scopeKind) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "import_statement":
		v.visitImportStatement(node)
	case "call_expression":
		v.visitCallExpression(node, scope)
	case "export_statement":
		v.visitExportStatement(node)
	case "return_statement":
		if !scope.inFunction {
			v.diagAt(node, diagnostic.KindParseFailure, "return statement at module scope")
		}
	case "break_statement":
		if !scope.inLoop {
			v.diagAt(node, diagnostic.KindParseFailure, "break statement outside of a loop or switch")
		}
	case "continue_statement":
		if !scope.inLoop {
			v.diagAt(node, diagnostic.KindParseFailure, "continue statement outside of a loop")
		}
	case "with_statement":
		v.diagAt(node, diagnostic.KindParseFailure, "'with' statement is not analyzable and disables static reachability for its body")
	}

	childScope := scope
	if functionNodeTypes[node.Type()] {
		childScope = scopeKind{inFunction: true, inLoop: false}
	} else if loopNodeTypes[node.Type()] {
		childScope.inLoop = true
	} else if node.Type() == "switch_statement" {
		childScope.inLoop = true
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		v.walk(node.NamedChild(i), childScope)
	}
}

func (v *visitor) diagAt(node *sitter.Node, kind diagnostic.Kind, text string) {
	loc := v.locator.Locate(int(node.StartByte()))
	v.scan.Diagnostics = append(v.scan.Diagnostics, diagnostic.Msg{Level: diagnostic.LevelWarn, Kind: kind, Text: text, Location: &loc})
}

func (v *visitor) span(node *sitter.Node) Span {
	return Span{Start: int(node.StartByte()), End: int(node.EndByte())}
}

func (v *visitor) nodeText(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(v.content[node.StartByte():node.EndByte()])
}

func (v *visitor) stringLiteral(node *sitter.Node) (string, bool) {
	text := v.nodeText(node)
	if len(text) >= 2 {
		quote := text[0]
		if (quote == '"' || quote == '\'' || quote == '`') && text[len(text)-1] == quote {
			return text[1 : len(text)-1], true
		}
	}
	return "", false
}

func firstNamedChildOfType(node *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		for _, typ := range types {
			if child.Type() == typ {
				return child
			}
		}
	}
	return nil
}

// --- imports ---

func (v *visitor) visitImportStatement(node *sitter.Node) {
	sourceNode := node.ChildByFieldName("source")
	module, ok := v.stringLiteral(sourceNode)
	if !ok {
		return
	}

	clause := node.ChildByFieldName("import_clause")
	if clause == nil {
		clause = firstNamedChildOfType(node, "import_clause")
	}
	if clause == nil {
		// bare `import "module"`: executed for side effect only.
		v.scan.ExecutedPaths = append(v.scan.ExecutedPaths, module)
		return
	}

	before := len(v.scan.StaticImports)
	v.visitImportClause(clause, module)
	if len(v.scan.StaticImports) == before {
		v.scan.ExecutedPaths = append(v.scan.ExecutedPaths, module)
	}
}

func (v *visitor) visitImportClause(node *sitter.Node, module string) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier":
			v.scan.StaticImports = append(v.scan.StaticImports, Binding{
				Module: module, ExportName: "default", LocalName: v.nodeText(child),
				Kind: KindStaticImport, Span: v.span(child),
			})
		case "namespace_import":
			name := firstNamedChildOfType(child, "identifier")
			v.scan.StaticImports = append(v.scan.StaticImports, Binding{
				Module: module, ExportName: "*", LocalName: v.nodeText(name),
				Kind: KindStaticImport, Span: v.span(child),
			})
		case "named_imports":
			v.visitNamedImports(child, module)
		}
	}
}

func (v *visitor) visitNamedImports(node *sitter.Node, module string) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "import_specifier" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = firstNamedChildOfType(child, "identifier", "property_identifier", "string")
		}
		aliasNode := child.ChildByFieldName("alias")
		if aliasNode == nil {
			aliasNode = nameNode
		}
		exportName := v.nodeText(nameNode)
		if exportName == "" {
			continue
		}
		localName := v.nodeText(aliasNode)
		if localName == "" {
			localName = exportName
		}
		v.scan.StaticImports = append(v.scan.StaticImports, Binding{
			Module: module, ExportName: exportName, LocalName: localName,
			Kind: KindStaticImport, Span: v.span(child),
		})
	}
}

// --- require() and import() ---

func (v *visitor) visitCallExpression(node *sitter.Node, scope scopeKind) {
	functionNode := node.ChildByFieldName("function")
	if functionNode == nil {
		return
	}

	switch functionNode.Type() {
	case "identifier":
		if v.nodeText(functionNode) == "require" {
			v.visitRequireCall(node)
		}
	case "import":
		v.visitDynamicImport(node)
	}
}

func (v *visitor) argumentModule(node *sitter.Node) (string, bool) {
	argumentsNode := node.ChildByFieldName("arguments")
	if argumentsNode == nil || argumentsNode.NamedChildCount() == 0 {
		return "", false
	}
	return v.stringLiteral(argumentsNode.NamedChild(0))
}

func (v *visitor) visitRequireCall(node *sitter.Node) {
	module, ok := v.argumentModule(node)
	if !ok {
		return
	}

	declarator := ancestorOfType(node, "variable_declarator")
	if declarator == nil {
		v.scan.ExecutedPaths = append(v.scan.ExecutedPaths, module)
		return
	}
	nameNode := declarator.ChildByFieldName("name")
	if nameNode == nil {
		v.scan.ExecutedPaths = append(v.scan.ExecutedPaths, module)
		return
	}

	switch nameNode.Type() {
	case "identifier":
		v.scan.Requires = append(v.scan.Requires, Binding{
			Module: module, ExportName: "*", LocalName: v.nodeText(nameNode),
			Kind: KindRequire, Span: v.span(node),
		})
	case "object_pattern":
		v.visitDestructuredRequire(nameNode, module, node)
	default:
		v.scan.ExecutedPaths = append(v.scan.ExecutedPaths, module)
	}
}

// visitDestructuredRequire handles `const { a, b: bAlias } = require("mod")`,
// where shadowing an outer `a` with the destructured local still counts as a
// binding of the inner identifier, not the outer one: every property here
// introduces its own fresh local scoped to this declarator.
func (v *visitor) visitDestructuredRequire(node *sitter.Node, module string, call *sitter.Node) {
	before := len(v.scan.Requires)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "shorthand_property_identifier_pattern", "property_identifier":
			name := v.nodeText(child)
			if name == "" {
				continue
			}
			v.scan.Requires = append(v.scan.Requires, Binding{
				Module: module, ExportName: name, LocalName: name,
				Kind: KindRequire, Span: v.span(child),
			})
		case "pair_pattern":
			keyNode := child.ChildByFieldName("key")
			valueNode := child.ChildByFieldName("value")
			exportName := v.nodeText(keyNode)
			localName := v.nodeText(valueNode)
			if exportName == "" {
				continue
			}
			if localName == "" {
				localName = exportName
			}
			v.scan.Requires = append(v.scan.Requires, Binding{
				Module: module, ExportName: exportName, LocalName: localName,
				Kind: KindRequire, Span: v.span(child),
			})
		}
	}
	if len(v.scan.Requires) == before {
		v.scan.ExecutedPaths = append(v.scan.ExecutedPaths, module)
	}
}

func (v *visitor) visitDynamicImport(node *sitter.Node) {
	module, ok := v.argumentModule(node)
	if !ok {
		return
	}

	// import("mod").then(m => ...) or a bare import("mod") statement is
	// treated as an executed, namespace-shaped reference: we cannot
	// statically know which bindings a consumer destructures out of the
	// resulting promise, matching the over-approximation the graph engine
	// applies to "execution-only" edges.
	v.scan.DynamicImports = append(v.scan.DynamicImports, Binding{
		Module: module, ExportName: "*", LocalName: "",
		Kind: KindDynamicImport, Span: v.span(node),
	})
	v.scan.ExecutedPaths = append(v.scan.ExecutedPaths, module)
}

func ancestorOfType(node *sitter.Node, typ string) *sitter.Node {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Type() == typ {
			return p
		}
		if p.Type() == "expression_statement" || p.Type() == "statement_block" {
			return nil
		}
	}
	return nil
}

// --- exports ---

func (v *visitor) visitExportStatement(node *sitter.Node) {
	sourceNode := node.ChildByFieldName("source")
	module, hasSource := "", false
	if sourceNode != nil {
		module, hasSource = v.stringLiteral(sourceNode)
	}

	if isDefaultExport(node) {
		v.scan.Exports = append(v.scan.Exports, ExportDecl{Name: "default", Span: v.span(node)})
		return
	}

	if star := firstNamedChildOfType(node, "namespace_export"); star != nil && hasSource {
		alias := firstNamedChildOfType(star, "identifier")
		asName := "*"
		if alias != nil {
			asName = v.nodeText(alias)
		}
		v.scan.Reexports = append(v.scan.Reexports, ReexportDecl{Module: module, ExportName: "*", AsName: asName, Span: v.span(node)})
		return
	}
	if hasStarToken(node) && hasSource {
		v.scan.Reexports = append(v.scan.Reexports, ReexportDecl{Module: module, ExportName: "*", AsName: "*", Span: v.span(node)})
		return
	}

	if clause := firstNamedChildOfType(node, "export_clause"); clause != nil {
		v.visitExportClause(clause, module, hasSource, hasTypeToken(node))
		return
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		v.visitExportedDeclaration(decl)
	}
}

func isDefaultExport(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "default" {
			return true
		}
	}
	return false
}

func hasStarToken(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "*" {
			return true
		}
	}
	return false
}

// hasTypeToken reports whether an export_statement carries the "type"
// keyword directly after "export" (`export type { Foo }`), marking every
// name in its clause type-only.
func hasTypeToken(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "type" {
			return true
		}
		if child.Type() == "export_clause" {
			break
		}
	}
	return false
}

func (v *visitor) visitExportClause(node *sitter.Node, module string, hasSource, typeOnly bool) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		spec := node.NamedChild(i)
		if spec.Type() != "export_specifier" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		aliasNode := spec.ChildByFieldName("alias")
		name := v.nodeText(nameNode)
		if name == "" {
			continue
		}
		as := name
		if aliasNode != nil {
			as = v.nodeText(aliasNode)
		}

		if hasSource {
			v.scan.Reexports = append(v.scan.Reexports, ReexportDecl{Module: module, ExportName: name, AsName: as, Span: v.span(spec)})
		} else {
			v.scan.Exports = append(v.scan.Exports, ExportDecl{Name: as, Span: v.span(spec), IsType: typeOnly})
		}
	}
}

func (v *visitor) visitExportedDeclaration(decl *sitter.Node) {
	switch decl.Type() {
	case "function_declaration", "class_declaration", "generator_function_declaration":
		if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
			v.scan.Exports = append(v.scan.Exports, ExportDecl{Name: v.nodeText(nameNode), Span: v.span(decl)})
		}
	case "type_alias_declaration", "interface_declaration":
		if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
			v.scan.Exports = append(v.scan.Exports, ExportDecl{Name: v.nodeText(nameNode), Span: v.span(decl), IsType: true})
		}
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			declarator := decl.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			nameNode := declarator.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			v.visitDeclaratorPattern(nameNode)
		}
	}
}

func (v *visitor) visitDeclaratorPattern(node *sitter.Node) {
	switch node.Type() {
	case "identifier":
		v.scan.Exports = append(v.scan.Exports, ExportDecl{Name: v.nodeText(node), Span: v.span(node)})
	case "object_pattern", "array_pattern":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			v.visitDeclaratorPattern(node.NamedChild(i))
		}
	case "pair_pattern":
		if value := node.ChildByFieldName("value"); value != nil {
			v.visitDeclaratorPattern(value)
		}
	case "shorthand_property_identifier_pattern":
		v.scan.Exports = append(v.scan.Exports, ExportDecl{Name: v.nodeText(node), Span: v.span(node)})
	}
}
