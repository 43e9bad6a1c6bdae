package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// emitter walks one parse tree and appends events in declaration order.
type emitter struct {
	file    string
	content []byte
	events  []types.Event

	// Doc comments accumulate until the declaration they precede.
	pendingDoc      string
	pendingDocLine  int
	pendingDocLoc   types.Location
	pendingDocBlock bool

	// Call attribution state.
	fn          string // innermost enclosing function, "" outside bodies
	lambdaDepth int

	// recordKind is the kind of the innermost open record body, or
	// KindNamespace outside one. Decides method vs function and the
	// default base access.
	recordKind types.SymbolKind
}

func (em *emitter) text(node *tree_sitter.Node) string {
	return string(em.content[node.StartByte():node.EndByte()])
}

func (em *emitter) loc(node *tree_sitter.Node) types.Location {
	pos := node.StartPosition()
	return types.Location{File: em.file, Line: int(pos.Row) + 1, Column: int(pos.Column) + 1}
}

func (em *emitter) emit(ev types.Event) {
	em.events = append(em.events, ev)
}

func (em *emitter) walkChildren(node *tree_sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		em.walk(node.Child(i))
	}
}

func (em *emitter) walk(node *tree_sitter.Node) {
	if node.IsError() {
		em.emit(types.Event{
			Kind:          types.EventMalformedRegion,
			RecoveredUpTo: int(node.EndByte()),
			Location:      em.loc(node),
		})
		return
	}

	switch node.Kind() {
	case "comment":
		em.comment(node)
	case "namespace_definition":
		em.namespaceDefinition(node)
	case "class_specifier":
		em.record(node, types.KindClass)
	case "struct_specifier":
		em.record(node, types.KindStruct)
	case "union_specifier":
		em.record(node, types.KindUnion)
	case "enum_specifier":
		em.enum(node)
	case "function_definition":
		em.function(node, nil)
	case "template_declaration":
		em.template(node)
	case "alias_declaration":
		em.aliasDeclaration(node, nil)
	case "type_definition":
		em.typedefDeclaration(node)
	case "using_declaration":
		em.usingDeclaration(node)
	case "declaration", "field_declaration":
		em.declaration(node)
	case "call_expression":
		em.call(node)
	case "lambda_expression":
		em.lambda(node)
	case "assignment_expression":
		em.assignment(node)
	default:
		em.walkChildren(node)
	}
}

// comment accumulates doc text for the declaration that follows.
// Consecutive line comments concatenate; a blank line breaks the run.
func (em *emitter) comment(node *tree_sitter.Node) {
	raw := em.text(node)
	if !strings.HasPrefix(raw, "/**") && !strings.HasPrefix(raw, "/*!") &&
		!strings.HasPrefix(raw, "///") && !strings.HasPrefix(raw, "//!") {
		return
	}
	line := int(node.StartPosition().Row) + 1
	endLine := int(node.EndPosition().Row) + 1
	if em.pendingDoc != "" && !em.pendingDocBlock && line == em.pendingDocLine+1 {
		em.pendingDoc += "\n" + raw
	} else {
		em.pendingDoc = raw
		em.pendingDocLoc = em.loc(node)
	}
	em.pendingDocLine = endLine
	em.pendingDocBlock = strings.HasPrefix(raw, "/*")
}

// attachPendingDoc emits the accumulated comment for a just-declared
// symbol when the comment run ends immediately above it.
func (em *emitter) attachPendingDoc(name string, declLine int) {
	if em.pendingDoc == "" {
		return
	}
	if declLine < em.pendingDocLine || declLine > em.pendingDocLine+1 {
		em.pendingDoc = ""
		return
	}
	em.emit(types.Event{
		Kind:     types.EventAttachComment,
		Name:     name,
		Target:   em.pendingDoc,
		Location: em.pendingDocLoc,
	})
	em.pendingDoc = ""
}

func (em *emitter) namespaceDefinition(node *tree_sitter.Node) {
	var segments []string
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		segments = types.ParseQualifiedName(em.text(nameNode))
	}
	if len(segments) == 0 {
		segments = []string{""} // anonymous namespace
	}
	for _, seg := range segments {
		em.emit(types.Event{
			Kind:      types.EventEnterScope,
			ScopeKind: types.KindNamespace,
			Name:      seg,
			Location:  em.loc(node),
		})
	}
	if body := node.ChildByFieldName("body"); body != nil {
		em.walkChildren(body)
	}
	for range segments {
		em.emit(types.Event{Kind: types.EventExitScope})
	}
}

func (em *emitter) record(node *tree_sitter.Node, kind types.SymbolKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil || nameNode.Kind() == "template_type" {
		// Anonymous records carry no queryable name; specialization
		// headers are handled by the template path.
		em.walkChildren(node)
		return
	}
	name := em.text(nameNode)
	body := node.ChildByFieldName("body")
	isDef := body != nil

	em.emit(types.Event{
		Kind:         types.EventDeclareSymbol,
		Name:         name,
		SymbolKind:   kind,
		IsDefinition: isDef,
		Location:     em.loc(node),
	})
	em.attachPendingDoc(name, int(node.StartPosition().Row)+1)

	if isDef {
		em.emitBases(node, name, kind)
		em.emit(types.Event{
			Kind:      types.EventEnterScope,
			ScopeKind: kind,
			Name:      name,
			Location:  em.loc(node),
		})
		prevRecord := em.recordKind
		em.recordKind = kind
		em.walkChildren(body)
		em.recordKind = prevRecord
		em.emit(types.Event{Kind: types.EventExitScope})
	}
}

// emitBases turns a base_class_clause into DeclareBase events, one per
// base type, in declaration order. A `class` inherits privately unless an
// access specifier says otherwise; a `struct` publicly.
func (em *emitter) emitBases(recordNode *tree_sitter.Node, derived string, kind types.SymbolKind) {
	var clause *tree_sitter.Node
	for i := uint(0); i < recordNode.ChildCount(); i++ {
		if child := recordNode.Child(i); child.Kind() == "base_class_clause" {
			clause = child
			break
		}
	}
	if clause == nil {
		return
	}
	for _, spec := range parseBaseClause(clause, em.content, kind) {
		em.emit(types.Event{
			Kind:     types.EventDeclareBase,
			Name:     derived,
			Target:   spec.Expr.String(),
			Access:   spec.Access,
			Virtual:  spec.Virtual,
			Location: em.loc(clause),
		})
	}
}

// parseBaseClause extracts (type, access, virtual) triples from a base
// clause node. Shared with the template path, which records BaseSpecs
// instead of emitting events.
func parseBaseClause(clause *tree_sitter.Node, content []byte, kind types.SymbolKind) []types.BaseSpec {
	defaultAccess := types.AccessPublic
	if kind == types.KindClass {
		defaultAccess = types.AccessPrivate
	}
	access := defaultAccess
	virtual := false

	var specs []types.BaseSpec
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		switch child.Kind() {
		case "access_specifier":
			access = types.ParseAccess(string(content[child.StartByte():child.EndByte()]))
		case "virtual":
			virtual = true
		case "type_identifier", "qualified_identifier", "template_type",
			"dependent_type", "primitive_type", "sized_type_specifier":
			specs = append(specs, types.BaseSpec{
				Expr:    types.ParseTypeExpr(string(content[child.StartByte():child.EndByte()])),
				Access:  access,
				Virtual: virtual,
			})
			access = defaultAccess
			virtual = false
		}
	}
	return specs
}

func (em *emitter) enum(node *tree_sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := em.text(nameNode)
	em.emit(types.Event{
		Kind:         types.EventDeclareSymbol,
		Name:         name,
		SymbolKind:   types.KindEnum,
		IsDefinition: node.ChildByFieldName("body") != nil,
		Location:     em.loc(node),
	})
	em.attachPendingDoc(name, int(node.StartPosition().Row)+1)
}

// function handles a function_definition. templateParams is non-nil when
// the definition sits under a template declaration that already emitted
// its DeclareTemplate event.
func (em *emitter) function(node *tree_sitter.Node, templateParams []types.TemplateParam) {
	name := declaratorName(node.ChildByFieldName("declarator"), em.content)
	if name == "" {
		em.walkChildren(node)
		return
	}
	kind := types.KindFunction
	if em.recordKind.IsRecordKind() || strings.Contains(name, "::") {
		kind = types.KindMethod
	}
	if templateParams == nil {
		em.emit(types.Event{
			Kind:         types.EventDeclareSymbol,
			Name:         name,
			SymbolKind:   kind,
			IsDefinition: true,
			Location:     em.loc(node),
		})
	}
	em.attachPendingDoc(name, int(node.StartPosition().Row)+1)

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	em.emit(types.Event{
		Kind:      types.EventEnterScope,
		ScopeKind: types.KindFunction,
		Name:      types.ParseQualifiedName(name).Base(),
		Location:  em.loc(body),
	})
	prevFn, prevRecord := em.fn, em.recordKind
	em.fn = name
	em.recordKind = types.KindNamespace
	em.walkChildren(body)
	em.fn, em.recordKind = prevFn, prevRecord
	em.emit(types.Event{Kind: types.EventExitScope})
}

// declaration covers prototypes, member declarations, and variable
// declarations with or without initializers.
func (em *emitter) declaration(node *tree_sitter.Node) {
	declarator := node.ChildByFieldName("declarator")
	if declarator == nil {
		em.walkChildren(node)
		return
	}

	value := initValue(declarator)

	// A function_declarator without an initializer is a prototype, unless
	// its inner declarator is parenthesized (a function pointer variable).
	fnDecl := findKind(declarator, "function_declarator")
	if fnDecl != nil && value == nil && !isFunctionPointerDeclarator(fnDecl) {
		name := declaratorName(fnDecl, em.content)
		if name == "" {
			return
		}
		kind := types.KindFunction
		if em.recordKind.IsRecordKind() {
			kind = types.KindMethod
		}
		em.emit(types.Event{
			Kind:       types.EventDeclareSymbol,
			Name:       name,
			SymbolKind: kind,
			Location:   em.loc(node),
		})
		em.attachPendingDoc(name, int(node.StartPosition().Row)+1)
		return
	}

	name := declaratorName(declarator, em.content)
	if name == "" {
		em.walkChildren(node)
		return
	}

	if value != nil && value.Kind() == "lambda_expression" {
		em.emit(types.Event{
			Kind:         types.EventDeclareSymbol,
			Name:         name,
			SymbolKind:   types.KindLambda,
			IsDefinition: true,
			Location:     em.loc(node),
		})
		em.lambdaBody(value)
		return
	}

	em.emit(types.Event{
		Kind:         types.EventDeclareSymbol,
		Name:         name,
		SymbolKind:   types.KindVariable,
		IsDefinition: true,
		Location:     em.loc(node),
	})
	em.attachPendingDoc(name, int(node.StartPosition().Row)+1)

	if value == nil {
		return
	}
	if target, ok := functionReference(value, em.content); ok {
		em.emit(types.Event{
			Kind:     types.EventAssignFunction,
			Name:     name,
			Target:   target,
			Location: em.loc(value),
		})
		return
	}
	em.walk(value)
}

// assignment handles `var = expr` statements: a function reference on the
// right makes later calls through var traceable.
func (em *emitter) assignment(node *tree_sitter.Node) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil {
		em.walkChildren(node)
		return
	}
	if left.Kind() == "identifier" {
		if target, ok := functionReference(right, em.content); ok {
			em.emit(types.Event{
				Kind:     types.EventAssignFunction,
				Name:     em.text(left),
				Target:   target,
				Location: em.loc(node),
			})
			return
		}
	}
	em.walk(right)
}

func (em *emitter) call(node *tree_sitter.Node) {
	if em.fn != "" {
		if fnNode := node.ChildByFieldName("function"); fnNode != nil {
			if callee := calleeExpression(fnNode, em.content); callee != "" {
				em.emit(types.Event{
					Kind:     types.EventCallExpression,
					Name:     em.fn,
					Target:   callee,
					InLambda: em.lambdaDepth > 0,
					Location: em.loc(node),
				})
			}
		}
	}
	if args := node.ChildByFieldName("arguments"); args != nil {
		em.walkChildren(args)
	}
}

func (em *emitter) lambda(node *tree_sitter.Node) {
	em.lambdaBody(node)
}

func (em *emitter) lambdaBody(node *tree_sitter.Node) {
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	em.lambdaDepth++
	em.walkChildren(body)
	em.lambdaDepth--
}

func (em *emitter) aliasDeclaration(node *tree_sitter.Node, params []types.TemplateParam) {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return
	}
	name := em.text(nameNode)
	em.emit(types.Event{
		Kind:           types.EventDeclareAlias,
		Name:           name,
		Target:         em.text(typeNode),
		TemplateParams: params,
		Location:       em.loc(node),
	})
	em.attachPendingDoc(name, int(node.StartPosition().Row)+1)
}

func (em *emitter) typedefDeclaration(node *tree_sitter.Node) {
	declarator := node.ChildByFieldName("declarator")
	typeNode := node.ChildByFieldName("type")
	if declarator == nil || typeNode == nil {
		return
	}
	name := declaratorName(declarator, em.content)
	if name == "" {
		return
	}
	em.emit(types.Event{
		Kind:     types.EventDeclareAlias,
		Name:     name,
		Target:   em.text(typeNode),
		Location: em.loc(node),
	})
	em.attachPendingDoc(name, int(node.StartPosition().Row)+1)
}

// usingDeclaration models `using ns::X;` as an alias from X to ns::X in
// the current scope; the resolver binds later uses of X to the original.
func (em *emitter) usingDeclaration(node *tree_sitter.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() != "qualified_identifier" && child.Kind() != "identifier" {
			continue
		}
		full := em.text(child)
		em.emit(types.Event{
			Kind:     types.EventDeclareAlias,
			Name:     types.ParseQualifiedName(full).Base(),
			Target:   full,
			Location: em.loc(node),
		})
		return
	}
}
