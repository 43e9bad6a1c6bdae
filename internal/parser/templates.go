package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// template handles a template_declaration: primary class templates,
// explicit full and partial specializations, template aliases, and
// template functions. Specializations re-declare the primary's name with
// only the Specializations field populated; the engine folds them into
// the existing definition.
func (em *emitter) template(node *tree_sitter.Node) {
	params := parseTemplateParams(node.ChildByFieldName("parameters"), em.content)

	inner := innerDeclaration(node)
	if inner == nil {
		return
	}

	switch inner.Kind() {
	case "class_specifier", "struct_specifier", "union_specifier":
		em.templateRecord(inner, params)
	case "alias_declaration":
		em.aliasDeclaration(inner, params)
	case "function_definition":
		em.templateFunction(inner, params)
	case "declaration":
		if fnDecl := findKind(inner.ChildByFieldName("declarator"), "function_declarator"); fnDecl != nil {
			name := declaratorName(fnDecl, em.content)
			if name != "" {
				em.emit(types.Event{
					Kind:           types.EventDeclareTemplate,
					Name:           name,
					TemplateParams: params,
					Location:       em.loc(inner),
				})
			}
		}
	case "template_declaration":
		// Nested template-template declarations degrade to the inner one.
		em.template(inner)
	}
}

// innerDeclaration returns the declaration a template header wraps.
func innerDeclaration(node *tree_sitter.Node) *tree_sitter.Node {
	for i := node.NamedChildCount(); i > 0; i-- {
		child := node.NamedChild(i - 1)
		switch child.Kind() {
		case "template_parameter_list", "comment":
			continue
		default:
			return child
		}
	}
	return nil
}

func (em *emitter) templateRecord(inner *tree_sitter.Node, params []types.TemplateParam) {
	nameNode := inner.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	recordKind := types.KindClass
	switch inner.Kind() {
	case "struct_specifier":
		recordKind = types.KindStruct
	case "union_specifier":
		recordKind = types.KindUnion
	}
	body := inner.ChildByFieldName("body")

	var clause *tree_sitter.Node
	for i := uint(0); i < inner.ChildCount(); i++ {
		if child := inner.Child(i); child.Kind() == "base_class_clause" {
			clause = child
			break
		}
	}
	var bases []types.BaseSpec
	if clause != nil && body != nil {
		bases = parseBaseClause(clause, em.content, recordKind)
	}

	if nameNode.Kind() == "template_type" {
		// Explicit specialization: X<int> or X<T*>.
		primary := ""
		if n := nameNode.ChildByFieldName("name"); n != nil {
			primary = em.text(n)
		}
		var pattern []types.TypeExpr
		if argList := nameNode.ChildByFieldName("arguments"); argList != nil {
			for i := uint(0); i < argList.NamedChildCount(); i++ {
				pattern = append(pattern, types.ParseTypeExpr(em.text(argList.NamedChild(i))))
			}
		}
		if primary == "" || len(pattern) == 0 {
			return
		}
		em.emit(types.Event{
			Kind:         types.EventDeclareTemplate,
			Name:         primary,
			IsDefinition: body != nil,
			Specializations: []types.Specialization{{
				Pattern:  pattern,
				Params:   params,
				Bases:    bases,
				Location: em.loc(inner),
			}},
			Location: em.loc(inner),
		})
		if body != nil {
			em.walkSpecializationBody(primary, body)
		}
		return
	}

	name := em.text(nameNode)
	em.emit(types.Event{
		Kind:           types.EventDeclareTemplate,
		Name:           name,
		IsDefinition:   body != nil,
		TemplateParams: params,
		Bases:          bases,
		Location:       em.loc(inner),
	})
	em.attachPendingDoc(name, int(inner.StartPosition().Row)+1)

	if body != nil {
		em.emit(types.Event{
			Kind:      types.EventEnterScope,
			ScopeKind: recordKind,
			Name:      name,
			Location:  em.loc(inner),
		})
		prevRecord := em.recordKind
		em.recordKind = recordKind
		em.walkChildren(body)
		em.recordKind = prevRecord
		em.emit(types.Event{Kind: types.EventExitScope})
	}
}

// walkSpecializationBody scopes a specialization's members under the
// primary's name; member-level distinctions between specializations are
// beyond the frontend's resolution.
func (em *emitter) walkSpecializationBody(primary string, body *tree_sitter.Node) {
	em.emit(types.Event{
		Kind:      types.EventEnterScope,
		ScopeKind: types.KindClass,
		Name:      primary,
		Location:  em.loc(body),
	})
	prevRecord := em.recordKind
	em.recordKind = types.KindClass
	em.walkChildren(body)
	em.recordKind = prevRecord
	em.emit(types.Event{Kind: types.EventExitScope})
}

func (em *emitter) templateFunction(inner *tree_sitter.Node, params []types.TemplateParam) {
	name := declaratorName(inner.ChildByFieldName("declarator"), em.content)
	if name == "" {
		return
	}
	em.emit(types.Event{
		Kind:           types.EventDeclareTemplate,
		Name:           name,
		IsDefinition:   true,
		TemplateParams: params,
		Location:       em.loc(inner),
	})
	em.function(inner, params)
}

// parseTemplateParams extracts the parameter list of a template header.
func parseTemplateParams(list *tree_sitter.Node, content []byte) []types.TemplateParam {
	if list == nil {
		return nil
	}
	text := func(n *tree_sitter.Node) string {
		return string(content[n.StartByte():n.EndByte()])
	}

	var params []types.TemplateParam
	for i := uint(0); i < list.NamedChildCount(); i++ {
		child := list.NamedChild(i)
		switch child.Kind() {
		case "type_parameter_declaration", "template_template_parameter_declaration":
			if n := lastOfKind(child, "type_identifier"); n != nil {
				params = append(params, types.TemplateParam{Name: text(n)})
			}
		case "optional_type_parameter_declaration":
			p := types.TemplateParam{}
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = text(n)
			}
			if n := child.ChildByFieldName("default_type"); n != nil {
				def := types.ParseTypeExpr(text(n))
				p.Default = &def
			}
			if p.Name != "" {
				params = append(params, p)
			}
		case "variadic_type_parameter_declaration":
			if n := lastOfKind(child, "type_identifier"); n != nil {
				params = append(params, types.TemplateParam{Name: text(n), IsPack: true})
			}
		case "parameter_declaration":
			// Non-type parameter: keep the declarator name so substitution
			// has something to bind, even though values are opaque here.
			if n := child.ChildByFieldName("declarator"); n != nil {
				params = append(params, types.TemplateParam{Name: declaratorName(n, content)})
			}
		}
	}
	return params
}

func lastOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	var found *tree_sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == kind {
			found = child
		}
	}
	return found
}
