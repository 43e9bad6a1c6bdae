// Package scope implements the namespace/class scope tree and qualified
// name lookup. It is the identity source for every other component: aliases,
// templates, base specifiers, and call sites all resolve names through it.
package scope

import (
	"fmt"

	"github.com/andreymedv/clang-index-mcp/internal/arena"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// Scope is one node of the scope tree.
type Scope struct {
	Kind   types.SymbolKind
	Name   string // segment name; anonymous namespaces get a synthetic one
	Path   types.QualifiedName
	Symbol types.SymbolID // namespace/class symbol backing this scope
	Parent *Scope

	children map[string]*Scope
	names    map[string][]types.SymbolID
	usings   map[string]types.SymbolID

	// templateParams marks a template body scope. Parameter names shadow
	// every identically-named symbol in enclosing scopes for the duration
	// of the body.
	templateParams map[string]struct{}
}

func newScope(kind types.SymbolKind, name string, parent *Scope) *Scope {
	s := &Scope{
		Kind:     kind,
		Name:     name,
		Parent:   parent,
		children: make(map[string]*Scope),
		names:    make(map[string][]types.SymbolID),
		usings:   make(map[string]types.SymbolID),
	}
	if parent != nil && name != "" {
		s.Path = parent.Path.Child(name)
	} else if parent != nil {
		s.Path = parent.Path
	}
	return s
}

// isTemplateBody reports whether this node only introduces parameters.
func (s *Scope) isTemplateBody() bool { return s.templateParams != nil }

// Status is a lookup outcome.
type Status uint8

const (
	StatusFound Status = iota
	StatusNotFound
	StatusAmbiguous
	StatusTemplateParam
)

// Result is the outcome of a name lookup. Ambiguous results carry the full
// candidate list; a template-parameter hit carries the parameter name and
// deliberately no symbol.
type Result struct {
	Status     Status
	Symbol     types.SymbolID
	ParamName  string
	Candidates []types.SymbolID
}

// Resolver consumes scope-enter/exit and declaration events for one
// translation unit and answers lookups against the unit's view of the
// world. Not safe for concurrent use; each unit worker owns one.
type Resolver struct {
	arena   *arena.Arena
	global  *Scope
	current *Scope
	unit    types.UnitID
}

// NewResolver creates a resolver over the given (unit-local) arena.
func NewResolver(a *arena.Arena, unit types.UnitID) *Resolver {
	g := newScope(types.KindNamespace, "", nil)
	return &Resolver{arena: a, global: g, current: g, unit: unit}
}

// Current returns the innermost open scope.
func (r *Resolver) Current() *Scope { return r.current }

// Global returns the root scope.
func (r *Resolver) Global() *Scope { return r.global }

// EnterScope opens a child scope, creating it on first entry. Namespaces
// and record types get a backing symbol so the scope itself is queryable.
// An empty name means an anonymous namespace: one unnamed scope per
// enclosing scope per translation unit, participating in lookup like any
// named namespace but invisible to other units.
func (r *Resolver) EnterScope(kind types.SymbolKind, name string, loc types.Location) *Scope {
	if name == "" {
		name = fmt.Sprintf("(anonymous:%d)", r.unit)
	}
	child, ok := r.current.children[name]
	if !ok {
		child = newScope(kind, name, r.current)
		r.current.children[name] = child
		switch kind {
		case types.KindNamespace, types.KindClass, types.KindStruct, types.KindUnion, types.KindEnum:
			child.Symbol = r.arena.Declare(child.Path, kind, false, loc, r.unit)
			r.arena.SetOwner(child.Symbol, r.current.Symbol)
			r.current.names[name] = appendUnique(r.current.names[name], child.Symbol)
		}
	}
	r.current = child
	return child
}

// EnterTemplateBody pushes a parameter-only scope. Lookups of the given
// names resolve to the parameter itself, shadowing any concrete symbol of
// the same name until ExitScope.
func (r *Resolver) EnterTemplateBody(params []types.TemplateParam) *Scope {
	body := newScope(types.KindTemplate, "", r.current)
	body.Path = r.current.Path
	body.templateParams = make(map[string]struct{}, len(params))
	for _, p := range params {
		body.templateParams[p.Name] = struct{}{}
	}
	r.current = body
	return body
}

// ExitScope closes the innermost scope. Exiting the global scope is a
// no-op; a malformed stream must not be able to pop past the root.
func (r *Resolver) ExitScope() {
	if r.current.Parent != nil {
		r.current = r.current.Parent
	}
}

// Declare registers a symbol. The name may be relative to the current
// scope or carry its own qualification ("ns::X" declared at global scope).
// Re-declaration with the same qualified name and kind returns the
// existing handle; IsDefinition is OR'd in by the arena.
func (r *Resolver) Declare(name string, kind types.SymbolKind, isDefinition bool, loc types.Location) types.SymbolID {
	segs := types.ParseQualifiedName(name)
	if len(segs) == 0 {
		return types.InvalidSymbol
	}
	base := r.declarationScope()
	full := base.Path
	for _, seg := range segs[:len(segs)-1] {
		full = full.Child(seg)
	}
	full = full.Child(segs[len(segs)-1])

	id := r.arena.Declare(full, kind, isDefinition, loc, r.unit)
	r.arena.SetOwner(id, base.Symbol)
	if len(segs) == 1 {
		base.names[segs[0]] = appendUnique(base.names[segs[0]], id)
	} else {
		// Qualified declaration: register under the named scope when the
		// scope node exists, so later unqualified lookups inside it work.
		if target := r.navigate(base, segs[:len(segs)-1]); target != nil {
			target.names[segs[len(segs)-1]] = appendUnique(target.names[segs[len(segs)-1]], id)
		}
	}
	return id
}

// declarationScope returns the nearest scope that can own declarations,
// skipping template parameter bodies.
func (r *Resolver) declarationScope() *Scope {
	s := r.current
	for s.isTemplateBody() && s.Parent != nil {
		s = s.Parent
	}
	return s
}

// AddUsing injects a using-declaration: name becomes visible in the
// current scope as a binding to the original entity. No copy is made;
// later lookups find the same Symbol.
func (r *Resolver) AddUsing(name string, original types.SymbolID) {
	r.declarationScope().usings[name] = original
}

// Resolve looks a name up from the current scope. A qualified name skips
// the chain walk and resolves within the named scope; an unqualified name
// walks the enclosing chain innermost to outermost, honoring template
// parameter shadowing and using-declarations, and returns the first match.
func (r *Resolver) Resolve(name string) Result {
	segs := types.ParseQualifiedName(name)
	switch len(segs) {
	case 0:
		return Result{Status: StatusNotFound}
	case 1:
		return r.resolveUnqualified(segs[0])
	default:
		return r.resolveQualified(segs)
	}
}

// ResolveIn looks a name up as if the given scope were innermost. Used by
// components replaying deferred resolutions (template bases, call sites).
func (r *Resolver) ResolveIn(s *Scope, name string) Result {
	saved := r.current
	if s != nil {
		r.current = s
	}
	defer func() { r.current = saved }()
	return r.Resolve(name)
}

func (r *Resolver) resolveUnqualified(name string) Result {
	for s := r.current; s != nil; s = s.Parent {
		if s.templateParams != nil {
			if _, ok := s.templateParams[name]; ok {
				return Result{Status: StatusTemplateParam, ParamName: name}
			}
			continue
		}
		if ids := s.names[name]; len(ids) > 0 {
			if len(ids) > 1 {
				return Result{Status: StatusAmbiguous, Candidates: ids}
			}
			return Result{Status: StatusFound, Symbol: ids[0]}
		}
		if id, ok := s.usings[name]; ok {
			return Result{Status: StatusFound, Symbol: id}
		}
		// Anonymous namespace members participate in their enclosing
		// scope's lookup within the declaring unit.
		if anon, ok := s.children[fmt.Sprintf("(anonymous:%d)", r.unit)]; ok {
			if ids := anon.names[name]; len(ids) > 0 {
				if len(ids) > 1 {
					return Result{Status: StatusAmbiguous, Candidates: ids}
				}
				return Result{Status: StatusFound, Symbol: ids[0]}
			}
		}
	}
	// Arena fallback for global-scope names committed from another unit.
	if ids := r.arena.LookupAnyKind(types.QualifiedName{name}); len(ids) > 0 {
		if len(ids) > 1 {
			return Result{Status: StatusAmbiguous, Candidates: ids}
		}
		return Result{Status: StatusFound, Symbol: ids[0]}
	}
	return Result{Status: StatusNotFound}
}

func (r *Resolver) resolveQualified(segs []string) Result {
	// The leading segment is found by ordinary chain walk; the remainder
	// navigates directly, with the arena as a fallback for scopes declared
	// in another unit and committed at merge.
	for s := r.declarationScope(); s != nil; s = s.Parent {
		if s.isTemplateBody() {
			continue
		}
		if target := r.navigate(s, segs[:len(segs)-1]); target != nil {
			last := segs[len(segs)-1]
			if ids := target.names[last]; len(ids) > 0 {
				if len(ids) > 1 {
					return Result{Status: StatusAmbiguous, Candidates: ids}
				}
				return Result{Status: StatusFound, Symbol: ids[0]}
			}
			if id, ok := target.usings[last]; ok {
				return Result{Status: StatusFound, Symbol: id}
			}
		}
		// Arena fallback: the full path relative to this scope.
		full := s.Path
		for _, seg := range segs {
			full = full.Child(seg)
		}
		if ids := r.arena.LookupAnyKind(full); len(ids) > 0 {
			if len(ids) > 1 {
				return Result{Status: StatusAmbiguous, Candidates: ids}
			}
			return Result{Status: StatusFound, Symbol: ids[0]}
		}
	}
	return Result{Status: StatusNotFound}
}

// navigate descends from s along path segments through scope children,
// following using-bound namespace names when no child matches.
func (r *Resolver) navigate(s *Scope, path []string) *Scope {
	cur := s
	for _, seg := range path {
		next, ok := cur.children[seg]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// ScopeFor returns the scope node whose path matches the given qualified
// name, or nil. Used to re-enter a class scope when replaying deferred
// work.
func (r *Resolver) ScopeFor(name types.QualifiedName) *Scope {
	return r.navigate(r.global, name)
}

func appendUnique(ids []types.SymbolID, id types.SymbolID) []types.SymbolID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
