// Package inherit resolves declared base specifiers into a directed graph
// of inheritance edges and answers ancestry and override queries over it.
//
// A base specifier is rarely a concrete class name: it can name a template
// parameter, an alias chain, a dependent nested type, or a template
// instantiation. Resolution tries, in order: the current instantiation
// context, the alias resolver, ordinary scope lookup, and finally the
// template tracker when arguments are present. Whatever cannot be resolved
// is recorded as an explicitly unresolved edge, never guessed.
package inherit

import (
	"fmt"

	"github.com/andreymedv/clang-index-mcp/internal/alias"
	"github.com/andreymedv/clang-index-mcp/internal/arena"
	"github.com/andreymedv/clang-index-mcp/internal/errors"
	"github.com/andreymedv/clang-index-mcp/internal/scope"
	"github.com/andreymedv/clang-index-mcp/internal/template"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// Builder accumulates inheritance edges for one translation unit (or the
// merged engine view) and serves graph queries once edges are in.
type Builder struct {
	arena     *arena.Arena
	scopes    *scope.Resolver
	aliases   *alias.Resolver
	templates *template.Tracker

	edges    map[types.SymbolID][]types.InheritanceEdge
	reverse  map[types.SymbolID][]types.SymbolID
	ordinals map[types.SymbolID]int

	// methods maps a class symbol to its declared method signatures.
	// Filled by the engine as method declarations arrive; override tables
	// are computed from it after base resolution.
	methods map[types.SymbolID]map[string]types.SymbolID

	// linked marks instantiation symbols whose substituted base lists have
	// already been turned into edges, so a cached instantiation is not
	// re-linked on every use.
	linked map[types.SymbolID]bool

	errs []error
}

// NewBuilder wires the graph builder to the unit's resolvers.
func NewBuilder(a *arena.Arena, scopes *scope.Resolver, aliases *alias.Resolver, templates *template.Tracker) *Builder {
	return &Builder{
		arena:     a,
		scopes:    scopes,
		aliases:   aliases,
		templates: templates,
		edges:     make(map[types.SymbolID][]types.InheritanceEdge),
		reverse:   make(map[types.SymbolID][]types.SymbolID),
		ordinals:  make(map[types.SymbolID]int),
		methods:   make(map[types.SymbolID]map[string]types.SymbolID),
		linked:    make(map[types.SymbolID]bool),
	}
}

// Errors returns cyclic-inheritance and resolution errors recorded so far.
func (b *Builder) Errors() []error { return b.errs }

// EdgeCount returns total and resolved edge counts.
func (b *Builder) EdgeCount() (total, resolved int) {
	for _, list := range b.edges {
		total += len(list)
		for _, e := range list {
			if e.Status == types.EdgeResolved {
				resolved++
			}
		}
	}
	return total, resolved
}

// AddBase records one declared base of a derived symbol. from is the scope
// the specifier was written in; bindings is the instantiation context when
// the declaration sits inside an instantiated template body (nil
// otherwise). Base lists of forward declarations never reach here; the
// engine only forwards bases from definition-bearing events.
func (b *Builder) AddBase(derived types.SymbolID, from *scope.Scope, expr types.TypeExpr, access types.Access, virtual bool, bindings map[string]types.TypeExpr, loc types.Location) {
	edge := types.InheritanceEdge{
		Derived:  derived,
		BaseExpr: expr,
		Access:   access,
		Virtual:  virtual,
		Ordinal:  b.ordinals[derived],
		Location: loc,
	}
	b.ordinals[derived]++

	base, status := b.resolveBase(from, expr, bindings, loc)
	edge.Base = base
	edge.Status = status

	if status == types.EdgeResolved {
		if base == derived || b.reachable(base, derived, nil) {
			// Closing a cycle is a fatal per-edge error: freeze this edge,
			// keep the rest of the graph usable.
			edge.Status = types.EdgeCycle
			edge.Base = types.InvalidSymbol
			b.errs = append(b.errs, errors.NewCyclicInheritance(
				b.displayName(derived), []string{b.displayName(derived), b.displayName(base)}, loc))
		}
	}

	b.edges[derived] = append(b.edges[derived], edge)
	if edge.Status == types.EdgeResolved {
		b.reverse[edge.Base] = append(b.reverse[edge.Base], derived)
	}
}

// resolveBase runs the resolution pipeline for one base specifier.
func (b *Builder) resolveBase(from *scope.Scope, expr types.TypeExpr, bindings map[string]types.TypeExpr, loc types.Location) (types.SymbolID, types.EdgeStatus) {
	// (a) Template parameter in scope: substitute from the instantiation
	// context, or record a dependent edge while it stays a parameter. The
	// parameter name shadows any identically-named concrete class; the
	// concrete class is only recovered through the context.
	if len(expr.Segments) > 0 {
		head := expr.Segments[0]
		if _, ok := bindings[head]; ok {
			expr = expr.Substitute(bindings)
		} else if res := b.scopes.ResolveIn(from, head); res.Status == scope.StatusTemplateParam {
			return types.InvalidSymbol, types.EdgeDependent
		}
	}

	// (b) Alias resolution; wrappers accumulated along the chain disqualify
	// the target as a base.
	target := b.aliases.ResolveExpr(from, expr)
	switch target.Status {
	case types.EdgeCycle:
		return types.InvalidSymbol, types.EdgeUnresolved
	case types.EdgeAmbiguous:
		b.errs = append(b.errs, errors.NewAmbiguous(expr.String(), nil, loc))
		return types.InvalidSymbol, types.EdgeAmbiguous
	case types.EdgeDependent:
		return types.InvalidSymbol, types.EdgeDependent
	case types.EdgeUnsupported:
		return types.InvalidSymbol, types.EdgeUnsupported
	}
	if target.IsWrapped() && (target.PtrDepth > 0 || target.Ref != types.RefNone) {
		b.errs = append(b.errs, errors.NewUnsupported(expr.String(),
			"pointer or reference type used as a base class", loc))
		return types.InvalidSymbol, types.EdgeUnsupported
	}

	resolved := target.Expr

	// (d) Template name with arguments: delegate to the tracker.
	if resolved.HasArgs {
		return b.instantiate(from, resolved, bindings, loc)
	}

	// (c) Ordinary scope lookup already happened inside the alias resolver
	// endpoint; a bound symbol is the answer if its kind can carry bases.
	if target.Symbol != types.InvalidSymbol {
		sym := b.arena.Get(target.Symbol)
		if sym != nil && sym.Kind == types.KindTemplate {
			// Bare template name without arguments cannot be a base.
			b.errs = append(b.errs, errors.NewUnsupported(expr.String(),
				"template name used as a base class without arguments", loc))
			return types.InvalidSymbol, types.EdgeUnsupported
		}
		return target.Symbol, types.EdgeResolved
	}

	if len(resolved.Segments) == 1 && alias.IsPrimitive(resolved.Name()) {
		b.errs = append(b.errs, errors.NewUnsupported(expr.String(),
			"primitive type used as a base class", loc))
		return types.InvalidSymbol, types.EdgeUnsupported
	}

	b.errs = append(b.errs, errors.NewUnresolved(expr.String(), loc))
	return types.InvalidSymbol, types.EdgeUnresolved
}

// instantiate resolves a template reference base, materializing the
// instantiation and linking its own substituted bases on first use.
func (b *Builder) instantiate(from *scope.Scope, expr types.TypeExpr, outer map[string]types.TypeExpr, loc types.Location) (types.SymbolID, types.EdgeStatus) {
	// Arguments may themselves be dependent on an outer context.
	if outer != nil {
		expr = expr.Substitute(outer)
	}
	for _, a := range expr.Args {
		if b.dependsOnParameter(from, a) {
			return types.InvalidSymbol, types.EdgeDependent
		}
	}

	templateID, ok := b.findTemplate(from, expr)
	if !ok {
		b.errs = append(b.errs, errors.NewUnresolved(expr.String(), loc))
		return types.InvalidSymbol, types.EdgeUnresolved
	}

	inst, err := b.templates.Instantiate(templateID, expr.Args)
	if err != nil {
		b.errs = append(b.errs, err)
		return types.InvalidSymbol, types.EdgeUnresolved
	}
	if inst.Ambiguous {
		return types.InvalidSymbol, types.EdgeAmbiguous
	}
	b.LinkInstantiation(inst)
	return inst.Symbol, types.EdgeResolved
}

// LinkInstantiation turns an instantiation's substituted base list into
// edges for its materialized symbol, once.
func (b *Builder) LinkInstantiation(inst *types.Instantiation) {
	if b.linked[inst.Symbol] {
		return
	}
	b.linked[inst.Symbol] = true

	def, ok := b.templates.Definition(inst.Template)
	var from *scope.Scope
	if ok {
		from = b.scopes.ScopeFor(def.Name.Parent())
	}
	if from == nil {
		from = b.scopes.Global()
	}

	// Dependent bases re-resolve per instantiation with that
	// instantiation's concrete arguments; nothing of the uninstantiated
	// body leaks through.
	ctx := b.instantiationBindings(inst)
	for _, base := range inst.Bases {
		b.AddBase(inst.Symbol, from, base.Expr, base.Access, base.Virtual, ctx, def.Location)
	}
}

func (b *Builder) instantiationBindings(inst *types.Instantiation) map[string]types.TypeExpr {
	def, ok := b.templates.Definition(inst.Template)
	if !ok {
		return nil
	}
	params := def.Params
	if inst.Selected == types.SelectedPartial && inst.SpecIndex >= 0 {
		params = def.Specializations[inst.SpecIndex].Params
	}
	bindings := make(map[string]types.TypeExpr, len(params))
	// The substituted base list is already concrete; the context only
	// needs to stop parameter names from resolving through scope again.
	for i, p := range params {
		if i < len(inst.Args) && !p.IsPack {
			bindings[p.Name] = inst.Args[i]
		}
	}
	return bindings
}

// dependsOnParameter reports whether any name inside the expression still
// resolves to a template parameter in the given scope.
func (b *Builder) dependsOnParameter(from *scope.Scope, expr types.TypeExpr) bool {
	if len(expr.Segments) > 0 {
		if res := b.scopes.ResolveIn(from, expr.Segments[0]); res.Status == scope.StatusTemplateParam {
			return true
		}
	}
	for _, a := range expr.Args {
		if b.dependsOnParameter(from, a) {
			return true
		}
	}
	return false
}

// findTemplate locates the template definition a reference names, trying
// scope lookup first and the tracker's qualified-name index as fallback.
func (b *Builder) findTemplate(from *scope.Scope, expr types.TypeExpr) (types.SymbolID, bool) {
	res := b.scopes.ResolveIn(from, expr.Qualified().String())
	if res.Status == scope.StatusFound {
		if sym := b.arena.Get(res.Symbol); sym != nil && sym.Kind == types.KindTemplate {
			return res.Symbol, true
		}
	}
	if id, ok := b.templates.LookupName(expr.Qualified().String()); ok {
		return id, true
	}
	// Qualify against enclosing scopes.
	for s := from; s != nil; s = s.Parent {
		full := s.Path
		for _, seg := range expr.Segments {
			full = full.Child(seg)
		}
		if id, ok := b.templates.LookupName(full.String()); ok {
			return id, true
		}
	}
	return types.InvalidSymbol, false
}

// RegisterMethod records a method declared directly on a class, keyed by
// signature, for override resolution.
func (b *Builder) RegisterMethod(class types.SymbolID, sig types.MethodSignature, method types.SymbolID) {
	table, ok := b.methods[class]
	if !ok {
		table = make(map[string]types.SymbolID)
		b.methods[class] = table
	}
	if _, exists := table[sig.String()]; !exists {
		table[sig.String()] = method
	}
}

func (b *Builder) displayName(id types.SymbolID) string {
	if sym := b.arena.Get(id); sym != nil {
		return sym.DisplayName()
	}
	return fmt.Sprintf("#%d", id)
}
