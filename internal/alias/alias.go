// Package alias resolves using/typedef chains to canonical targets.
// Chains terminate in a concrete symbol, a primitive, or an explicit
// unresolved marker; a chain that revisits a name (or exceeds the depth
// cap) is a cyclic-alias error frozen at the point of detection.
package alias

import (
	"github.com/andreymedv/clang-index-mcp/internal/errors"
	"github.com/andreymedv/clang-index-mcp/internal/scope"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// primitives are type names an alias chain may legitimately end at without
// naming any symbol.
var primitives = map[string]bool{
	"void": true, "bool": true, "char": true, "wchar_t": true,
	"char8_t": true, "char16_t": true, "char32_t": true,
	"short": true, "int": true, "long": true, "float": true, "double": true,
	"signed": true, "unsigned": true, "size_t": true, "ptrdiff_t": true,
	"int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
	"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
	"intptr_t": true, "uintptr_t": true, "nullptr_t": true, "auto": true,
}

// IsPrimitive reports whether a name is a builtin type.
func IsPrimitive(name string) bool { return primitives[name] }

// Resolver owns the alias bindings of one translation unit.
type Resolver struct {
	bindings map[string]*types.AliasBinding // qualified name → binding
	scopes   *scope.Resolver
	maxDepth int

	// frozen caches the outcome of chains that hit a cycle so repeated
	// resolution of a poisoned alias stays cheap and stable.
	frozen map[string]types.ResolvedTarget
	errs   []error
}

// NewResolver creates an alias resolver bound to the unit's scope resolver.
// maxDepth caps chain substitution; <= 0 selects the default.
func NewResolver(scopes *scope.Resolver, maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = types.DefaultMaxAliasDepth
	}
	return &Resolver{
		bindings: make(map[string]*types.AliasBinding),
		scopes:   scopes,
		maxDepth: maxDepth,
		frozen:   make(map[string]types.ResolvedTarget),
	}
}

// Define registers an alias binding under its fully qualified name.
// Template aliases carry their parameter list and are not directly
// resolvable without arguments.
func (r *Resolver) Define(name types.QualifiedName, target types.TypeExpr, params []types.TemplateParam, loc types.Location, unit types.UnitID) {
	r.bindings[name.String()] = &types.AliasBinding{
		Name:     append(types.QualifiedName(nil), name...),
		Target:   target,
		Params:   params,
		Location: loc,
		Unit:     unit,
	}
}

// Binding returns the registered binding for a fully qualified alias name.
func (r *Resolver) Binding(name string) (*types.AliasBinding, bool) {
	b, ok := r.bindings[name]
	return b, ok
}

// Errors returns the cyclic-alias and unsupported-construct errors recorded
// so far.
func (r *Resolver) Errors() []error { return r.errs }

// Len returns the number of registered bindings.
func (r *Resolver) Len() int { return len(r.bindings) }

// Resolve follows the chain starting at the given (possibly unqualified)
// alias name, resolving from the given scope. Qualifier wrappers met along
// the chain accumulate as metadata while the underlying entity keeps being
// chased.
//
// The result's Expr keeps the final spelling: when it still carries
// template arguments the caller delegates to the instantiation tracker.
func (r *Resolver) Resolve(from *scope.Scope, name string) types.ResolvedTarget {
	return r.resolveExpr(from, types.ParseTypeExpr(name), nil, 0)
}

// ResolveExpr is Resolve for an already-parsed target expression.
func (r *Resolver) ResolveExpr(from *scope.Scope, expr types.TypeExpr) types.ResolvedTarget {
	return r.resolveExpr(from, expr, nil, 0)
}

func (r *Resolver) resolveExpr(from *scope.Scope, expr types.TypeExpr, seen []string, depth int) types.ResolvedTarget {
	out := types.ResolvedTarget{Status: types.EdgeResolved, Expr: expr}

	for {
		if depth >= r.maxDepth {
			r.errs = append(r.errs, errors.NewCyclicAlias(expr.String(), seen, types.Location{}))
			out.Status = types.EdgeCycle
			r.freeze(seen, out)
			return out
		}
		depth++

		// Qualifier wrappers: remember them, chase the underlying name.
		out.Const = out.Const || expr.Const
		out.PtrDepth += expr.PtrDepth
		if expr.Ref != types.RefNone {
			out.Ref = expr.Ref
		}
		expr = expr.Unwrapped()
		out.Expr = expr

		if len(expr.Segments) == 1 && IsPrimitive(expr.Name()) {
			out.Symbol = types.InvalidSymbol
			return out
		}

		binding, key := r.findBinding(from, expr)
		if binding == nil {
			return r.resolveEndpoint(from, expr, out)
		}
		if frozen, ok := r.frozen[key]; ok {
			frozen.Const = frozen.Const || out.Const
			frozen.PtrDepth += out.PtrDepth
			return frozen
		}
		for _, visited := range seen {
			if visited == key {
				r.errs = append(r.errs, errors.NewCyclicAlias(key, seen, binding.Location))
				out.Status = types.EdgeCycle
				out.Symbol = types.InvalidSymbol
				r.freeze(append(seen, key), out)
				return out
			}
		}
		seen = append(seen, key)

		next := binding.Target
		if binding.IsTemplate() {
			if !expr.HasArgs {
				// A template alias used without arguments has no meaning.
				r.errs = append(r.errs, errors.NewUnsupported(key,
					"template alias used without arguments", binding.Location))
				out.Status = types.EdgeUnsupported
				out.Symbol = types.InvalidSymbol
				return out
			}
			bindings := make(map[string]types.TypeExpr, len(binding.Params))
			for i, p := range binding.Params {
				switch {
				case p.IsPack:
					rest := []types.TypeExpr{}
					if i < len(expr.Args) {
						rest = expr.Args[i:]
					}
					bindings[p.Name] = types.BindPack(rest)
				case i < len(expr.Args):
					bindings[p.Name] = expr.Args[i]
				case p.Default != nil:
					bindings[p.Name] = p.Default.Substitute(bindings)
				}
			}
			next = next.Substitute(bindings)
		}
		expr = next
		out.Expr = expr
	}
}

// findBinding locates the binding an expression names, trying the spelling
// as written, then qualified against each enclosing scope.
func (r *Resolver) findBinding(from *scope.Scope, expr types.TypeExpr) (*types.AliasBinding, string) {
	spelled := expr.Qualified().String()
	if b, ok := r.bindings[spelled]; ok {
		return b, spelled
	}
	for s := from; s != nil; s = s.Parent {
		key := s.Path.Child(spelled).String()
		if len(expr.Segments) > 1 {
			full := s.Path
			for _, seg := range expr.Segments {
				full = full.Child(seg)
			}
			key = full.String()
		}
		if b, ok := r.bindings[key]; ok {
			return b, key
		}
	}
	return nil, ""
}

// resolveEndpoint binds the final non-alias expression to a symbol where
// possible. An expression still carrying template arguments is returned
// as-is for the instantiation tracker.
func (r *Resolver) resolveEndpoint(from *scope.Scope, expr types.TypeExpr, out types.ResolvedTarget) types.ResolvedTarget {
	if expr.HasArgs {
		out.Symbol = types.InvalidSymbol
		return out
	}
	res := r.scopes.ResolveIn(from, expr.Qualified().String())
	switch res.Status {
	case scope.StatusFound:
		out.Symbol = res.Symbol
	case scope.StatusAmbiguous:
		out.Status = types.EdgeAmbiguous
	case scope.StatusTemplateParam:
		out.Status = types.EdgeDependent
	default:
		out.Status = types.EdgeUnresolved
	}
	return out
}

func (r *Resolver) freeze(chain []string, result types.ResolvedTarget) {
	for _, name := range chain {
		if _, done := r.frozen[name]; !done {
			r.frozen[name] = result
		}
	}
}

// MergeFrom copies another resolver's bindings in, preferring existing
// entries. Used when unit-local alias tables are combined at merge time.
func (r *Resolver) MergeFrom(other *Resolver) {
	for key, b := range other.bindings {
		if _, ok := r.bindings[key]; !ok {
			r.bindings[key] = b
		}
	}
}
