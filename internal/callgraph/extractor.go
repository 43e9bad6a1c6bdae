// Package callgraph records resolved invocation edges between symbols.
// Only invocation syntax produces a call site; assigning a function to a
// variable merely makes a later call through that variable traceable.
package callgraph

import (
	"github.com/andreymedv/clang-index-mcp/internal/arena"
	"github.com/andreymedv/clang-index-mcp/internal/scope"
	"github.com/andreymedv/clang-index-mcp/internal/template"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// Extractor accumulates call sites for one translation unit.
type Extractor struct {
	arena     *arena.Arena
	scopes    *scope.Resolver
	templates *template.Tracker

	calls []types.CallSite

	// assignments traces function values statically within a scope:
	// "<scope path>|<variable>" → function symbol. A variable assigned
	// something untraceable maps to InvalidSymbol and poisons later calls
	// through it into IndirectUnresolved.
	assignments map[string]types.SymbolID
}

// NewExtractor wires the extractor to the unit's resolvers.
func NewExtractor(a *arena.Arena, scopes *scope.Resolver, templates *template.Tracker) *Extractor {
	return &Extractor{
		arena:       a,
		scopes:      scopes,
		templates:   templates,
		assignments: make(map[string]types.SymbolID),
	}
}

// Calls returns the recorded call sites in event order.
func (e *Extractor) Calls() []types.CallSite { return e.calls }

// assignmentKey scopes a variable name to where it was assigned.
func assignmentKey(from *scope.Scope, variable string) string {
	return from.Path.String() + "|" + variable
}

// RecordAssignment notes that a variable now holds a function value. Not a
// call site. An unresolvable right-hand side still records the variable,
// so a later call through it is reported indirect rather than direct.
func (e *Extractor) RecordAssignment(from *scope.Scope, variable, fnExpr string) {
	target := types.InvalidSymbol
	if res := e.scopes.ResolveIn(from, types.ParseTypeExpr(fnExpr).Qualified().String()); res.Status == scope.StatusFound {
		if sym := e.arena.Get(res.Symbol); sym != nil &&
			(sym.Kind == types.KindFunction || sym.Kind == types.KindMethod || sym.Kind == types.KindLambda) {
			target = res.Symbol
		}
	}
	e.assignments[assignmentKey(from, variable)] = target
}

// RecordCall resolves one invocation. from is the scope the call was
// written in; inLambda marks calls inside a lambda body, which are
// attributed to the enclosing function unless the call is the invocation
// of the lambda itself.
func (e *Extractor) RecordCall(caller types.SymbolID, from *scope.Scope, calleeExpr string, inLambda bool, loc types.Location) {
	site := types.CallSite{Caller: caller, Kind: types.CallDirect, Location: loc}
	if inLambda {
		site.Kind = types.CallLambdaBody
	}

	expr := types.ParseTypeExpr(calleeExpr)

	// Template function call: the callee is the specific instantiation,
	// not the generic template.
	if expr.HasArgs {
		if id, ok := e.templates.LookupName(expr.Qualified().String()); ok {
			if inst, err := e.templates.Instantiate(id, expr.Args); err == nil {
				site.Callee = inst.Symbol
				site.Kind = types.CallTemplateInstantiated
				e.calls = append(e.calls, site)
				return
			}
		}
		site.Indirect = true
		e.calls = append(e.calls, site)
		return
	}

	name := expr.Qualified().String()
	res := e.scopes.ResolveIn(from, name)
	if res.Status != scope.StatusFound {
		site.Indirect = true
		e.calls = append(e.calls, site)
		return
	}

	sym := e.arena.Get(res.Symbol)
	switch {
	case sym == nil:
		site.Indirect = true
	case sym.Kind == types.KindLambda:
		site.Callee = res.Symbol
		site.Kind = types.CallLambdaInvocation
	case sym.Kind == types.KindVariable:
		// Call through a variable: traceable only when an assignment was
		// seen in an enclosing scope.
		site.Kind = types.CallFunctionPointer
		if fn, ok := e.traceAssignment(from, expr.Name()); ok && fn != types.InvalidSymbol {
			site.Callee = fn
		} else {
			site.Indirect = true
		}
	default:
		site.Callee = res.Symbol
		if res.Symbol == caller {
			site.Kind = types.CallRecursive
		}
	}
	e.calls = append(e.calls, site)
}

func (e *Extractor) traceAssignment(from *scope.Scope, variable string) (types.SymbolID, bool) {
	for s := from; s != nil; s = s.Parent {
		if fn, ok := e.assignments[assignmentKey(s, variable)]; ok {
			return fn, true
		}
	}
	return types.InvalidSymbol, false
}

// MergeInto appends this unit's call sites to the destination slice with
// handles remapped to the merged arena.
func (e *Extractor) MergeInto(dst []types.CallSite, remap map[types.SymbolID]types.SymbolID) []types.CallSite {
	mapID := func(id types.SymbolID) types.SymbolID {
		if mapped, ok := remap[id]; ok {
			return mapped
		}
		return id
	}
	for _, c := range e.calls {
		c.Caller = mapID(c.Caller)
		c.Callee = mapID(c.Callee)
		dst = append(dst, c)
	}
	return dst
}
