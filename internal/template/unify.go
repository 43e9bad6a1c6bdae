package template

import (
	"fmt"

	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// unifyList matches a specialization pattern against a concrete argument
// list, producing parameter bindings. A trailing parameter-pack element
// absorbs the remaining arguments (possibly none).
func unifyList(pattern, args []types.TypeExpr, params map[string]bool) (map[string]types.TypeExpr, bool) {
	bindings := make(map[string]types.TypeExpr)
	if !unifyInto(pattern, args, params, bindings) {
		return nil, false
	}
	return bindings, true
}

func unifyInto(pattern, args []types.TypeExpr, params map[string]bool, bindings map[string]types.TypeExpr) bool {
	for i, p := range pattern {
		if p.IsPlainNamePack() && params[p.Name()] {
			if i != len(pattern)-1 {
				return false // non-trailing packs are not deducible here
			}
			rest := []types.TypeExpr{}
			if i < len(args) {
				rest = args[i:]
			}
			return bindPack(p.Name(), rest, bindings)
		}
		if i >= len(args) {
			return false
		}
		if !unify(p, args[i], params, bindings) {
			return false
		}
	}
	return len(pattern) == len(args)
}

// unify matches one pattern element against one concrete argument. The
// pattern's own wrappers must be present on the argument and are stripped
// before the underlying name is compared or bound, so `T*` unifies with
// `int*` binding T=int.
func unify(p, a types.TypeExpr, params map[string]bool, bindings map[string]types.TypeExpr) bool {
	if p.Const {
		if !a.Const {
			return false
		}
		a.Const = false
	}
	if p.PtrDepth > 0 {
		if a.PtrDepth < p.PtrDepth {
			return false
		}
		a.PtrDepth -= p.PtrDepth
	}
	if p.Ref != types.RefNone {
		if a.Ref != p.Ref {
			return false
		}
		a.Ref = types.RefNone
	}
	p.Const, p.PtrDepth, p.Ref = false, 0, types.RefNone

	// Parameter occurrence: bind whatever remains of the argument.
	if len(p.Segments) == 1 && !p.HasArgs && params[p.Segments[0]] {
		return bindOne(p.Segments[0], a, bindings)
	}

	// Template reference pattern, e.g. F<T, U>.
	if p.HasArgs {
		if !a.HasArgs || !sameSegments(p.Segments, a.Segments) {
			return false
		}
		return unifyInto(p.Args, a.Args, params, bindings)
	}

	// Concrete name: must match exactly.
	return p.Equal(a)
}

func bindOne(name string, value types.TypeExpr, bindings map[string]types.TypeExpr) bool {
	if prev, ok := bindings[name]; ok {
		return prev.Equal(value)
	}
	bindings[name] = value
	return true
}

func bindPack(name string, values []types.TypeExpr, bindings map[string]types.TypeExpr) bool {
	if prev, ok := bindings[name]; ok {
		prevArgs := prev.PackArgs()
		if len(prevArgs) != len(values) {
			return false
		}
		for i := range values {
			if !prevArgs[i].Equal(values[i]) {
				return false
			}
		}
		return true
	}
	bindings[name] = types.BindPack(values)
	return true
}

func sameSegments(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// moreSpecific reports strict partial-ordering: p's pattern is a
// specialization of q's, and not vice versa. The test grounds p's
// parameters with synthetic concrete names and asks whether q's pattern
// still matches the result.
func moreSpecific(p, q *types.Specialization) bool {
	return atLeastAsSpecific(p, q) && !atLeastAsSpecific(q, p)
}

func atLeastAsSpecific(p, q *types.Specialization) bool {
	ground := groundPattern(p)
	_, ok := unifyList(q.Pattern, ground, paramSet(q.Params))
	return ok
}

// groundPattern replaces p's parameters with unique synthetic type names.
// Packs ground to a single synthetic element; pack-vs-pack orderings that
// this cannot separate surface as ambiguous in selection.
func groundPattern(p *types.Specialization) []types.TypeExpr {
	bindings := make(map[string]types.TypeExpr, len(p.Params))
	for _, param := range p.Params {
		synth := types.TypeExpr{Segments: []string{fmt.Sprintf("#ground:%s", param.Name)}}
		if param.IsPack {
			bindings[param.Name] = types.BindPack([]types.TypeExpr{synth})
		} else {
			bindings[param.Name] = synth
		}
	}
	out := make([]types.TypeExpr, 0, len(p.Pattern))
	for _, el := range p.Pattern {
		if el.IsPlainNamePack() {
			if b, ok := bindings[el.Name()]; ok {
				out = append(out, b.PackArgs()...)
				continue
			}
		}
		out = append(out, el.Substitute(bindings))
	}
	return out
}
