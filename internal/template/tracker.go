// Package template selects the correct definition (primary, partial, or
// full specialization) for a template name and argument list, and
// materializes cached instantiation symbols with substituted base lists.
//
// Selection follows standard partial-ordering: an exact full
// specialization wins; otherwise the most specific matching partial
// specialization; otherwise the primary with positional substitution,
// defaults, and pack expansion. A tie with no single most-specific
// candidate is reported as ambiguous, never guessed.
package template

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/andreymedv/clang-index-mcp/internal/arena"
	"github.com/andreymedv/clang-index-mcp/internal/errors"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// Tracker owns template definitions and the (template, args) instantiation
// cache for one engine run.
type Tracker struct {
	defs   map[types.SymbolID]*types.TemplateDefinition
	byName map[string]types.SymbolID
	cache  map[uint64]*types.Instantiation
	arena  *arena.Arena
	errs   []error
}

// NewTracker creates a tracker over the given arena.
func NewTracker(a *arena.Arena) *Tracker {
	return &Tracker{
		defs:   make(map[types.SymbolID]*types.TemplateDefinition),
		byName: make(map[string]types.SymbolID),
		cache:  make(map[uint64]*types.Instantiation),
		arena:  a,
	}
}

// Define registers a template definition under its symbol.
func (t *Tracker) Define(def *types.TemplateDefinition) {
	t.defs[def.Symbol] = def
	t.byName[def.Name.String()] = def.Symbol
}

// Definition returns the registered definition for a template symbol.
func (t *Tracker) Definition(id types.SymbolID) (*types.TemplateDefinition, bool) {
	def, ok := t.defs[id]
	return def, ok
}

// LookupName finds a template symbol by fully qualified name.
func (t *Tracker) LookupName(name string) (types.SymbolID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// DefinitionSymbols returns the symbol of every registered definition.
func (t *Tracker) DefinitionSymbols() []types.SymbolID {
	out := make([]types.SymbolID, 0, len(t.defs))
	for id := range t.defs {
		out = append(out, id)
	}
	return out
}

// InstantiationSymbols returns the materialized symbol of every cached
// instantiation.
func (t *Tracker) InstantiationSymbols() []types.SymbolID {
	out := make([]types.SymbolID, 0, len(t.cache))
	for _, inst := range t.cache {
		out = append(out, inst.Symbol)
	}
	return out
}

// Errors returns ambiguity errors recorded during selection.
func (t *Tracker) Errors() []error { return t.errs }

// DefinitionCount returns the number of registered template definitions.
func (t *Tracker) DefinitionCount() int { return len(t.defs) }

// Instantiations returns the number of cached instantiations.
func (t *Tracker) Instantiations() int { return len(t.cache) }

// cacheKey hashes the template identity with the canonical argument
// spelling so repeated use of the same instantiation yields one Symbol.
func cacheKey(id types.SymbolID, args []types.TypeExpr) uint64 {
	var h xxhash.Digest
	h.Reset()
	_, _ = fmt.Fprintf(&h, "%d<", id)
	for _, a := range args {
		_, _ = h.WriteString(a.String())
		_, _ = h.WriteString(",")
	}
	return h.Sum64()
}

// Instantiate selects a definition member for the argument list and
// returns the cached instantiation, materializing it on first use.
func (t *Tracker) Instantiate(templateID types.SymbolID, args []types.TypeExpr) (*types.Instantiation, error) {
	def, ok := t.defs[templateID]
	if !ok {
		return nil, errors.NewUnresolved(fmt.Sprintf("template #%d", templateID), types.Location{})
	}

	key := cacheKey(templateID, args)
	if inst, hit := t.cache[key]; hit {
		return inst, nil
	}

	inst := &types.Instantiation{
		Template: templateID,
		Args:     append([]types.TypeExpr(nil), args...),
	}

	// 1. Exact full specialization.
	for i := range def.Specializations {
		spec := &def.Specializations[i]
		if spec.IsFull() && patternEqual(spec.Pattern, args) {
			inst.Selected = types.SelectedFull
			inst.SpecIndex = i
			inst.Bases = append([]types.BaseSpec(nil), spec.Bases...)
			t.materialize(def, inst)
			t.cache[key] = inst
			return inst, nil
		}
	}

	// 2. Most specific matching partial specialization.
	type match struct {
		index    int
		bindings map[string]types.TypeExpr
	}
	var matches []match
	for i := range def.Specializations {
		spec := &def.Specializations[i]
		if spec.IsFull() {
			continue
		}
		if b, ok := unifyList(spec.Pattern, args, paramSet(spec.Params)); ok {
			matches = append(matches, match{index: i, bindings: b})
		}
	}
	switch {
	case len(matches) == 1:
		return t.selectPartial(def, inst, matches[0].index, matches[0].bindings, key)
	case len(matches) > 1:
		best := -1
		for _, m := range matches {
			dominates := true
			for _, other := range matches {
				if m.index == other.index {
					continue
				}
				if !moreSpecific(&def.Specializations[m.index], &def.Specializations[other.index]) {
					dominates = false
					break
				}
			}
			if dominates {
				best = m.index
				break
			}
		}
		if best >= 0 {
			for _, m := range matches {
				if m.index == best {
					return t.selectPartial(def, inst, best, m.bindings, key)
				}
			}
		}
		// No single most specific candidate: ambiguous, bases withheld.
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, renderPattern(def.Name.Base(), def.Specializations[m.index].Pattern))
		}
		t.errs = append(t.errs, errors.NewAmbiguous(renderPattern(def.Name.String(), args), names, def.Location))
		inst.Selected = types.SelectedPartial
		inst.SpecIndex = -1
		inst.Ambiguous = true
		t.materialize(def, inst)
		t.cache[key] = inst
		return inst, nil
	}

	// 3. Primary with positional substitution.
	bindings, err := bindPrimary(def, args)
	if err != nil {
		return nil, err
	}
	inst.Selected = types.SelectedPrimary
	inst.Bases = substituteBases(def.Bases, bindings)
	t.materialize(def, inst)
	t.cache[key] = inst
	return inst, nil
}

func (t *Tracker) selectPartial(def *types.TemplateDefinition, inst *types.Instantiation, index int, bindings map[string]types.TypeExpr, key uint64) (*types.Instantiation, error) {
	spec := &def.Specializations[index]
	inst.Selected = types.SelectedPartial
	inst.SpecIndex = index
	inst.Bases = substituteBases(spec.Bases, bindings)
	t.materialize(def, inst)
	t.cache[key] = inst
	return inst, nil
}

// materialize creates the concrete instantiation symbol
// ("ns::Tmpl<int, double>") in the arena.
func (t *Tracker) materialize(def *types.TemplateDefinition, inst *types.Instantiation) {
	name := def.Name.Parent().Child(renderPattern(def.Name.Base(), inst.Args))
	inst.Symbol = t.arena.Declare(name, types.KindClass, true, def.Location, 0)
	tmplSym := t.arena.Get(def.Symbol)
	if tmplSym != nil {
		t.arena.SetOwner(inst.Symbol, tmplSym.OwnerScope)
	}
}

// bindPrimary binds primary template parameters positionally, filling
// defaults for omitted trailing arguments and expanding a trailing pack to
// the remaining supplied arguments (possibly none).
func bindPrimary(def *types.TemplateDefinition, args []types.TypeExpr) (map[string]types.TypeExpr, error) {
	bindings := make(map[string]types.TypeExpr, len(def.Params))
	for i, p := range def.Params {
		switch {
		case p.IsPack:
			rest := []types.TypeExpr{}
			if i < len(args) {
				rest = args[i:]
			}
			bindings[p.Name] = types.BindPack(rest)
		case i < len(args):
			bindings[p.Name] = args[i]
		case p.Default != nil:
			bindings[p.Name] = p.Default.Substitute(bindings)
		default:
			return nil, errors.NewUnresolved(
				fmt.Sprintf("%s: missing argument for parameter %s", def.Name, p.Name),
				def.Location)
		}
	}
	return bindings, nil
}

func substituteBases(bases []types.BaseSpec, bindings map[string]types.TypeExpr) []types.BaseSpec {
	out := make([]types.BaseSpec, 0, len(bases))
	for _, b := range bases {
		b.Expr = b.Expr.Substitute(bindings)
		out = append(out, b)
	}
	return out
}

func paramSet(params []types.TemplateParam) map[string]bool {
	set := make(map[string]bool, len(params))
	for _, p := range params {
		set[p.Name] = true
	}
	return set
}

func patternEqual(pattern, args []types.TypeExpr) bool {
	if len(pattern) != len(args) {
		return false
	}
	for i := range pattern {
		if !pattern[i].Equal(args[i]) {
			return false
		}
	}
	return true
}

func renderPattern(base string, args []types.TypeExpr) string {
	s := base + "<"
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ">"
}
