package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// NotFoundError reports a query for a qualified name no committed symbol
// carries, with did-you-mean candidates ranked by similarity.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("symbol not found: %s", e.Name)
	}
	return fmt.Sprintf("symbol not found: %s (did you mean: %s)",
		e.Name, strings.Join(e.Suggestions, ", "))
}

// SymbolInfo is the query-facing projection of one symbol.
type SymbolInfo struct {
	Name         string
	Kind         string
	IsDefinition bool
	Location     types.Location
	DefLocation  types.Location
	Doc          *types.DocComment
}

// AncestorInfo is one entry of a GetAncestors result, in base-class
// declaration order, nearest first.
type AncestorInfo struct {
	Name            string
	Access          types.Access
	Virtual         bool
	Depth           int
	AmbiguousAccess bool
}

// CallSiteInfo is one call edge touching the queried symbol.
type CallSiteInfo struct {
	Caller   string
	Callee   string
	Kind     string
	Indirect bool
	Location types.Location
}

// AliasResolution is the outcome of following an alias chain from a query.
type AliasResolution struct {
	Status   string
	Target   string // final symbol's qualified name, or the terminal spelling
	Const    bool
	PtrDepth int
	Ref      types.RefKind
}

// symbolByName binds a query name to one committed symbol. Record kinds
// win over others when the name is shared; among the rest, a definition
// wins over a declaration.
func (v *view) symbolByName(name string, cfg suggester) (*types.Symbol, error) {
	qn := types.ParseQualifiedName(name)
	ids := v.arena.LookupAnyKind(qn)
	if len(ids) == 0 {
		return nil, &NotFoundError{Name: name, Suggestions: cfg.suggest(v, name)}
	}
	var best *types.Symbol
	for _, id := range ids {
		sym := v.arena.Get(id)
		if sym == nil {
			continue
		}
		switch {
		case best == nil:
			best = sym
		case sym.Kind.IsRecordKind() && !best.Kind.IsRecordKind():
			best = sym
		case sym.Kind == best.Kind && sym.IsDefinition && !best.IsDefinition:
			best = sym
		}
	}
	if best == nil {
		return nil, &NotFoundError{Name: name, Suggestions: cfg.suggest(v, name)}
	}
	return best, nil
}

// suggester ranks committed qualified names against a missed query.
type suggester struct {
	limit     int
	threshold float64
}

func (e *Engine) suggester() suggester {
	return suggester{
		limit:     e.cfg.Engine.SuggestionLimit,
		threshold: e.cfg.Engine.SuggestionThreshold,
	}
}

func (s suggester) suggest(v *view, name string) []string {
	if s.limit <= 0 {
		return nil
	}
	type scored struct {
		name  string
		score float32
	}
	base := types.ParseQualifiedName(name).Base()
	var candidates []scored
	for _, candidate := range v.arena.AllNames() {
		score, err := edlib.StringsSimilarity(name, candidate, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		// An unqualified query should still find ns::Name.
		if tail, err := edlib.StringsSimilarity(base, types.ParseQualifiedName(candidate).Base(), edlib.JaroWinkler); err == nil && tail > score {
			score = tail
		}
		if float64(score) >= s.threshold {
			candidates = append(candidates, scored{candidate, score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > s.limit {
		candidates = candidates[:s.limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}

// GetSymbol returns the committed symbol for a qualified name.
func (e *Engine) GetSymbol(name string) (*SymbolInfo, error) {
	v, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	sym, err := v.symbolByName(name, e.suggester())
	if err != nil {
		return nil, err
	}
	return &SymbolInfo{
		Name:         sym.DisplayName(),
		Kind:         sym.Kind.String(),
		IsDefinition: sym.IsDefinition,
		Location:     sym.Location,
		DefLocation:  sym.DefLocation,
		Doc:          sym.Doc,
	}, nil
}

// GetAncestors returns the transitive base classes of a record type. A
// virtual base appears once no matter how many paths reach it; a
// non-virtual base reached over two paths appears once per path with
// AmbiguousAccess set.
func (e *Engine) GetAncestors(name string) ([]AncestorInfo, error) {
	v, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	sym, err := v.symbolByName(name, e.suggester())
	if err != nil {
		return nil, err
	}
	ancestors := v.graph.Ancestors(sym.ID)
	out := make([]AncestorInfo, 0, len(ancestors))
	for _, a := range ancestors {
		out = append(out, AncestorInfo{
			Name:            v.displayName(a.Symbol),
			Access:          a.Access,
			Virtual:         a.Virtual,
			Depth:           a.Depth,
			AmbiguousAccess: a.AmbiguousAccess,
		})
	}
	return out, nil
}

// IsDerivedFrom reports whether derived transitively inherits from base
// over resolved edges.
func (e *Engine) IsDerivedFrom(derived, base string) (bool, error) {
	v, err := e.snapshot()
	if err != nil {
		return false, err
	}
	d, err := v.symbolByName(derived, e.suggester())
	if err != nil {
		return false, err
	}
	b, err := v.symbolByName(base, e.suggester())
	if err != nil {
		return false, err
	}
	return v.graph.IsDerivedFrom(d.ID, b.ID), nil
}

// GetDerived returns the direct subclasses of a record type.
func (e *Engine) GetDerived(name string) ([]string, error) {
	v, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	sym, err := v.symbolByName(name, e.suggester())
	if err != nil {
		return nil, err
	}
	ids := v.graph.Derived(sym.ID)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, v.displayName(id))
	}
	return out, nil
}

// GetOverriders returns every class overriding the named method below the
// given class, nearest overriders first.
func (e *Engine) GetOverriders(name, method string) ([]string, error) {
	v, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	sym, err := v.symbolByName(name, e.suggester())
	if err != nil {
		return nil, err
	}
	ids := v.graph.Overriders(sym.ID, types.MethodSignature{Name: method})
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, v.displayName(id))
	}
	return out, nil
}

// GetCallSites returns the call edges where the symbol is the callee
// (incoming) and where it is the caller (outgoing). Indirect sites with
// no traceable callee are reported only on the outgoing side.
func (e *Engine) GetCallSites(name string) (incoming, outgoing []CallSiteInfo, err error) {
	v, err := e.snapshot()
	if err != nil {
		return nil, nil, err
	}
	sym, err := v.symbolByName(name, e.suggester())
	if err != nil {
		return nil, nil, err
	}
	for _, c := range v.calls {
		info := CallSiteInfo{
			Caller:   v.displayName(c.Caller),
			Callee:   v.displayName(c.Callee),
			Kind:     c.Kind.String(),
			Indirect: c.Indirect,
			Location: c.Location,
		}
		if c.Callee == sym.ID && !c.Indirect {
			incoming = append(incoming, info)
		}
		if c.Caller == sym.ID {
			outgoing = append(outgoing, info)
		}
	}
	return incoming, outgoing, nil
}

// GetDocumentation returns the normalized doc comment attached to a
// symbol, or nil when the symbol exists but carries none.
func (e *Engine) GetDocumentation(name string) (*types.DocComment, error) {
	v, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	sym, err := v.symbolByName(name, e.suggester())
	if err != nil {
		return nil, err
	}
	return sym.Doc, nil
}

// ResolveAlias follows the alias chain registered under a qualified name
// against the committed bindings.
func (e *Engine) ResolveAlias(name string) (*AliasResolution, error) {
	v, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	if _, ok := v.aliases.Binding(name); !ok {
		// Tolerate an unqualified spelling of a unique committed alias.
		sym, symErr := v.symbolByName(name, e.suggester())
		if symErr != nil || sym.Kind != types.KindAlias {
			return nil, &NotFoundError{Name: name, Suggestions: e.suggester().suggest(v, name)}
		}
		name = sym.DisplayName()
	}
	target := v.aliases.Resolve(v.scopes.Global(), name)
	res := &AliasResolution{
		Status:   target.Status.String(),
		Target:   target.Expr.String(),
		Const:    target.Const,
		PtrDepth: target.PtrDepth,
		Ref:      target.Ref,
	}
	if target.Symbol != types.InvalidSymbol {
		res.Target = v.displayName(target.Symbol)
	}
	return res, nil
}

func (v *view) displayName(id types.SymbolID) string {
	if sym := v.arena.Get(id); sym != nil {
		return sym.DisplayName()
	}
	return ""
}
