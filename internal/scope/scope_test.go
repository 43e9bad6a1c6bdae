package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreymedv/clang-index-mcp/internal/arena"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(arena.New(), 0)
}

func loc(line int) types.Location {
	return types.Location{File: "test.cpp", Line: line, Column: 1}
}

func TestDeclareAndResolveInScope(t *testing.T) {
	r := newTestResolver(t)
	id := r.Declare("Widget", types.KindClass, true, loc(1))
	require.NotEqual(t, types.InvalidSymbol, id)

	res := r.Resolve("Widget")
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, id, res.Symbol)
}

func TestChainWalkInnermostWins(t *testing.T) {
	r := newTestResolver(t)
	outer := r.Declare("value", types.KindVariable, true, loc(1))

	r.EnterScope(types.KindNamespace, "ns", loc(2))
	inner := r.Declare("value", types.KindVariable, true, loc(3))

	res := r.Resolve("value")
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, inner, res.Symbol)

	r.ExitScope()
	res = r.Resolve("value")
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, outer, res.Symbol)
}

func TestQualifiedLookup(t *testing.T) {
	r := newTestResolver(t)
	r.EnterScope(types.KindNamespace, "ns", loc(1))
	id := r.Declare("Widget", types.KindClass, true, loc(2))
	r.ExitScope()

	res := r.Resolve("ns::Widget")
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, id, res.Symbol)

	assert.Equal(t, StatusNotFound, r.Resolve("ns::Missing").Status)
	assert.Equal(t, StatusNotFound, r.Resolve("nope::Widget").Status)
}

func TestNestedQualifiedFromInnerScope(t *testing.T) {
	r := newTestResolver(t)
	r.EnterScope(types.KindNamespace, "a", loc(1))
	r.EnterScope(types.KindNamespace, "b", loc(2))
	id := r.Declare("X", types.KindClass, true, loc(3))
	r.ExitScope()
	// From inside `a`, `b::X` resolves relative to the current scope.
	res := r.Resolve("b::X")
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, id, res.Symbol)
}

func TestUsingDeclaration(t *testing.T) {
	r := newTestResolver(t)
	r.EnterScope(types.KindNamespace, "ns", loc(1))
	orig := r.Declare("Widget", types.KindClass, true, loc(2))
	r.ExitScope()

	r.EnterScope(types.KindNamespace, "app", loc(4))
	r.AddUsing("Widget", orig)

	res := r.Resolve("Widget")
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, orig, res.Symbol, "a using-declaration binds the original symbol, not a copy")
}

func TestAnonymousNamespaceVisibleInEnclosingScope(t *testing.T) {
	a := arena.New()
	r := NewResolver(a, 0)
	r.EnterScope(types.KindNamespace, "", loc(1))
	helper := r.Declare("helper", types.KindFunction, true, loc(2))
	r.ExitScope()

	res := r.Resolve("helper")
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, helper, res.Symbol)

	// The synthesized scope name carries the unit, so another unit's
	// resolver over a different arena never sees it.
	other := NewResolver(arena.New(), 1)
	assert.Equal(t, StatusNotFound, other.Resolve("helper").Status)

	sym := a.Get(helper)
	require.NotNil(t, sym)
	assert.Contains(t, sym.Name.String(), "(anonymous:0)")
}

func TestTemplateParamShadowsEnclosingSymbol(t *testing.T) {
	r := newTestResolver(t)
	r.Declare("T", types.KindClass, true, loc(1))

	r.EnterTemplateBody([]types.TemplateParam{{Name: "T"}})
	res := r.Resolve("T")
	assert.Equal(t, StatusTemplateParam, res.Status)
	assert.Equal(t, "T", res.ParamName)

	// Non-parameter names fall through to the enclosing chain.
	widget := r.Declare("Widget", types.KindClass, true, loc(3))
	got := r.Resolve("Widget")
	require.Equal(t, StatusFound, got.Status)
	assert.Equal(t, widget, got.Symbol)

	r.ExitScope()
	after := r.Resolve("T")
	assert.Equal(t, StatusFound, after.Status, "shadowing ends with the template body")
}

func TestDeclarationInsideTemplateBodyLandsInEnclosingScope(t *testing.T) {
	r := newTestResolver(t)
	r.EnterScope(types.KindNamespace, "ns", loc(1))
	r.EnterTemplateBody([]types.TemplateParam{{Name: "T"}})
	id := r.Declare("Box", types.KindTemplate, true, loc(2))
	r.ExitScope()
	r.ExitScope()

	res := r.Resolve("ns::Box")
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, id, res.Symbol)
}

func TestAmbiguousUnqualified(t *testing.T) {
	a := arena.New()
	r := NewResolver(a, 0)
	// Two distinct kinds under the same name in the same scope.
	cls := r.Declare("Thing", types.KindClass, true, loc(1))
	fn := r.Declare("Thing", types.KindFunction, true, loc(2))

	res := r.Resolve("Thing")
	require.Equal(t, StatusAmbiguous, res.Status)
	assert.ElementsMatch(t, []types.SymbolID{cls, fn}, res.Candidates)
}

func TestExitScopeAtRootIsNoop(t *testing.T) {
	r := newTestResolver(t)
	r.ExitScope()
	r.ExitScope()
	assert.Same(t, r.Global(), r.Current())
}

func TestReenteringNamespaceSharesScope(t *testing.T) {
	r := newTestResolver(t)
	r.EnterScope(types.KindNamespace, "ns", loc(1))
	first := r.Declare("First", types.KindClass, true, loc(2))
	r.ExitScope()
	r.EnterScope(types.KindNamespace, "ns", loc(10))
	res := r.Resolve("First")
	r.ExitScope()

	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, first, res.Symbol)
}

func TestResolveIn(t *testing.T) {
	r := newTestResolver(t)
	r.EnterScope(types.KindNamespace, "ns", loc(1))
	id := r.Declare("Widget", types.KindClass, true, loc(2))
	ns := r.Current()
	r.ExitScope()

	res := r.ResolveIn(ns, "Widget")
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, id, res.Symbol)
	assert.Same(t, r.Global(), r.Current(), "current scope is restored")
}

func TestScopeFor(t *testing.T) {
	r := newTestResolver(t)
	r.EnterScope(types.KindNamespace, "a", loc(1))
	r.EnterScope(types.KindClass, "C", loc(2))
	want := r.Current()
	r.ExitScope()
	r.ExitScope()

	assert.Same(t, want, r.ScopeFor(types.ParseQualifiedName("a::C")))
	assert.Nil(t, r.ScopeFor(types.ParseQualifiedName("a::Missing")))
}
