package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreymedv/clang-index-mcp/internal/arena"
	cpperrors "github.com/andreymedv/clang-index-mcp/internal/errors"
	"github.com/andreymedv/clang-index-mcp/internal/scope"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

func loc(line int) types.Location {
	return types.Location{File: "aliases.h", Line: line, Column: 1}
}

func setup(t *testing.T) (*scope.Resolver, *Resolver) {
	t.Helper()
	scopes := scope.NewResolver(arena.New(), 0)
	return scopes, NewResolver(scopes, 0)
}

func define(r *Resolver, name, target string, line int) {
	r.Define(types.ParseQualifiedName(name), types.ParseTypeExpr(target), nil, loc(line), 0)
}

func TestResolveDirectAliasToSymbol(t *testing.T) {
	scopes, r := setup(t)
	widget := scopes.Declare("Widget", types.KindClass, true, loc(1))
	define(r, "Handle", "Widget", 2)

	got := r.Resolve(scopes.Global(), "Handle")
	assert.Equal(t, types.EdgeResolved, got.Status)
	assert.Equal(t, widget, got.Symbol)
}

func TestResolveChain(t *testing.T) {
	scopes, r := setup(t)
	widget := scopes.Declare("Widget", types.KindClass, true, loc(1))
	define(r, "A", "B", 2)
	define(r, "B", "C", 3)
	define(r, "C", "Widget", 4)

	got := r.Resolve(scopes.Global(), "A")
	assert.Equal(t, types.EdgeResolved, got.Status)
	assert.Equal(t, widget, got.Symbol)
}

func TestResolvePrimitiveEndpoint(t *testing.T) {
	scopes, r := setup(t)
	define(r, "Byte", "unsigned", 1)

	got := r.Resolve(scopes.Global(), "Byte")
	assert.Equal(t, types.EdgeResolved, got.Status)
	assert.Equal(t, types.InvalidSymbol, got.Symbol)
	assert.Equal(t, "unsigned", got.Expr.Name())
}

func TestResolveAccumulatesWrappers(t *testing.T) {
	scopes, r := setup(t)
	widget := scopes.Declare("Widget", types.KindClass, true, loc(1))
	define(r, "Ptr", "Widget*", 2)
	define(r, "ConstPtr", "const Ptr", 3)

	got := r.Resolve(scopes.Global(), "ConstPtr")
	assert.Equal(t, types.EdgeResolved, got.Status)
	assert.Equal(t, widget, got.Symbol, "the underlying entity keeps being chased through wrappers")
	assert.True(t, got.Const)
	assert.Equal(t, 1, got.PtrDepth)
	assert.True(t, got.IsWrapped())
}

func TestResolveUnresolvedEndpoint(t *testing.T) {
	scopes, r := setup(t)
	define(r, "Handle", "MissingType", 1)

	got := r.Resolve(scopes.Global(), "Handle")
	assert.Equal(t, types.EdgeUnresolved, got.Status)
}

func TestCyclicAliasFreezes(t *testing.T) {
	scopes, r := setup(t)
	define(r, "A", "B", 1)
	define(r, "B", "C", 2)
	define(r, "C", "A", 3)

	got := r.Resolve(scopes.Global(), "A")
	assert.Equal(t, types.EdgeCycle, got.Status)

	errs := r.Errors()
	require.Len(t, errs, 1)
	var cyc *cpperrors.CycleError
	require.ErrorAs(t, errs[0], &cyc)
	assert.Equal(t, cpperrors.KindCyclicAlias, cyc.Kind)

	// Every name on the chain is frozen; re-resolving records no new error.
	again := r.Resolve(scopes.Global(), "B")
	assert.Equal(t, types.EdgeCycle, again.Status)
	assert.Len(t, r.Errors(), 1)
}

func TestScopedAliasLookup(t *testing.T) {
	scopes, r := setup(t)
	scopes.EnterScope(types.KindNamespace, "ns", loc(1))
	widget := scopes.Declare("Widget", types.KindClass, true, loc(2))
	ns := scopes.Current()
	scopes.ExitScope()

	// Alias declared inside ns, referred to unqualified from within ns.
	define(r, "ns::Handle", "Widget", 3)

	got := r.Resolve(ns, "Handle")
	assert.Equal(t, types.EdgeResolved, got.Status)
	assert.Equal(t, widget, got.Symbol)

	// From global scope the unqualified name does not bind.
	miss := r.Resolve(scopes.Global(), "Handle")
	assert.Equal(t, types.EdgeUnresolved, miss.Status)
}

func TestTemplateAliasSubstitution(t *testing.T) {
	scopes, r := setup(t)
	r.Define(types.ParseQualifiedName("Vec"),
		types.ParseTypeExpr("std::vector<T>"),
		[]types.TemplateParam{{Name: "T"}}, loc(1), 0)

	got := r.Resolve(scopes.Global(), "Vec<int>")
	assert.Equal(t, types.EdgeResolved, got.Status)
	assert.Equal(t, "std::vector<int>", got.Expr.String())
}

func TestTemplateAliasWithoutArguments(t *testing.T) {
	scopes, r := setup(t)
	r.Define(types.ParseQualifiedName("Vec"),
		types.ParseTypeExpr("std::vector<T>"),
		[]types.TemplateParam{{Name: "T"}}, loc(1), 0)

	got := r.Resolve(scopes.Global(), "Vec")
	assert.Equal(t, types.EdgeUnsupported, got.Status)
	require.Len(t, r.Errors(), 1)
	assert.Equal(t, cpperrors.KindUnsupportedConstruct, cpperrors.KindOf(r.Errors()[0]))
}

func TestTemplateAliasDefaultParam(t *testing.T) {
	scopes, r := setup(t)
	def := types.ParseTypeExpr("std::allocator<T>")
	r.Define(types.ParseQualifiedName("Vec"),
		types.ParseTypeExpr("std::vector<T, Alloc>"),
		[]types.TemplateParam{{Name: "T"}, {Name: "Alloc", Default: &def}}, loc(1), 0)

	got := r.Resolve(scopes.Global(), "Vec<int>")
	assert.Equal(t, "std::vector<int, std::allocator<int>>", got.Expr.String())
}

func TestTemplateAliasPack(t *testing.T) {
	scopes, r := setup(t)
	r.Define(types.ParseQualifiedName("Bundle"),
		types.ParseTypeExpr("std::tuple<Ts...>"),
		[]types.TemplateParam{{Name: "Ts", IsPack: true}}, loc(1), 0)

	got := r.Resolve(scopes.Global(), "Bundle<int, double>")
	assert.Equal(t, "std::tuple<int, double>", got.Expr.String())
}

func TestMergeFromPrefersExisting(t *testing.T) {
	scopes, r := setup(t)
	define(r, "Handle", "First", 1)

	other := NewResolver(scopes, 0)
	define(other, "Handle", "Second", 2)
	define(other, "Extra", "int", 3)

	r.MergeFrom(other)
	assert.Equal(t, 2, r.Len())
	b, ok := r.Binding("Handle")
	require.True(t, ok)
	assert.Equal(t, "First", b.Target.Name())
}
