package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreymedv/clang-index-mcp/internal/arena"
	cpperrors "github.com/andreymedv/clang-index-mcp/internal/errors"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

func loc(line int) types.Location {
	return types.Location{File: "tmpl.h", Line: line, Column: 1}
}

func texprs(specs ...string) []types.TypeExpr {
	out := make([]types.TypeExpr, 0, len(specs))
	for _, s := range specs {
		out = append(out, types.ParseTypeExpr(s))
	}
	return out
}

func params(names ...string) []types.TemplateParam {
	out := make([]types.TemplateParam, 0, len(names))
	for _, n := range names {
		out = append(out, types.TemplateParam{Name: n})
	}
	return out
}

// newDef registers a two-parameter primary template named Pair with the
// canonical specialization set used across selection tests:
// <T, U> (primary), <T, T>, and <T*, U>.
func newPairTracker(t *testing.T) (*Tracker, types.SymbolID) {
	t.Helper()
	a := arena.New()
	tr := NewTracker(a)
	id := a.Declare(types.ParseQualifiedName("Pair"), types.KindTemplate, true, loc(1), 0)
	tr.Define(&types.TemplateDefinition{
		Symbol: id,
		Name:   types.ParseQualifiedName("Pair"),
		Params: params("T", "U"),
		Bases:  []types.BaseSpec{{Expr: types.ParseTypeExpr("PrimaryBase<T>")}},
		Specializations: []types.Specialization{
			{
				Pattern: texprs("T", "T"),
				Params:  params("T"),
				Bases:   []types.BaseSpec{{Expr: types.ParseTypeExpr("SameBase<T>")}},
			},
			{
				Pattern: texprs("T*", "U"),
				Params:  params("T", "U"),
				Bases:   []types.BaseSpec{{Expr: types.ParseTypeExpr("PtrBase<T>")}},
			},
		},
		Location: loc(1),
	})
	return tr, id
}

func TestInstantiatePrimary(t *testing.T) {
	tr, id := newPairTracker(t)
	inst, err := tr.Instantiate(id, texprs("int", "double"))
	require.NoError(t, err)
	assert.Equal(t, types.SelectedPrimary, inst.Selected)
	require.Len(t, inst.Bases, 1)
	assert.Equal(t, "PrimaryBase<int>", inst.Bases[0].Expr.String())
	assert.NotEqual(t, types.InvalidSymbol, inst.Symbol)
}

func TestInstantiateSelectsSameTypePartial(t *testing.T) {
	tr, id := newPairTracker(t)
	inst, err := tr.Instantiate(id, texprs("int", "int"))
	require.NoError(t, err)
	assert.Equal(t, types.SelectedPartial, inst.Selected)
	assert.Equal(t, 0, inst.SpecIndex)
	require.Len(t, inst.Bases, 1)
	assert.Equal(t, "SameBase<int>", inst.Bases[0].Expr.String())
}

func TestInstantiateSelectsPointerPartial(t *testing.T) {
	tr, id := newPairTracker(t)
	inst, err := tr.Instantiate(id, texprs("int*", "int"))
	require.NoError(t, err)
	assert.Equal(t, types.SelectedPartial, inst.Selected)
	assert.Equal(t, 1, inst.SpecIndex, "<T*, U> matches; <T, T> does not (int* vs int)")
	require.Len(t, inst.Bases, 1)
	assert.Equal(t, "PtrBase<int>", inst.Bases[0].Expr.String(), "T binds the pointee")
}

func TestInstantiateAmbiguousPartials(t *testing.T) {
	tr, id := newPairTracker(t)
	// Both <T, T> and <T*, U> match, and neither is more specific.
	inst, err := tr.Instantiate(id, texprs("int*", "int*"))
	require.NoError(t, err)
	assert.True(t, inst.Ambiguous)
	assert.Empty(t, inst.Bases, "bases are withheld on ambiguity")
	assert.NotEqual(t, types.InvalidSymbol, inst.Symbol, "the symbol is still materialized")

	require.Len(t, tr.Errors(), 1)
	assert.Equal(t, cpperrors.KindAmbiguousName, cpperrors.KindOf(tr.Errors()[0]))
}

func TestInstantiateFullSpecializationWins(t *testing.T) {
	a := arena.New()
	tr := NewTracker(a)
	id := a.Declare(types.ParseQualifiedName("Box"), types.KindTemplate, true, loc(1), 0)
	tr.Define(&types.TemplateDefinition{
		Symbol: id,
		Name:   types.ParseQualifiedName("Box"),
		Params: params("T"),
		Bases:  []types.BaseSpec{{Expr: types.ParseTypeExpr("Generic<T>")}},
		Specializations: []types.Specialization{
			{
				Pattern: texprs("T*"),
				Params:  params("T"),
				Bases:   []types.BaseSpec{{Expr: types.ParseTypeExpr("PtrStorage<T>")}},
			},
			{
				Pattern: texprs("int*"),
				Bases:   []types.BaseSpec{{Expr: types.ParseTypeExpr("IntPtrStorage")}},
			},
		},
		Location: loc(1),
	})

	inst, err := tr.Instantiate(id, texprs("int*"))
	require.NoError(t, err)
	assert.Equal(t, types.SelectedFull, inst.Selected)
	assert.Equal(t, 1, inst.SpecIndex)
	require.Len(t, inst.Bases, 1)
	assert.Equal(t, "IntPtrStorage", inst.Bases[0].Expr.String(),
		"the specialization's base list stands alone, never merged with the primary's")
}

func TestInstantiateCacheReturnsSameInstantiation(t *testing.T) {
	tr, id := newPairTracker(t)
	first, err := tr.Instantiate(id, texprs("int", "double"))
	require.NoError(t, err)
	second, err := tr.Instantiate(id, texprs("int", "double"))
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, first.Symbol, second.Symbol)
	assert.Equal(t, 1, tr.Instantiations())
	assert.Equal(t, 1, tr.DefinitionCount())
}

func TestInstantiateDefaultArguments(t *testing.T) {
	a := arena.New()
	tr := NewTracker(a)
	id := a.Declare(types.ParseQualifiedName("Vec"), types.KindTemplate, true, loc(1), 0)
	def := types.ParseTypeExpr("std::allocator<T>")
	tr.Define(&types.TemplateDefinition{
		Symbol: id,
		Name:   types.ParseQualifiedName("Vec"),
		Params: []types.TemplateParam{{Name: "T"}, {Name: "Alloc", Default: &def}},
		Bases:  []types.BaseSpec{{Expr: types.ParseTypeExpr("Storage<T, Alloc>")}},
	})

	inst, err := tr.Instantiate(id, texprs("int"))
	require.NoError(t, err)
	require.Len(t, inst.Bases, 1)
	assert.Equal(t, "Storage<int, std::allocator<int>>", inst.Bases[0].Expr.String())
}

func TestInstantiateMissingArgument(t *testing.T) {
	a := arena.New()
	tr := NewTracker(a)
	id := a.Declare(types.ParseQualifiedName("Pair"), types.KindTemplate, true, loc(1), 0)
	tr.Define(&types.TemplateDefinition{
		Symbol: id,
		Name:   types.ParseQualifiedName("Pair"),
		Params: params("T", "U"),
	})

	_, err := tr.Instantiate(id, texprs("int"))
	require.Error(t, err)
}

func TestInstantiateParameterPack(t *testing.T) {
	a := arena.New()
	tr := NewTracker(a)
	id := a.Declare(types.ParseQualifiedName("Tuple"), types.KindTemplate, true, loc(1), 0)
	tr.Define(&types.TemplateDefinition{
		Symbol: id,
		Name:   types.ParseQualifiedName("Tuple"),
		Params: []types.TemplateParam{{Name: "Head"}, {Name: "Rest", IsPack: true}},
		Bases:  []types.BaseSpec{{Expr: types.ParseTypeExpr("Tuple<Rest...>")}},
	})

	inst, err := tr.Instantiate(id, texprs("int", "double", "char"))
	require.NoError(t, err)
	require.Len(t, inst.Bases, 1)
	assert.Equal(t, "Tuple<double, char>", inst.Bases[0].Expr.String())

	// An empty pack is allowed.
	empty, err := tr.Instantiate(id, texprs("int"))
	require.NoError(t, err)
	require.Len(t, empty.Bases, 1)
	assert.Equal(t, "Tuple<>", empty.Bases[0].Expr.String())
}

func TestInstantiateUnknownTemplate(t *testing.T) {
	tr := NewTracker(arena.New())
	_, err := tr.Instantiate(types.SymbolID(99), texprs("int"))
	require.Error(t, err)
	assert.Equal(t, cpperrors.KindUnresolvedReference, cpperrors.KindOf(err))
}

func TestLookupName(t *testing.T) {
	tr, id := newPairTracker(t)
	got, ok := tr.LookupName("Pair")
	require.True(t, ok)
	assert.Equal(t, id, got)
	_, ok = tr.LookupName("Missing")
	assert.False(t, ok)
}

func TestMaterializedSymbolName(t *testing.T) {
	tr, id := newPairTracker(t)
	inst, err := tr.Instantiate(id, texprs("int", "double"))
	require.NoError(t, err)
	sym := arenaOf(tr).Get(inst.Symbol)
	require.NotNil(t, sym)
	assert.Equal(t, "Pair<int, double>", sym.DisplayName())
}

func arenaOf(tr *Tracker) *arena.Arena { return tr.arena }
