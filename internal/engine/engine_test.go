package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/andreymedv/clang-index-mcp/internal/config"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func loc(file string, line int) types.Location {
	return types.Location{File: file, Line: line, Column: 1}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.Engine.Workers = 2
	return New(cfg)
}

func run(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Run(context.Background()))
}

// enter/decl helpers keep the event streams readable.
func enter(kind types.SymbolKind, name string, line int) types.Event {
	return types.Event{Kind: types.EventEnterScope, ScopeKind: kind, Name: name, Location: loc("u.cpp", line)}
}

func exit() types.Event {
	return types.Event{Kind: types.EventExitScope}
}

func decl(name string, kind types.SymbolKind, def bool, line int) types.Event {
	return types.Event{Kind: types.EventDeclareSymbol, Name: name, SymbolKind: kind, IsDefinition: def, Location: loc("u.cpp", line)}
}

func base(derived, baseExpr string, access types.Access, virtual bool) types.Event {
	return types.Event{Kind: types.EventDeclareBase, Name: derived, Target: baseExpr, Access: access, Virtual: virtual}
}

func TestQueryBeforeRunFails(t *testing.T) {
	e := newEngine(t)
	_, err := e.GetSymbol("Anything")
	require.Error(t, err)
	_, err = e.Stats()
	require.Error(t, err)
}

func TestForwardDeclarationsCollapse(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("fwd.h", []types.Event{
		decl("Widget", types.KindClass, false, 1),
	})
	e.AddUnit("widget.cpp", []types.Event{
		decl("Widget", types.KindClass, true, 10),
	})
	run(t, e)

	info, err := e.GetSymbol("Widget")
	require.NoError(t, err)
	assert.True(t, info.IsDefinition)

	stats, err := e.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Units)
	assert.Equal(t, 1, stats.Symbols, "declarations of one entity collapse into one symbol")
	assert.Equal(t, 1, stats.Definitions)
}

func TestNamespacedSymbol(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("u.cpp", []types.Event{
		enter(types.KindNamespace, "gfx", 1),
		decl("Widget", types.KindClass, true, 2),
		exit(),
	})
	run(t, e)

	info, err := e.GetSymbol("gfx::Widget")
	require.NoError(t, err)
	assert.Equal(t, "gfx::Widget", info.Name)
	assert.Equal(t, "class", info.Kind)
}

func TestNotFoundSuggestions(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("u.cpp", []types.Event{
		decl("ResolverEngine", types.KindClass, true, 1),
	})
	run(t, e)

	_, err := e.GetSymbol("ReslverEngine")
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Suggestions, "ResolverEngine")
}

func TestCrossUnitBaseResolution(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("base.cpp", []types.Event{
		decl("Base", types.KindClass, true, 1),
	})
	e.AddUnit("derived.cpp", []types.Event{
		decl("Derived", types.KindClass, true, 1),
		base("Derived", "Base", types.AccessPublic, false),
	})
	run(t, e)

	ok, err := e.IsDerivedFrom("Derived", "Base")
	require.NoError(t, err)
	assert.True(t, ok, "a base defined in another unit resolves after the merge")

	derived, err := e.GetDerived("Base")
	require.NoError(t, err)
	assert.Equal(t, []string{"Derived"}, derived)
}

func TestCrossUnitInheritanceCycleFrozen(t *testing.T) {
	e := newEngine(t)
	// Each unit sees only its half of the cycle: the other class is a
	// forward declaration there, so both edges resolve locally and the
	// cycle closes only in the merged graph.
	e.AddUnit("a.cpp", []types.Event{
		decl("B", types.KindClass, false, 1),
		decl("A", types.KindClass, true, 2),
		base("A", "B", types.AccessPublic, false),
	})
	e.AddUnit("b.cpp", []types.Event{
		decl("A", types.KindClass, false, 1),
		decl("B", types.KindClass, true, 2),
		base("B", "A", types.AccessPublic, false),
	})
	run(t, e)

	ancA, err := e.GetAncestors("A")
	require.NoError(t, err)
	for _, a := range ancA {
		assert.NotEqual(t, "A", a.Name, "a class is never its own ancestor")
	}
	ancB, err := e.GetAncestors("B")
	require.NoError(t, err)
	for _, a := range ancB {
		assert.NotEqual(t, "B", a.Name)
	}

	aDerivesB, err := e.IsDerivedFrom("A", "B")
	require.NoError(t, err)
	bDerivesA, err := e.IsDerivedFrom("B", "A")
	require.NoError(t, err)
	assert.False(t, aDerivesB && bDerivesA, "the closing edge is frozen, not kept")

	stats, err := e.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ErrorsByKind["cyclic_inheritance"], "one error per frozen edge")
}

func TestSharedHeaderTemplateCountedOnce(t *testing.T) {
	// Both units replay the same header: one template definition and the
	// same instantiation reached from each unit.
	header := func() []types.Event {
		return []types.Event{
			decl("Storage", types.KindClass, true, 1),
			{
				Kind: types.EventDeclareTemplate, Name: "Vec", IsDefinition: true,
				TemplateParams: []types.TemplateParam{{Name: "T"}},
				Bases:          []types.BaseSpec{{Expr: types.ParseTypeExpr("Storage")}},
				Location:       loc("u.cpp", 2),
			},
		}
	}
	e := newEngine(t)
	e.AddUnit("one.cpp", append(header(),
		decl("UserOne", types.KindClass, true, 10),
		base("UserOne", "Vec<int>", types.AccessPublic, false),
	))
	e.AddUnit("two.cpp", append(header(),
		decl("UserTwo", types.KindClass, true, 10),
		base("UserTwo", "Vec<int>", types.AccessPublic, false),
	))
	run(t, e)

	stats, err := e.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Templates, "a template from a shared header counts once")
	assert.Equal(t, 1, stats.Instantiations, "the same instantiation in two units counts once")
}

func TestBasesOfForwardDeclarationIgnored(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("u.cpp", []types.Event{
		decl("Base", types.KindClass, true, 1),
		decl("Derived", types.KindClass, false, 2),
		base("Derived", "Base", types.AccessPublic, false),
	})
	run(t, e)

	anc, err := e.GetAncestors("Derived")
	require.NoError(t, err)
	assert.Empty(t, anc, "only a definition contributes base edges")
}

func TestDiamondAncestors(t *testing.T) {
	events := func(virtual bool) []types.Event {
		return []types.Event{
			decl("Top", types.KindClass, true, 1),
			decl("Left", types.KindClass, true, 2),
			base("Left", "Top", types.AccessPublic, virtual),
			decl("Right", types.KindClass, true, 3),
			base("Right", "Top", types.AccessPublic, virtual),
			decl("Bottom", types.KindClass, true, 4),
			base("Bottom", "Left", types.AccessPublic, false),
			base("Bottom", "Right", types.AccessPublic, false),
		}
	}

	t.Run("non-virtual top appears twice", func(t *testing.T) {
		e := newEngine(t)
		e.AddUnit("u.cpp", events(false))
		run(t, e)

		anc, err := e.GetAncestors("Bottom")
		require.NoError(t, err)
		var tops []AncestorInfo
		for _, a := range anc {
			if a.Name == "Top" {
				tops = append(tops, a)
			}
		}
		require.Len(t, tops, 2)
		for _, top := range tops {
			assert.True(t, top.AmbiguousAccess)
		}
	})

	t.Run("virtual top appears once", func(t *testing.T) {
		e := newEngine(t)
		e.AddUnit("u.cpp", events(true))
		run(t, e)

		anc, err := e.GetAncestors("Bottom")
		require.NoError(t, err)
		tops := 0
		for _, a := range anc {
			if a.Name == "Top" {
				tops++
				assert.False(t, a.AmbiguousAccess)
			}
		}
		assert.Equal(t, 1, tops)
	})
}

func TestTemplateParameterShadowsClass(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("u.cpp", []types.Event{
		// A concrete class T, then a template whose parameter shadows it.
		decl("T", types.KindClass, true, 1),
		decl("Real", types.KindClass, true, 2),
		{
			Kind: types.EventDeclareTemplate, Name: "Holder", IsDefinition: true,
			TemplateParams: []types.TemplateParam{{Name: "T"}},
			Bases:          []types.BaseSpec{{Expr: types.ParseTypeExpr("T")}},
			Location:       loc("u.cpp", 3),
		},
		enter(types.KindClass, "Holder", 3),
		exit(),
		// Instantiating binds T to Real; the class named T plays no part.
		decl("User", types.KindClass, true, 8),
		base("User", "Holder<Real>", types.AccessPublic, false),
	})
	run(t, e)

	ok, err := e.IsDerivedFrom("User", "Real")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.IsDerivedFrom("User", "T")
	require.NoError(t, err)
	assert.False(t, ok, "the dependent base resolves through the argument, not the shadowed class")
}

func TestTemplatePartialSpecializationSelection(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("u.cpp", []types.Event{
		decl("GenericStore", types.KindClass, true, 1),
		decl("PtrStore", types.KindClass, true, 2),
		{
			Kind: types.EventDeclareTemplate, Name: "Box", IsDefinition: true,
			TemplateParams: []types.TemplateParam{{Name: "T"}},
			Bases:          []types.BaseSpec{{Expr: types.ParseTypeExpr("GenericStore")}},
			Location:       loc("u.cpp", 3),
		},
		{
			Kind: types.EventDeclareTemplate, Name: "Box", IsDefinition: true,
			Specializations: []types.Specialization{{
				Pattern: []types.TypeExpr{types.ParseTypeExpr("T*")},
				Params:  []types.TemplateParam{{Name: "T"}},
				Bases:   []types.BaseSpec{{Expr: types.ParseTypeExpr("PtrStore")}},
			}},
			Location: loc("u.cpp", 8),
		},
		decl("A", types.KindClass, true, 12),
		base("A", "Box<int>", types.AccessPublic, false),
		decl("B", types.KindClass, true, 13),
		base("B", "Box<int*>", types.AccessPublic, false),
	})
	run(t, e)

	ok, err := e.IsDerivedFrom("A", "GenericStore")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.IsDerivedFrom("B", "PtrStore")
	require.NoError(t, err)
	assert.True(t, ok, "the pointer argument selects the partial specialization")
	ok, err = e.IsDerivedFrom("B", "GenericStore")
	require.NoError(t, err)
	assert.False(t, ok, "the specialization's base list is never unioned with the primary's")
}

func TestMalformedRegionTruncatesScope(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("u.cpp", []types.Event{
		enter(types.KindNamespace, "ns", 1),
		decl("Before", types.KindClass, true, 2),
		{Kind: types.EventMalformedRegion, RecoveredUpTo: 300, Location: loc("u.cpp", 3)},
		decl("Dropped", types.KindClass, true, 4),
		enter(types.KindClass, "AlsoDropped", 5),
		decl("Nested", types.KindClass, true, 6),
		exit(), // closes AlsoDropped, still inside the dropped region
		exit(), // closes ns; ingestion resumes
		decl("After", types.KindClass, true, 10),
	})
	run(t, e)

	_, err := e.GetSymbol("ns::Before")
	assert.NoError(t, err, "everything before the boundary is kept")
	_, err = e.GetSymbol("After")
	assert.NoError(t, err, "ingestion resumes after the truncated scope closes")
	_, err = e.GetSymbol("ns::Dropped")
	assert.Error(t, err)
	_, err = e.GetSymbol("ns::AlsoDropped")
	assert.Error(t, err)

	stats, err := e.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ErrorsByKind["malformed_input"])
}

func TestCallSites(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("u.cpp", []types.Event{
		decl("process", types.KindFunction, true, 1),
		decl("run", types.KindFunction, true, 2),
		decl("fp", types.KindVariable, true, 3),
		{Kind: types.EventAssignFunction, Name: "fp", Target: "process"},
		{Kind: types.EventCallExpression, Name: "run", Target: "fp", Location: loc("u.cpp", 4)},
		{Kind: types.EventCallExpression, Name: "run", Target: "process", Location: loc("u.cpp", 5)},
	})
	run(t, e)

	incoming, outgoing, err := e.GetCallSites("process")
	require.NoError(t, err)
	assert.Len(t, incoming, 2, "the pointer call and the direct call both reach process; the assignment is not a site")
	assert.Empty(t, outgoing)

	_, outgoing, err = e.GetCallSites("run")
	require.NoError(t, err)
	require.Len(t, outgoing, 2)
	assert.Equal(t, "through-function-pointer", outgoing[0].Kind)
	assert.Equal(t, "direct", outgoing[1].Kind)

	stats, err := e.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CallSites)
}

func TestDocumentationAttachAndSearch(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("u.cpp", []types.Event{
		decl("Widget", types.KindClass, true, 1),
		{Kind: types.EventAttachComment, Name: "Widget",
			Target: "/// Draws rectangles on the screen.", Location: loc("u.cpp", 1)},
		decl("Gadget", types.KindClass, true, 5),
	})
	run(t, e)

	d, err := e.GetDocumentation("Widget")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Draws rectangles on the screen.", d.Brief)

	none, err := e.GetDocumentation("Gadget")
	require.NoError(t, err)
	assert.Nil(t, none, "a symbol without documentation returns nil, not an error")

	// Stemming: "drawing rectangle" matches "Draws rectangles".
	hits, err := e.SearchDocumentation("drawing rectangle", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Widget", hits[0].Symbol)
	assert.Equal(t, 2, hits[0].Matched)
	assert.Equal(t, 2, hits[0].Total)
}

func TestResolveAlias(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("u.cpp", []types.Event{
		decl("Widget", types.KindClass, true, 1),
		{Kind: types.EventDeclareAlias, Name: "Handle", Target: "Widget*", Location: loc("u.cpp", 2)},
	})
	run(t, e)

	res, err := e.ResolveAlias("Handle")
	require.NoError(t, err)
	assert.Equal(t, "resolved", res.Status)
	assert.Equal(t, "Widget", res.Target)
	assert.Equal(t, 1, res.PtrDepth)

	_, err = e.ResolveAlias("NoSuchAlias")
	require.Error(t, err)
}

func TestCyclicAliasReported(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("u.cpp", []types.Event{
		{Kind: types.EventDeclareAlias, Name: "A", Target: "B"},
		{Kind: types.EventDeclareAlias, Name: "B", Target: "A"},
	})
	run(t, e)

	res, err := e.ResolveAlias("A")
	require.NoError(t, err)
	assert.Equal(t, "cycle", res.Status)
}

func TestOverriders(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("u.cpp", []types.Event{
		decl("Shape", types.KindClass, true, 1),
		enter(types.KindClass, "Shape", 1),
		decl("area", types.KindMethod, true, 2),
		exit(),
		decl("Circle", types.KindClass, true, 5),
		base("Circle", "Shape", types.AccessPublic, false),
		enter(types.KindClass, "Circle", 5),
		decl("area", types.KindMethod, true, 6),
		exit(),
		decl("Square", types.KindClass, true, 9),
		base("Square", "Shape", types.AccessPublic, false),
	})
	run(t, e)

	names, err := e.GetOverriders("Shape", "area")
	require.NoError(t, err)
	assert.Equal(t, []string{"Circle::area"}, names,
		"Square inherits area without overriding it")
}

func TestRebuildDiscardsRemovedUnit(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("a.cpp", []types.Event{decl("A", types.KindClass, true, 1)})
	e.AddUnit("b.cpp", []types.Event{decl("B", types.KindClass, true, 1)})
	run(t, e)

	_, err := e.GetSymbol("B")
	require.NoError(t, err)

	e.RemoveUnit("b.cpp")
	require.NoError(t, e.Rebuild(context.Background()))

	_, err = e.GetSymbol("B")
	assert.Error(t, err, "a removed unit's contribution disappears with the rebuild")
	_, err = e.GetSymbol("A")
	assert.NoError(t, err)
	assert.Equal(t, 1, e.UnitCount())
}

func TestReplacedUnitDropsOldSymbols(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("a.cpp", []types.Event{decl("OldName", types.KindClass, true, 1)})
	run(t, e)

	e.AddUnit("a.cpp", []types.Event{decl("NewName", types.KindClass, true, 1)})
	require.NoError(t, e.Rebuild(context.Background()))

	_, err := e.GetSymbol("OldName")
	assert.Error(t, err)
	_, err = e.GetSymbol("NewName")
	assert.NoError(t, err)
}

func TestAnonymousNamespaceIsolation(t *testing.T) {
	e := newEngine(t)
	// Both units define a helper in their anonymous namespace; the symbols
	// stay distinct after the merge.
	unit := []types.Event{
		enter(types.KindNamespace, "", 1),
		decl("helper", types.KindFunction, true, 2),
		exit(),
	}
	e.AddUnit("a.cpp", unit)
	e.AddUnit("b.cpp", unit)
	run(t, e)

	stats, err := e.Stats()
	require.NoError(t, err)
	// Two anonymous namespace scopes plus two helpers.
	assert.Equal(t, 4, stats.Symbols)
}

func TestRunRespectsCancelledContext(t *testing.T) {
	e := newEngine(t)
	e.AddUnit("a.cpp", []types.Event{decl("A", types.KindClass, true, 1)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, e.Run(ctx))
}
