package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQualifiedName(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Widget", []string{"Widget"}},
		{"ns::Widget", []string{"ns", "Widget"}},
		{"::ns::Widget", []string{"ns", "Widget"}},
		{"a::b::c", []string{"a", "b", "c"}},
		{"Map<std::string, int>", []string{"Map<std::string, int>"}},
		{"ns::Map<a::b, c>::iterator", []string{"ns", "Map<a::b, c>", "iterator"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, QualifiedName(tt.want), ParseQualifiedName(tt.input), "input %q", tt.input)
	}
}

func TestQualifiedNameChild(t *testing.T) {
	q := QualifiedName{"ns"}
	child := q.Child("Widget")
	assert.Equal(t, "ns::Widget", child.String())
	assert.Equal(t, "Widget", child.Base())
	assert.Equal(t, "ns", child.Parent().String())
	// Child must not alias the parent's backing array.
	other := q.Child("Other")
	assert.Equal(t, "ns::Widget", child.String())
	assert.Equal(t, "ns::Other", other.String())
}

func TestParseTypeExpr_Plain(t *testing.T) {
	e := ParseTypeExpr("ns::Widget")
	assert.Equal(t, []string{"ns", "Widget"}, e.Segments)
	assert.False(t, e.HasArgs)
	assert.False(t, e.IsWrapped())
	assert.Equal(t, "Widget", e.Name())
}

func TestParseTypeExpr_Wrappers(t *testing.T) {
	e := ParseTypeExpr("const Widget*")
	assert.True(t, e.Const)
	assert.Equal(t, 1, e.PtrDepth)
	assert.True(t, e.IsWrapped())
	assert.Equal(t, []string{"Widget"}, e.Segments)

	ref := ParseTypeExpr("Widget&")
	assert.Equal(t, RefLValue, ref.Ref)

	rref := ParseTypeExpr("Widget&&")
	assert.Equal(t, RefRValue, rref.Ref)

	pp := ParseTypeExpr("int**")
	assert.Equal(t, 2, pp.PtrDepth)
}

func TestParseTypeExpr_TemplateArgs(t *testing.T) {
	e := ParseTypeExpr("Map<std::string, Vec<int>>")
	require.True(t, e.HasArgs)
	require.Len(t, e.Args, 2)
	assert.Equal(t, "std::string", e.Args[0].Qualified().String())
	assert.True(t, e.Args[1].HasArgs)
	assert.Equal(t, "Vec", e.Args[1].Name())
}

func TestParseTypeExpr_KeywordPrefixes(t *testing.T) {
	assert.Equal(t, []string{"T", "type"}, ParseTypeExpr("typename T::type").Segments)
	assert.Equal(t, []string{"Widget"}, ParseTypeExpr("struct Widget").Segments)
	assert.Equal(t, []string{"Widget"}, ParseTypeExpr("class Widget").Segments)
}

func TestSubstitute_WholeName(t *testing.T) {
	e := ParseTypeExpr("T*")
	got := e.Substitute(map[string]TypeExpr{"T": ParseTypeExpr("Widget")})
	assert.Equal(t, []string{"Widget"}, got.Segments)
	assert.Equal(t, 1, got.PtrDepth)
}

func TestSubstitute_DependentHead(t *testing.T) {
	e := ParseTypeExpr("Traits::NestedType")
	got := e.Substitute(map[string]TypeExpr{"Traits": ParseTypeExpr("CharTraits")})
	assert.Equal(t, "CharTraits::NestedType", got.Qualified().String())
}

func TestSubstitute_InsideArgs(t *testing.T) {
	e := ParseTypeExpr("Base<T, int>")
	got := e.Substitute(map[string]TypeExpr{"T": ParseTypeExpr("Widget")})
	require.True(t, got.HasArgs)
	assert.Equal(t, "Widget", got.Args[0].Name())
	assert.Equal(t, "int", got.Args[1].Name())
}

func TestSubstitute_PackExpansion(t *testing.T) {
	pack := BindPack([]TypeExpr{ParseTypeExpr("int"), ParseTypeExpr("double")})
	e := ParseTypeExpr("Tuple<Ts...>")
	got := e.Substitute(map[string]TypeExpr{"Ts": pack})
	require.True(t, got.HasArgs)
	require.Len(t, got.Args, 2)
	assert.Equal(t, "int", got.Args[0].Name())
	assert.Equal(t, "double", got.Args[1].Name())
}

func TestTypeExprEqual(t *testing.T) {
	assert.True(t, ParseTypeExpr("ns::X<int>").Equal(ParseTypeExpr("ns::X<int>")))
	assert.False(t, ParseTypeExpr("X<int>").Equal(ParseTypeExpr("X<long>")))
	assert.False(t, ParseTypeExpr("X*").Equal(ParseTypeExpr("X")))
}

func TestParseSymbolKindRoundTrip(t *testing.T) {
	for _, k := range []SymbolKind{KindNamespace, KindClass, KindStruct, KindUnion,
		KindEnum, KindFunction, KindMethod, KindAlias, KindTemplate, KindLambda} {
		assert.Equal(t, k, ParseSymbolKind(k.String()))
	}
	assert.Equal(t, KindVariable, ParseSymbolKind("whatever"))
}
