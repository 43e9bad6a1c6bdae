package doc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreymedv/clang-index-mcp/internal/types"
)

func normalize(raw string) *types.DocComment {
	return NewNormalizer(0).Normalize(raw, types.Location{File: "doc.h", Line: 1})
}

func TestStyleDetection(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want types.DocStyle
	}{
		{"javadoc", "/** Computes the area. */", types.DocJavadoc},
		{"qt bang", "/*! Computes the area. */", types.DocQtBang},
		{"doxygen block", "/* Computes the area. */", types.DocDoxygenBlock},
		{"doxygen line", "/// Computes the area.", types.DocDoxygenLine},
		{"bang line", "//! Computes the area.", types.DocDoxygenLine},
		{"qt backslash", "/** \\brief Computes the area. */", types.DocQtBackslash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.raw).Style)
		})
	}
}

func TestTagExtraction(t *testing.T) {
	raw := `/**
 * @brief Computes the area of a shape.
 * @param shape the shape to measure
 * @param unit  measurement unit
 * @return the area in the given unit
 * @see perimeter
 * @note Not thread safe.
 */`
	d := normalize(raw)
	assert.Equal(t, "Computes the area of a shape.", d.Brief)
	require.Len(t, d.Params, 2)
	assert.Equal(t, "shape", d.Params[0].Name)
	assert.Equal(t, "the shape to measure", d.Params[0].Text)
	assert.Equal(t, "unit", d.Params[1].Name)
	assert.Equal(t, "the area in the given unit", d.Return)
	assert.Equal(t, []string{"perimeter"}, d.See)
	assert.Equal(t, []string{"Not thread safe."}, d.Notes)
}

func TestBackslashTags(t *testing.T) {
	raw := `/**
 * \brief Opens the device.
 * \param path device node path
 * \return file descriptor
 */`
	d := normalize(raw)
	assert.Equal(t, types.DocQtBackslash, d.Style)
	assert.Equal(t, "Opens the device.", d.Brief)
	require.Len(t, d.Params, 1)
	assert.Equal(t, "path", d.Params[0].Name)
	assert.Equal(t, "file descriptor", d.Return)
}

func TestBriefFallsBackToFirstLine(t *testing.T) {
	d := normalize("/// Reads one frame.\n/// Blocks until data arrives.")
	assert.Equal(t, "Reads one frame.", d.Brief)
	assert.Equal(t, "Reads one frame.\nBlocks until data arrives.", d.Text)
}

func TestTruncationBoundary(t *testing.T) {
	n := NewNormalizer(20)

	exact := strings.Repeat("a", 20)
	d := n.Normalize("/// "+exact, types.Location{})
	assert.False(t, d.Truncated, "text of exactly the limit is stored unmodified")
	assert.Equal(t, exact, d.Text)

	over := strings.Repeat("a", 21)
	d = n.Normalize("/// "+over, types.Location{})
	assert.True(t, d.Truncated)
	assert.Equal(t, exact+types.DocTruncationMarker, d.Text)
}

func TestBodyBytesPreserved(t *testing.T) {
	d := normalize("/// Keeps  double  spaces and <tags> & symbols.")
	assert.Equal(t, "Keeps  double  spaces and <tags> & symbols.", d.Text)
}

func TestRawIsKept(t *testing.T) {
	raw := "/** whole */"
	assert.Equal(t, raw, normalize(raw).Raw)
}
